package app

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/mantium"
	"github.com/five82/mantle/internal/state"
	"github.com/five82/mantle/internal/syncloop"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// CollectionSource is the part of the backend the poller pulls from.
type CollectionSource interface {
	GetCollection(ctx context.Context) ([]library.Entry, error)
	GetLastBackgroundError(ctx context.Context) (mantium.BackgroundError, error)
}

// Poller drives the sync loop and keeps the store's collection current.
type Poller struct {
	loop     *syncloop.Loop
	source   CollectionSource
	store    *state.Store
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	pending bool // a change was seen but the pull failed
}

// NewPoller builds a Poller. A non-positive interval uses the default.
func NewPoller(loop *syncloop.Loop, source CollectionSource, store *state.Store, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Poller{loop: loop, source: source, store: store, interval: interval, logger: logger}
}

// Start launches a background goroutine that polls at a fixed cadence,
// backing off while the backend is unreachable. It returns immediately.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(p.interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			p.Poll(ctx)
			timer.Reset(calculateBackoff(p.loop.Failures(), p.interval))
		}
	}()
}

// Poll runs one sync tick and reports whether a new collection was stored.
func (p *Poller) Poll(ctx context.Context) bool {
	changed := p.loop.Tick(ctx)
	if err := p.loop.LastError(); err != nil {
		p.store.Fail(err)
		return false
	}

	p.mu.Lock()
	retry := p.pending
	p.mu.Unlock()

	if !changed && !retry {
		p.store.Touch()
		return false
	}
	return p.Refresh(ctx) == nil
}

// Refresh pulls the collection unconditionally.
func (p *Poller) Refresh(ctx context.Context) error {
	err := refresh(ctx, p.store, p.source, p.logger)
	p.mu.Lock()
	p.pending = err != nil
	p.mu.Unlock()
	return err
}

func refresh(ctx context.Context, store *state.Store, source CollectionSource, logger *log.Logger) error {
	entries, err := source.GetCollection(ctx)
	if err != nil {
		store.Fail(err)
		logger.Printf("collection poll failed: %v", err)
		return err
	}
	bgErr, err := source.GetLastBackgroundError(ctx)
	if err != nil {
		// The collection is still good; only the banner goes stale.
		logger.Printf("background error poll failed: %v", err)
		bgErr = store.Snapshot().BackgroundError
	}
	store.Update(entries, bgErr, nil)
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. Intervals already longer than the cap are left alone.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
