package syncloop

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/five82/mantle/internal/library"
)

const defaultTimeout = 2 * time.Second

// TokenSource returns the backend's current change token.
type TokenSource interface {
	GetChangeToken(ctx context.Context) (string, error)
}

// Phase is the loop's state machine position.
type Phase int

const (
	Idle Phase = iota
	Suspended
)

func (p Phase) String() string {
	if p == Suspended {
		return "suspended"
	}
	return "idle"
}

// State is the loop's process-wide sync state.
type State struct {
	LastKnownToken string
	Suspended      bool
}

// Options configure a Loop.
type Options struct {
	InitialToken string
	Timeout      time.Duration // bound on each token request; zero uses 2s
	Logger       *log.Logger
}

// Loop compares the backend's change token with the last one seen and
// reports when the collection should be pulled again. It is safe for
// concurrent use.
type Loop struct {
	source  TokenSource
	timeout time.Duration
	logger  *log.Logger

	mu       sync.Mutex
	state    State
	failures int
	lastErr  error
}

// New builds a Loop in the Idle phase.
func New(source TokenSource, opts Options) *Loop {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Loop{
		source:  source,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		state:   State{LastKnownToken: opts.InitialToken},
	}
}

// Tick polls the change token once. It returns true when the token changed
// while Idle; the caller should then re-pull and re-render the collection.
// A changed token seen while Suspended is left unrecorded so a later tick
// reports it. A loop that was never primed treats any token as a change.
// Errors and timeouts count as "no change".
func (l *Loop) Tick(ctx context.Context) bool {
	token, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		l.failures++
		l.lastErr = err
		l.logger.Printf("change token poll failed (%d in a row): %v", l.failures, err)
		return false
	}
	l.failures = 0
	l.lastErr = nil

	if token == l.state.LastKnownToken || l.state.Suspended {
		return false
	}
	l.state.LastKnownToken = token
	return true
}

// Prime fetches the token and records it without signalling a refresh.
func (l *Loop) Prime(ctx context.Context) error {
	token, err := l.fetch(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.LastKnownToken = token
	return nil
}

// SetSuspended moves the loop between Idle and Suspended.
func (l *Loop) SetSuspended(suspended bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Suspended = suspended
}

// OpenDialog suspends refreshes while the user interacts with a dialog.
func (l *Loop) OpenDialog() { l.SetSuspended(true) }

// CloseDialog resumes refreshes.
func (l *Loop) CloseDialog() { l.SetSuspended(false) }

// BeginRender marks the start of a top-level render and unconditionally
// returns the loop to Idle, so an abandoned dialog cannot stop refreshes
// for good.
func (l *Loop) BeginRender() { l.SetSuspended(false) }

// State returns a copy of the sync state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Phase returns the current phase.
func (l *Loop) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Suspended {
		return Suspended
	}
	return Idle
}

// Failures returns the number of consecutive failed polls.
func (l *Loop) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}

// LastError returns the error of the most recent poll, if it failed.
func (l *Loop) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Loop) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	token, err := l.source.GetChangeToken(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, library.ErrTimeout) {
			return "", &library.TimeoutError{Op: "change token poll", Err: err}
		}
		return "", err
	}
	return token, nil
}
