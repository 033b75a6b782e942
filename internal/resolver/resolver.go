package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/five82/mantle/internal/cache"
	"github.com/five82/mantle/internal/library"
)

// ChapterFetcher loads the chapter list of one sub-record.
type ChapterFetcher interface {
	FetchChapters(ctx context.Context, record library.SubRecord) ([]library.Chapter, error)
}

// Promoter asks the backend to make a sub-record the composite's current one.
// The returned record is the one the backend chose.
type Promoter interface {
	PromoteSubRecord(ctx context.Context, composite *library.Composite, subID int) (library.SubRecord, error)
}

// Result describes a finished resolution pass.
type Result struct {
	Record   library.SubRecord
	Chapters []library.Chapter
	FellBack bool  // Record is not the composite's original current record
	Tried    []int // ids that failed, in the order they were tried
}

// Resolver picks a working sub-record for composite entries.
type Resolver struct {
	fetcher  ChapterFetcher
	promoter Promoter
	cache    *cache.Cache
	logger   *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache routes chapter fetches through c.
func WithCache(c *cache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New builds a Resolver.
func New(fetcher ChapterFetcher, promoter Promoter, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		promoter: promoter,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCurrent returns the composite's current sub-record when its chapters
// can be fetched, otherwise the first other sub-record that works.
func (r *Resolver) ResolveCurrent(ctx context.Context, composite *library.Composite) (library.SubRecord, error) {
	res, err := r.Resolve(ctx, composite)
	if err != nil {
		return library.SubRecord{}, err
	}
	return res.Record, nil
}

// Resolve runs one resolution pass and returns the chosen record with its
// chapters.
func (r *Resolver) Resolve(ctx context.Context, composite *library.Composite) (Result, error) {
	return r.ResolveExcluding(ctx, composite, nil)
}

// ResolveExcluding runs a pass that never tries the ids in tried. The
// current record is still tried first unless excluded. Each candidate is
// tried at most once, sequentially, so the pass always terminates.
//
// On exhaustion the returned Result carries an empty chapter list and the
// error is an *library.AllSourcesExhaustedError. Context errors are
// returned as is.
func (r *Resolver) ResolveExcluding(ctx context.Context, composite *library.Composite, tried []int) (Result, error) {
	if composite == nil {
		return Result{}, errors.New("resolve: composite is nil")
	}

	res := Result{Chapters: []library.Chapter{}}
	skip := make(map[int]struct{}, composite.Len())
	for _, id := range tried {
		skip[id] = struct{}{}
	}
	var failures []error

	current := composite.Current()
	if _, excluded := skip[current.ID]; !excluded {
		chapters, err := r.fetch(ctx, current)
		if err == nil {
			res.Record = current
			res.Chapters = chapters
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		r.logger.Printf("composite %d: current record %d (%s) failed: %v", composite.ID, current.ID, current.Source, err)
		skip[current.ID] = struct{}{}
		res.Tried = append(res.Tried, current.ID)
		failures = append(failures, err)
	}

	for _, candidate := range composite.Records() {
		if _, done := skip[candidate.ID]; done {
			continue
		}
		skip[candidate.ID] = struct{}{}

		chapters, promoted, err := r.try(ctx, composite, candidate)
		if err == nil {
			err = adopt(composite, promoted)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			r.logger.Printf("composite %d: fallback record %d (%s) failed: %v", composite.ID, candidate.ID, candidate.Source, err)
			res.Tried = append(res.Tried, candidate.ID)
			failures = append(failures, err)
			continue
		}

		r.logger.Printf("composite %d: switched current record to %d (%s)", composite.ID, promoted.ID, promoted.Source)
		res.Record = promoted
		res.Chapters = chapters
		res.FellBack = true
		return res, nil
	}

	return res, &library.AllSourcesExhaustedError{
		CompositeID: composite.ID,
		Tried:       slices.Clone(res.Tried),
		Err:         errors.Join(failures...),
	}
}

// Chapters loads one record's chapters through the cache, without
// fallback. Plain entries are read this way.
func (r *Resolver) Chapters(ctx context.Context, record library.SubRecord) ([]library.Chapter, error) {
	return r.fetch(ctx, record)
}

// CompositeLoader loads a composite with all of its sub-records.
type CompositeLoader interface {
	GetCompositeEntry(ctx context.Context, id int) (*library.Composite, error)
}

// ResolveEntry loads the chapters of a collection entry. Composite entries
// are resolved with fallback, plain entries are read from their own source
// and custom entries have no chapters.
func (r *Resolver) ResolveEntry(ctx context.Context, loader CompositeLoader, entry library.Entry) (Result, error) {
	res := Result{Record: entry.Record(), Chapters: []library.Chapter{}}
	if entry.IsCustom() {
		return res, nil
	}
	if !entry.IsComposite() {
		chapters, err := r.Chapters(ctx, res.Record)
		if err != nil {
			return res, err
		}
		res.Chapters = chapters
		return res, nil
	}
	if loader == nil {
		return res, fmt.Errorf("entry %d: no composite loader", entry.ID)
	}
	composite, err := loader.GetCompositeEntry(ctx, entry.CompositeID)
	if err != nil {
		return res, fmt.Errorf("load composite %d: %w", entry.CompositeID, err)
	}
	return r.Resolve(ctx, composite)
}

// try promotes candidate and fetches its chapters. The backend must answer
// with the candidate itself; any other record fails the candidate.
func (r *Resolver) try(ctx context.Context, composite *library.Composite, candidate library.SubRecord) ([]library.Chapter, library.SubRecord, error) {
	promoted, err := r.promoter.PromoteSubRecord(ctx, composite, candidate.ID)
	if err != nil {
		return nil, library.SubRecord{}, fmt.Errorf("promote record %d: %w", candidate.ID, err)
	}
	switch promoted.ID {
	case 0:
		promoted = candidate
	case candidate.ID:
	default:
		return nil, library.SubRecord{}, fmt.Errorf("promote record %d: backend chose record %d", candidate.ID, promoted.ID)
	}
	chapters, err := r.fetch(ctx, promoted)
	if err != nil {
		return nil, library.SubRecord{}, err
	}
	return chapters, promoted, nil
}

// adopt mirrors a successful promotion on the local composite.
func adopt(composite *library.Composite, promoted library.SubRecord) error {
	if err := composite.Replace(promoted); err != nil {
		return fmt.Errorf("adopt record %d: %w", promoted.ID, err)
	}
	if err := composite.SetCurrent(promoted.ID); err != nil {
		return fmt.Errorf("adopt record %d: %w", promoted.ID, err)
	}
	return nil
}

func (r *Resolver) fetch(ctx context.Context, record library.SubRecord) ([]library.Chapter, error) {
	if r.cache == nil {
		return r.fetcher.FetchChapters(ctx, record)
	}
	key := cache.Key{EntryID: record.ID, URL: record.URL, InternalID: record.InternalID}
	return r.cache.GetChapters(ctx, key, func(ctx context.Context) ([]library.Chapter, error) {
		return r.fetcher.FetchChapters(ctx, record)
	})
}
