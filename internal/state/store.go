package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/mantium"
)

// Snapshot represents the latest collection available to the UI.
type Snapshot struct {
	Entries             []library.Entry
	HasCollection       bool
	BackgroundError     mantium.BackgroundError
	LastSynced          time.Time // last successful collection pull
	LastUpdated         time.Time // last Update or Touch, successful or not
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update replaces the stored collection. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(entries []library.Entry, bgErr mantium.BackgroundError, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.snapshot.LastUpdated = now
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Entries = cloneEntries(entries)
	s.snapshot.HasCollection = true
	s.snapshot.BackgroundError = bgErr
	s.snapshot.LastSynced = now
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Touch records a successful poll that did not need a new collection.
func (s *Store) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.clock()
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Fail records a failed poll and keeps the previous data.
func (s *Store) Fail(err error) {
	if err == nil {
		return
	}
	s.Update(nil, mantium.BackgroundError{}, err)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = cloneEntries(s.snapshot.Entries)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func cloneEntries(entries []library.Entry) []library.Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]library.Entry, len(entries))
	copy(dup, entries)
	for i := range dup {
		dup[i].SearchNames = append([]string(nil), entries[i].SearchNames...)
	}
	return dup
}
