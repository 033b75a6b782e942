package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/mantle/internal/library"
	"github.com/five82/mantle/internal/mantium"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	entries := []library.Entry{
		{ID: 1, Name: "Alpha", SearchNames: []string{"Alpha"}},
		{ID: 2, Name: "Beta", SearchNames: []string{"Beta"}},
	}

	before := time.Now()
	s.Update(entries, mantium.BackgroundError{Message: "mangadex: 503"}, nil)

	snap := s.Snapshot()
	if !snap.HasCollection || len(snap.Entries) != 2 || snap.Entries[0].ID != 1 {
		t.Fatalf("snapshot entries = %#v, want 2 entries", snap.Entries)
	}
	if snap.BackgroundError.Message != "mangadex: 503" {
		t.Fatalf("BackgroundError = %#v, want mangadex: 503", snap.BackgroundError)
	}
	if snap.LastUpdated.Before(before) || snap.LastSynced.Before(before) {
		t.Fatalf("LastUpdated/LastSynced = %v/%v, want >= %v", snap.LastUpdated, snap.LastSynced, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Entries[0].ID = 999
	snap.Entries[1].SearchNames[0] = "changed"
	entries[0].Name = "mutated by caller"
	snap2 := s.Snapshot()
	if snap2.Entries[0].ID != 1 || snap2.Entries[0].Name != "Alpha" {
		t.Fatalf("Snapshot should clone entries; got %#v", snap2.Entries[0])
	}
	if snap2.Entries[1].SearchNames[0] != "Beta" {
		t.Fatalf("Snapshot should clone search names; got %v", snap2.Entries[1].SearchNames)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]library.Entry{{ID: 1, Name: "Alpha"}}, mantium.BackgroundError{}, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Fail(origErr)

	snap := s.Snapshot()
	if len(snap.Entries) != 1 || snap.Entries[0].ID != 1 {
		t.Fatalf("entries changed on error: got %#v want %#v", snap.Entries, prev.Entries)
	}
	if !snap.LastSynced.Equal(prev.LastSynced) {
		t.Fatalf("LastSynced moved on error: got %v want %v", snap.LastSynced, prev.LastSynced)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("cloned error should still wrap the original")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("zero store = %d failures offline=%v, want 0/false", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Fail(errors.New("fail 1"))
	if snap = s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure = %d offline=%v, want 1/false", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Fail(errors.New("fail 2"))
	if snap = s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures = %d offline=%v, want 2/true", snap.ConsecutiveFailures, snap.IsOffline())
	}

	// A successful poll without a collection change also resets the counter.
	s.Touch()
	if snap = s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.LastError != nil {
		t.Fatalf("after Touch = %d offline=%v err=%v, want 0/false/nil", snap.ConsecutiveFailures, snap.IsOffline(), snap.LastError)
	}
	if snap.HasCollection {
		t.Fatal("Touch must not claim a collection was loaded")
	}
}

func TestStore_FailIgnoresNil(t *testing.T) {
	var s Store
	s.Fail(nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || !snap.LastUpdated.IsZero() {
		t.Fatalf("Fail(nil) changed the snapshot: %#v", snap)
	}
}

func TestStore_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Store{now: func() time.Time { return fixed }}
	s.Update(nil, mantium.BackgroundError{}, nil)
	if snap := s.Snapshot(); !snap.LastSynced.Equal(fixed) || !snap.HasCollection || snap.Entries != nil {
		t.Fatalf("snapshot = %#v, want synced at %v with an empty collection", snap, fixed)
	}
}
