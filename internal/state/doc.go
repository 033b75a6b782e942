// Package state provides thread-safe state management for mantle.
//
// # Overview
//
// The Store shares the latest collection between the background poller and
// the UI. The poller writes after each sync tick; the UI reads a Snapshot on
// every render.
//
//	Producer (Poller):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ loop.Tick()      │           │                  │
//	│ GetCollection()  │           │                  │
//	│      ↓           │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	│ store.Touch()    │  (mutex)  │      ↓           │
//	│ store.Fail()     │           │  filter, sort,   │
//	│      ↓           │           │  render          │
//	│  repeat...       │           │                  │
//	└──────────────────┘           └──────────────────┘
//
// # Update Semantics
//
// Update with a nil error replaces the collection and resets the failure
// counter. Update with an error (or Fail) keeps the previous collection and
// records the error, so the UI keeps showing the last good data. Touch marks
// a successful poll whose change token did not move.
//
// IsOffline reports two or more consecutive failures.
//
// # Copying
//
// Snapshot clones the entry slice and each entry's search names, and wraps
// LastError in a fresh value. Callers may sort or filter the returned slice
// in place.
//
// The zero Store is ready to use.
package state
