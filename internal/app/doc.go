// Package app provides the orchestration layer for mantle.
//
// # Overview
//
// This package wires configuration, the backend client, the chapter cache,
// the source resolver, the sync loop, the state store and the UI together.
// It is the composition root; domain logic lives in the packages it wires.
//
// # Startup
//
//  1. Load ~/.config/mantle/config.toml (defaults when missing)
//  2. Open the log file; the TUI owns the terminal
//  3. Build the mantium client and check /v1/health (3 second timeout)
//  4. Build the cache, resolver, sync loop and store
//  5. Prime the change token and pull the collection once
//  6. Start the poller and run the TUI until the user quits
//
// Open performs steps 1 to 4 and is shared with the list and chapters
// subcommands.
//
// # Data Flow
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ Poller.Start() goroutine                │
//	│  ├─> loop.Tick()        change token    │
//	│  ├─> GetCollection()    only on change  │
//	│  ├─> GetLastBackgroundError()           │
//	│  └─> store.Update()     (atomic)        │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller ticks every poll_seconds (default 5). A tick that sees an
// unchanged token only marks the store alive. A changed token, or a
// previous pull that failed, triggers a full collection pull. While the
// backend is unreachable the interval doubles per consecutive failure, up
// to 30 seconds.
//
// # Error Handling
//
// Fatal errors (returned from Run and Open):
//   - Invalid configuration
//   - Log file cannot be opened
//   - Backend health check failure
//
// Everything after startup is recoverable: failures are logged, recorded in
// the store for the header, and polling continues.
package app
