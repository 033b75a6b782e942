// Package syncloop decides when the UI must re-pull the collection.
//
// # Overview
//
// The backend exposes a cheap "last changed" token. On every tick the Loop
// asks for it and compares it with the last token it recorded. A different
// token means the collection changed and the UI should fetch and render it
// again. Token contents are opaque; only equality matters.
//
// # State Machine
//
//	        OpenDialog / SetSuspended(true)
//	 ┌──────┐ ─────────────────────────────→ ┌───────────┐
//	 │ Idle │                                │ Suspended │
//	 └──────┘ ←───────────────────────────── └───────────┘
//	        CloseDialog / SetSuspended(false) / BeginRender
//
// While Suspended a changed token is neither recorded nor reported, so the
// first Idle tick after the dialog closes still sees the change. A refresh
// would otherwise tear down a dialog the user is typing into.
//
// BeginRender resets to Idle at the start of every top-level render. This
// keeps a crashed or abandoned dialog from wedging the loop, at the cost of
// dropping a "still interacting" signal across a full reload.
//
// # Failure Handling
//
// Each token request is bounded by Options.Timeout. Errors and timeouts are
// logged, counted in Failures, and reported as "no change"; a tick never
// panics and never retries mid-flight.
package syncloop
