// Package logtail reads the tail of mantle's log file.
//
// mantle logs to a file because the TUI owns the terminal. Read returns
// the last lines of that file, optionally filtered by a case-insensitive
// substring, so fallback and sync diagnostics can be inspected with
// `mantle logs` while the TUI runs elsewhere.
//
// Lines are scanned once and kept in a ring buffer sized to the request,
// so memory stays bounded no matter how large the log grows. Lines longer
// than 1 MiB fail the read.
package logtail
