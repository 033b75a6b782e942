// Package ui provides the Bubble Tea TUI for mantle.
//
// The Model reads collection snapshots from state.Store on every tick and
// renders the entries that pass the current view, search term and sort
// order. View, sort, direction, search and theme are saved to the
// preferences file whenever they change.
//
// Opening the chapter dialog suspends the sync loop so a background refresh
// cannot rebuild the list under the user. Snapshots that arrive meanwhile
// are held and applied when the dialog closes. Showing a newly pulled
// collection resets the loop to Idle.
//
// Chapters of composite entries are loaded through the resolver, which
// falls back to another source when the current one fails. When every
// source fails the dialog shows an empty list with a warning.
package ui
