package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Modal is a dialog drawn over the collection. While one is open the sync
// loop stays suspended and every key goes to the dialog.
//
// Update returns the dialog to keep, a command, and whether the dialog closed
// itself. Close releases work still in flight when the model tears the
// dialog down from outside, as it does on ctrl+c.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
	Close()
}
