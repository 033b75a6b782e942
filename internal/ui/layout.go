package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSourceWidth is the minimum width to show the source column.
	LayoutSourceWidth = 120
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ChapterLoadTimeout bounds one chapter-list load, fallback included.
	ChapterLoadTimeout = 30 * time.Second
)

// chromeHeight is the header plus the command bar.
const chromeHeight = 2
