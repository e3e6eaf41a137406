package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutFormWidth caps the width of the stream form box.
	LayoutFormWidth = 72
)

// Logs view limits.
const (
	// TailStep is how many lines +/- add to or remove from the window.
	TailStep = 10

	// MaxTailInput bounds the number typed into the set-lines prompt.
	MaxTailInput = 100000
)

// Timing constants.
const (
	// DefaultUIInterval is the default catalog refresh interval for the UI.
	DefaultUIInterval = time.Second

	// StatusLifetime is how long a non-error status message stays visible.
	StatusLifetime = 5 * time.Second
)
