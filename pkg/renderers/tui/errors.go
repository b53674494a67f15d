package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoChoice is returned when a select prompt reports an index outside
	// its options.
	ErrNoChoice = errors.New("tui: no option selected")
)
