package tui

import (
	"github.com/mmcdole/moviefan/internal/library"
	"github.com/mmcdole/moviefan/internal/state"
)

// Message types for the TUI

// StateChangedMsg carries the latest holder snapshot
type StateChangedMsg struct {
	Snapshot state.Snapshot
}

// RefreshDoneMsg signals that a stream refresh returned
type RefreshDoneMsg struct {
	Outcome library.Outcome
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int // Only clears the status it was scheduled for
}
