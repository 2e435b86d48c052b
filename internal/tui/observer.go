package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviefan/internal/state"
)

// SnapshotObserver adapts holder notifications to a channel for Bubble Tea.
// Only the newest snapshot is kept; older undelivered ones are replaced.
type SnapshotObserver struct {
	ch chan state.Snapshot
}

// NewSnapshotObserver creates a new channel-based observer.
func NewSnapshotObserver() *SnapshotObserver {
	return &SnapshotObserver{ch: make(chan state.Snapshot, 1)}
}

// OnChange queues snap, dropping an undelivered older snapshot.
// Must be called from a single goroutine (the state loop).
func (o *SnapshotObserver) OnChange(snap state.Snapshot) {
	for {
		select {
		case o.ch <- snap:
			return
		default:
			select {
			case <-o.ch:
			default:
			}
		}
	}
}

// Wait returns a command that delivers the next snapshot
func (o *SnapshotObserver) Wait() tea.Cmd {
	return func() tea.Msg {
		return StateChangedMsg{Snapshot: <-o.ch}
	}
}
