package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/library"
)

const (
	refreshTimeout = 60 * time.Second
	statusDuration = 4 * time.Second
)

// Refresher is the part of the sync engine the TUI drives
type Refresher interface {
	RefreshMovies(ctx context.Context) library.Outcome
	RefreshRatings(ctx context.Context) library.Outcome
	StreamState(stream domain.Stream) domain.StreamState
}

// Command factories for async operations

// RefreshCmd refreshes one stream and reports the outcome
func RefreshCmd(r Refresher, stream domain.Stream) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		var out library.Outcome
		switch stream {
		case domain.StreamRatings:
			out = r.RefreshRatings(ctx)
		default:
			out = r.RefreshMovies(ctx)
		}
		return RefreshDoneMsg{Outcome: out}
	}
}

// RefreshAllCmd refreshes both streams concurrently
func RefreshAllCmd(r Refresher) tea.Cmd {
	return tea.Batch(
		RefreshCmd(r, domain.StreamMovies),
		RefreshCmd(r, domain.StreamRatings),
	)
}

// clearStatusCmd clears status seq after statusDuration
func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
