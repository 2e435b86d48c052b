package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/library"
	"github.com/mmcdole/moviefan/internal/search"
	"github.com/mmcdole/moviefan/internal/state"
	"github.com/mmcdole/moviefan/internal/tui/styles"
)

// View identifies the active screen
type View int

const (
	ViewMovies View = iota
	ViewDetail
	ViewRatings
)

// Options configures the presentation
type Options struct {
	ImageBaseURL  string
	ChartWindow   int
	AverageWindow int
}

// Model is the main application model
type Model struct {
	refresher Refresher
	observer  *SnapshotObserver
	opts      Options

	snap    state.Snapshot
	rows    []search.Result
	view    View
	cursor  int
	offset  int
	loading map[domain.Stream]bool

	filtering bool
	filter    textinput.Model
	spinner   spinner.Model
	showHelp  bool

	status      string
	statusError bool
	statusSeq   int

	width  int
	height int
}

// NewModel creates the root model. initial is the snapshot at startup.
func NewModel(refresher Refresher, observer *SnapshotObserver, initial state.Snapshot, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.Placeholder = "filter titles"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		refresher: refresher,
		observer:  observer,
		opts:      opts,
		snap:      initial,
		loading:   make(map[domain.Stream]bool),
		filter:    ti,
		spinner:   sp,
		width:     80,
		height:    24,
	}
	m.applyFilter()
	return m
}

// Init starts the movie refresh the list view needs on appear
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.observer.Wait(),
		m.spinner.Tick,
		m.startRefresh(domain.StreamMovies),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampCursor()
		return m, nil

	case StateChangedMsg:
		m.snap = msg.Snapshot
		m.applyFilter()
		return m, m.observer.Wait()

	case RefreshDoneMsg:
		m.loading[msg.Outcome.Stream] = false
		return m.setStatus(outcomeStatus(msg.Outcome))

	case StatusMsg:
		return m.setStatus(msg)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, Keys.NextTab):
		if m.view == ViewRatings {
			m.view = ViewMovies
			return m, nil
		}
		// Ratings refresh every time the view appears
		m.view = ViewRatings
		return m, m.startRefresh(domain.StreamRatings)

	case key.Matches(msg, Keys.Refresh):
		if m.view == ViewRatings {
			return m, m.startRefresh(domain.StreamRatings)
		}
		return m, m.startRefresh(domain.StreamMovies)

	case key.Matches(msg, Keys.RefreshAll):
		if m.refresher == nil {
			return m, nil
		}
		m.loading[domain.StreamMovies] = true
		m.loading[domain.StreamRatings] = true
		return m, RefreshAllCmd(m.refresher)
	}

	switch m.view {
	case ViewDetail:
		if key.Matches(msg, Keys.Back, Keys.Escape) {
			m.view = ViewMovies
		}
		return m, nil

	case ViewMovies:
		switch {
		case key.Matches(msg, Keys.Up):
			m.cursor--
		case key.Matches(msg, Keys.Down):
			m.cursor++
		case key.Matches(msg, Keys.HalfUp):
			m.cursor -= m.listHeight() / 2
		case key.Matches(msg, Keys.HalfDown):
			m.cursor += m.listHeight() / 2
		case key.Matches(msg, Keys.Home):
			m.cursor = 0
		case key.Matches(msg, Keys.End):
			m.cursor = len(m.rows) - 1
		case key.Matches(msg, Keys.Enter):
			if len(m.rows) > 0 {
				m.view = ViewDetail
			}
		case key.Matches(msg, Keys.Filter):
			m.filtering = true
			return m, m.filter.Focus()
		case key.Matches(msg, Keys.Escape):
			m.filter.SetValue("")
			m.applyFilter()
		}
		m.clampCursor()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) startRefresh(stream domain.Stream) tea.Cmd {
	if m.refresher == nil {
		return nil
	}
	m.loading[stream] = true
	return RefreshCmd(m.refresher, stream)
}

func (m Model) setStatus(s StatusMsg) (tea.Model, tea.Cmd) {
	if s.Message == "" {
		return m, nil
	}
	m.statusSeq++
	m.status = s.Message
	m.statusError = s.IsError
	return m, clearStatusCmd(m.statusSeq)
}

// applyFilter rebuilds the visible rows from the snapshot and filter text
func (m *Model) applyFilter() {
	query := m.filter.Value()
	if query == "" {
		m.rows = make([]search.Result, len(m.snap.Movies))
		for i, mv := range m.snap.Movies {
			m.rows[i] = search.Result{Movie: mv}
		}
	} else {
		m.rows = search.Filter(query, m.snap.Movies)
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// listHeight is the number of rows left after header, filter and footer
func (m Model) listHeight() int {
	h := m.height - 6
	if h < 1 {
		return 1
	}
	return h
}

// Selected returns the movie under the cursor
func (m Model) Selected() (domain.Movie, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return domain.Movie{}, false
	}
	return m.rows[m.cursor].Movie, true
}

func outcomeStatus(out library.Outcome) StatusMsg {
	switch out.State {
	case domain.StateFailed:
		if out.Err == nil {
			return StatusMsg{Message: fmt.Sprintf("Refreshing %s failed", out.Stream), IsError: true}
		}
		return StatusMsg{Message: out.Err.Message, IsError: true}
	case domain.StateSettledFromCache:
		return StatusMsg{Message: fmt.Sprintf("Offline: showing %d saved movies", out.Count)}
	case domain.StateSkipped:
		return StatusMsg{Message: "Offline: ratings unavailable"}
	}
	if out.PersistErr != nil {
		return StatusMsg{Message: out.PersistErr.Message, IsError: true}
	}
	return StatusMsg{Message: fmt.Sprintf("Loaded %d %s", out.Count, out.Stream)}
}
