package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/stats"
	"github.com/mmcdole/moviefan/internal/tui/styles"
)

// View renders the entire UI
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	var body string
	switch m.view {
	case ViewDetail:
		body = m.renderDetail()
	case ViewRatings:
		body = m.renderRatings()
	default:
		body = m.renderList()
	}

	parts := []string{m.renderHeader()}
	if banner := m.renderErrorBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	tab := func(label string, active bool) string {
		if active {
			return styles.ActiveTabStyle.Render(label)
		}
		return styles.InactiveTabStyle.Render(label)
	}

	movies := tab(fmt.Sprintf("Popular (%d)", len(m.snap.Movies)), m.view != ViewRatings)
	ratings := tab("Ratings", m.view == ViewRatings)

	header := lipgloss.JoinHorizontal(lipgloss.Top, movies, " ", ratings)
	if m.snap.FromCache {
		header += " " + styles.DimBadgeStyle.Render("offline")
	}
	if m.loading[domain.StreamMovies] || m.loading[domain.StreamRatings] {
		header += " " + m.spinner.View()
	}
	return header
}

func (m Model) renderErrorBanner() string {
	if m.snap.Err == nil {
		return ""
	}
	label := "error"
	switch m.snap.Err.Kind {
	case domain.KindNetwork:
		label = "network"
	case domain.KindStore:
		label = "storage"
	}
	msg := styles.Truncate(m.snap.Err.Message, m.width-len(label)-4)
	return styles.ErrorBadgeStyle.Render(label) + " " + styles.ErrorStyle.Render(msg)
}

func (m Model) renderList() string {
	var b strings.Builder
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		switch {
		case m.filter.Value() != "":
			b.WriteString(styles.DimStyle.Render("No matches"))
		case m.loading[domain.StreamMovies]:
			b.WriteString(styles.DimStyle.Render("Loading movies..."))
		default:
			b.WriteString(styles.DimStyle.Render("No movies"))
		}
		return styles.BrowserStyle.Render(b.String())
	}

	end := min(m.offset+m.listHeight(), len(m.rows))
	titleWidth := m.width - 12
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		base := styles.NormalItemStyle
		prefix := "  "
		if i == m.cursor {
			base = styles.SelectedItemStyle
			prefix = "> "
		}
		title := styles.Truncate(row.Movie.Title, titleWidth)
		matched := row.MatchedIndexes
		if len([]rune(title)) < len([]rune(row.Movie.Title)) {
			matched = nil
		}
		b.WriteString(base.Render(prefix))
		b.WriteString(styles.Highlight(title, matched, base))
		if year := releaseYear(row.Movie.ReleaseDate); year != "" {
			b.WriteString(" " + styles.DimStyle.Render(year))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return styles.BrowserStyle.Render(b.String())
}

func (m Model) renderDetail() string {
	mv, ok := m.Selected()
	if !ok {
		return styles.DimStyle.Render("Nothing selected")
	}

	width := max(m.width-8, 20)
	lines := []string{styles.TitleStyle.Render(mv.Title)}
	if mv.ReleaseDate != "" {
		lines = append(lines, styles.SubtitleStyle.Render("Released "+mv.ReleaseDate))
	}
	if url := mv.LargeImageURL(m.opts.ImageBaseURL); url != "" {
		lines = append(lines, styles.DimStyle.Render(url))
	}
	lines = append(lines, "")
	if mv.Overview != "" {
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(mv.Overview))
	} else {
		lines = append(lines, styles.DimStyle.Render("No overview"))
	}
	return styles.DetailStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderRatings() string {
	ratings := m.snap.Ratings
	if len(ratings) == 0 {
		if m.loading[domain.StreamRatings] {
			return styles.BrowserStyle.Render(styles.DimStyle.Render("Loading ratings..."))
		}
		return styles.BrowserStyle.Render(styles.DimStyle.Render("No ratings"))
	}

	points := stats.ChartPoints(ratings, m.opts.ChartWindow)
	var peak float64
	for _, p := range points {
		peak = max(peak, p.VoteAverage, p.Popularity, float64(p.VoteCount))
	}

	labelWidth := 24
	barWidth := max(m.width-labelWidth-6, 10)

	var b strings.Builder
	b.WriteString(styles.VoteAverageBar.Render("■ vote average") + "  ")
	b.WriteString(styles.PopularityBar.Render("■ popularity") + "  ")
	b.WriteString(styles.VoteCountBar.Render("■ vote count"))
	b.WriteString("\n\n")

	pad := strings.Repeat(" ", labelWidth+1)
	for _, p := range points {
		label := fmt.Sprintf("%-*s", labelWidth, styles.Truncate(p.Title, labelWidth))
		b.WriteString(styles.NormalItemStyle.Render(label) + " ")
		b.WriteString(styles.Bar(p.VoteAverage, peak, barWidth, styles.VoteAverageBar) + "\n")
		b.WriteString(pad + styles.Bar(p.Popularity, peak, barWidth, styles.PopularityBar) + "\n")
		b.WriteString(pad + styles.Bar(float64(p.VoteCount), peak, barWidth, styles.VoteCountBar) + "\n")
	}

	if avg, err := stats.AverageVote(ratings, m.opts.AverageWindow); err == nil {
		b.WriteString("\n")
		b.WriteString(styles.AverageLine.Render(
			fmt.Sprintf("Average vote (first %d): %.2f", m.opts.AverageWindow, avg)))
	}
	return styles.BrowserStyle.Render(b.String())
}

func (m Model) renderFooter() string {
	if m.status != "" {
		if m.statusError {
			return styles.ErrorStyle.Render(m.status)
		}
		return styles.SuccessStyle.Render(m.status)
	}

	var hints []string
	switch m.view {
	case ViewDetail:
		hints = []string{"h back", "r refresh", "q quit"}
	case ViewRatings:
		hints = []string{"tab movies", "r refresh", "? help", "q quit"}
	default:
		hints = []string{"/ filter", "enter details", "tab ratings", "r refresh", "? help"}
	}
	return styles.HelpDescStyle.Render(strings.Join(hints, " • "))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range helpBindings() {
		h := binding.Help()
		b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)))
		b.WriteString(styles.HelpDescStyle.Render(h.Desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("press any key to close"))
	return styles.DetailStyle.Render(b.String())
}

// releaseYear returns the leading year of an ISO-like date
func releaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}
