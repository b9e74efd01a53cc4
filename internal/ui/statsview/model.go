package statsview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/stats"
	"github.com/nhle/focus/internal/theme"
)

// CloseMsg signals the parent to close the stats panel.
type CloseMsg struct{}

// Source is the part of the tracker the panel reads.
type Source interface {
	Snapshot() model.Stats
	CompletedToday() int
	Last7Days() []stats.DayCount
}

const barWidth = 20

// Model renders completion statistics.
type Model struct {
	src    Source
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a stats panel reading from src.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	return Model{src: src, keys: k, width: width, height: height}
}

// Update closes the panel on back or the stats key.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Stats) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the panel.
func (m Model) View() string {
	st := m.src.Snapshot()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Accent).MarginBottom(1)
	label := lipgloss.NewStyle().Foreground(theme.Current.Muted).Width(16)
	value := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Text)

	line := func(name string, v int) string {
		return label.Render(name) + value.Render(fmt.Sprint(v))
	}

	summary := []string{
		line("Completed", st.TotalCompleted),
		line("Today", m.src.CompletedToday()),
		line("Streak", st.Streak),
		line("Best streak", st.BestStreak),
	}
	if next, ok := NextMilestone(st.TotalCompleted); ok {
		summary = append(summary,
			label.Render("Next milestone")+value.Render(fmt.Sprintf("%d (%d to go)", next, next-st.TotalCompleted)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Statistics"),
		lipgloss.JoinVertical(lipgloss.Left, summary...),
		"",
		titleStyle.Render("Last 7 days"),
		Chart(m.src.Last7Days()),
		"",
		theme.HelpStyle.Render("esc back"),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// NextMilestone returns the first milestone above total.
func NextMilestone(total int) (int, bool) {
	for _, ms := range model.Milestones {
		if ms > total {
			return ms, true
		}
	}
	return 0, false
}

// Chart renders one horizontal bar per day scaled to the busiest day.
func Chart(days []stats.DayCount) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Count)
	}

	bar := lipgloss.NewStyle().Foreground(theme.Current.Success)
	dayStyle := lipgloss.NewStyle().Foreground(theme.Current.Muted).Width(5)

	lines := make([]string, len(days))
	for i, d := range days {
		n := 0
		if peak > 0 {
			n = d.Count * barWidth / peak
		}
		if d.Count > 0 && n == 0 {
			n = 1
		}
		weekday := d.Date.Time(time.UTC).Format("Mon")
		lines[i] = dayStyle.Render(weekday) + bar.Render(strings.Repeat("█", n)) + " " + fmt.Sprint(d.Count)
	}
	return strings.Join(lines, "\n")
}
