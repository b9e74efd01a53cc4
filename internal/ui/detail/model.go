package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/views"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Action names a task action requested from the detail view.
type Action int

const (
	ActionEdit Action = iota
	ActionToggle
	ActionToday
	ActionSubtask
	ActionDelete
)

// ActionMsg signals the parent to run an action on the shown task.
type ActionMsg struct {
	Action Action
	TaskID int64
}

// Model is the task detail view component.
type Model struct {
	task       *model.Task
	subtasks   []model.Task
	categories map[string]model.Category
	today      model.Date
	viewport   viewport.Model
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetTask updates the shown task and re-renders the content. The scroll
// position is kept when the same task is shown again.
func (m *Model) SetTask(t model.Task, subtasks []model.Task, categories []model.Category, today model.Date) {
	same := m.task != nil && m.task.ID == t.ID
	m.task = &t
	m.subtasks = subtasks
	m.today = today
	m.categories = make(map[string]model.Category, len(categories))
	for _, c := range categories {
		m.categories[c.ID] = c
	}
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.viewport.GotoTop()
	}
}

// TaskID returns the id of the shown task.
func (m Model) TaskID() (int64, bool) {
	if m.task == nil {
		return 0, false
	}
	return m.task.ID, true
}

// Clear drops the shown task.
func (m *Model) Clear() {
	m.task = nil
	m.subtasks = nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.task != nil {
			if action, ok := m.action(msg); ok {
				id := m.task.ID
				return m, func() tea.Msg { return ActionMsg{Action: action, TaskID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(msg tea.KeyMsg) (Action, bool) {
	switch {
	case key.Matches(msg, m.keys.Edit):
		return ActionEdit, true
	case key.Matches(msg, m.keys.Toggle):
		return ActionToggle, true
	case key.Matches(msg, m.keys.Today) && !m.task.IsSubtask():
		return ActionToday, true
	case key.Matches(msg, m.keys.NewSubtask):
		return ActionSubtask, true
	case key.Matches(msg, m.keys.Delete):
		return ActionDelete, true
	}
	return 0, false
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.Current.Muted).
			Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	t := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Text)
	title := t.Text
	if t.Completed {
		title = theme.CompletedStyle.Render(title)
	} else {
		title = titleStyle.Render(title)
	}
	sections = append(sections, title, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.Current.Muted).Width(10)
	row := func(label, value string) {
		sections = append(sections, metaStyle.Render(label)+value)
	}

	status := "open"
	if t.Completed {
		status = "done"
	}
	row("Status", status)

	if t.IsSubtask() {
		row("Parent", fmt.Sprint(*t.ParentID))
	} else {
		list := "later"
		if t.TodayOn(m.today) {
			list = theme.TodayStyle.Render("today")
		}
		row("List", list)
	}

	if t.Category != nil {
		c, ok := m.categories[*t.Category]
		name := *t.Category
		if ok {
			name = c.Name
		}
		row("Category", theme.CategoryStyle(c.Color).UnsetPadding().Render(name))
	}
	if t.Priority != nil {
		row("Priority", theme.PriorityStyle(*t.Priority).Render(string(*t.Priority)))
	}
	if t.DueDate != nil {
		due := t.DueDate.String()
		if views.IsOverdue(*t, m.today) {
			due = theme.OverdueStyle.Render(due + " (overdue)")
		}
		row("Due", due)
	}
	if !t.CreatedAt.IsZero() {
		row("Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	row("ID", fmt.Sprint(t.ID))

	if !t.IsSubtask() {
		sepStyle := lipgloss.NewStyle().Foreground(theme.Current.Subtle)
		separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 60), 0)))
		sections = append(sections, "", separator, "")

		remaining, completed := views.Counts(m.subtasks)
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Text)
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Subtasks (%d/%d)", completed, remaining+completed),
		))

		if len(m.subtasks) == 0 {
			sections = append(sections, theme.HelpStyle.Render("No subtasks. Press s to add one."))
		}
		for _, s := range m.subtasks {
			line := "[ ] " + s.Text
			if s.Completed {
				line = theme.CompletedStyle.Render("[x] " + s.Text)
			}
			sections = append(sections, "  "+line)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
