package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/views"
)

// Model is the main task list view component. It renders the rows of a
// views.View and keeps the cursor on a task row.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	ctx      *renderContext
	filtered bool
	width    int
	height   int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	ctx := &renderContext{
		categories: make(map[string]model.Category),
		counts:     make(map[int64][2]int),
	}
	l := list.New([]list.Item{}, ItemDelegate{ctx: ctx}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.NoItems = theme.HelpStyle
	// Quitting and help belong to the app, not the list.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)

	return Model{
		list:   l,
		keys:   k,
		ctx:    ctx,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetRows replaces the rendered rows. The cursor stays on the previously
// selected task when it is still listed.
func (m *Model) SetRows(v views.View, today model.Date, categories []model.Category, filtered bool) tea.Cmd {
	selected, hadSelection := m.SelectedTask()

	m.ctx.today = today
	m.ctx.categories = make(map[string]model.Category, len(categories))
	for _, c := range categories {
		m.ctx.categories[c.ID] = c
	}
	m.ctx.counts = make(map[int64][2]int)
	for _, s := range []views.Section{v.Today, v.Later} {
		for id, subs := range s.Subtasks {
			remaining, completed := views.Counts(subs)
			m.ctx.counts[id] = [2]int{remaining, completed}
		}
	}
	m.filtered = filtered

	rows := views.Flatten(v)
	items := make([]list.Item, len(rows))
	target := -1
	for i, r := range rows {
		items[i] = RowItem{Row: r}
		if hadSelection && !r.Header && r.Task.ID == selected.ID {
			target = i
		}
	}
	cmd := m.list.SetItems(items)

	switch {
	case target >= 0:
		m.list.Select(target)
	case m.list.Index() >= len(items):
		m.list.Select(len(items) - 1)
	}
	m.skipHeader(1)
	return cmd
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	ri, ok := m.list.SelectedItem().(RowItem)
	if !ok || ri.Row.Header {
		return model.Task{}, false
	}
	return ri.Row.Task, true
}

// Select moves the cursor to task id when it is listed.
func (m *Model) Select(id int64) {
	for i, it := range m.list.Items() {
		if ri, ok := it.(RowItem); ok && !ri.Row.Header && ri.Row.Task.ID == id {
			m.list.Select(i)
			return
		}
	}
}

// Update handles cursor movement. Task actions are handled by the app.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Down):
			m.list.CursorDown()
			m.skipHeader(1)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.list.CursorUp()
			m.skipHeader(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// skipHeader steps off a section header in direction dir, turning back
// at either end of the list.
func (m *Model) skipHeader(dir int) {
	n := len(m.list.Items())
	if n == 0 {
		return
	}
	for range 2 {
		for i := m.list.Index(); i >= 0 && i < n; i += dir {
			if ri, ok := m.list.Items()[i].(RowItem); ok && !ri.Row.Header {
				m.list.Select(i)
				return
			}
		}
		dir = -dir
	}
}

// View renders the task list.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		if m.filtered {
			return placeholder(m.width, m.height, "No matching tasks.\nPress f to change the filter.")
		}
		return placeholder(m.width, m.height, "No tasks yet.\n\nPress n to add one.")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
