package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focus/internal/model"
	appsync "github.com/nhle/focus/internal/sync"
	"github.com/nhle/focus/internal/tasks"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui/command"
	"github.com/nhle/focus/internal/ui/detail"
	"github.com/nhle/focus/internal/ui/prefs"
	"github.com/nhle/focus/internal/ui/taskform"
	"github.com/nhle/focus/internal/views"
)

// handleListKey runs the task actions bound on the list view.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, hasSelection := m.taskList.SelectedTask()
	m.flash = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Open) && hasSelection:
		m.openDetail(selected.ID)
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, m.openForm(func() tea.Cmd { return m.formView.StartCreate(m.filter) })

	case key.Matches(msg, m.keys.NewSubtask) && hasSelection:
		parent := selected
		if parent.ParentID != nil {
			parent, _ = m.deps.Tasks.Get(*parent.ParentID)
		}
		return m, m.openForm(func() tea.Cmd { return m.formView.StartSubtask(parent) })

	case key.Matches(msg, m.keys.Edit) && hasSelection:
		return m, m.openForm(func() tea.Cmd { return m.formView.StartEdit(selected) })

	case key.Matches(msg, m.keys.Toggle) && hasSelection:
		cmd := m.toggle(selected)
		m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Delete) && hasSelection:
		m.deps.Tasks.Delete(selected.ID)
		m.setFlash(fmt.Sprintf("deleted %q", selected.Text), false)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Today) && hasSelection && !selected.IsSubtask():
		m.deps.Tasks.ToggleToday(selected.ID)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.MoveUp) && hasSelection:
		m.deps.Tasks.Move(selected.ID, -1)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.MoveDown) && hasSelection:
		m.deps.Tasks.Move(selected.ID, 1)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = nextFilter(m.filter, m.deps.Settings.Categories())
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ShowCompleted):
		m.deps.Settings.SetShowCompleted(!m.deps.Settings.Current().ShowCompleted)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ClearCompleted):
		m.clearCompleted()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.setTheme(theme.Next(theme.Current.Name))
		return m, nil

	case key.Matches(msg, m.keys.Stats):
		m.currentView = ViewStats
		return m, nil

	case key.Matches(msg, m.keys.Categories):
		m.currentView = ViewCategories
		return m, m.categoryView.Init()

	case key.Matches(msg, m.keys.Preferences):
		m.prefsView.Reset()
		m.currentView = ViewPrefs
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// openDetail shows task id in the detail view.
func (m *Model) openDetail(id int64) {
	m.currentView = ViewDetail
	m.taskList.Select(id)
	m.syncDetail(id)
}

func (m *Model) closeDetail() {
	m.detailView.Clear()
	m.currentView = ViewList
}

// syncDetail re-renders the detail view from the manager. It falls back
// to the list when the task no longer exists.
func (m *Model) syncDetail(id int64) {
	t, ok := m.deps.Tasks.Get(id)
	if !ok {
		m.closeDetail()
		return
	}
	m.detailView.SetTask(t, m.deps.Tasks.Subtasks(id), m.deps.Settings.Categories(), m.deps.Tasks.Today())
}

// detailAction runs an action requested from the detail view.
func (m *Model) detailAction(msg detail.ActionMsg) tea.Cmd {
	t, ok := m.deps.Tasks.Get(msg.TaskID)
	if !ok {
		m.closeDetail()
		return nil
	}

	switch msg.Action {
	case detail.ActionEdit:
		m.closeDetail()
		return m.openForm(func() tea.Cmd { return m.formView.StartEdit(t) })

	case detail.ActionSubtask:
		parent := t
		if t.ParentID != nil {
			parent, _ = m.deps.Tasks.Get(*t.ParentID)
		}
		m.closeDetail()
		return m.openForm(func() tea.Cmd { return m.formView.StartSubtask(parent) })

	case detail.ActionDelete:
		m.deps.Tasks.Delete(t.ID)
		m.setFlash(fmt.Sprintf("deleted %q", t.Text), false)
		m.closeDetail()

	case detail.ActionToggle:
		cmd := m.toggle(t)
		m.refresh()
		return cmd

	case detail.ActionToday:
		m.deps.Tasks.ToggleToday(t.ID)
	}
	m.refresh()
	return nil
}

// savePrefs applies the preferences chosen in the panel.
func (m *Model) savePrefs(p prefs.SavedMsg) {
	cur := m.deps.Settings.Current()
	if p.Theme != cur.Theme {
		m.setTheme(p.Theme)
	}
	if p.SoundEnabled != cur.SoundEnabled {
		m.deps.Settings.SetSoundEnabled(p.SoundEnabled)
	}
	if p.ShowCompleted != cur.ShowCompleted {
		m.deps.Settings.SetShowCompleted(p.ShowCompleted)
	}
	m.refresh()
}

// openForm switches to the form view after start prepared it.
func (m *Model) openForm(start func() tea.Cmd) tea.Cmd {
	m.formView.SetCategories(m.deps.Settings.Categories())
	m.previousView = m.currentView
	m.currentView = ViewForm
	return start()
}

// toggle flips completion and rings the bell when the task got done.
func (m *Model) toggle(t model.Task) tea.Cmd {
	if !m.deps.Tasks.Toggle(t.ID) {
		return nil
	}
	if t.Completed {
		return nil
	}
	if ms, ok := m.deps.Stats.PendingMilestone(); ok {
		m.log.WithField("milestone", ms).Info("milestone reached")
		m.resize()
	}
	if !m.deps.Settings.Current().SoundEnabled {
		return nil
	}
	bell := m.deps.Bell
	return func() tea.Msg {
		fmt.Fprint(bell, "\a")
		return nil
	}
}

// submitForm applies a completed task form.
func (m *Model) submitForm(msg taskform.SubmitMsg) {
	v := msg.Values
	switch msg.Mode {
	case taskform.ModeCreate:
		opts := tasks.AddOptions{Today: v.Today}
		if v.Category != "" {
			opts.Category = &v.Category
		}
		if v.DueDate != "" {
			d := model.Date(v.DueDate)
			opts.DueDate = &d
		}
		if p, ok := model.ParsePriority(v.Priority); ok {
			opts.Priority = &p
		}
		if id, ok := m.deps.Tasks.AddTask(v.Text, opts); ok {
			m.afterAdd(id)
		}

	case taskform.ModeCreateSubtask:
		if id, ok := m.deps.Tasks.AddSubtask(msg.TaskID, v.Text); ok {
			m.afterAdd(id)
		}

	case taskform.ModeEdit:
		m.deps.Tasks.UpdateText(msg.TaskID, v.Text)
		if msg.Full {
			m.deps.Tasks.UpdateFields(msg.TaskID, EditPatch(v))
		}
	}
}

// afterAdd puts the cursor on a newly added task.
func (m *Model) afterAdd(id int64) {
	m.refresh()
	m.taskList.Select(id)
}

// EditPatch turns edited form values into a patch that sets every
// filled field and clears every emptied one.
func EditPatch(v taskform.Values) tasks.TaskPatch {
	var p tasks.TaskPatch
	if v.Category == "" {
		p.Category = tasks.Clear[string]()
	} else {
		p.Category = tasks.Set(v.Category)
	}
	if v.DueDate == "" {
		p.DueDate = tasks.Clear[model.Date]()
	} else {
		p.DueDate = tasks.Set(model.Date(v.DueDate))
	}
	if pr, ok := model.ParsePriority(v.Priority); ok {
		p.Priority = tasks.Set(pr)
	} else {
		p.Priority = tasks.Clear[model.Priority]()
	}
	return p
}

// executeCommand runs a parsed palette command.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c.Kind {
	case command.ClearCompleted:
		m.clearCompleted()
	case command.ClearAll:
		n := m.deps.Tasks.ClearAll()
		m.setFlash(fmt.Sprintf("deleted %d tasks", n), false)
	case command.Theme:
		m.setTheme(c.Arg)
	case command.Filter:
		if c.Arg != "" {
			if _, ok := m.deps.Settings.Category(c.Arg); !ok {
				m.setFlash(fmt.Sprintf("unknown category %q", c.Arg), true)
				return nil
			}
		}
		m.filter = c.Arg
	case command.ResetStats:
		m.deps.Stats.Reset()
		m.setFlash("stats reset", false)
	case command.Sound:
		m.deps.Settings.SetSoundEnabled(c.Arg == "on")
		m.setFlash("sound "+c.Arg, false)
	case command.Reload:
		m.deps.Writer.Submit("reload", reloadAll(m.deps))
	case command.Quit:
		return tea.Quit
	}
	m.refresh()
	return nil
}

// reloadAll re-fetches every service from the backend.
func reloadAll(d Deps) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return errors.Join(
			d.Tasks.Reload(ctx),
			d.Stats.Reload(ctx),
			d.Settings.Reload(ctx),
		)
	}
}

func (m *Model) clearCompleted() {
	n := m.deps.Tasks.ClearCompleted()
	m.setFlash(fmt.Sprintf("cleared %d completed tasks", n), false)
	m.refresh()
}

func (m *Model) setTheme(name string) {
	name = theme.Apply(name)
	m.deps.Settings.SetTheme(name)
	m.setFlash("theme "+name, false)
}

func (m *Model) setFlash(text string, isError bool) {
	m.flash = text
	m.flashIsError = isError
}

// refresh rebuilds the list rows from the manager's snapshot.
func (m *Model) refresh() {
	if m.filter != "" {
		if _, ok := m.deps.Settings.Category(m.filter); !ok {
			m.filter = ""
		}
	}
	today := m.deps.Tasks.Today()
	v := views.Build(m.deps.Tasks.Snapshot(), today, views.Query{
		Category:      m.filter,
		HideCompleted: !m.deps.Settings.Current().ShowCompleted,
	})
	m.taskList.SetRows(v, today, m.deps.Settings.Categories(), m.filter != "")

	if m.currentView == ViewDetail {
		if id, ok := m.detailView.TaskID(); ok {
			m.syncDetail(id)
		}
	}
}

// nextFilter cycles through "" and every category id.
func nextFilter(current string, categories []model.Category) string {
	if current == "" {
		if len(categories) == 0 {
			return ""
		}
		return categories[0].ID
	}
	for i, c := range categories {
		if c.ID == current && i+1 < len(categories) {
			return categories[i+1].ID
		}
	}
	return ""
}

// title is the header's left side.
func (m Model) title() string {
	if m.filter == "" {
		return "focus"
	}
	name := m.filter
	if c, ok := m.deps.Settings.Category(m.filter); ok {
		name = c.Name
	}
	return "focus · " + name
}

// summary is the header's right side.
func (m Model) summary() string {
	v := views.Build(m.deps.Tasks.Snapshot(), m.deps.Tasks.Today(), views.Query{Category: m.filter})
	return fmt.Sprintf("%d left · %d done · streak %d",
		v.Remaining, v.Completed, m.deps.Stats.Snapshot().Streak)
}

// writerState describes pending writes for the status bar.
func (m Model) writerState() string {
	st := m.deps.Writer.Status()
	switch {
	case st.Pending > 0:
		return fmt.Sprintf("saving (%d)", st.Pending)
	case st.State == appsync.WriterError:
		return "save failed"
	default:
		return m.deps.Backend
	}
}
