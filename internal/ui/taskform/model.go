package taskform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui"
)

// Mode says what the form is for.
type Mode int

const (
	ModeCreate Mode = iota
	ModeCreateSubtask
	ModeEdit
)

// Values are the submitted field values. Empty strings mean "none".
type Values struct {
	Text     string
	Category string
	Priority string
	DueDate  string
	Today    bool
}

// SubmitMsg is dispatched when the form completes.
type SubmitMsg struct {
	Mode Mode
	// TaskID is the edited task in ModeEdit and the parent in
	// ModeCreateSubtask.
	TaskID int64
	Values Values
	// Full is false when only Text was shown (subtasks).
	Full bool
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	Values
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	mode       Mode
	taskID     int64
	parentText string
	full       bool
	categories []model.Category
	width      int
	height     int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetCategories sets the options of the category selector.
func (m *Model) SetCategories(categories []model.Category) {
	m.categories = categories
}

// StartCreate initializes the form for a new root task.
func (m *Model) StartCreate(category string) tea.Cmd {
	m.mode = ModeCreate
	m.taskID = 0
	m.full = true
	m.fb.Values = Values{Category: category}
	m.form = m.build()
	return m.form.Init()
}

// StartSubtask initializes the form for a new subtask of parent.
func (m *Model) StartSubtask(parent model.Task) tea.Cmd {
	m.mode = ModeCreateSubtask
	m.taskID = parent.ID
	m.parentText = parent.Text
	m.full = false
	m.fb.Values = Values{}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit initializes the form with t's current values. Subtasks only
// edit their text.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.mode = ModeEdit
	m.taskID = t.ID
	m.full = !t.IsSubtask()
	m.fb.Values = Values{Text: t.Text, Today: t.IsToday}
	if t.Category != nil {
		m.fb.Category = *t.Category
	}
	if t.Priority != nil {
		m.fb.Priority = string(*t.Priority)
	}
	if t.DueDate != nil {
		m.fb.DueDate = string(*t.DueDate)
	}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var title string
	switch m.mode {
	case ModeCreateSubtask:
		title = "New subtask of " + m.parentText
	case ModeEdit:
		title = "Edit task"
	default:
		title = "New task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Current.Accent).
		MarginBottom(1)

	content := titleStyle.Render(title) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Task").
			Placeholder("What needs to be done?").
			Value(&m.fb.Text).
			Validate(validateRequired("Task")),
	}
	if m.full {
		fields = append(fields,
			m.categoryField(),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("None", ""),
					huh.NewOption("Low", string(model.PriorityLow)),
					huh.NewOption("Medium", string(model.PriorityMedium)),
					huh.NewOption("High", string(model.PriorityHigh)),
				).
				Value(&m.fb.Priority),
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.DueDate).
				Validate(validateOptionalDate),
		)
		if m.mode == ModeCreate {
			fields = append(fields,
				huh.NewConfirm().
					Title("Focus today?").
					Affirmative("Yes").
					Negative("No").
					Value(&m.fb.Today),
			)
		}
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) categoryField() huh.Field {
	opts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range m.categories {
		opts = append(opts, huh.NewOption(c.Name, c.ID))
	}
	return huh.NewSelect[string]().
		Title("Category").
		Options(opts...).
		Value(&m.fb.Category)
}

func (m Model) handleSubmit() tea.Cmd {
	v := m.fb.Values
	v.Text = strings.TrimSpace(v.Text)
	v.DueDate = strings.TrimSpace(v.DueDate)
	msg := SubmitMsg{Mode: m.mode, TaskID: m.taskID, Values: v, Full: m.full}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := model.ParseDate(s)
	return err
}
