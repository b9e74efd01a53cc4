package prefs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui"
)

// Mode represents the current state of the preferences view.
type Mode int

const (
	ModeSummary     Mode = iota // Current preferences
	ModeForm                    // Editing preferences
	ModeChecking                // Testing the backend connection
	ModeCheckResult             // Show the connection result
)

const checkTimeout = 10 * time.Second

// Source provides the current settings.
type Source interface {
	Current() model.Settings
}

// Checker tests that the storage backend answers.
type Checker func(ctx context.Context) error

// DoneMsg signals the preferences view should close.
type DoneMsg struct{}

// SavedMsg carries the preferences chosen in the form.
type SavedMsg struct {
	Theme         string
	SoundEnabled  bool
	ShowCompleted bool
}

// checkResultMsg carries the result of a connection check.
type checkResultMsg struct {
	err     error
	elapsed time.Duration
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	theme         string
	sound         bool
	showCompleted bool
}

// Model is the Bubble Tea model for the preferences panel.
type Model struct {
	mode    Mode
	src     Source
	check   Checker
	backend string

	form *huh.Form
	fb   *formBindings

	spinner     spinner.Model
	checkErr    error
	checkTook   time.Duration
	checkCancel context.CancelFunc

	keys          *keys.KeyMap
	width, height int
}

// New creates a preferences view. A nil check disables the connection
// test.
func New(src Source, check Checker, backend string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		src:     src,
		check:   check,
		backend: backend,
		fb:      &formBindings{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Reset returns to the summary screen.
func (m *Model) Reset() {
	m.mode = ModeSummary
	m.form = nil
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case checkResultMsg:
		if m.mode != ModeChecking {
			return m, nil
		}
		m.checkCancel = nil
		m.checkErr = msg.err
		m.checkTook = msg.elapsed
		m.mode = ModeCheckResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeChecking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeSummary:
			return m.handleSummaryKeys(msg)
		case ModeChecking:
			if key.Matches(msg, m.keys.Back) {
				if m.checkCancel != nil {
					m.checkCancel()
					m.checkCancel = nil
				}
				m.mode = ModeSummary
			}
			return m, nil
		case ModeCheckResult:
			return m.handleResultKeys(msg)
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Open):
		cur := m.src.Current()
		m.fb.theme = cur.Theme
		m.fb.sound = cur.SoundEnabled
		m.fb.showCompleted = cur.ShowCompleted
		m.form = m.buildForm()
		m.mode = ModeForm
		return m, m.form.Init()

	case msg.String() == "c" && m.check != nil:
		return m.startCheck()
	}
	return m, nil
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "r":
		return m.startCheck()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Open):
		m.mode = ModeSummary
		m.checkErr = nil
	}
	return m, nil
}

// --- Form ---

func (m Model) buildForm() *huh.Form {
	options := make([]huh.Option[string], 0, len(theme.Names()))
	for _, name := range theme.Names() {
		options = append(options, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(options...).
				Value(&m.fb.theme),
			huh.NewConfirm().
				Title("Sound on completion").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.sound),
			huh.NewConfirm().
				Title("Show completed tasks").
				Affirmative("Show").
				Negative("Hide").
				Value(&m.fb.showCompleted),
		),
	).WithWidth(m.formWidth()).WithKeyMap(ui.FormKeyMap()).WithShowHelp(false)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = ModeSummary
		m.form = nil
		saved := SavedMsg{
			Theme:         m.fb.theme,
			SoundEnabled:  m.fb.sound,
			ShowCompleted: m.fb.showCompleted,
		}
		return m, func() tea.Msg { return saved }
	case huh.StateAborted:
		m.mode = ModeSummary
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// --- Connection check ---

func (m Model) startCheck() (Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	m.checkCancel = cancel
	m.mode = ModeChecking
	check := m.check

	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			defer cancel()
			start := time.Now()
			err := check(ctx)
			return checkResultMsg{err: err, elapsed: time.Since(start)}
		},
	)
}

// --- View ---

// View renders the preferences panel based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeForm:
		if m.form == nil {
			return ""
		}
		return style.Render(m.form.View())
	case ModeChecking:
		return style.Render(fmt.Sprintf(
			"%s Checking the %s backend...\n\nPress esc to cancel.",
			m.spinner.View(), m.backend,
		))
	case ModeCheckResult:
		return style.Render(m.viewCheckResult())
	default:
		return style.Render(m.viewSummary())
	}
}

func (m Model) viewSummary() string {
	cur := m.src.Current()
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Text)
	b.WriteString(titleStyle.Render("Preferences"))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(theme.Current.Muted).Width(16)
	onOff := func(v bool, on, off string) string {
		if v {
			return on
		}
		return off
	}
	fmt.Fprintf(&b, "%s%s\n", label.Render("Theme"), cur.Theme)
	fmt.Fprintf(&b, "%s%s\n", label.Render("Sound"), onOff(cur.SoundEnabled, "on", "off"))
	fmt.Fprintf(&b, "%s%s\n", label.Render("Completed tasks"), onOff(cur.ShowCompleted, "shown", "hidden"))
	fmt.Fprintf(&b, "%s%s\n", label.Render("Backend"), m.backend)

	hints := "e edit | esc back"
	if m.check != nil {
		hints = "e edit | c check connection | esc back"
	}
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(hints))
	return b.String()
}

func (m Model) viewCheckResult() string {
	if m.checkErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Danger)
		return errStyle.Render("Connection failed") + "\n\n" +
			m.checkErr.Error() + "\n\n" +
			theme.HelpStyle.Render("r retry | enter/esc back")
	}
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Success)
	return okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("The %s backend answered in %s.", m.backend, m.checkTook.Round(time.Millisecond)) + "\n\n" +
		theme.HelpStyle.Render("r retry | enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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
