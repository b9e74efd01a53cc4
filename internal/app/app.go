package app

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/logging"
	"github.com/nhle/focus/internal/settings"
	"github.com/nhle/focus/internal/stats"
	appsync "github.com/nhle/focus/internal/sync"
	"github.com/nhle/focus/internal/tasks"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui"
	"github.com/nhle/focus/internal/ui/categorymgr"
	"github.com/nhle/focus/internal/ui/command"
	"github.com/nhle/focus/internal/ui/detail"
	helpview "github.com/nhle/focus/internal/ui/help"
	"github.com/nhle/focus/internal/ui/prefs"
	"github.com/nhle/focus/internal/ui/statsview"
	"github.com/nhle/focus/internal/ui/taskform"
	"github.com/nhle/focus/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
	ViewCommand
	ViewForm
	ViewStats
	ViewCategories
	ViewDetail
	ViewPrefs
)

// Deps are the services the UI drives.
type Deps struct {
	Tasks    *tasks.Manager
	Stats    *stats.Tracker
	Settings *settings.Service
	Writer   *appsync.Writer
	Log      logrus.FieldLogger
	// Backend names the storage backend for the status bar.
	Backend string
	// Bell receives the terminal bell on completions; defaults to stderr.
	Bell io.Writer
	// Check tests the backend connection from the preferences panel.
	Check prefs.Checker
}

// tasksChangedMsg is sent when the manager reloaded its state.
type tasksChangedMsg struct{}

// Model is the root Bubble Tea model that manages view routing and
// layout and drives the task, stats and settings services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	log          logrus.FieldLogger
	keys         *keys.KeyMap
	taskList     tasklist.Model
	helpView     helpview.Model
	commandView  command.Model
	formView     taskform.Model
	statsView    statsview.Model
	categoryView categorymgr.Model
	detailView   detail.Model
	prefsView    prefs.Model
	filter       string
	flash        string
	flashIsError bool
	ready        bool
}

// New creates the root model and applies the saved theme.
func New(deps Deps) Model {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	if deps.Bell == nil {
		deps.Bell = os.Stderr
	}
	theme.Apply(deps.Settings.Current().Theme)

	k := keys.DefaultKeyMap()
	m := Model{
		currentView:  ViewList,
		deps:         deps,
		log:          deps.Log.WithField("component", "tui"),
		keys:         k,
		taskList:     tasklist.New(k, 80, 22),
		helpView:     helpview.New(k, 80, 22),
		commandView:  command.New(80, 22),
		formView:     taskform.New(80, 22),
		statsView:    statsview.New(deps.Stats, k, 80, 22),
		categoryView: categorymgr.New(deps.Settings, k, 80, 22),
		detailView:   detail.New(k, 80, 22),
		prefsView:    prefs.New(deps.Settings, deps.Check, deps.Backend, k, 80, 22),
	}
	m.refresh()
	return m
}

// Init starts listening for reloads and writer events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.deps.Tasks.Changes()),
		m.deps.Writer.WaitForEvent(),
	)
}

// waitForChange blocks until the manager signals a reload.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return tasksChangedMsg{}
	}
}

// Update handles all incoming messages and routes them to the
// appropriate sub-view based on the current view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		return m, nil

	case tasksChangedMsg:
		theme.Apply(m.deps.Settings.Current().Theme)
		m.refresh()
		return m, waitForChange(m.deps.Tasks.Changes())

	case appsync.WriteErrorMsg:
		m.setFlash(fmt.Sprintf("%s failed, reloading", msg.Op), true)
		return m, m.deps.Writer.WaitForEvent()

	case appsync.ReconciledMsg:
		if msg.Err != nil {
			m.setFlash("reload failed: "+msg.Err.Error(), true)
		}
		theme.Apply(m.deps.Settings.Current().Theme)
		m.refresh()
		return m, m.deps.Writer.WaitForEvent()

	case taskform.SubmitMsg:
		m.currentView = ViewList
		m.submitForm(msg)
		m.refresh()
		return m, nil

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = ViewList
		return m, m.executeCommand(msg.Command)

	case categorymgr.CloseMsg, statsview.CloseMsg:
		m.currentView = ViewList
		m.refresh()
		return m, nil

	case categorymgr.ChangedMsg:
		m.refresh()
		return m, nil

	case detail.BackMsg:
		m.closeDetail()
		return m, nil

	case detail.ActionMsg:
		return m, m.detailAction(msg)

	case prefs.DoneMsg:
		m.currentView = ViewList
		return m, nil

	case prefs.SavedMsg:
		m.savePrefs(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if _, pending := m.deps.Stats.PendingMilestone(); pending {
			m.deps.Stats.AcknowledgeMilestone()
			m.resize()
			return m, nil
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
		if m.currentView == ViewList {
			return m.handleListKey(msg)
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey handles help, the command palette and back, which
// work from every view except the forms that take text input.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch m.currentView {
	case ViewForm, ViewCategories, ViewStats, ViewPrefs:
		return nil, false
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back) && m.currentView == ViewHelp:
		m.currentView = m.previousView
		return nil, true
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewStats:
		m.statsView, cmd = m.statsView.Update(msg)
	case ViewCategories:
		m.categoryView, cmd = m.categoryView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewPrefs:
		m.prefsView, cmd = m.prefsView.Update(msg)
	}

	return m, cmd
}

// resize pushes the layout to every sub-view. The banner line is
// reserved only while a milestone is pending.
func (m *Model) resize() {
	_, pending := m.deps.Stats.PendingMilestone()
	l := m.layout.WithBanner(pending)
	w, h := l.ContentWidth(), l.ContentHeight()

	m.taskList.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.formView.SetSize(w, h)
	m.statsView.SetSize(w, h)
	m.categoryView.SetSize(w, h)
	m.detailView.SetSize(w, h)
	m.prefsView.SetSize(w, h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	milestone, pending := m.deps.Stats.PendingMilestone()
	l := m.layout.WithBanner(pending)

	banner := ""
	if pending {
		banner = l.RenderBanner(fmt.Sprintf("%d tasks completed! Press any key to continue", milestone))
	}

	header := l.RenderHeader(m.title(), m.summary())
	statusBar := l.RenderStatusBar(m.keyHints(), m.writerState())

	return l.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewForm:
		return m.formView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewCategories:
		return m.categoryView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewPrefs:
		return m.prefsView.View()
	default:
		return ""
	}
}

// keyHints returns the flash message or keyboard hints for the status bar.
func (m Model) keyHints() string {
	if m.flash != "" && m.currentView == ViewList {
		if m.flashIsError {
			return theme.ErrorStyle.Render(m.flash)
		}
		return m.flash
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewForm:
		return "enter next | esc cancel"
	case ViewStats:
		return "esc back"
	case ViewCategories:
		return "n new | d delete | esc back"
	case ViewDetail:
		return "x done | t today | s subtask | e edit | d delete | esc back"
	case ViewPrefs:
		return "e edit | esc back"
	default:
		return "enter details | n new | x done | t today | e edit | d delete | ? help | q quit"
	}
}
