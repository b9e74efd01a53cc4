package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: key bindings, then palette commands.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Current.Accent).
		MarginBottom(1)

	m.help.Width = m.width - 6
	m.help.ShowAll = true
	m.help.Styles.FullKey = lipgloss.NewStyle().Foreground(theme.Current.Accent)
	m.help.Styles.FullDesc = lipgloss.NewStyle().Foreground(theme.Current.Text)

	var cmds []string
	for _, c := range command.Usage() {
		cmds = append(cmds, theme.HelpStyle.Render(":"+c))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Commands"),
		lipgloss.JoinVertical(lipgloss.Left, cmds...),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 2).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 6
}
