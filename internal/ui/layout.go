package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/theme"
)

// Layout manages the terminal layout dimensions: a one line header, an
// optional banner, the content area and a one line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	BannerHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// WithBanner returns a copy of l that reserves a line for a banner.
func (l Layout) WithBanner(on bool) Layout {
	l.BannerHeight = 0
	if on {
		l.BannerHeight = 1
	}
	return l
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.BannerHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with a title on the left and a
// summary on the right.
func (l Layout) RenderHeader(title, summary string) string {
	return l.spread(theme.HeaderStyle, title, summary)
}

// RenderBanner renders a full width celebration line.
func (l Layout) RenderBanner(text string) string {
	return theme.BannerStyle.
		Width(l.Width).
		Align(lipgloss.Center).
		Render(text)
}

// RenderStatusBar renders the bottom bar with hints on the left and the
// writer state on the right.
func (l Layout) RenderStatusBar(hints, state string) string {
	return l.spread(theme.StatusBarStyle, hints, state)
}

// spread lays left and right out on one line, filling the gap with the
// style's background.
func (l Layout) spread(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width -
		lipgloss.Width(leftRendered) -
		lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftRendered,
		filler,
		rightRendered,
	)
}

// RenderWithFrame vertically joins the header, an optional banner, the
// content area and the status bar.
func (l Layout) RenderWithFrame(header, banner, content, statusBar string) string {
	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
