package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focus/internal/app"
)

// runTUI opens a session and runs the interactive app until it quits.
func runTUI(ctx context.Context, flags *globalFlags) error {
	s, err := openSession(ctx, flags, true)
	if err != nil {
		return err
	}
	defer s.Close()

	m := app.New(app.Deps{
		Tasks:    s.tasks,
		Stats:    s.stats,
		Settings: s.settings,
		Writer:   s.writer,
		Log:      s.log,
		Backend:  s.backend,
		Check:    s.ping,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
