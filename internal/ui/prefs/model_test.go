package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focus/internal/keys"
	"github.com/nhle/focus/internal/model"
)

type fixedSource struct{ s model.Settings }

func (f fixedSource) Current() model.Settings { return f.s }

func press(m Model, k string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func newPrefs(check Checker) Model {
	return New(fixedSource{model.DefaultSettings("me")}, check, "local", keys.DefaultKeyMap(), 80, 20)
}

func TestSummaryShowsSettings(t *testing.T) {
	out := newPrefs(nil).View()
	assert.Contains(t, out, "Preferences")
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "local")
	assert.NotContains(t, out, "check connection")
}

func TestEditSeedsFormFromSettings(t *testing.T) {
	m, _ := press(newPrefs(nil), "e")
	assert.Equal(t, ModeForm, m.mode)
	assert.Equal(t, "default", m.fb.theme)
	assert.True(t, m.fb.sound)
	assert.True(t, m.fb.showCompleted)
}

func TestEscCloses(t *testing.T) {
	_, cmd := newPrefs(nil).Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{}, cmd())
}

func TestConnectionCheck(t *testing.T) {
	calls := 0
	m := newPrefs(func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	m, cmd := press(m, "c")
	require.NotNil(t, cmd)
	assert.Equal(t, ModeChecking, m.mode)

	// Run the check directly rather than through the batch.
	start := time.Now()
	err := m.check(context.Background())
	m, _ = m.Update(checkResultMsg{err: err, elapsed: time.Since(start)})
	assert.Equal(t, ModeCheckResult, m.mode)
	assert.Contains(t, m.View(), "Connection failed")
	assert.Contains(t, m.View(), "connection refused")
	assert.Equal(t, 1, calls)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeSummary, m.mode)
}

func TestLateCheckResultIsIgnored(t *testing.T) {
	m := newPrefs(func(context.Context) error { return nil })
	m, _ = press(m, "c")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ModeSummary, m.mode)

	m, _ = m.Update(checkResultMsg{})
	assert.Equal(t, ModeSummary, m.mode)
}
