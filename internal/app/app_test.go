package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/settings"
	"github.com/nhle/focus/internal/stats"
	appsync "github.com/nhle/focus/internal/sync"
	"github.com/nhle/focus/internal/tasks"
	"github.com/nhle/focus/internal/testutil"
	"github.com/nhle/focus/internal/theme"
	"github.com/nhle/focus/internal/ui/command"
	"github.com/nhle/focus/internal/ui/detail"
	"github.com/nhle/focus/internal/ui/prefs"
	"github.com/nhle/focus/internal/ui/taskform"
)

const owner = "device-1"

type fixture struct {
	m    Model
	deps Deps
	bell *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	clock := testutil.NewClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local))

	w := appsync.NewWriter(nil)
	t.Cleanup(w.Close)

	tracker := stats.NewTracker(s, owner, stats.WithWriter(w), stats.WithClock(clock.Now))
	mgr := tasks.NewManager(s, owner,
		tasks.WithWriter(w),
		tasks.WithClock(clock.Now),
		tasks.OnCompleted(func(model.Task) { tracker.RecordCompletion() }),
	)
	svc := settings.NewService(s, owner, settings.WithWriter(w), settings.WithTasks(mgr))
	require.NoError(t, mgr.Load(ctx))
	require.NoError(t, tracker.Load(ctx))
	require.NoError(t, svc.Load(ctx))
	t.Cleanup(func() { theme.Apply(theme.DefaultName) })

	bell := &bytes.Buffer{}
	deps := Deps{Tasks: mgr, Stats: tracker, Settings: svc, Writer: w, Backend: "local", Bell: bell}
	return &fixture{deps: deps, bell: bell}
}

func (f *fixture) start() {
	f.m = New(f.deps)
	f.send(tea.WindowSizeMsg{Width: 100, Height: 30})
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(Model)
	return cmd
}

func (f *fixture) press(k string) tea.Cmd {
	return f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestCursorStartsOnFirstTask(t *testing.T) {
	f := newFixture(t)
	f.deps.Tasks.AddTask("first", tasks.AddOptions{})
	f.deps.Tasks.AddTask("second", tasks.AddOptions{})
	f.start()

	sel, ok := f.m.taskList.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, "first", sel.Text)

	f.press("j")
	sel, _ = f.m.taskList.SelectedTask()
	assert.Equal(t, "second", sel.Text)
}

func TestToggleRecordsCompletionAndRings(t *testing.T) {
	f := newFixture(t)
	id, _ := f.deps.Tasks.AddTask("write report", tasks.AddOptions{})
	f.start()

	cmd := f.press("x")
	require.NotNil(t, cmd)
	cmd()

	got, _ := f.deps.Tasks.Get(id)
	assert.True(t, got.Completed)
	assert.Equal(t, 1, f.deps.Stats.Snapshot().TotalCompleted)
	assert.Equal(t, "\a", f.bell.String())

	// Reopening does not count or ring.
	assert.Nil(t, f.press("x"))
	assert.Equal(t, 1, f.deps.Stats.Snapshot().TotalCompleted)
}

func TestSoundOffStaysQuiet(t *testing.T) {
	f := newFixture(t)
	f.deps.Tasks.AddTask("quiet", tasks.AddOptions{})
	f.deps.Settings.SetSoundEnabled(false)
	f.start()

	assert.Nil(t, f.press("x"))
	assert.Empty(t, f.bell.String())
}

func TestMilestoneBannerIsAcknowledgedByNextKey(t *testing.T) {
	f := newFixture(t)
	for range 9 {
		f.deps.Stats.RecordCompletion()
	}
	f.deps.Tasks.AddTask("tenth", tasks.AddOptions{})
	f.deps.Tasks.AddTask("eleventh", tasks.AddOptions{})
	f.start()

	f.press("x")
	ms, pending := f.deps.Stats.PendingMilestone()
	require.True(t, pending)
	assert.Equal(t, 10, ms)
	assert.Contains(t, f.m.View(), "10 tasks completed")

	// The key only dismisses the banner.
	f.press("j")
	_, pending = f.deps.Stats.PendingMilestone()
	assert.False(t, pending)
	sel, _ := f.m.taskList.SelectedTask()
	assert.Equal(t, "tenth", sel.Text)
}

func TestFormSubmitAddsTask(t *testing.T) {
	f := newFixture(t)
	f.start()

	f.send(taskform.SubmitMsg{
		Mode:   taskform.ModeCreate,
		Values: taskform.Values{Text: "buy milk", Category: "shopping", Priority: "high", DueDate: "2026-10-20", Today: true},
		Full:   true,
	})

	snap := f.deps.Tasks.Snapshot()
	require.Len(t, snap, 1)
	task := snap[0]
	assert.Equal(t, "buy milk", task.Text)
	assert.True(t, task.HasCategory("shopping"))
	require.NotNil(t, task.Priority)
	assert.Equal(t, model.PriorityHigh, *task.Priority)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, model.Date("2026-10-20"), *task.DueDate)
	assert.True(t, task.TodayOn(f.deps.Tasks.Today()))
	assert.Equal(t, ViewList, f.m.currentView)

	sel, ok := f.m.taskList.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, task.ID, sel.ID)
}

func TestFormSubmitSubtask(t *testing.T) {
	f := newFixture(t)
	parent, _ := f.deps.Tasks.AddTask("trip", tasks.AddOptions{})
	f.start()

	f.send(taskform.SubmitMsg{Mode: taskform.ModeCreateSubtask, TaskID: parent, Values: taskform.Values{Text: "pack"}})

	subs := f.deps.Tasks.Subtasks(parent)
	require.Len(t, subs, 1)
	assert.Equal(t, "pack", subs[0].Text)
}

func TestEditPatchClearsEmptiedFields(t *testing.T) {
	f := newFixture(t)
	cat, pri, due := "work", model.PriorityLow, model.Date("2026-10-18")
	id, _ := f.deps.Tasks.AddTask("old", tasks.AddOptions{Category: &cat, Priority: &pri, DueDate: &due})
	f.start()

	f.send(taskform.SubmitMsg{Mode: taskform.ModeEdit, TaskID: id, Values: taskform.Values{Text: "new"}, Full: true})

	got, _ := f.deps.Tasks.Get(id)
	assert.Equal(t, "new", got.Text)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.Priority)
	assert.Nil(t, got.DueDate)
}

func TestCommands(t *testing.T) {
	f := newFixture(t)
	a, _ := f.deps.Tasks.AddTask("done", tasks.AddOptions{})
	f.deps.Tasks.AddTask("open", tasks.AddOptions{})
	f.deps.Tasks.Toggle(a)
	f.start()

	f.send(command.CommandMsg{Command: command.Command{Kind: command.ClearCompleted}})
	assert.Equal(t, 1, f.deps.Tasks.Len())
	assert.Contains(t, f.m.flash, "cleared 1")

	f.send(command.CommandMsg{Command: command.Command{Kind: command.Theme, Arg: "ocean"}})
	assert.Equal(t, "ocean", f.deps.Settings.Current().Theme)
	assert.Equal(t, "ocean", theme.Current.Name)

	f.send(command.CommandMsg{Command: command.Command{Kind: command.Filter, Arg: "nope"}})
	assert.Empty(t, f.m.filter)
	assert.True(t, f.m.flashIsError)

	f.send(command.CommandMsg{Command: command.Command{Kind: command.Filter, Arg: "work"}})
	assert.Equal(t, "work", f.m.filter)

	f.send(command.CommandMsg{Command: command.Command{Kind: command.ResetStats}})
	assert.Zero(t, f.deps.Stats.Snapshot().TotalCompleted)

	f.send(command.CommandMsg{Command: command.Command{Kind: command.ClearAll}})
	assert.Zero(t, f.deps.Tasks.Len())
}

func TestThemeKeyCyclesAndPersists(t *testing.T) {
	f := newFixture(t)
	f.start()

	f.press("T")
	want := theme.Next(theme.DefaultName)
	assert.Equal(t, want, theme.Current.Name)
	assert.Equal(t, want, f.deps.Settings.Current().Theme)
}

func TestHelpAndPaletteRouting(t *testing.T) {
	f := newFixture(t)
	f.start()

	f.press("?")
	assert.Equal(t, ViewHelp, f.m.currentView)
	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, f.m.currentView)

	f.press(":")
	assert.Equal(t, ViewCommand, f.m.currentView)
	// Typing in the palette must not trigger list actions.
	f.press("q")
	assert.Equal(t, ViewCommand, f.m.currentView)
	f.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, f.m.currentView)

	f.press("S")
	assert.Equal(t, ViewStats, f.m.currentView)
	cmd := f.send(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	f.send(cmd())
	assert.Equal(t, ViewList, f.m.currentView)
}

func TestDetailViewActions(t *testing.T) {
	f := newFixture(t)
	id, _ := f.deps.Tasks.AddTask("plan trip", tasks.AddOptions{})
	f.deps.Tasks.AddSubtask(id, "book hotel")
	f.start()

	f.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, f.m.currentView)
	assert.Contains(t, f.m.View(), "Subtasks (0/1)")

	f.send(detail.ActionMsg{Action: detail.ActionToday, TaskID: id})
	got, _ := f.deps.Tasks.Get(id)
	assert.True(t, got.IsToday)
	assert.Equal(t, ViewDetail, f.m.currentView)

	f.send(detail.ActionMsg{Action: detail.ActionToggle, TaskID: id})
	assert.Contains(t, f.m.View(), "Subtasks (1/1)")

	f.send(detail.ActionMsg{Action: detail.ActionDelete, TaskID: id})
	assert.Equal(t, ViewList, f.m.currentView)
	assert.Zero(t, f.deps.Tasks.Len())
}

func TestDetailBackReturnsToList(t *testing.T) {
	f := newFixture(t)
	f.deps.Tasks.AddTask("read", tasks.AddOptions{})
	f.start()

	f.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, f.m.currentView)
	cmd := f.send(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	f.send(cmd())
	assert.Equal(t, ViewList, f.m.currentView)
}

func TestPreferencesSave(t *testing.T) {
	f := newFixture(t)
	f.start()

	f.press(",")
	require.Equal(t, ViewPrefs, f.m.currentView)

	f.send(prefs.SavedMsg{Theme: "ocean", SoundEnabled: false, ShowCompleted: false})
	cur := f.deps.Settings.Current()
	assert.Equal(t, "ocean", cur.Theme)
	assert.Equal(t, "ocean", theme.Current.Name)
	assert.False(t, cur.SoundEnabled)
	assert.False(t, cur.ShowCompleted)

	f.send(prefs.DoneMsg{})
	assert.Equal(t, ViewList, f.m.currentView)
}

func TestNextFilter(t *testing.T) {
	cats := []model.Category{{ID: "work"}, {ID: "home"}}
	assert.Equal(t, "work", nextFilter("", cats))
	assert.Equal(t, "home", nextFilter("work", cats))
	assert.Equal(t, "", nextFilter("home", cats))
	assert.Equal(t, "", nextFilter("", nil))
}
