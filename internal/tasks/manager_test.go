package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
	focussync "github.com/nhle/focus/internal/sync"
	"github.com/nhle/focus/internal/tasks"
	"github.com/nhle/focus/internal/testutil"
)

const owner = "device-1"

var start = time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)

type harness struct {
	m         *tasks.Manager
	w         *focussync.Writer
	store     store.Store
	clock     *testutil.Clock
	completed []model.Task
}

func newHarness(t *testing.T, s store.Store) *harness {
	t.Helper()
	if s == nil {
		s = testutil.NewTestStore(t)
	}
	h := &harness{store: s, clock: testutil.NewClock(start)}
	h.w = focussync.NewWriter(nil)
	t.Cleanup(h.w.Close)

	h.m = tasks.NewManager(s, owner,
		tasks.WithWriter(h.w),
		tasks.WithClock(h.clock.Now),
		tasks.OnCompleted(func(task model.Task) { h.completed = append(h.completed, task) }),
	)
	h.w.OnReconcile(h.m.Reload)
	require.NoError(t, h.m.Load(context.Background()))
	return h
}

// stored returns the persisted tasks once all writes have landed.
func (h *harness) stored(t *testing.T) map[int64]model.Task {
	t.Helper()
	h.w.Wait()
	rows, err := h.store.ListTasks(context.Background(), owner)
	require.NoError(t, err)
	out := make(map[int64]model.Task, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out
}

func (h *harness) get(t *testing.T, id int64) model.Task {
	t.Helper()
	task, ok := h.m.Get(id)
	require.True(t, ok, "task %d should exist", id)
	return task
}

func strPtr(s string) *string { return &s }

func TestAddTask(t *testing.T) {
	h := newHarness(t, nil)

	_, ok := h.m.AddTask("   ", tasks.AddOptions{})
	assert.False(t, ok, "blank text is rejected")

	bad := model.Priority("urgent")
	_, ok = h.m.AddTask("x", tasks.AddOptions{Priority: &bad})
	assert.False(t, ok, "unknown priority is rejected")

	id, ok := h.m.AddTask("  buy milk  ", tasks.AddOptions{})
	require.True(t, ok)

	task := h.get(t, id)
	assert.Equal(t, "buy milk", task.Text)
	assert.False(t, task.Completed)
	assert.Nil(t, task.Category)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.Priority)

	prio := model.PriorityHigh
	id2, ok := h.m.AddTask("file taxes", tasks.AddOptions{
		Category: strPtr("work"),
		DueDate:  model.Date("2026-10-20").Ptr(),
		Priority: &prio,
		Today:    true,
	})
	require.True(t, ok)
	assert.Greater(t, id2, id)

	stored := h.stored(t)
	require.Len(t, stored, 2)
	got := stored[id2]
	require.NotNil(t, got.Category)
	assert.Equal(t, "work", *got.Category)
	require.NotNil(t, got.Priority)
	assert.Equal(t, model.PriorityHigh, *got.Priority)
	assert.True(t, got.TodayOn(model.DateOf(start)))
	assert.Equal(t, 1, got.Position, "new tasks go to the end")
}

func TestDeleteRootCascades(t *testing.T) {
	h := newHarness(t, nil)

	root, _ := h.m.AddTask("trip", tasks.AddOptions{})
	a, ok := h.m.AddSubtask(root, "book flight")
	require.True(t, ok)
	b, ok := h.m.AddSubtask(root, "pack")
	require.True(t, ok)
	other, _ := h.m.AddTask("other", tasks.AddOptions{})

	assert.Equal(t, []int64{a, b}, h.m.SubtaskIDs(root))
	require.True(t, h.m.Delete(root))

	for _, id := range []int64{root, a, b} {
		_, ok := h.m.Get(id)
		assert.False(t, ok)
	}
	stored := h.stored(t)
	assert.Len(t, stored, 1)
	assert.Contains(t, stored, other)
}

func TestDeleteSubtaskDetaches(t *testing.T) {
	h := newHarness(t, nil)

	root, _ := h.m.AddTask("trip", tasks.AddOptions{})
	a, _ := h.m.AddSubtask(root, "book flight")
	b, _ := h.m.AddSubtask(root, "pack")

	require.True(t, h.m.Delete(a))
	assert.Equal(t, []int64{b}, h.m.SubtaskIDs(root))
	assert.Len(t, h.stored(t), 2)

	assert.False(t, h.m.Delete(a), "second delete is a no-op")
}

func TestAddSubtaskRules(t *testing.T) {
	h := newHarness(t, nil)

	root, _ := h.m.AddTask("trip", tasks.AddOptions{})
	child, _ := h.m.AddSubtask(root, "pack")

	_, ok := h.m.AddSubtask(child, "nested")
	assert.False(t, ok, "subtasks cannot have children")
	_, ok = h.m.AddSubtask(12345, "orphan")
	assert.False(t, ok)
	_, ok = h.m.AddSubtask(root, " ")
	assert.False(t, ok)

	h.m.Toggle(root)
	require.True(t, h.get(t, root).Completed)

	_, ok = h.m.AddSubtask(root, "buy adapter")
	require.True(t, ok)
	assert.False(t, h.get(t, root).Completed, "an open subtask reopens the parent")
	assert.False(t, h.stored(t)[root].Completed)
}

func TestRollupUp(t *testing.T) {
	h := newHarness(t, nil)

	p, _ := h.m.AddTask("parent", tasks.AddOptions{})
	a, _ := h.m.AddSubtask(p, "a")
	b, _ := h.m.AddSubtask(p, "b")

	h.m.Toggle(a)
	assert.False(t, h.get(t, p).Completed)

	h.m.Toggle(b)
	assert.True(t, h.get(t, p).Completed)
	assert.True(t, h.stored(t)[p].Completed)

	h.m.Toggle(b)
	assert.False(t, h.get(t, p).Completed)
	assert.True(t, h.get(t, a).Completed, "siblings keep their state")
	assert.False(t, h.stored(t)[p].Completed)
}

func TestRollupDown(t *testing.T) {
	h := newHarness(t, nil)

	p, _ := h.m.AddTask("parent", tasks.AddOptions{})
	a, _ := h.m.AddSubtask(p, "a")
	b, _ := h.m.AddSubtask(p, "b")
	h.m.Toggle(a)

	h.m.Toggle(p)
	for _, id := range []int64{p, a, b} {
		assert.True(t, h.get(t, id).Completed)
	}

	h.m.Toggle(p)
	stored := h.stored(t)
	for _, id := range []int64{p, a, b} {
		assert.False(t, h.get(t, id).Completed)
		assert.False(t, stored[id].Completed)
	}
}

func TestCompletionEvents(t *testing.T) {
	h := newHarness(t, nil)

	plain, _ := h.m.AddTask("plain", tasks.AddOptions{})
	p, _ := h.m.AddTask("parent", tasks.AddOptions{})
	a, _ := h.m.AddSubtask(p, "only child")

	h.m.Toggle(plain)
	h.m.Toggle(plain)
	require.Len(t, h.completed, 1)
	assert.Equal(t, plain, h.completed[0].ID)

	h.m.Toggle(a)
	require.Len(t, h.completed, 2, "parent rollup does not add an event")
	assert.Equal(t, a, h.completed[1].ID)
	assert.True(t, h.get(t, p).Completed)

	assert.False(t, h.m.Toggle(999))
	assert.Len(t, h.completed, 2)
}

func TestTodayExpiresOnLoad(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	yesterday := model.DateOf(start).AddDays(-1)
	stale, err := s.InsertTask(ctx, owner, model.Task{Text: "old focus", IsToday: true, TodayDate: &yesterday})
	require.NoError(t, err)
	fresh, err := s.InsertTask(ctx, owner, model.Task{Text: "new focus", IsToday: true, TodayDate: model.DateOf(start).Ptr()})
	require.NoError(t, err)

	h := newHarness(t, s)

	got := h.get(t, stale.ID)
	assert.False(t, got.IsToday)
	assert.Nil(t, got.TodayDate)
	assert.True(t, h.get(t, fresh.ID).IsToday)

	stored := h.stored(t)
	assert.False(t, stored[stale.ID].IsToday)
	assert.Nil(t, stored[stale.ID].TodayDate)
}

func TestTodayExpiresWhenDayRollsOver(t *testing.T) {
	h := newHarness(t, nil)

	id, _ := h.m.AddTask("focus", tasks.AddOptions{})
	require.True(t, h.m.ToggleToday(id))

	task := h.get(t, id)
	assert.True(t, task.IsToday)
	require.NotNil(t, task.TodayDate)
	assert.Equal(t, model.DateOf(start), *task.TodayDate)

	h.clock.AddDays(1)
	snap := h.m.Snapshot()
	require.Len(t, snap, 1)
	assert.False(t, snap[0].IsToday)
	assert.Nil(t, snap[0].TodayDate)
	assert.False(t, h.stored(t)[id].IsToday)
}

func TestToggleTodayOff(t *testing.T) {
	h := newHarness(t, nil)

	id, _ := h.m.AddTask("focus", tasks.AddOptions{Today: true})
	require.True(t, h.m.ToggleToday(id))

	task := h.get(t, id)
	assert.False(t, task.IsToday)
	assert.Nil(t, task.TodayDate)
	assert.False(t, h.m.ToggleToday(404))
}

func texts(list []model.Task) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Text)
	}
	return out
}

func TestReorder(t *testing.T) {
	h := newHarness(t, nil)

	ids := map[string]int64{}
	for _, text := range []string{"a", "b", "c", "d"} {
		ids[text], _ = h.m.AddTask(text, tasks.AddOptions{})
	}

	require.True(t, h.m.Reorder(ids["a"], ids["c"]))
	assert.Equal(t, []string{"b", "c", "a", "d"}, texts(h.m.Snapshot()))

	require.True(t, h.m.Reorder(ids["d"], ids["b"]))
	assert.Equal(t, []string{"d", "b", "c", "a"}, texts(h.m.Snapshot()))

	stored := h.stored(t)
	for i, text := range []string{"d", "b", "c", "a"} {
		assert.Equal(t, i, stored[ids[text]].Position, text)
	}
}

func TestReorderRoundTripRestoresOrder(t *testing.T) {
	h := newHarness(t, nil)

	var ids []int64
	for _, text := range []string{"a", "b", "c"} {
		id, _ := h.m.AddTask(text, tasks.AddOptions{})
		ids = append(ids, id)
	}
	before := texts(h.m.Snapshot())

	require.True(t, h.m.Reorder(ids[0], ids[1]))
	assert.Equal(t, []string{"b", "a", "c"}, texts(h.m.Snapshot()))
	require.True(t, h.m.Reorder(ids[1], ids[0]))
	assert.Equal(t, before, texts(h.m.Snapshot()))
}

func TestReorderRejectsCrossScope(t *testing.T) {
	h := newHarness(t, nil)

	p1, _ := h.m.AddTask("p1", tasks.AddOptions{})
	p2, _ := h.m.AddTask("p2", tasks.AddOptions{})
	a, _ := h.m.AddSubtask(p1, "a")
	b, _ := h.m.AddSubtask(p1, "b")
	c, _ := h.m.AddSubtask(p2, "c")

	assert.False(t, h.m.Reorder(a, p2), "subtask onto root")
	assert.False(t, h.m.Reorder(a, c), "different parents")
	assert.False(t, h.m.Reorder(a, 999))
	assert.False(t, h.m.Reorder(a, a))

	require.True(t, h.m.Reorder(b, a))
	assert.Equal(t, []int64{b, a}, h.m.SubtaskIDs(p1))
	assert.Equal(t, []string{"p1", "b", "a", "p2", "c"}, texts(h.m.Snapshot()))
}

func TestMove(t *testing.T) {
	h := newHarness(t, nil)

	a, _ := h.m.AddTask("a", tasks.AddOptions{})
	h.m.AddTask("b", tasks.AddOptions{})

	assert.False(t, h.m.Move(a, -1), "already first")
	require.True(t, h.m.Move(a, 1))
	assert.Equal(t, []string{"b", "a"}, texts(h.m.Snapshot()))
}

func TestUpdateFieldsPartialSemantics(t *testing.T) {
	h := newHarness(t, nil)

	prio := model.PriorityMedium
	id, _ := h.m.AddTask("task", tasks.AddOptions{
		Category: strPtr("work"),
		DueDate:  model.Date("2026-11-01").Ptr(),
		Priority: &prio,
	})

	require.True(t, h.m.UpdateFields(id, tasks.TaskPatch{}))
	task := h.get(t, id)
	require.NotNil(t, task.Category)
	require.NotNil(t, task.DueDate)
	require.NotNil(t, task.Priority)

	require.True(t, h.m.UpdateFields(id, tasks.TaskPatch{Category: tasks.Clear[string]()}))
	task = h.get(t, id)
	assert.Nil(t, task.Category)
	assert.NotNil(t, task.DueDate, "untouched")
	assert.NotNil(t, task.Priority, "untouched")

	require.True(t, h.m.UpdateFields(id, tasks.TaskPatch{
		Priority: tasks.Set(model.PriorityHigh),
		DueDate:  tasks.Clear[model.Date](),
	}))
	task = h.get(t, id)
	assert.Nil(t, task.DueDate)
	require.NotNil(t, task.Priority)
	assert.Equal(t, model.PriorityHigh, *task.Priority)

	assert.False(t, h.m.UpdateFields(id, tasks.TaskPatch{DueDate: tasks.Set(model.Date("tomorrow"))}))
	assert.False(t, h.m.UpdateFields(404, tasks.TaskPatch{}))

	stored := h.stored(t)[id]
	assert.Nil(t, stored.Category)
	assert.Nil(t, stored.DueDate)
	require.NotNil(t, stored.Priority)
	assert.Equal(t, model.PriorityHigh, *stored.Priority)
}

func TestUpdateText(t *testing.T) {
	h := newHarness(t, nil)

	id, _ := h.m.AddTask("draft", tasks.AddOptions{})
	assert.False(t, h.m.UpdateText(id, "  "))
	assert.Equal(t, "draft", h.get(t, id).Text)

	require.True(t, h.m.UpdateText(id, " final "))
	assert.Equal(t, "final", h.stored(t)[id].Text)
}

func TestClearCompletedTakesSubtasksOfCompletedRoots(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	insert := func(task model.Task) int64 {
		row, err := s.InsertTask(ctx, owner, task)
		require.NoError(t, err)
		return row.ID
	}
	done := insert(model.Task{Text: "done root", Completed: true, Position: 0})
	insert(model.Task{Text: "open child", ParentID: &done})
	open := insert(model.Task{Text: "open root", Position: 1})
	insert(model.Task{Text: "done child", ParentID: &open, Completed: true, Position: 0})
	keepChild := insert(model.Task{Text: "keep child", ParentID: &open, Position: 1})

	h := newHarness(t, s)

	removed := h.m.ClearCompleted()
	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"open root", "keep child"}, texts(h.m.Snapshot()))

	stored := h.stored(t)
	assert.Len(t, stored, 2)
	assert.Contains(t, stored, open)
	assert.Contains(t, stored, keepChild)
	assert.Equal(t, []int64{keepChild}, h.m.SubtaskIDs(open))

	assert.Equal(t, 0, h.m.ClearCompleted())
}

func TestClearAll(t *testing.T) {
	h := newHarness(t, nil)

	root, _ := h.m.AddTask("a", tasks.AddOptions{})
	h.m.AddSubtask(root, "b")
	h.m.AddTask("c", tasks.AddOptions{})

	assert.Equal(t, 3, h.m.ClearAll())
	assert.Empty(t, h.m.Snapshot())
	assert.Empty(t, h.stored(t))
}

func TestRemoveCategory(t *testing.T) {
	h := newHarness(t, nil)

	a, _ := h.m.AddTask("a", tasks.AddOptions{Category: strPtr("garden")})
	b, _ := h.m.AddTask("b", tasks.AddOptions{Category: strPtr("work")})

	assert.Equal(t, 1, h.m.RemoveCategory("garden"))
	assert.Nil(t, h.get(t, a).Category)
	assert.NotNil(t, h.get(t, b).Category)
	assert.Nil(t, h.stored(t)[a].Category)
}

func TestLoadSeedsIDsAboveStoredRows(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	far := start.Add(time.Hour).UnixMilli()
	_, err := s.InsertTask(ctx, owner, model.Task{ID: far, Text: "from another session"})
	require.NoError(t, err)

	h := newHarness(t, s)
	id, ok := h.m.AddTask("new", tasks.AddOptions{})
	require.True(t, ok)
	assert.Greater(t, id, far)
}

// failingStore rejects task updates while failing is set.
type failingStore struct {
	*store.SQLiteStore
	failing atomic.Bool
}

func (f *failingStore) UpdateTask(ctx context.Context, owner string, id int64, fields store.Fields) error {
	if f.failing.Load() {
		return errors.New("backend unavailable")
	}
	return f.SQLiteStore.UpdateTask(ctx, owner, id, fields)
}

func TestFailedWriteReconcilesFromStore(t *testing.T) {
	fs := &failingStore{SQLiteStore: testutil.NewTestStore(t)}
	h := newHarness(t, fs)

	id, _ := h.m.AddTask("flaky", tasks.AddOptions{})
	h.w.Wait()

	fs.failing.Store(true)
	h.m.Toggle(id)
	assert.True(t, h.get(t, id).Completed, "optimistic state is applied at once")

	h.w.Wait()
	assert.False(t, h.get(t, id).Completed, "rejected change snaps back")

	st := h.w.Status()
	assert.Equal(t, 0, st.Pending)

	fs.failing.Store(false)
	h.m.Toggle(id)
	assert.True(t, h.stored(t)[id].Completed)
}

// pausingStore holds the first ListTasks after paused is set until
// release is closed.
type pausingStore struct {
	*failingStore
	paused  atomic.Bool
	fetched chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	rows, err := p.failingStore.ListTasks(ctx, owner)
	if p.paused.CompareAndSwap(true, false) {
		close(p.fetched)
		<-p.release
	}
	return rows, err
}

func TestChangeDuringReconcileIsKept(t *testing.T) {
	ps := &pausingStore{
		failingStore: &failingStore{SQLiteStore: testutil.NewTestStore(t)},
		fetched:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	h := newHarness(t, ps)

	id, _ := h.m.AddTask("flaky", tasks.AddOptions{})
	h.w.Wait()

	ps.failing.Store(true)
	ps.paused.Store(true)
	h.m.Toggle(id)

	// The reconcile has read its rows and is held before installing them.
	<-ps.fetched
	ps.failing.Store(false)
	added, ok := h.m.AddTask("added while reconciling", tasks.AddOptions{})
	require.True(t, ok)
	close(ps.release)

	stored := h.stored(t)
	assert.Contains(t, stored, added)
	_, inMemory := h.m.Get(added)
	assert.True(t, inMemory, "change made during reconcile stays in memory")

	assert.False(t, h.get(t, id).Completed, "rejected toggle still snaps back")
	assert.False(t, stored[id].Completed)
	assert.Len(t, h.m.Snapshot(), len(stored))
}

func TestIDAllocatorIsMonotonic(t *testing.T) {
	clock := testutil.NewClock(start)
	ids := tasks.NewIDAllocator(clock.Now)

	first := ids.Next()
	second := ids.Next()
	assert.Equal(t, start.UnixMilli(), first)
	assert.Equal(t, first+1, second, "same millisecond still yields a new id")

	clock.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second).UnixMilli(), ids.Next())

	ids.Seed(start.Add(time.Hour).UnixMilli())
	assert.Equal(t, start.Add(time.Hour).UnixMilli()+1, ids.Next())
}
