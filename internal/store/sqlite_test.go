package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
	"github.com/nhle/focus/internal/testutil"
)

const owner = "device-1"

func strPtr(s string) *string { return &s }

func TestInsertAndListTasks(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	prio := model.PriorityHigh
	root, err := s.InsertTask(ctx, owner, model.Task{
		Text:     "write report",
		Category: strPtr("work"),
		DueDate:  model.Date("2026-03-01").Ptr(),
		Priority: &prio,
		Position: 1,
	})
	require.NoError(t, err)
	assert.NotZero(t, root.ID)

	first, err := s.InsertTask(ctx, owner, model.Task{ID: 42, Text: "first", Position: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(42), first.ID)

	parent := root.ID
	_, err = s.InsertTask(ctx, owner, model.Task{Text: "outline", ParentID: &parent})
	require.NoError(t, err)

	_, err = s.InsertTask(ctx, "someone-else", model.Task{Text: "not mine"})
	require.NoError(t, err)

	tasks, err := s.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "first", tasks[0].Text)
	assert.Equal(t, "write report", tasks[1].Text)
	assert.Equal(t, "outline", tasks[2].Text)

	got := tasks[1]
	require.NotNil(t, got.Category)
	assert.Equal(t, "work", *got.Category)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, model.Date("2026-03-01"), *got.DueDate)
	require.NotNil(t, got.Priority)
	assert.Equal(t, model.PriorityHigh, *got.Priority)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.TodayDate)

	require.NotNil(t, tasks[2].ParentID)
	assert.Equal(t, root.ID, *tasks[2].ParentID)
}

func TestInsertTaskRejectsBlankText(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.InsertTask(context.Background(), owner, model.Task{Text: "   "})
	assert.Error(t, err)
}

func TestUpdateTaskPartialFields(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	prio := model.PriorityLow
	task, err := s.InsertTask(ctx, owner, model.Task{
		Text:     "call mom",
		Category: strPtr("personal"),
		Priority: &prio,
	})
	require.NoError(t, err)

	err = s.UpdateTask(ctx, owner, task.ID, store.Fields{
		model.ColCategory:  nil,
		model.ColCompleted: true,
		model.ColIsToday:   true,
		model.ColTodayDate: model.Date("2026-10-17"),
	})
	require.NoError(t, err)

	tasks, err := s.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Nil(t, got.Category)
	assert.True(t, got.Completed)
	assert.True(t, got.IsToday)
	require.NotNil(t, got.TodayDate)
	assert.Equal(t, model.Date("2026-10-17"), *got.TodayDate)
	require.NotNil(t, got.Priority, "untouched column keeps its value")
	assert.Equal(t, model.PriorityLow, *got.Priority)
}

func TestUpdateTaskErrors(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	task, err := s.InsertTask(ctx, owner, model.Task{Text: "x"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		owner  string
		id     int64
		fields store.Fields
	}{
		{name: "unknown column", owner: owner, id: task.ID, fields: store.Fields{"owner_id": "evil"}},
		{name: "missing task", owner: owner, id: 999, fields: store.Fields{model.ColText: "y"}},
		{name: "other owner", owner: "other", id: task.ID, fields: store.Fields{model.ColText: "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.UpdateTask(ctx, tt.owner, tt.id, tt.fields))
		})
	}
}

func TestDeleteTaskCascadesToSubtasks(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	root, err := s.InsertTask(ctx, owner, model.Task{Text: "root"})
	require.NoError(t, err)
	pid := root.ID
	_, err = s.InsertTask(ctx, owner, model.Task{Text: "child", ParentID: &pid})
	require.NoError(t, err)
	_, err = s.InsertTask(ctx, owner, model.Task{Text: "other"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, owner, root.ID))

	tasks, err := s.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "other", tasks[0].Text)

	assert.Error(t, s.DeleteTask(ctx, owner, root.ID))
}

func TestDeleteTasksAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	var ids []int64
	for _, text := range []string{"a", "b", "c"} {
		task, err := s.InsertTask(ctx, owner, model.Task{Text: text})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	_, err := s.InsertTask(ctx, "other", model.Task{Text: "keep"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTasks(ctx, owner, ids[:2]))
	tasks, err := s.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "c", tasks[0].Text)

	require.NoError(t, s.DeleteAllTasks(ctx, owner))
	tasks, err = s.ListTasks(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	others, err := s.ListTasks(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestUpdatePositions(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	var ids []int64
	for i, text := range []string{"a", "b", "c"} {
		task, err := s.InsertTask(ctx, owner, model.Task{Text: text, Position: i})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, s.UpdatePositions(ctx, owner, map[int64]int{ids[0]: 2, ids[1]: 0, ids[2]: 1}))

	tasks, err := s.ListTasks(ctx, owner)
	require.NoError(t, err)
	var order []string
	for _, task := range tasks {
		order = append(order, task.Text)
	}
	assert.Equal(t, []string{"b", "c", "a"}, order)

	err = s.UpdatePositions(ctx, owner, map[int64]int{ids[0]: 0, 999: 1})
	require.Error(t, err)

	tasks, err = s.ListTasks(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "b", tasks[0].Text, "failed batch is rolled back")
}

func TestStatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.GetStats(ctx, owner)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	st := model.NewStats(owner)
	st.TotalCompleted = 12
	st.Streak = 3
	st.BestStreak = 5
	st.LastCompleteDate = model.Date("2026-10-16").Ptr()
	st.DailyCounts[model.Date("2026-10-16")] = 4
	require.NoError(t, s.UpsertStats(ctx, owner, st))

	st.TotalCompleted = 13
	require.NoError(t, s.UpsertStats(ctx, owner, st))

	got, err := s.GetStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 13, got.TotalCompleted)
	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, 5, got.BestStreak)
	require.NotNil(t, got.LastCompleteDate)
	assert.Equal(t, model.Date("2026-10-16"), *got.LastCompleteDate)
	assert.Equal(t, map[model.Date]int{"2026-10-16": 4}, got.DailyCounts)
}

func TestSettingsUpsertIsPartial(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.GetSettings(ctx, owner)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.UpsertSettings(ctx, owner, store.Fields{model.ColTheme: "ocean"}))
	require.NoError(t, s.UpsertSettings(ctx, owner, store.Fields{
		model.ColSoundEnabled: false,
		model.ColCategories:   []model.Category{{ID: "garden", Name: "Garden", Color: "#00FF00"}},
	}))

	got, err := s.GetSettings(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "ocean", got.Theme)
	assert.False(t, got.SoundEnabled)
	assert.True(t, got.ShowCompleted)
	assert.Equal(t, []model.Category{{ID: "garden", Name: "Garden", Color: "#00FF00"}}, got.Categories)

	assert.Error(t, s.UpsertSettings(ctx, owner, store.Fields{"owner_id": "x"}))
}
