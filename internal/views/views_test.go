package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/views"
)

const today = model.Date("2026-10-17")

func ptr[T any](v T) *T { return &v }

func fixture() []model.Task {
	return []model.Task{
		{ID: 1, Text: "focus", IsToday: true, TodayDate: ptr(today), Category: ptr("work")},
		{ID: 2, Text: "sub of focus", ParentID: ptr(int64(1)), Completed: true},
		{ID: 3, Text: "stale focus", IsToday: true, TodayDate: ptr(today.AddDays(-1))},
		{ID: 4, Text: "later", Category: ptr("personal"), Completed: true},
		{ID: 5, Text: "sub of later", ParentID: ptr(int64(4))},
		{ID: 6, Text: "plain"},
	}
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestPartitions(t *testing.T) {
	tasks := fixture()

	assert.Equal(t, []int64{1, 3, 4, 6}, ids(views.Roots(tasks)))
	assert.Equal(t, []int64{1}, ids(views.Today(tasks, today)))
	assert.Equal(t, []int64{3, 4, 6}, ids(views.Later(tasks, today)))
	assert.Equal(t, []int64{2}, ids(views.Subtasks(tasks, 1)))
	assert.Empty(t, views.Subtasks(tasks, 6))
}

func TestFilterCategory(t *testing.T) {
	tasks := views.Roots(fixture())

	tests := []struct {
		name     string
		category string
		want     []int64
	}{
		{name: "empty filter keeps all", category: "", want: []int64{1, 3, 4, 6}},
		{name: "work", category: "work", want: []int64{1}},
		{name: "personal", category: "personal", want: []int64{4}},
		{name: "unknown", category: "shopping", want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(views.FilterCategory(tasks, tt.category)))
		})
	}
}

func TestAddedTaskWithoutCategoryOnlyShowsUnfiltered(t *testing.T) {
	tasks := append(fixture(), model.Task{ID: 7, Text: "new"})

	assert.Contains(t, ids(views.FilterCategory(tasks, "")), int64(7))
	for _, c := range model.DefaultCategories {
		assert.NotContains(t, ids(views.FilterCategory(tasks, c.ID)), int64(7), c.ID)
	}
}

func TestCounts(t *testing.T) {
	remaining, completed := views.Counts(views.Roots(fixture()))
	assert.Equal(t, 3, remaining)
	assert.Equal(t, 1, completed)

	remaining, completed = views.Counts(nil)
	assert.Zero(t, remaining)
	assert.Zero(t, completed)
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{name: "no due date", task: model.Task{}, want: false},
		{name: "due yesterday", task: model.Task{DueDate: ptr(today.AddDays(-1))}, want: true},
		{name: "due today", task: model.Task{DueDate: ptr(today)}, want: false},
		{name: "done", task: model.Task{DueDate: ptr(today.AddDays(-3)), Completed: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, views.IsOverdue(tt.task, today))
		})
	}
}

func TestBuildAndFlatten(t *testing.T) {
	v := views.Build(fixture(), today, views.Query{})

	assert.Equal(t, []int64{1}, ids(v.Today.Tasks))
	assert.Equal(t, []int64{3, 4, 6}, ids(v.Later.Tasks))
	assert.Equal(t, 3, v.Remaining)
	assert.Equal(t, 1, v.Completed)

	rows := views.Flatten(v)
	var got []int64
	var depths []int
	headers := 0
	for _, r := range rows {
		if r.Header {
			headers++
			continue
		}
		got = append(got, r.Task.ID)
		depths = append(depths, r.Depth)
	}
	assert.Equal(t, 2, headers)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, got)
	assert.Equal(t, []int{0, 1, 0, 0, 1, 0}, depths)
}

func TestBuildHidesCompletedAndFilters(t *testing.T) {
	v := views.Build(fixture(), today, views.Query{HideCompleted: true})
	rows := views.Flatten(v)

	var got []int64
	for _, r := range rows {
		if !r.Header {
			got = append(got, r.Task.ID)
		}
	}
	assert.Equal(t, []int64{1, 3, 6}, got)

	v = views.Build(fixture(), today, views.Query{Category: "personal"})
	assert.Empty(t, v.Today.Tasks)
	assert.Equal(t, []int64{4}, ids(v.Later.Tasks))
	assert.Equal(t, 0, v.Remaining)
	assert.Equal(t, 1, v.Completed)

	rows = views.Flatten(v)
	assert.Len(t, rows, 3, "one header, the task and its subtask")
}
