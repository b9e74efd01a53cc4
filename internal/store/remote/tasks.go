package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
)

var _ store.Store = (*Store)(nil)

// ListTasks returns the owner's tasks, roots first, each group ordered by
// position.
func (s *Store) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	resp, err := execute(ctx, s.client.From(tasksTable).
		Select("*", "", false).
		Eq("owner_id", owner).
		Order("parent_id", &postgrest.OrderOpts{Ascending: true, NullsFirst: true}).
		Order("position", &postgrest.OrderOpts{Ascending: true}))
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	var rows []taskRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}

	tasks := make([]model.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.task()
	}
	return tasks, nil
}

// InsertTask inserts task and returns the stored row.
func (s *Store) InsertTask(ctx context.Context, owner string, task model.Task) (model.Task, error) {
	if strings.TrimSpace(task.Text) == "" {
		return model.Task{}, fmt.Errorf("task text must not be empty")
	}
	resp, err := execute(ctx, s.client.From(tasksTable).
		Insert(toTaskRow(owner, task), false, "", "representation", ""))
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}

	var rows []taskRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return model.Task{}, fmt.Errorf("decoding created task: %w", err)
	}
	if len(rows) == 0 {
		return model.Task{}, fmt.Errorf("creating task: empty response")
	}
	return rows[0].task(), nil
}

// UpdateTask applies a partial update to one task.
func (s *Store) UpdateTask(ctx context.Context, owner string, id int64, fields store.Fields) error {
	if len(fields) == 0 {
		return nil
	}
	for col := range fields {
		if !store.ValidTaskColumn(col) {
			return fmt.Errorf("updating task %d: unknown column %q", id, col)
		}
	}
	resp, err := execute(ctx, s.client.From(tasksTable).
		Update(map[string]any(fields), "representation", "").
		Eq("id", idString(id)).
		Eq("owner_id", owner))
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	if empty(resp) {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// DeleteTask removes one task. Subtasks cascade on the server.
func (s *Store) DeleteTask(ctx context.Context, owner string, id int64) error {
	resp, err := execute(ctx, s.client.From(tasksTable).
		Delete("representation", "").
		Eq("id", idString(id)).
		Eq("owner_id", owner))
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	if empty(resp) {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// DeleteTasks removes several tasks in one request.
func (s *Store) DeleteTasks(ctx context.Context, owner string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = idString(id)
	}

	_, err := execute(ctx, s.client.From(tasksTable).
		Delete("minimal", "").
		Eq("owner_id", owner).
		In("id", values))
	if err != nil {
		return fmt.Errorf("deleting %d tasks: %w", len(ids), err)
	}
	return nil
}

// DeleteAllTasks removes every task of owner.
func (s *Store) DeleteAllTasks(ctx context.Context, owner string) error {
	_, err := execute(ctx, s.client.From(tasksTable).
		Delete("minimal", "").
		Eq("owner_id", owner))
	if err != nil {
		return fmt.Errorf("deleting all tasks: %w", err)
	}
	return nil
}

// UpdatePositions writes every listed position. The REST API has no
// multi-row update with different values, so rows are written one by
// one in id order; rewriting the whole scope keeps a retry safe.
func (s *Store) UpdatePositions(ctx context.Context, owner string, positions map[int64]int) error {
	ids := make([]int64, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		err := s.UpdateTask(ctx, owner, id, store.Fields{model.ColPosition: positions[id]})
		if err != nil {
			return fmt.Errorf("reordering task %d: %w", id, err)
		}
	}
	return nil
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// empty reports whether a "representation" response holds no rows.
func empty(resp []byte) bool {
	var rows []json.RawMessage
	if err := json.Unmarshal(resp, &rows); err != nil {
		return false
	}
	return len(rows) == 0
}
