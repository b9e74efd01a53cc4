package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/focus/internal/model"
)

const taskSelect = `
	SELECT id, owner_id, text, completed, is_today, today_date, category,
		due_date, priority, parent_id, position, created_at
	FROM tasks`

// ListTasks returns the owner's tasks: roots first, then subtasks, each
// group ordered by position.
func (s *SQLiteStore) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, taskSelect+`
		WHERE owner_id = ?
		ORDER BY parent_id IS NOT NULL, parent_id, position, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// InsertTask inserts a task for owner. When task.ID is zero SQLite
// assigns one; the stored row is returned either way.
func (s *SQLiteStore) InsertTask(ctx context.Context, owner string, task model.Task) (model.Task, error) {
	if strings.TrimSpace(task.Text) == "" {
		return model.Task{}, fmt.Errorf("task text must not be empty")
	}
	task.OwnerID = owner
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	var id any
	if task.ID != 0 {
		id = task.ID
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, owner_id, text, completed, is_today, today_date,
			category, due_date, priority, parent_id, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.OwnerID, task.Text, boolToInt(task.Completed), boolToInt(task.IsToday),
		task.TodayDate, task.Category, task.DueDate, task.Priority,
		task.ParentID, task.Position, task.CreatedAt.UTC(),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}

	if task.ID == 0 {
		newID, err := result.LastInsertId()
		if err != nil {
			return model.Task{}, fmt.Errorf("reading new task id: %w", err)
		}
		task.ID = newID
	}
	return task, nil
}

// UpdateTask applies a partial update to one of owner's tasks.
func (s *SQLiteStore) UpdateTask(ctx context.Context, owner string, id int64, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}

	sets, args, err := buildSet(fields, ValidTaskColumn)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}
	args = append(args, id, owner)

	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET "+sets+" WHERE id = ? AND owner_id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating task %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// DeleteTask removes a task. Subtasks cascade through the foreign key.
func (s *SQLiteStore) DeleteTask(ctx context.Context, owner string, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, owner)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// DeleteTasks removes several tasks in one statement. Missing ids are
// ignored since a cascade may already have removed them.
func (s *SQLiteStore) DeleteTasks(ctx context.Context, owner string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In("DELETE FROM tasks WHERE owner_id = ? AND id IN (?)", owner, ids)
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("deleting %d tasks: %w", len(ids), err)
	}
	return nil
}

// DeleteAllTasks removes every task owned by owner.
func (s *SQLiteStore) DeleteAllTasks(ctx context.Context, owner string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE owner_id = ?", owner); err != nil {
		return fmt.Errorf("deleting all tasks: %w", err)
	}
	return nil
}

// UpdatePositions rewrites positions inside one transaction so a reorder
// is never half applied.
func (s *SQLiteStore) UpdatePositions(ctx context.Context, owner string, positions map[int64]int) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"UPDATE tasks SET position = ? WHERE id = ? AND owner_id = ?")
	if err != nil {
		return fmt.Errorf("preparing reorder statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		result, err := stmt.ExecContext(ctx, positions[id], id, owner)
		if err != nil {
			return fmt.Errorf("reordering task %d: %w", id, err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("task %d not found", id)
		}
	}

	return tx.Commit()
}

// buildSet turns fields into "col = ?" assignments in a stable order.
func buildSet(fields Fields, valid func(string) bool) (string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !valid(col) {
			return "", nil, fmt.Errorf("unknown column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
		args[i] = sqliteValue(fields[col])
	}
	return strings.Join(sets, ", "), args, nil
}

// sqliteValue normalizes Go values to what the schema stores.
func sqliteValue(v any) any {
	switch val := v.(type) {
	case bool:
		return boolToInt(val)
	case model.Date:
		return string(val)
	case *model.Date:
		if val == nil {
			return nil
		}
		return string(*val)
	case model.Priority:
		return string(val)
	case *model.Priority:
		if val == nil {
			return nil
		}
		return string(*val)
	case *string:
		if val == nil {
			return nil
		}
		return *val
	case *int64:
		if val == nil {
			return nil
		}
		return *val
	}
	return v
}
