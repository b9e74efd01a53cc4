package store

import (
	"context"
	"errors"

	"github.com/nhle/focus/internal/model"
)

// ErrNotFound is returned when a per-owner record (stats, settings) does
// not exist yet.
var ErrNotFound = errors.New("not found")

// Fields is a partial update keyed by column name. A nil value clears the
// column; a column absent from the map is left untouched.
type Fields map[string]any

// taskColumns are the task columns callers may update.
var taskColumns = map[string]bool{
	model.ColText:      true,
	model.ColCompleted: true,
	model.ColIsToday:   true,
	model.ColTodayDate: true,
	model.ColCategory:  true,
	model.ColDueDate:   true,
	model.ColPriority:  true,
	model.ColParentID:  true,
	model.ColPosition:  true,
}

// settingsColumns are the settings columns callers may update.
var settingsColumns = map[string]bool{
	model.ColTheme:         true,
	model.ColSoundEnabled:  true,
	model.ColShowCompleted: true,
	model.ColCategories:    true,
}

// ValidTaskColumn reports whether col may appear in a task update.
func ValidTaskColumn(col string) bool { return taskColumns[col] }

// ValidSettingsColumn reports whether col may appear in a settings update.
func ValidSettingsColumn(col string) bool { return settingsColumns[col] }

// Store is the persistence contract shared by the local SQLite backend and
// the remote per-user row store. Every call is scoped to one owner.
type Store interface {
	// === Tasks ===

	// ListTasks returns all tasks of owner, roots first, each group
	// ordered by position.
	ListTasks(ctx context.Context, owner string) ([]model.Task, error)
	// InsertTask stores task. A zero ID lets the backend assign one.
	InsertTask(ctx context.Context, owner string, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, owner string, id int64, fields Fields) error
	DeleteTask(ctx context.Context, owner string, id int64) error
	DeleteTasks(ctx context.Context, owner string, ids []int64) error
	DeleteAllTasks(ctx context.Context, owner string) error
	// UpdatePositions rewrites the position of every listed task.
	UpdatePositions(ctx context.Context, owner string, positions map[int64]int) error

	// === Stats ===

	GetStats(ctx context.Context, owner string) (*model.Stats, error)
	UpsertStats(ctx context.Context, owner string, stats model.Stats) error

	// === Settings ===

	GetSettings(ctx context.Context, owner string) (*model.Settings, error)
	UpsertSettings(ctx context.Context, owner string, fields Fields) error

	Close() error
}
