package model

import "time"

// Priority is the optional urgency attached to a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the accepted priority values from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority converts user input ("h", "High", "medium") to a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "l", "low", "Low", "LOW":
		return PriorityLow, true
	case "m", "med", "medium", "Medium", "MEDIUM":
		return PriorityMedium, true
	case "h", "high", "High", "HIGH":
		return PriorityHigh, true
	}
	return "", false
}

// Column names shared by both persistence backends.
const (
	ColText      = "text"
	ColCompleted = "completed"
	ColIsToday   = "is_today"
	ColTodayDate = "today_date"
	ColCategory  = "category"
	ColDueDate   = "due_date"
	ColPriority  = "priority"
	ColParentID  = "parent_id"
	ColPosition  = "position"
)

// Task is a single to-do entry. A task with a ParentID is a subtask;
// subtasks never have children of their own.
type Task struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Text      string    `json:"text" db:"text"`
	Completed bool      `json:"completed" db:"completed"`
	IsToday   bool      `json:"is_today" db:"is_today"`
	TodayDate *Date     `json:"today_date" db:"today_date"`
	Category  *string   `json:"category" db:"category"`
	DueDate   *Date     `json:"due_date" db:"due_date"`
	Priority  *Priority `json:"priority" db:"priority"`
	ParentID  *int64    `json:"parent_id" db:"parent_id"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsSubtask reports whether the task hangs under a parent.
func (t Task) IsSubtask() bool { return t.ParentID != nil }

// HasCategory reports whether the task is assigned to category id.
func (t Task) HasCategory(id string) bool {
	return t.Category != nil && *t.Category == id
}

// TodayOn reports whether the focus flag is set and still valid for day.
func (t Task) TodayOn(day Date) bool {
	return t.IsToday && t.TodayDate != nil && *t.TodayDate == day
}

// IsOverdue reports whether the task has a due date before day and is
// still open.
func (t Task) IsOverdue(day Date) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(day)
}

// Clone returns a deep copy so callers can't mutate shared pointers.
func (t Task) Clone() Task {
	c := t
	if t.TodayDate != nil {
		d := *t.TodayDate
		c.TodayDate = &d
	}
	if t.Category != nil {
		s := *t.Category
		c.Category = &s
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Priority != nil {
		p := *t.Priority
		c.Priority = &p
	}
	if t.ParentID != nil {
		id := *t.ParentID
		c.ParentID = &id
	}
	return c
}
