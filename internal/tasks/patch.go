package tasks

import "github.com/nhle/focus/internal/model"

// Patch is a tri-state field update. The zero value leaves the field
// alone; Set replaces it; Clear removes it.
type Patch[T any] struct {
	set   bool
	clear bool
	value T
}

// Set returns a patch assigning v.
func Set[T any](v T) Patch[T] { return Patch[T]{set: true, value: v} }

// Clear returns a patch removing the value.
func Clear[T any]() Patch[T] { return Patch[T]{clear: true} }

// IsZero reports whether the patch leaves the field untouched.
func (p Patch[T]) IsZero() bool { return !p.set && !p.clear }

// IsClear reports whether the patch removes the value.
func (p Patch[T]) IsClear() bool { return p.clear }

// Value returns the assigned value, if any.
func (p Patch[T]) Value() (T, bool) { return p.value, p.set }

// apply writes the patch into dst and returns the column value to persist.
func (p Patch[T]) apply(dst **T) (any, bool) {
	switch {
	case p.set:
		v := p.value
		*dst = &v
		return v, true
	case p.clear:
		*dst = nil
		return nil, true
	}
	return nil, false
}

// TaskPatch is a partial update of a task's optional attributes.
type TaskPatch struct {
	Category Patch[string]
	DueDate  Patch[model.Date]
	Priority Patch[model.Priority]
}

// IsEmpty reports whether the patch touches nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Category.IsZero() && p.DueDate.IsZero() && p.Priority.IsZero()
}

// normalize rejects invalid values and turns an empty category into Clear.
func (p TaskPatch) normalize() (TaskPatch, bool) {
	if v, ok := p.Category.Value(); ok && v == "" {
		p.Category = Clear[string]()
	}
	if v, ok := p.DueDate.Value(); ok && !v.Valid() {
		return p, false
	}
	if v, ok := p.Priority.Value(); ok && !v.Valid() {
		return p, false
	}
	return p, true
}

// AddOptions are the optional attributes of a new task. Nil fields stay
// absent on the created task.
type AddOptions struct {
	Category *string
	DueDate  *model.Date
	Priority *model.Priority
	Today    bool
}
