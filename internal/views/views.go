// Package views computes the read-only projections the UI renders from a
// task snapshot. Nothing here keeps state.
package views

import "github.com/nhle/focus/internal/model"

// Roots returns the tasks without a parent, in input order.
func Roots(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsSubtask() {
			out = append(out, t)
		}
	}
	return out
}

// Today returns the root tasks flagged for today.
func Today(tasks []model.Task, today model.Date) []model.Task {
	var out []model.Task
	for _, t := range Roots(tasks) {
		if t.TodayOn(today) {
			out = append(out, t)
		}
	}
	return out
}

// Later returns the root tasks not flagged for today.
func Later(tasks []model.Task, today model.Date) []model.Task {
	var out []model.Task
	for _, t := range Roots(tasks) {
		if !t.TodayOn(today) {
			out = append(out, t)
		}
	}
	return out
}

// FilterCategory keeps tasks in category. An empty category keeps all.
func FilterCategory(tasks []model.Task, category string) []model.Task {
	if category == "" {
		return tasks
	}
	var out []model.Task
	for _, t := range tasks {
		if t.HasCategory(category) {
			out = append(out, t)
		}
	}
	return out
}

// Subtasks returns the children of parentID in input order, completed
// ones included.
func Subtasks(tasks []model.Task, parentID int64) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns how many tasks are open and how many are done.
func Counts(tasks []model.Task) (remaining, completed int) {
	for _, t := range tasks {
		if t.Completed {
			completed++
		} else {
			remaining++
		}
	}
	return remaining, completed
}

// IsOverdue reports whether t is open and due before today.
func IsOverdue(t model.Task, today model.Date) bool {
	return t.IsOverdue(today)
}

// Query selects what Build shows.
type Query struct {
	// Category restricts root tasks to one category; empty means all.
	Category string
	// HideCompleted drops completed root tasks and subtasks.
	HideCompleted bool
}

// Section is a titled group of root tasks with their subtasks.
type Section struct {
	Title     string
	Tasks     []model.Task
	Subtasks  map[int64][]model.Task
	Remaining int
	Completed int
}

// View is the full list shown for a query.
type View struct {
	Today     Section
	Later     Section
	Remaining int
	Completed int
}

// Build groups tasks into the today and later sections for q. Counts
// cover the filtered root tasks.
func Build(tasks []model.Task, today model.Date, q Query) View {
	v := View{
		Today: section("Today", FilterCategory(Today(tasks, today), q.Category), tasks, q),
		Later: section("Later", FilterCategory(Later(tasks, today), q.Category), tasks, q),
	}
	v.Remaining = v.Today.Remaining + v.Later.Remaining
	v.Completed = v.Today.Completed + v.Later.Completed
	return v
}

func section(title string, roots, all []model.Task, q Query) Section {
	s := Section{Title: title, Subtasks: make(map[int64][]model.Task)}
	s.Remaining, s.Completed = Counts(roots)
	for _, t := range roots {
		if q.HideCompleted && t.Completed {
			continue
		}
		s.Tasks = append(s.Tasks, t)
		for _, c := range Subtasks(all, t.ID) {
			if q.HideCompleted && c.Completed {
				continue
			}
			s.Subtasks[t.ID] = append(s.Subtasks[t.ID], c)
		}
	}
	return s
}

// Row is one line of a flattened view.
type Row struct {
	Task    model.Task
	Depth   int
	Section string
	// Header marks a section title row; Task is zero then.
	Header bool
}

// Flatten lays a view out as rows: each non-empty section header followed
// by its root tasks, each root followed by its subtasks at depth 1.
func Flatten(v View) []Row {
	var rows []Row
	for _, s := range []Section{v.Today, v.Later} {
		if len(s.Tasks) == 0 {
			continue
		}
		rows = append(rows, Row{Section: s.Title, Header: true})
		for _, t := range s.Tasks {
			rows = append(rows, Row{Task: t, Section: s.Title})
			for _, c := range s.Subtasks[t.ID] {
				rows = append(rows, Row{Task: c, Depth: 1, Section: s.Title})
			}
		}
	}
	return rows
}
