package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/logging"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
)

// Submitter queues a persistence write. *sync.Writer implements it.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// inlineSubmitter runs writes immediately. Used when no writer is set.
type inlineSubmitter struct {
	log logrus.FieldLogger
}

func (s inlineSubmitter) Submit(name string, fn func(ctx context.Context) error) {
	if err := fn(context.Background()); err != nil {
		s.log.WithField("op", name).WithError(err).Error("write failed")
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithWriter sends persistence writes through w.
func WithWriter(w Submitter) Option {
	return func(m *Manager) { m.writer = w }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// OnCompleted registers fn to run once for every task a Toggle moves
// from incomplete to complete. Rollup changes to a parent do not count.
func OnCompleted(fn func(model.Task)) Option {
	return func(m *Manager) { m.onCompleted = fn }
}

// Manager owns the in-memory task list of one owner. Every mutation is
// applied locally first and then persisted through the writer.
type Manager struct {
	store       store.Store
	owner       string
	writer      Submitter
	log         logrus.FieldLogger
	clock       func() time.Time
	ids         *IDAllocator
	onCompleted func(model.Task)
	changes     chan struct{}

	mu       sync.Mutex
	tasks    map[int64]*model.Task
	roots    []int64
	children map[int64][]int64
	day      model.Date
	// gen counts queued writes and pending counts those not yet run.
	// Load uses both to spot rows made stale by local mutations.
	gen     uint64
	pending atomic.Int64
}

// NewManager returns an empty manager. Call Load to fetch stored tasks.
func NewManager(s store.Store, owner string, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		owner:    owner,
		clock:    time.Now,
		changes:  make(chan struct{}, 1),
		tasks:    make(map[int64]*model.Task),
		children: make(map[int64][]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.writer == nil {
		m.writer = inlineSubmitter{log: m.log}
	}
	m.ids = NewIDAllocator(m.clock)
	m.day = m.today()
	return m
}

// Owner returns the owner id the manager reads and writes.
func (m *Manager) Owner() string { return m.owner }

// Today returns the current calendar day.
func (m *Manager) Today() model.Date { return m.today() }

func (m *Manager) today() model.Date { return model.DateOf(m.clock()) }

// Changes signals after the task list was replaced from the store.
func (m *Manager) Changes() <-chan struct{} { return m.changes }

func (m *Manager) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// Load replaces the in-memory list with the stored one and expires
// stale today flags.
//
// Rows fetched while a local write is pending or queued would undo it, so
// Load then keeps the in-memory list and queues another load behind the
// pending writes.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	busy := m.pending.Load() > 0

	rows, err := m.store.ListTasks(ctx, m.owner)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	m.mu.Lock()
	if busy || m.gen != gen || m.pending.Load() > 0 {
		m.mu.Unlock()
		m.log.Debug("tasks changed during load, loading again")
		m.writer.Submit("reload tasks", m.Load)
		return nil
	}
	m.replace(rows)
	m.day = m.today()
	m.expireToday(m.day)
	m.mu.Unlock()

	m.notify()
	return nil
}

// Reload is Load under the name used for reconciling after failed writes.
func (m *Manager) Reload(ctx context.Context) error {
	return m.Load(ctx)
}

// replace installs rows as the task list. Subtasks whose parent is
// missing or is itself a subtask are dropped.
func (m *Manager) replace(rows []model.Task) {
	m.tasks = make(map[int64]*model.Task, len(rows))
	var maxID int64
	for i := range rows {
		t := rows[i].Clone()
		m.tasks[t.ID] = &t
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	for id, t := range m.tasks {
		if t.ParentID == nil {
			continue
		}
		parent, ok := m.tasks[*t.ParentID]
		if !ok || parent.ParentID != nil {
			m.log.WithField("task", id).Warn("dropping subtask without a valid parent")
			delete(m.tasks, id)
		}
	}
	m.ids.Seed(maxID)
	m.reindex()
}

// reindex rebuilds the root list and the child index from ParentID.
func (m *Manager) reindex() {
	m.roots = m.roots[:0]
	m.children = make(map[int64][]int64)
	for id, t := range m.tasks {
		if t.ParentID == nil {
			m.roots = append(m.roots, id)
		} else {
			m.children[*t.ParentID] = append(m.children[*t.ParentID], id)
		}
	}
	m.sortScope(m.roots)
	for _, ids := range m.children {
		m.sortScope(ids)
	}
}

func (m *Manager) sortScope(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.tasks[ids[i]], m.tasks[ids[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// expireToday clears today flags not stamped with day and persists the
// change.
func (m *Manager) expireToday(day model.Date) {
	for id, t := range m.tasks {
		if !t.IsToday || t.TodayOn(day) {
			continue
		}
		t.IsToday = false
		t.TodayDate = nil
		m.updateRow("expire today", id, store.Fields{
			model.ColIsToday:   false,
			model.ColTodayDate: nil,
		})
	}
}

// checkDay runs today expiry when the calendar day rolled over.
func (m *Manager) checkDay() {
	day := m.today()
	if day == m.day {
		return
	}
	m.day = day
	m.expireToday(day)
}

// persist hands a write to the writer. Callers hold m.mu.
func (m *Manager) persist(name string, fn func(ctx context.Context, s store.Store, owner string) error) {
	m.gen++
	m.pending.Add(1)
	s, owner := m.store, m.owner
	m.writer.Submit(name, func(ctx context.Context) error {
		defer m.pending.Add(-1)
		return fn(ctx, s, owner)
	})
}

func (m *Manager) updateRow(name string, id int64, fields store.Fields) {
	m.persist(name, func(ctx context.Context, s store.Store, owner string) error {
		return s.UpdateTask(ctx, owner, id, fields)
	})
}

func (m *Manager) insertRow(name string, t model.Task) {
	row := t.Clone()
	m.persist(name, func(ctx context.Context, s store.Store, owner string) error {
		_, err := s.InsertTask(ctx, owner, row)
		return err
	})
}

// nextPosition returns the position after the last task in scope.
func (m *Manager) nextPosition(scope []int64) int {
	if len(scope) == 0 {
		return 0
	}
	return m.tasks[scope[len(scope)-1]].Position + 1
}

// === Reads ===

// Snapshot returns every task: each root followed by its subtasks, in
// position order. Today flags are expired first if the day rolled over.
func (m *Manager) Snapshot() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDay()
	out := make([]model.Task, 0, len(m.tasks))
	for _, id := range m.roots {
		out = append(out, m.tasks[id].Clone())
		for _, cid := range m.children[id] {
			out = append(out, m.tasks[cid].Clone())
		}
	}
	return out
}

// Get returns a copy of task id.
func (m *Manager) Get(id int64) (model.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return t.Clone(), true
}

// SubtaskIDs returns the ordered child ids of id.
func (m *Manager) SubtaskIDs(id int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.children[id]...)
}

// Subtasks returns copies of the children of id in position order.
func (m *Manager) Subtasks(id int64) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Task, 0, len(m.children[id]))
	for _, cid := range m.children[id] {
		out = append(out, m.tasks[cid].Clone())
	}
	return out
}

// Len returns the number of tasks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// === Mutations ===

// AddTask creates a root task. It returns false when text is blank.
func (m *Manager) AddTask(text string, opts AddOptions) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if opts.Priority != nil && !opts.Priority.Valid() {
		return 0, false
	}
	if opts.DueDate != nil && !opts.DueDate.Valid() {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDay()
	t := model.Task{
		ID:        m.ids.Next(),
		OwnerID:   m.owner,
		Text:      text,
		Position:  m.nextPosition(m.roots),
		CreatedAt: m.clock().UTC(),
	}
	if opts.Category != nil && *opts.Category != "" {
		c := *opts.Category
		t.Category = &c
	}
	if opts.DueDate != nil {
		t.DueDate = opts.DueDate.Ptr()
	}
	if opts.Priority != nil {
		p := *opts.Priority
		t.Priority = &p
	}
	if opts.Today {
		t.IsToday = true
		t.TodayDate = m.day.Ptr()
	}

	m.tasks[t.ID] = &t
	m.reindex()
	m.insertRow("add task", t)
	return t.ID, true
}

// AddSubtask creates a subtask under parentID. The parent must be a root
// task. A completed parent becomes incomplete since it now has an open
// child.
func (m *Manager) AddSubtask(parentID int64, text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.tasks[parentID]
	if !ok || parent.ParentID != nil {
		return 0, false
	}

	pid := parentID
	t := model.Task{
		ID:        m.ids.Next(),
		OwnerID:   m.owner,
		Text:      text,
		ParentID:  &pid,
		Position:  m.nextPosition(m.children[parentID]),
		CreatedAt: m.clock().UTC(),
	}
	m.tasks[t.ID] = &t
	m.reindex()
	m.insertRow("add subtask", t)

	if parent.Completed {
		parent.Completed = false
		m.updateRow("reopen parent", parentID, store.Fields{model.ColCompleted: false})
	}
	return t.ID, true
}

// Toggle flips the completion of task id and rolls the change up to its
// parent or down to its subtasks.
func (m *Manager) Toggle(id int64) bool {
	m.mu.Lock()

	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return false
	}

	done := !t.Completed
	t.Completed = done
	m.updateRow("toggle task", id, store.Fields{model.ColCompleted: done})

	switch {
	case t.ParentID != nil:
		parent := m.tasks[*t.ParentID]
		want := false
		if done {
			want = m.allComplete(parent.ID)
		}
		if parent.Completed != want {
			parent.Completed = want
			m.updateRow("rollup parent", parent.ID, store.Fields{model.ColCompleted: want})
		}
	default:
		for _, cid := range m.children[id] {
			child := m.tasks[cid]
			if child.Completed == done {
				continue
			}
			child.Completed = done
			m.updateRow("rollup subtask", cid, store.Fields{model.ColCompleted: done})
		}
	}

	completed := t.Clone()
	m.mu.Unlock()

	if done && m.onCompleted != nil {
		m.onCompleted(completed)
	}
	return true
}

func (m *Manager) allComplete(parentID int64) bool {
	for _, cid := range m.children[parentID] {
		if !m.tasks[cid].Completed {
			return false
		}
	}
	return true
}

// UpdateText replaces the text of task id. Blank text is ignored.
func (m *Manager) UpdateText(id int64, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return false
	}
	if t.Text == text {
		return true
	}
	t.Text = text
	m.updateRow("update text", id, store.Fields{model.ColText: text})
	return true
}

// UpdateFields applies a partial update of category, due date and
// priority. Untouched fields keep their value; cleared fields are removed.
func (m *Manager) UpdateFields(id int64, patch TaskPatch) bool {
	patch, valid := patch.normalize()
	if !valid {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return false
	}

	fields := store.Fields{}
	if v, ok := patch.Category.apply(&t.Category); ok {
		fields[model.ColCategory] = v
	}
	if v, ok := patch.DueDate.apply(&t.DueDate); ok {
		fields[model.ColDueDate] = v
	}
	if v, ok := patch.Priority.apply(&t.Priority); ok {
		fields[model.ColPriority] = v
	}
	if len(fields) > 0 {
		m.updateRow("update fields", id, fields)
	}
	return true
}

// Delete removes task id. Deleting a root also deletes its subtasks.
func (m *Manager) Delete(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return false
	}

	if t.ParentID != nil {
		delete(m.tasks, id)
		m.reindex()
		m.persist("delete subtask", func(ctx context.Context, s store.Store, owner string) error {
			return s.DeleteTask(ctx, owner, id)
		})
		return true
	}

	ids := append([]int64{id}, m.children[id]...)
	m.removeAll(ids)
	return true
}

// removeAll deletes ids locally and as one batch in the store.
func (m *Manager) removeAll(ids []int64) {
	for _, id := range ids {
		delete(m.tasks, id)
	}
	m.reindex()
	m.persist("delete tasks", func(ctx context.Context, s store.Store, owner string) error {
		return s.DeleteTasks(ctx, owner, ids)
	})
}

// Reorder moves activeID to the slot overID occupies, shifting the
// siblings in between. Both tasks must share a scope: both roots, or
// subtasks of the same parent. Positions of the scope are rewritten
// 0..n-1 and saved as one batch.
func (m *Manager) Reorder(activeID, overID int64) bool {
	if activeID == overID {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	active, ok := m.tasks[activeID]
	if !ok {
		return false
	}
	over, ok := m.tasks[overID]
	if !ok {
		return false
	}

	var scope []int64
	switch {
	case active.ParentID == nil && over.ParentID == nil:
		scope = m.roots
	case active.ParentID != nil && over.ParentID != nil && *active.ParentID == *over.ParentID:
		scope = m.children[*active.ParentID]
	default:
		return false
	}

	from, to := indexOf(scope, activeID), indexOf(scope, overID)
	ordered := moveID(scope, from, to)

	positions := make(map[int64]int, len(ordered))
	for i, id := range ordered {
		m.tasks[id].Position = i
		positions[id] = i
	}
	m.reindex()

	m.persist("reorder", func(ctx context.Context, s store.Store, owner string) error {
		return s.UpdatePositions(ctx, owner, positions)
	})
	return true
}

// Move shifts task id by delta places among its siblings.
func (m *Manager) Move(id int64, delta int) bool {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	scope := m.roots
	if t.ParentID != nil {
		scope = m.children[*t.ParentID]
	}
	target := indexOf(scope, id) + delta
	if target < 0 || target >= len(scope) {
		m.mu.Unlock()
		return false
	}
	over := scope[target]
	m.mu.Unlock()

	return m.Reorder(id, over)
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// moveID returns a copy of ids with the element at from moved to to.
func moveID(ids []int64, from, to int) []int64 {
	out := make([]int64, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]int64{ids[from]}, out[to:]...)...)
	return out
}

// ToggleToday flips the today flag of task id, stamping or clearing the
// date with it.
func (m *Manager) ToggleToday(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkDay()
	t, ok := m.tasks[id]
	if !ok {
		return false
	}

	fields := store.Fields{}
	if t.IsToday {
		t.IsToday = false
		t.TodayDate = nil
		fields[model.ColIsToday] = false
		fields[model.ColTodayDate] = nil
	} else {
		t.IsToday = true
		t.TodayDate = m.day.Ptr()
		fields[model.ColIsToday] = true
		fields[model.ColTodayDate] = m.day
	}
	m.updateRow("toggle today", id, fields)
	return true
}

// ClearCompleted deletes every completed task. A completed root takes all
// of its subtasks with it, open or not. It returns how many tasks were
// removed.
func (m *Manager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, rid := range m.roots {
		root := m.tasks[rid]
		if root.Completed {
			add(rid)
			for _, cid := range m.children[rid] {
				add(cid)
			}
			continue
		}
		for _, cid := range m.children[rid] {
			if m.tasks[cid].Completed {
				add(cid)
			}
		}
	}
	if len(ids) == 0 {
		return 0
	}
	m.removeAll(ids)
	return len(ids)
}

// ClearAll deletes every task of the owner.
func (m *Manager) ClearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.tasks)
	m.tasks = make(map[int64]*model.Task)
	m.reindex()
	m.persist("clear all", func(ctx context.Context, s store.Store, owner string) error {
		return s.DeleteAllTasks(ctx, owner)
	})
	return n
}

// RemoveCategory unsets category on every task that uses it and returns
// how many tasks changed.
func (m *Manager) RemoveCategory(category string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, t := range m.tasks {
		if !t.HasCategory(category) {
			continue
		}
		t.Category = nil
		m.updateRow("remove category", id, store.Fields{model.ColCategory: nil})
		n++
	}
	return n
}
