package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/logging"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
)

// Submitter queues a persistence write.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error)
}

// Tracker records completions and keeps streaks, totals and the daily
// history of one owner.
type Tracker struct {
	store  store.Store
	owner  string
	writer Submitter
	log    logrus.FieldLogger
	clock  func() time.Time

	mu        sync.Mutex
	stats     model.Stats
	milestone int
	gen       uint64
	pending   atomic.Int64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWriter sends writes through w instead of running them inline.
func WithWriter(w Submitter) Option { return func(t *Tracker) { t.writer = w } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(t *Tracker) { t.log = l } }

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option { return func(t *Tracker) { t.clock = clock } }

// NewTracker returns a tracker with empty stats. Call Load before use.
func NewTracker(s store.Store, owner string, opts ...Option) *Tracker {
	t := &Tracker{
		store: s,
		owner: owner,
		clock: time.Now,
		stats: model.NewStats(owner),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logging.Discard()
	}
	return t
}

func (t *Tracker) today() model.Date { return model.DateOf(t.clock()) }

// Load fetches the stored stats. A streak whose last completion is older
// than yesterday is reset to zero and saved. While a save is pending the
// fetched record is dropped and another load is queued behind it.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	busy := t.pending.Load() > 0

	st, err := t.store.GetStats(ctx, t.owner)
	if errors.Is(err, store.ErrNotFound) {
		fresh := model.NewStats(t.owner)
		st = &fresh
	} else if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	t.mu.Lock()
	if busy || t.gen != gen || t.pending.Load() > 0 {
		t.mu.Unlock()
		t.submit("reload stats", t.Load)
		return nil
	}
	t.stats = st.Clone()
	t.stats.OwnerID = t.owner
	stale := t.stats.Streak != 0 && !t.recent(t.stats.LastCompleteDate)
	if stale {
		t.stats.Streak = 0
		t.touch()
	}
	snapshot := t.stats.Clone()
	t.mu.Unlock()

	if stale {
		t.log.WithField("owner", t.owner).Info("streak expired")
		t.save(snapshot)
	}
	return nil
}

// Reload is Load, used as a reconcile hook.
func (t *Tracker) Reload(ctx context.Context) error { return t.Load(ctx) }

// recent reports whether d is today or yesterday.
func (t *Tracker) recent(d *model.Date) bool {
	if d == nil {
		return false
	}
	today := t.today()
	return *d == today || *d == today.AddDays(-1)
}

// RecordCompletion counts one completed task. When the new total hits a
// milestone it is returned and kept pending until acknowledged.
func (t *Tracker) RecordCompletion() (int, bool) {
	t.mu.Lock()

	today := t.today()
	st := &t.stats
	switch {
	case st.LastCompleteDate != nil && *st.LastCompleteDate == today:
	case st.LastCompleteDate != nil && *st.LastCompleteDate == today.AddDays(-1):
		st.Streak++
	default:
		st.Streak = 1
	}
	st.TotalCompleted++
	if st.Streak > st.BestStreak {
		st.BestStreak = st.Streak
	}
	st.LastCompleteDate = today.Ptr()
	if st.DailyCounts == nil {
		st.DailyCounts = map[model.Date]int{}
	}
	st.DailyCounts[today]++
	prune(st.DailyCounts, today)

	milestone, hit := 0, model.IsMilestone(st.TotalCompleted)
	if hit {
		milestone = st.TotalCompleted
		t.milestone = milestone
	}
	snapshot := st.Clone()
	t.touch()
	t.mu.Unlock()

	t.save(snapshot)
	return milestone, hit
}

// prune drops daily counts older than the window ending today.
func prune(counts map[model.Date]int, today model.Date) {
	cutoff := today.AddDays(-model.StatsWindowDays)
	for day := range counts {
		if day.Before(cutoff) {
			delete(counts, day)
		}
	}
}

// PendingMilestone returns the milestone waiting to be celebrated.
func (t *Tracker) PendingMilestone() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.milestone, t.milestone != 0
}

// AcknowledgeMilestone clears the pending milestone.
func (t *Tracker) AcknowledgeMilestone() {
	t.mu.Lock()
	t.milestone = 0
	t.mu.Unlock()
}

// Reset clears all stats and saves the empty record.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.stats = model.NewStats(t.owner)
	t.milestone = 0
	snapshot := t.stats.Clone()
	t.touch()
	t.mu.Unlock()

	t.save(snapshot)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() model.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Clone()
}

// CompletedToday returns today's completion count.
func (t *Tracker) CompletedToday() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.DailyCounts[t.today()]
}

// DayCount is the number of completions on one day.
type DayCount struct {
	Date  model.Date
	Count int
}

// Last7Days returns the counts of the last seven days, oldest first.
func (t *Tracker) Last7Days() []DayCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	out := make([]DayCount, 7)
	for i := range out {
		day := today.AddDays(i - 6)
		out[i] = DayCount{Date: day, Count: t.stats.DailyCounts[day]}
	}
	return out
}

func (t *Tracker) save(st model.Stats) {
	s, owner := t.store, t.owner
	t.submit("save stats", func(ctx context.Context) error {
		defer t.pending.Add(-1)
		return s.UpsertStats(ctx, owner, st)
	})
}

// touch marks a local change that save will persist. Callers hold t.mu.
func (t *Tracker) touch() {
	t.gen++
	t.pending.Add(1)
}

func (t *Tracker) submit(name string, fn func(ctx context.Context) error) {
	if t.writer != nil {
		t.writer.Submit(name, fn)
		return
	}
	if err := fn(context.Background()); err != nil {
		t.log.WithField("op", name).WithError(err).Error("write failed")
	}
}
