package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/stats"
	"github.com/nhle/focus/internal/testutil"
)

const owner = "device-1"

var day1 = time.Date(2026, 10, 1, 20, 0, 0, 0, time.Local)

func newTracker(t *testing.T) (*stats.Tracker, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(day1)
	tr := stats.NewTracker(testutil.NewTestStore(t), owner, stats.WithClock(clock.Now))
	require.NoError(t, tr.Load(context.Background()))
	return tr, clock
}

func TestStreakResetsAfterGap(t *testing.T) {
	tr, clock := newTracker(t)

	tr.RecordCompletion()
	st := tr.Snapshot()
	assert.Equal(t, 1, st.Streak)
	assert.Equal(t, 1, st.TotalCompleted)

	clock.AddDays(2)
	tr.RecordCompletion()
	st = tr.Snapshot()
	assert.Equal(t, 1, st.Streak)
	assert.Equal(t, 2, st.TotalCompleted)
	assert.Equal(t, 1, st.BestStreak)
}

func TestStreakGrowsOnConsecutiveDays(t *testing.T) {
	tr, clock := newTracker(t)

	tr.RecordCompletion()
	tr.RecordCompletion()
	assert.Equal(t, 1, tr.Snapshot().Streak, "same day keeps the streak")

	clock.AddDays(1)
	tr.RecordCompletion()
	clock.AddDays(1)
	tr.RecordCompletion()

	st := tr.Snapshot()
	assert.Equal(t, 3, st.Streak)
	assert.Equal(t, 3, st.BestStreak)
	assert.Equal(t, 4, st.TotalCompleted)
	assert.Equal(t, 1, tr.CompletedToday())

	clock.AddDays(3)
	tr.RecordCompletion()
	st = tr.Snapshot()
	assert.Equal(t, 1, st.Streak)
	assert.Equal(t, 3, st.BestStreak)
}

func TestMilestoneFiresOnce(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	clock := testutil.NewClock(day1)

	seed := model.NewStats(owner)
	seed.TotalCompleted = 9
	require.NoError(t, s.UpsertStats(ctx, owner, seed))

	tr := stats.NewTracker(s, owner, stats.WithClock(clock.Now))
	require.NoError(t, tr.Load(ctx))

	got, ok := tr.RecordCompletion()
	require.True(t, ok)
	assert.Equal(t, 10, got)

	pending, ok := tr.PendingMilestone()
	require.True(t, ok)
	assert.Equal(t, 10, pending)
	tr.AcknowledgeMilestone()
	_, ok = tr.PendingMilestone()
	assert.False(t, ok)

	_, ok = tr.RecordCompletion()
	assert.False(t, ok)
	assert.Equal(t, 11, tr.Snapshot().TotalCompleted)
}

func TestLoadResetsStaleStreak(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	clock := testutil.NewClock(day1)

	tests := []struct {
		name string
		last model.Date
		want int
	}{
		{name: "today", last: model.DateOf(day1), want: 4},
		{name: "yesterday", last: model.DateOf(day1).AddDays(-1), want: 4},
		{name: "two days ago", last: model.DateOf(day1).AddDays(-2), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := model.NewStats(owner)
			seed.Streak = 4
			seed.BestStreak = 6
			seed.LastCompleteDate = tt.last.Ptr()
			require.NoError(t, s.UpsertStats(ctx, owner, seed))

			tr := stats.NewTracker(s, owner, stats.WithClock(clock.Now))
			require.NoError(t, tr.Load(ctx))
			assert.Equal(t, tt.want, tr.Snapshot().Streak)
			assert.Equal(t, 6, tr.Snapshot().BestStreak)

			stored, err := s.GetStats(ctx, owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Streak)
		})
	}
}

func TestDailyCountsArePruned(t *testing.T) {
	tr, clock := newTracker(t)

	tr.RecordCompletion()
	first := model.DateOf(clock.Now())

	clock.AddDays(model.StatsWindowDays)
	tr.RecordCompletion()
	assert.Contains(t, tr.Snapshot().DailyCounts, first, "still inside the window")

	clock.AddDays(1)
	tr.RecordCompletion()
	counts := tr.Snapshot().DailyCounts
	assert.NotContains(t, counts, first)
	assert.Len(t, counts, 2)
}

func TestLast7Days(t *testing.T) {
	tr, clock := newTracker(t)

	tr.RecordCompletion()
	clock.AddDays(2)
	tr.RecordCompletion()
	tr.RecordCompletion()

	days := tr.Last7Days()
	require.Len(t, days, 7)
	assert.Equal(t, model.DateOf(clock.Now()), days[6].Date)
	assert.Equal(t, 2, days[6].Count)
	assert.Equal(t, 0, days[5].Count)
	assert.Equal(t, 1, days[4].Count)
}

func TestResetPersistsDefaults(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	clock := testutil.NewClock(day1)

	tr := stats.NewTracker(s, owner, stats.WithClock(clock.Now))
	require.NoError(t, tr.Load(ctx))
	tr.RecordCompletion()
	tr.Reset()

	assert.Equal(t, model.NewStats(owner), tr.Snapshot())
	stored, err := s.GetStats(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, stored.TotalCompleted)
	assert.Nil(t, stored.LastCompleteDate)
	assert.Empty(t, stored.DailyCounts)
}
