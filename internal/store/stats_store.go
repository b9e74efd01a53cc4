package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/focus/internal/model"
)

// GetStats loads the owner's stats row. ErrNotFound means nothing has been
// recorded yet.
func (s *SQLiteStore) GetStats(ctx context.Context, owner string) (*model.Stats, error) {
	var (
		st     = model.NewStats(owner)
		last   sql.NullString
		counts string
	)
	err := s.db.QueryRowxContext(ctx, `
		SELECT total_completed, streak, best_streak, last_complete_date, daily_counts
		FROM stats WHERE owner_id = ?`, owner,
	).Scan(&st.TotalCompleted, &st.Streak, &st.BestStreak, &last, &counts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying stats for %s: %w", owner, err)
	}

	if last.Valid && last.String != "" {
		st.LastCompleteDate = model.Date(last.String).Ptr()
	}
	if counts != "" {
		if err := json.Unmarshal([]byte(counts), &st.DailyCounts); err != nil {
			return nil, fmt.Errorf("decoding daily counts for %s: %w", owner, err)
		}
	}
	if st.DailyCounts == nil {
		st.DailyCounts = map[model.Date]int{}
	}
	return &st, nil
}

// UpsertStats replaces the owner's stats row.
func (s *SQLiteStore) UpsertStats(ctx context.Context, owner string, st model.Stats) error {
	counts := st.DailyCounts
	if counts == nil {
		counts = map[model.Date]int{}
	}
	encoded, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encoding daily counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stats (
			owner_id, total_completed, streak, best_streak,
			last_complete_date, daily_counts, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			total_completed = excluded.total_completed,
			streak = excluded.streak,
			best_streak = excluded.best_streak,
			last_complete_date = excluded.last_complete_date,
			daily_counts = excluded.daily_counts,
			updated_at = excluded.updated_at`,
		owner, st.TotalCompleted, st.Streak, st.BestStreak,
		st.LastCompleteDate, string(encoded), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving stats for %s: %w", owner, err)
	}
	return nil
}
