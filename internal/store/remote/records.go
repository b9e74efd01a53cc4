package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/store"
)

// GetStats returns the owner's stats or store.ErrNotFound.
func (s *Store) GetStats(ctx context.Context, owner string) (*model.Stats, error) {
	resp, err := execute(ctx, s.client.From(statsTable).
		Select("*", "", false).
		Eq("owner_id", owner))
	if err != nil {
		return nil, fmt.Errorf("querying stats for %s: %w", owner, err)
	}

	var rows []statsRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decoding stats for %s: %w", owner, err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	st := rows[0].stats()
	return &st, nil
}

// UpsertStats replaces the owner's stats row.
func (s *Store) UpsertStats(ctx context.Context, owner string, st model.Stats) error {
	_, err := execute(ctx, s.client.From(statsTable).
		Upsert(toStatsRow(owner, st), "owner_id", "minimal", ""))
	if err != nil {
		return fmt.Errorf("saving stats for %s: %w", owner, err)
	}
	return nil
}

// GetSettings returns the owner's settings or store.ErrNotFound.
func (s *Store) GetSettings(ctx context.Context, owner string) (*model.Settings, error) {
	resp, err := execute(ctx, s.client.From(settingsTable).
		Select("*", "", false).
		Eq("owner_id", owner))
	if err != nil {
		return nil, fmt.Errorf("querying settings for %s: %w", owner, err)
	}

	var rows []settingsRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decoding settings for %s: %w", owner, err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	st := rows[0].settings()
	return &st, nil
}

// UpsertSettings merges fields into the owner's settings row, creating it
// with server defaults for the other columns.
func (s *Store) UpsertSettings(ctx context.Context, owner string, fields store.Fields) error {
	row := map[string]any{"owner_id": owner}
	for col, v := range fields {
		if !store.ValidSettingsColumn(col) {
			return fmt.Errorf("saving settings for %s: unknown column %q", owner, col)
		}
		row[col] = v
	}
	_, err := execute(ctx, s.client.From(settingsTable).
		Upsert(row, "owner_id", "minimal", ""))
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", owner, err)
	}
	return nil
}
