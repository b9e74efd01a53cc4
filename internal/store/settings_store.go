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

// GetSettings loads the owner's settings row. ErrNotFound means the
// defaults apply.
func (s *SQLiteStore) GetSettings(ctx context.Context, owner string) (*model.Settings, error) {
	var (
		st         = model.Settings{OwnerID: owner}
		categories string
	)
	err := s.db.QueryRowxContext(ctx, `
		SELECT theme, sound_enabled, show_completed, categories
		FROM settings WHERE owner_id = ?`, owner,
	).Scan(&st.Theme, &st.SoundEnabled, &st.ShowCompleted, &categories)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying settings for %s: %w", owner, err)
	}

	if categories != "" {
		if err := json.Unmarshal([]byte(categories), &st.Categories); err != nil {
			return nil, fmt.Errorf("decoding categories for %s: %w", owner, err)
		}
	}
	if st.Categories == nil {
		st.Categories = []model.Category{}
	}
	return &st, nil
}

// UpsertSettings creates the owner's row from defaults if needed, then
// applies fields.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, owner string, fields Fields) error {
	if v, ok := fields[model.ColCategories]; ok {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding categories: %w", err)
		}
		fields = copyFields(fields)
		fields[model.ColCategories] = string(encoded)
	}

	sets, args, err := buildSet(fields, ValidSettingsColumn)
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", owner, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	def := model.DefaultSettings(owner)
	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO settings (owner_id, theme, sound_enabled, show_completed, categories)
		VALUES (?, ?, ?, ?, '[]')`,
		owner, def.Theme, boolToInt(def.SoundEnabled), boolToInt(def.ShowCompleted),
	)
	if err != nil {
		return fmt.Errorf("creating settings for %s: %w", owner, err)
	}

	if sets != "" {
		args = append(args, time.Now().UTC(), owner)
		_, err = tx.ExecContext(ctx,
			"UPDATE settings SET "+sets+", updated_at = ? WHERE owner_id = ?", args...)
		if err != nil {
			return fmt.Errorf("saving settings for %s: %w", owner, err)
		}
	}

	return tx.Commit()
}

func copyFields(f Fields) Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
