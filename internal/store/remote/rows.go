package remote

import (
	"time"

	"github.com/nhle/focus/internal/model"
)

// taskRow is the JSON shape of a tasks row. ID is omitted on insert when
// the server should assign it.
type taskRow struct {
	ID        int64           `json:"id,omitempty"`
	OwnerID   string          `json:"owner_id"`
	Text      string          `json:"text"`
	Completed bool            `json:"completed"`
	IsToday   bool            `json:"is_today"`
	TodayDate *model.Date     `json:"today_date"`
	Category  *string         `json:"category"`
	DueDate   *model.Date     `json:"due_date"`
	Priority  *model.Priority `json:"priority"`
	ParentID  *int64          `json:"parent_id"`
	Position  int             `json:"position"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

func toTaskRow(owner string, t model.Task) taskRow {
	row := taskRow{
		ID:        t.ID,
		OwnerID:   owner,
		Text:      t.Text,
		Completed: t.Completed,
		IsToday:   t.IsToday,
		TodayDate: t.TodayDate,
		Category:  t.Category,
		DueDate:   t.DueDate,
		Priority:  t.Priority,
		ParentID:  t.ParentID,
		Position:  t.Position,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		row.CreatedAt = &created
	}
	return row
}

func (r taskRow) task() model.Task {
	t := model.Task{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Text:      r.Text,
		Completed: r.Completed,
		IsToday:   r.IsToday,
		TodayDate: r.TodayDate,
		Category:  r.Category,
		DueDate:   r.DueDate,
		Priority:  r.Priority,
		ParentID:  r.ParentID,
		Position:  r.Position,
	}
	if r.CreatedAt != nil {
		t.CreatedAt = *r.CreatedAt
	}
	return t.Clone()
}

// statsRow is the JSON shape of a stats row; daily_counts is jsonb.
type statsRow struct {
	OwnerID          string         `json:"owner_id"`
	TotalCompleted   int            `json:"total_completed"`
	Streak           int            `json:"streak"`
	BestStreak       int            `json:"best_streak"`
	LastCompleteDate *model.Date    `json:"last_complete_date"`
	DailyCounts      map[string]int `json:"daily_counts"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toStatsRow(owner string, st model.Stats) statsRow {
	counts := make(map[string]int, len(st.DailyCounts))
	for day, n := range st.DailyCounts {
		counts[string(day)] = n
	}
	return statsRow{
		OwnerID:          owner,
		TotalCompleted:   st.TotalCompleted,
		Streak:           st.Streak,
		BestStreak:       st.BestStreak,
		LastCompleteDate: st.LastCompleteDate,
		DailyCounts:      counts,
		UpdatedAt:        time.Now().UTC(),
	}
}

func (r statsRow) stats() model.Stats {
	st := model.NewStats(r.OwnerID)
	st.TotalCompleted = r.TotalCompleted
	st.Streak = r.Streak
	st.BestStreak = r.BestStreak
	st.LastCompleteDate = r.LastCompleteDate
	for day, n := range r.DailyCounts {
		st.DailyCounts[model.Date(day)] = n
	}
	return st
}

// settingsRow is the JSON shape of a settings row; categories is jsonb.
type settingsRow struct {
	OwnerID       string           `json:"owner_id"`
	Theme         string           `json:"theme"`
	SoundEnabled  bool             `json:"sound_enabled"`
	ShowCompleted bool             `json:"show_completed"`
	Categories    []model.Category `json:"categories"`
}

func (r settingsRow) settings() model.Settings {
	st := model.Settings{
		OwnerID:       r.OwnerID,
		Theme:         r.Theme,
		SoundEnabled:  r.SoundEnabled,
		ShowCompleted: r.ShowCompleted,
		Categories:    r.Categories,
	}
	if st.Categories == nil {
		st.Categories = []model.Category{}
	}
	return st
}
