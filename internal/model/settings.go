package model

// Settings holds per-owner UI preferences and user-created categories.
type Settings struct {
	OwnerID       string     `json:"owner_id"`
	Theme         string     `json:"theme"`
	SoundEnabled  bool       `json:"sound_enabled"`
	ShowCompleted bool       `json:"show_completed"`
	Categories    []Category `json:"categories"`
}

// Settings column names.
const (
	ColTheme         = "theme"
	ColSoundEnabled  = "sound_enabled"
	ColShowCompleted = "show_completed"
	ColCategories    = "categories"
)

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings(owner string) Settings {
	return Settings{
		OwnerID:       owner,
		Theme:         "default",
		SoundEnabled:  true,
		ShowCompleted: true,
		Categories:    []Category{},
	}
}
