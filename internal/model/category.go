package model

import (
	"regexp"
	"strings"
	"unicode"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category is a coloured label that tasks reference by ID.
type Category struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// DefaultCategories is the built-in set available to every user.
var DefaultCategories = []Category{
	{ID: "work", Name: "Work", Color: "#5B9BD5"},
	{ID: "personal", Name: "Personal", Color: "#6BCB77"},
	{ID: "shopping", Name: "Shopping", Color: "#FFA94D"},
	{ID: "health", Name: "Health", Color: "#FF6B6B"},
}

// IsDefaultCategory reports whether id belongs to the built-in set.
func IsDefaultCategory(id string) bool {
	for _, c := range DefaultCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Slugify turns a display name into a category ID: lower case, ASCII
// letters and digits, words joined by '-'.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ValidColor reports whether s is a #RRGGBB color.
func ValidColor(s string) bool { return hexColor.MatchString(s) }
