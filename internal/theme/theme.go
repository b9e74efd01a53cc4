package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focus/internal/model"
)

// Palette is a named set of adaptive colors (dark terminal value, light
// terminal value).
type Palette struct {
	Name    string
	Accent  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Subtle  lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
}

// DefaultName is the palette used when none is configured.
const DefaultName = "default"

var palettes = map[string]Palette{
	"default": {
		Name:    "default",
		Accent:  lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"},
		Success: lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
		Warning: lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
		Danger:  lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
		Muted:   lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"},
		Text:    lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
		Border:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
	},
	"ocean": {
		Name:    "ocean",
		Accent:  lipgloss.AdaptiveColor{Dark: "#4FC1E9", Light: "#0B7285"},
		Success: lipgloss.AdaptiveColor{Dark: "#48CFAD", Light: "#087F5B"},
		Warning: lipgloss.AdaptiveColor{Dark: "#FFCE54", Light: "#E67700"},
		Danger:  lipgloss.AdaptiveColor{Dark: "#ED5565", Light: "#C92A2A"},
		Muted:   lipgloss.AdaptiveColor{Dark: "#8FA6B8", Light: "#5C7080"},
		Text:    lipgloss.AdaptiveColor{Dark: "#E6F4F1", Light: "#102A43"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#243B53", Light: "#BCCCDC"},
		Border:  lipgloss.AdaptiveColor{Dark: "#334E68", Light: "#D9E2EC"},
	},
	"sunset": {
		Name:    "sunset",
		Accent:  lipgloss.AdaptiveColor{Dark: "#FF8C69", Light: "#C2410C"},
		Success: lipgloss.AdaptiveColor{Dark: "#A3D977", Light: "#4D7C0F"},
		Warning: lipgloss.AdaptiveColor{Dark: "#FFC857", Light: "#B45309"},
		Danger:  lipgloss.AdaptiveColor{Dark: "#E4572E", Light: "#9F1239"},
		Muted:   lipgloss.AdaptiveColor{Dark: "#A8908A", Light: "#78716C"},
		Text:    lipgloss.AdaptiveColor{Dark: "#FFF4E6", Light: "#292524"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#5C3D2E", Light: "#FED7AA"},
		Border:  lipgloss.AdaptiveColor{Dark: "#6B4A3A", Light: "#FDE2C8"},
	},
	"forest": {
		Name:    "forest",
		Accent:  lipgloss.AdaptiveColor{Dark: "#7BC950", Light: "#2B8A3E"},
		Success: lipgloss.AdaptiveColor{Dark: "#B5E48C", Light: "#5C940D"},
		Warning: lipgloss.AdaptiveColor{Dark: "#E9C46A", Light: "#A66F00"},
		Danger:  lipgloss.AdaptiveColor{Dark: "#E76F51", Light: "#B02A0A"},
		Muted:   lipgloss.AdaptiveColor{Dark: "#8A9A7B", Light: "#5F6F52"},
		Text:    lipgloss.AdaptiveColor{Dark: "#F1F7ED", Light: "#1B2A17"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#2D4030", Light: "#D3E4CD"},
		Border:  lipgloss.AdaptiveColor{Dark: "#3E5641", Light: "#E1EDD9"},
	},
	"mono": {
		Name:    "mono",
		Accent:  lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"},
		Success: lipgloss.AdaptiveColor{Dark: "#D0D0D0", Light: "#303030"},
		Warning: lipgloss.AdaptiveColor{Dark: "#B0B0B0", Light: "#505050"},
		Danger:  lipgloss.AdaptiveColor{Dark: "#FFFFFF", Light: "#000000"},
		Muted:   lipgloss.AdaptiveColor{Dark: "#808080", Light: "#808080"},
		Text:    lipgloss.AdaptiveColor{Dark: "#EEEEEE", Light: "#111111"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#3A3A3A", Light: "#D0D0D0"},
		Border:  lipgloss.AdaptiveColor{Dark: "#5A5A5A", Light: "#C0C0C0"},
	},
}

// Current is the active palette.
var Current Palette

// Styles derived from Current. Apply rebuilds them.
var (
	// HeaderStyle is used for the application title.
	HeaderStyle lipgloss.Style
	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style
	// SectionStyle titles the Today and Later groups.
	SectionStyle lipgloss.Style
	// PanelStyle wraps modal panels (stats, categories).
	PanelStyle lipgloss.Style
	// ListItemStyle is the base style for items in a list.
	ListItemStyle lipgloss.Style
	// SelectedItemStyle highlights the currently focused list item.
	SelectedItemStyle lipgloss.Style
	// CompletedStyle dims finished tasks.
	CompletedStyle lipgloss.Style
	// OverdueStyle marks tasks past their due date.
	OverdueStyle lipgloss.Style
	// TodayStyle marks the focus flag.
	TodayStyle lipgloss.Style
	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style
	// ErrorStyle is used for failure messages in the status bar.
	ErrorStyle lipgloss.Style
	// BannerStyle is the milestone celebration banner.
	BannerStyle lipgloss.Style
	// BorderStyle provides a standard rounded border for panels.
	BorderStyle lipgloss.Style
)

func init() {
	Apply(DefaultName)
}

// Names returns the available palette names, sorted, default first.
func Names() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		if name != DefaultName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{DefaultName}, names...)
}

// Exists reports whether name is a known palette.
func Exists(name string) bool {
	_, ok := palettes[name]
	return ok
}

// Next returns the palette after name in Names order, wrapping around.
func Next(name string) string {
	names := Names()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return DefaultName
}

// Apply switches to the named palette and rebuilds every style. Unknown
// names fall back to the default palette. It returns the applied name.
func Apply(name string) string {
	p, ok := palettes[name]
	if !ok {
		p = palettes[DefaultName]
	}
	Current = p

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Background(p.Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Subtle).
		Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		PaddingLeft(1)

	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(p.Accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Accent)

	CompletedStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)

	OverdueStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Danger)

	TodayStyle = lipgloss.NewStyle().
		Foreground(p.Warning)

	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Danger)

	BannerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Background(p.Success).
		Padding(0, 2)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	return p.Name
}

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityHigh:
		return base.Foreground(Current.Danger)
	case model.PriorityMedium:
		return base.Foreground(Current.Warning)
	case model.PriorityLow:
		return base.Foreground(Current.Accent)
	default:
		return base.Foreground(Current.Muted)
	}
}

// CategoryStyle returns a badge style in the category's own color.
func CategoryStyle(color string) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	if color == "" {
		return base.Foreground(Current.Muted)
	}
	return base.Foreground(lipgloss.Color(color))
}
