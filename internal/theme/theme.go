package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is a named set of colors. Each color is an adaptive pair
// (dark terminal value, light terminal value).
type Palette struct {
	Name    string
	Accent  lipgloss.AdaptiveColor
	Green   lipgloss.AdaptiveColor
	Yellow  lipgloss.AdaptiveColor
	Red     lipgloss.AdaptiveColor
	Orange  lipgloss.AdaptiveColor
	Magenta lipgloss.AdaptiveColor
	Gray    lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Subtle  lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
}

var palettes = map[string]Palette{
	"dark": {
		Name:    "dark",
		Accent:  lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"},
		Green:   lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
		Yellow:  lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
		Red:     lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
		Orange:  lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"},
		Magenta: lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"},
		Gray:    lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"},
		Text:    lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
		Border:  lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
	},
	"light": {
		Name:    "light",
		Accent:  lipgloss.AdaptiveColor{Dark: "#2B6CB0", Light: "#2B6CB0"},
		Green:   lipgloss.AdaptiveColor{Dark: "#2F855A", Light: "#2F855A"},
		Yellow:  lipgloss.AdaptiveColor{Dark: "#B7791F", Light: "#B7791F"},
		Red:     lipgloss.AdaptiveColor{Dark: "#C53030", Light: "#C53030"},
		Orange:  lipgloss.AdaptiveColor{Dark: "#C05621", Light: "#C05621"},
		Magenta: lipgloss.AdaptiveColor{Dark: "#805AD5", Light: "#805AD5"},
		Gray:    lipgloss.AdaptiveColor{Dark: "#718096", Light: "#718096"},
		Text:    lipgloss.AdaptiveColor{Dark: "#1A202C", Light: "#1A202C"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#CBD5E0", Light: "#CBD5E0"},
		Border:  lipgloss.AdaptiveColor{Dark: "#E2E8F0", Light: "#E2E8F0"},
	},
	"blue": {
		Name:    "blue",
		Accent:  lipgloss.AdaptiveColor{Dark: "#60A5FA", Light: "#1D4ED8"},
		Green:   lipgloss.AdaptiveColor{Dark: "#34D399", Light: "#047857"},
		Yellow:  lipgloss.AdaptiveColor{Dark: "#FCD34D", Light: "#B45309"},
		Red:     lipgloss.AdaptiveColor{Dark: "#F87171", Light: "#B91C1C"},
		Orange:  lipgloss.AdaptiveColor{Dark: "#FB923C", Light: "#C2410C"},
		Magenta: lipgloss.AdaptiveColor{Dark: "#A78BFA", Light: "#6D28D9"},
		Gray:    lipgloss.AdaptiveColor{Dark: "#93C5FD", Light: "#1E40AF"},
		Text:    lipgloss.AdaptiveColor{Dark: "#EFF6FF", Light: "#172554"},
		Subtle:  lipgloss.AdaptiveColor{Dark: "#1E3A8A", Light: "#BFDBFE"},
		Border:  lipgloss.AdaptiveColor{Dark: "#1E40AF", Light: "#93C5FD"},
	},
}

// Colors of the active palette.
var (
	ColorBlue    lipgloss.AdaptiveColor
	ColorGreen   lipgloss.AdaptiveColor
	ColorYellow  lipgloss.AdaptiveColor
	ColorRed     lipgloss.AdaptiveColor
	ColorOrange  lipgloss.AdaptiveColor
	ColorMagenta lipgloss.AdaptiveColor
	ColorGray    lipgloss.AdaptiveColor
	ColorWhite   lipgloss.AdaptiveColor
	ColorSubtle  lipgloss.AdaptiveColor
	ColorBorder  lipgloss.AdaptiveColor
)

// Styles derived from the active palette. Apply rebuilds them.
var (
	// HeaderStyle is used for the top bar and section titles.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// ToastStyle highlights transient status messages.
	ToastStyle lipgloss.Style

	// DetailPanelStyle wraps the detail view content area.
	DetailPanelStyle lipgloss.Style

	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style

	// UnreadStyle marks messages that have not been seen.
	UnreadStyle lipgloss.Style

	// DimmedStyle renders secondary text.
	DimmedStyle lipgloss.Style

	// CodeStyle renders extracted verification codes.
	CodeStyle lipgloss.Style

	HelpStyle   lipgloss.Style
	BorderStyle lipgloss.Style
)

var (
	mu      sync.Mutex
	current = "dark"
)

func init() {
	build(palettes[current])
}

// Names returns the theme names in cycle order.
func Names() []string {
	return []string{"dark", "light", "blue"}
}

// Current returns the name of the active theme.
func Current() string {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Apply switches to the named theme. It reports false and leaves the
// current theme in place for an unknown name.
func Apply(name string) bool {
	p, ok := palettes[name]
	if !ok {
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	current = name
	build(p)
	return true
}

func build(p Palette) {
	ColorBlue = p.Accent
	ColorGreen = p.Green
	ColorYellow = p.Yellow
	ColorRed = p.Red
	ColorOrange = p.Orange
	ColorMagenta = p.Magenta
	ColorGray = p.Gray
	ColorWhite = p.Text
	ColorSubtle = p.Subtle
	ColorBorder = p.Border

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite).
		Background(ColorBlue).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorSubtle).
		Padding(0, 1)

	ToastStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorYellow).
		Background(ColorSubtle).
		Padding(0, 1)

	DetailPanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(ColorBlue).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorBlue)

	UnreadStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWhite)

	DimmedStyle = lipgloss.NewStyle().
		Foreground(ColorGray)

	CodeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorGreen).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGreen)

	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)
}

// RiskStyle returns a color-coded style for an analysis risk level.
func RiskStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch level {
	case "LOW":
		return base.Foreground(ColorGreen)
	case "MEDIUM":
		return base.Foreground(ColorYellow)
	case "HIGH":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// ScoreStyle colors a phishing score from 0 to 100.
func ScoreStyle(score int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case score >= 70:
		return base.Foreground(ColorRed)
	case score >= 40:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGreen)
	}
}
