package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattsolo1/grove-core/tui/theme"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Theme selects the palette used for styled output.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
)

// ParseTheme maps a configuration value to a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ThemeSystem, nil
	case ThemeSystem, ThemeDark, ThemeLight:
		return t, nil
	default:
		return ThemeSystem, fmt.Errorf("unknown theme %q (want system, dark or light)", s)
	}
}

// Title returns the display name of the theme.
func (t Theme) Title() string {
	return cases.Title(language.English).String(string(t))
}

// Styles holds the styles of each row part.
type Styles struct {
	Twisty  lipgloss.Style
	Dir     lipgloss.Style
	File    lipgloss.Style
	Value   lipgloss.Style
	Warning lipgloss.Style
	Meta    lipgloss.Style
}

// PlainStyles renders everything unstyled.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Twisty: s, Dir: s, File: s, Value: s, Warning: s, Meta: s}
}

// NewStyles returns the styles of a theme.
func NewStyles(t Theme) Styles {
	switch t {
	case ThemeDark:
		return Styles{
			Twisty:  lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c98")),
			Dir:     lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true),
			File:    lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5")),
			Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")),
			Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9e64")),
			Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")),
		}
	case ThemeLight:
		return Styles{
			Twisty:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
			Dir:     lipgloss.NewStyle().Foreground(lipgloss.Color("#1d4ed8")).Bold(true),
			File:    lipgloss.NewStyle().Foreground(lipgloss.Color("#111827")),
			Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#0e7490")),
			Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#b45309")),
			Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		}
	default:
		return Styles{
			Twisty:  theme.DefaultTheme.Muted,
			Dir:     lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Blue).Bold(true),
			File:    lipgloss.NewStyle(),
			Value:   lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Cyan),
			Warning: lipgloss.NewStyle().Foreground(theme.DefaultTheme.Colors.Orange),
			Meta:    theme.DefaultTheme.Muted,
		}
	}
}
