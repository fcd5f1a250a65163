package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette used by every style in the package.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warn    lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeDefault = Theme{
		Name:    "default",
		Primary: lipgloss.Color("86"),
		Accent:  lipgloss.Color("213"),
		Text:    lipgloss.Color("252"),
		Muted:   lipgloss.Color("242"),
		Good:    lipgloss.Color("82"),
		Warn:    lipgloss.Color("220"),
		Bad:     lipgloss.Color("203"),
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Good:    lipgloss.Color("#88ff88"),
		Warn:    lipgloss.Color("#ffff00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#cccccc"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Good:    lipgloss.Color("#ffffff"),
		Warn:    lipgloss.Color("#ffffff"),
		Bad:     lipgloss.Color("#ffffff"),
	}

	Themes = []Theme{ThemeDefault, ThemeRetro, ThemeMono}

	current = ThemeDefault
	styles  = newStyles(current)
)

func GetTheme(name string) (Theme, error) {
	for _, t := range Themes {
		if t.Name == name {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("unknown theme: %s", name)
}

// SetTheme switches the palette for subsequent rendering.
func SetTheme(name string) error {
	t, err := GetTheme(name)
	if err != nil {
		return err
	}
	current = t
	styles = newStyles(t)
	return nil
}

func CurrentTheme() Theme { return current }

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
