package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the explorer.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Trace   lipgloss.Color
}

var (
	ThemeTide = Theme{
		Name:    "tide",
		Primary: lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#ffd700"),
		Muted:   lipgloss.Color("#4488aa"),
		Trace:   lipgloss.Color("#00ff88"),
	}

	ThemeKelp = Theme{
		Name:    "kelp",
		Primary: lipgloss.Color("#88cc44"),
		Accent:  lipgloss.Color("#ff9f43"),
		Muted:   lipgloss.Color("#556b2f"),
		Trace:   lipgloss.Color("#d4ff88"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
		Trace:   lipgloss.Color("#cccccc"),
	}

	Themes = []Theme{ThemeTide, ThemeKelp, ThemeMono}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
