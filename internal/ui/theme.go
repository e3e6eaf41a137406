package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Colors are hex strings so they can be stored and
// compared; Styles turns them into lipgloss styles.
type Theme struct {
	Name string

	Background string // screen behind everything
	Surface    string // header and command bar
	FocusBg    string // log viewport

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// StatusColors maps header badge labels (idle, connecting, streaming,
	// offline, ...) to a badge background.
	StatusColors map[string]string
}

// Styles holds the text styles a view renders with.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

// Styles builds the theme's text styles with no background set.
func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:   fg(t.Warning).Bold(true),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns the badge style for a stream or catalog status.
// Unknown statuses use the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.statusColors[status]
	if !ok || color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Padding(0, 1)
}

// WithBackground returns a copy whose text styles paint bgColor, so text
// rendered inside a colored bar does not punch holes in it.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themes = []Theme{
	{
		// https://github.com/EdenEast/nightfox.nvim
		Name:        "Nightfox",
		Background:  "#131a24",
		Surface:     "#192330",
		FocusBg:     "#29394f",
		Border:      "#39506d",
		BorderFocus: "#719cd6",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
		StatusColors: map[string]string{
			"idle":         "#738091",
			"configuring":  "#71839b",
			"connecting":   "#63cdcf",
			"reconnecting": "#dbc074",
			"streaming":    "#81b29a",
			"ended":        "#719cd6",
			"offline":      "#f4a261",
			"error":        "#c94f6d",
		},
	},
	{
		// https://github.com/rebelot/kanagawa.nvim
		Name:        "Kanagawa",
		Background:  "#16161D",
		Surface:     "#1F1F28",
		FocusBg:     "#2A2A37",
		Border:      "#54546D",
		BorderFocus: "#7E9CD8",
		Text:        "#DCD7BA",
		Muted:       "#C8C093",
		Faint:       "#727169",
		Accent:      "#7E9CD8",
		Success:     "#98BB6C",
		Warning:     "#E6C384",
		Danger:      "#E46876",
		StatusColors: map[string]string{
			"idle":         "#727169",
			"configuring":  "#C8C093",
			"connecting":   "#7FB4CA",
			"reconnecting": "#E6C384",
			"streaming":    "#98BB6C",
			"ended":        "#7E9CD8",
			"offline":      "#FFA066",
			"error":        "#E46876",
		},
	},
	{
		// Tailwind slate and sky scales.
		Name:        "Slate",
		Background:  "#020617",
		Surface:     "#0f172a",
		FocusBg:     "#1e293b",
		Border:      "#334155",
		BorderFocus: "#38bdf8",
		Text:        "#f1f5f9",
		Muted:       "#94a3b8",
		Faint:       "#64748b",
		Accent:      "#38bdf8",
		Success:     "#22c55e",
		Warning:     "#f59e0b",
		Danger:      "#ef4444",
		StatusColors: map[string]string{
			"idle":         "#64748b",
			"configuring":  "#94a3b8",
			"connecting":   "#38bdf8",
			"reconnecting": "#f59e0b",
			"streaming":    "#22c55e",
			"ended":        "#0284c7",
			"offline":      "#f97316",
			"error":        "#dc2626",
		},
	},
}

// GetTheme returns the named theme, or the first one when the name is unknown.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// NextTheme returns the theme after current, wrapping around.
func NextTheme(current string) string {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)].Name
		}
	}
	return themes[0].Name
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
