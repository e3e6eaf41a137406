package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints text segments onto a colored bar. Each segment gets the
// bar's background explicitly, including the spaces between words, since an
// unstyled gap shows the terminal background.
type BgStyle struct {
	fill lipgloss.Style
}

// NewBgStyle returns a painter for bgColor.
func NewBgStyle(bgColor string) BgStyle {
	return BgStyle{fill: lipgloss.NewStyle().Background(lipgloss.Color(bgColor))}
}

// Render draws text in style on the bar background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.fill.GetBackground())
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.Space())
}

// Space returns one painted space.
func (b BgStyle) Space() string {
	return b.Spaces(1)
}

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

// Sep paints a literal separator such as ":" with no foreground color.
func (b BgStyle) Sep(sep string) string {
	return b.fill.Render(sep)
}

// Join concatenates already rendered parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FillLine pads rendered content with the background out to width.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
