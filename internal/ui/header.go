package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swarmtail/internal/logstream"
)

// renderHeader renders the status bar: logo, endpoint, catalog and stream state.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	parts := []string{bg.Render("swarmtail", styles.Logo)}

	if m.endpoint != "" && !compact {
		parts = append(parts, bg.Render(truncateMiddle(m.endpoint, 40), styles.MutedText))
	}

	parts = append(parts, m.catalogStatus(styles, bg))

	status := streamStatus(m.ctrl)
	parts = append(parts, styles.StatusStyle(status).Render(strings.ToUpper(status)))

	if sess, ok := m.ctrl.Session(); ok {
		label := sess.Source.Name
		if label == "" {
			label = sess.Source.ID
		}
		parts = append(parts, bg.Render(truncate(label, 30), styles.Text))
	}

	if ts := m.formatTimestamp(); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.FaintText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

func (m Model) catalogStatus(styles Styles, bg BgStyle) string {
	snap := m.snapshot
	switch {
	case snap.IsOffline():
		return bg.Render("API "+classifyConnectionError(snap.LastError), styles.DangerText.Bold(true)) +
			bg.Space() + bg.Render("Retrying...", styles.WarningText.Bold(true))
	case snap.LastError != nil:
		return bg.Render("API "+classifyConnectionError(snap.LastError), styles.WarningText.Bold(true))
	case !snap.HasCatalog:
		return bg.Render("Connecting...", styles.WarningText.Bold(true))
	default:
		return bg.Render("Services:", styles.MutedText) + bg.Space() +
			bg.Render(fmt.Sprintf("%d", len(snap.Services)), styles.Text)
	}
}

// streamStatus names the controller's stream state; the names key
// Theme.StatusColors.
func streamStatus(c *logstream.Controller) string {
	switch c.State() {
	case logstream.StateIdle:
		if c.Err() != nil {
			return "error"
		}
		return "idle"
	case logstream.StateConfiguring:
		if c.Err() != nil {
			return "error"
		}
		return "configuring"
	}
	switch {
	case c.Streaming():
		return "streaming"
	case c.Ended():
		return "ended"
	case c.Connects() == 0:
		return "connecting"
	default:
		return "reconnecting"
	}
}

// formatTimestamp shows when the catalog last refreshed successfully.
func (m Model) formatTimestamp() string {
	at := m.snapshot.LastSuccess
	if at.IsZero() {
		return ""
	}
	stamp := at.Format("15:04:05")
	switch age := m.now().Sub(at); {
	case age < time.Minute:
		return stamp + " (now)"
	case age < time.Hour:
		return fmt.Sprintf("%s (%dm ago)", stamp, int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%s (%dh ago)", stamp, int(age.Hours()))
	default:
		return stamp
	}
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.view {
	case ViewLogs:
		scrollLabel := "Pause"
		if !m.logs.autoScroll {
			scrollLabel = "Follow"
		}
		commands = []cmd{
			{"Space", scrollLabel},
			{"esc", "Stop"},
			{"e", "Edit"},
			{"+/-", "Lines"},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"y", "Copy"},
			{"w", "Save"},
			{"?", "More"},
		}
	default: // ViewForm
		commands = []cmd{
			{"tab", "Next"},
			{"space", "Toggle"},
			{"1-5", "Since"},
			{"enter", "Show logs"},
		}
		if m.ctrl.State() == logstream.StateActive {
			commands = append(commands, cmd{"esc", "Back"})
		}
		commands = append(commands, cmd{"?", "More"})
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Show active log search pattern
	if m.view == ViewLogs && m.logs.query != "" {
		segments = append(segments,
			bg.Render("/"+truncate(m.logs.query, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, sep))
}
