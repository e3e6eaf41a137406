package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logstream"
)

// inputMode selects what the prompt under the logs box is editing.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputLines
)

// logView holds the logs screen. The lines themselves belong to the
// controller; lines here is the copy last rendered.
type logView struct {
	viewport   viewport.Model
	version    uint64
	rendered   bool
	autoScroll bool
	lines      []string

	// Prompt
	mode  inputMode
	input textinput.Model

	// Search
	query    string
	regex    *regexp.Regexp
	matches  []int
	matchIdx int
}

func newLogView() logView {
	ti := textinput.New()
	ti.CharLimit = 100
	return logView{
		viewport:   viewport.New(0, 0),
		autoScroll: true,
		input:      ti,
	}
}

// reset drops everything tied to the previous session.
func (l *logView) reset() {
	l.lines = nil
	l.rendered = false
	l.autoScroll = true
	l.mode = inputNone
	l.input.Blur()
	l.input.SetValue("")
	l.clearSearch()
	l.viewport.SetContent("")
	l.viewport.GotoTop()
}

func (l *logView) clearSearch() {
	l.query = ""
	l.regex = nil
	l.matches = nil
	l.matchIdx = 0
}

func (l *logView) findMatches() {
	l.matches = nil
	if l.regex == nil {
		return
	}
	for i, line := range l.lines {
		if l.regex.MatchString(line) {
			l.matches = append(l.matches, i)
		}
	}
	if l.matchIdx >= len(l.matches) {
		l.matchIdx = 0
	}
}

// resizeLogs fits the viewport between the header rows and the status bar.
func (m *Model) resizeLogs() {
	// Box height = m.height - 3 (header, cmdbar, status bar below)
	// Box inner = box height - 2 (top and bottom borders)
	m.logs.viewport.Width = max(m.width-2, 1)
	m.logs.viewport.Height = max(m.height-5, 1)
	m.logs.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logs.rendered = false
	m.syncLogs()
}

// syncLogs re-renders the viewport when the controller has committed a new
// window since the last render.
func (m *Model) syncLogs() {
	if m.logs.rendered && m.logs.version == m.ctrl.Version() {
		return
	}
	m.logs.lines = m.ctrl.Lines()
	m.logs.version = m.ctrl.Version()
	m.logs.findMatches()
	m.logs.viewport.SetContent(m.renderLogContent())
	m.logs.rendered = true

	if m.logs.autoScroll {
		m.logs.viewport.GotoBottom()
	}
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.logs.mode != inputNone {
		return m.handleLogInput(msg)
	}

	vp := &m.logs.viewport

	switch {
	case msg.String() == "esc" && m.logs.regex != nil:
		m.logs.clearSearch()
		m.logs.rendered = false
		m.syncLogs()

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()

	case key.Matches(msg, m.keys.Stop):
		m.ctrl.Stop()
		m.logs.reset()
		m.clearStatus()
		m.showForm()

	case key.Matches(msg, m.keys.EditForm):
		m.showForm()

	case key.Matches(msg, m.keys.AutoScroll):
		m.logs.autoScroll = !m.logs.autoScroll
		if m.logs.autoScroll {
			vp.GotoBottom()
		}

	case key.Matches(msg, m.keys.MoreLines):
		m.setTail(m.currentTail() + TailStep)

	case key.Matches(msg, m.keys.FewerLines):
		m.setTail(m.currentTail() - TailStep)

	case key.Matches(msg, m.keys.SetLines):
		m.openPrompt(inputLines, strconv.Itoa(m.currentTail()))
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Search):
		m.openPrompt(inputSearch, "")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextMatch):
		m.stepMatch(1)

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepMatch(-1)

	case key.Matches(msg, m.keys.Copy):
		m.copyLines()

	case key.Matches(msg, m.keys.Download):
		m.downloadLines()

	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
		m.logs.autoScroll = false

	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		m.logs.autoScroll = true

	case key.Matches(msg, m.keys.Down):
		vp.LineDown(1)
		m.logs.autoScroll = vp.AtBottom()

	case key.Matches(msg, m.keys.Up):
		vp.LineUp(1)
		m.logs.autoScroll = false

	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfViewDown()
		m.logs.autoScroll = vp.AtBottom()

	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfViewUp()
		m.logs.autoScroll = false

	case key.Matches(msg, m.keys.PageDown):
		vp.ViewDown()
		m.logs.autoScroll = vp.AtBottom()

	case key.Matches(msg, m.keys.PageUp):
		vp.ViewUp()
		m.logs.autoScroll = false
	}

	return m, nil
}

func (m *Model) openPrompt(mode inputMode, value string) {
	m.logs.mode = mode
	switch mode {
	case inputLines:
		m.logs.input.Placeholder = "Number of lines"
	default:
		m.logs.input.Placeholder = "Search logs..."
	}
	m.logs.input.SetValue(value)
	m.logs.input.CursorEnd()
	m.logs.input.Focus()
}

func (m *Model) closePrompt() {
	m.logs.mode = inputNone
	m.logs.input.Blur()
	m.logs.input.SetValue("")
}

// handleLogInput handles keyboard input while the prompt is open.
func (m Model) handleLogInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.logs.input.Value())
		switch m.logs.mode {
		case inputLines:
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > MaxTailInput {
				m.setStatus(fmt.Sprintf("number of lines must be between 1 and %d", MaxTailInput), true)
				return m, nil
			}
			m.closePrompt()
			m.setTail(n)
		case inputSearch:
			if value == "" {
				m.closePrompt()
				return m, nil
			}
			re, err := regexp.Compile("(?i)" + value)
			if err != nil {
				m.setStatus("invalid search pattern", true)
				return m, nil
			}
			m.closePrompt()
			m.clearStatus()
			m.logs.query = value
			m.logs.regex = re
			m.logs.matchIdx = 0
			m.logs.rendered = false
			m.syncLogs()
			if len(m.logs.matches) > 0 {
				m.scrollToMatch()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.logs.input, cmd = m.logs.input.Update(msg)
	return m, cmd
}

// currentTail returns the window size of the running session.
func (m Model) currentTail() int {
	if sess, ok := m.ctrl.Session(); ok {
		return sess.Tail
	}
	return logstream.ResolveTail(m.form.tail.Value())
}

// setTail resizes the running window and keeps the form in step so the
// next start uses the same size.
func (m *Model) setTail(n int) {
	n = max(n, 1)
	text := strconv.Itoa(n)
	m.ctrl.Reconfigure(text)
	m.form.tail.SetValue(text)
	m.form.values.Tail = text
	m.savePrefs()
	m.syncLogs()
}

func (m *Model) stepMatch(delta int) {
	count := len(m.logs.matches)
	if count == 0 {
		return
	}
	m.logs.matchIdx = (m.logs.matchIdx + delta + count) % count
	m.logs.rendered = false
	m.syncLogs()
	m.scrollToMatch()
}

// scrollToMatch centers the current match and pauses auto-scroll.
func (m *Model) scrollToMatch() {
	if len(m.logs.matches) == 0 || m.logs.matchIdx >= len(m.logs.matches) {
		return
	}
	target := m.logs.matches[m.logs.matchIdx]
	m.logs.autoScroll = false
	m.logs.viewport.SetYOffset(max(target-m.logs.viewport.Height/2, 0))
}

func (m *Model) copyLines() {
	lines := m.ctrl.Lines()
	if len(lines) == 0 {
		m.setStatus("nothing to copy", true)
		return
	}
	if err := m.copyFn(strings.Join(lines, "\n")); err != nil {
		m.logger.Warn("copy to clipboard", zap.Error(err))
		m.setStatus("copy failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %d lines", len(lines)), false)
}

// downloadLines writes the visible window to <source>-<timestamp>.log.
func (m *Model) downloadLines() {
	lines := m.ctrl.Lines()
	if len(lines) == 0 {
		m.setStatus("nothing to save", true)
		return
	}
	name := "logs"
	if sess, ok := m.ctrl.Session(); ok {
		name = sess.Source.Name
		if name == "" {
			name = sess.Source.ID
		}
	}
	file := fmt.Sprintf("%s-%s.log", sanitizeFilename(name), m.now().Format("20060102-150405"))
	path := filepath.Join(m.downloadDir, file)
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		m.logger.Warn("save logs", zap.String("path", path), zap.Error(err))
		m.setStatus("save failed: "+err.Error(), true)
		return
	}
	m.logger.Info("saved logs", zap.String("path", path), zap.Int("lines", len(lines)))
	m.setStatus(fmt.Sprintf("Saved %d lines to %s", len(lines), path), false)
}

// renderLogs renders the logs box and its status bar.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	contentHeight := m.height - 3

	box := m.renderBox(m.logTitle(), m.logs.viewport.View(), m.width, contentHeight, true)
	return box + "\n" + m.renderLogStatus(styles, bg)
}

func (m Model) logTitle() string {
	sess, ok := m.ctrl.Session()
	if !ok {
		return "Logs"
	}
	name := sess.Source.Name
	if name == "" {
		name = sess.Source.ID
	}
	title := name + " logs"
	if sess.Follow {
		title += " (follow)"
	}
	return title
}

// renderLogStatus renders the line under the logs box: the prompt, the
// search position or the session summary.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	switch m.logs.mode {
	case inputSearch:
		return styles.AccentText.Render("/") + m.logs.input.View()
	case inputLines:
		return styles.AccentText.Render("lines: ") + m.logs.input.View()
	}

	if m.status != "" {
		style := styles.SuccessText
		if m.statusErr {
			style = styles.DangerText
		}
		return style.Render(m.status)
	}

	if m.logs.regex != nil {
		if len(m.logs.matches) == 0 {
			return bg.Render("Pattern not found: "+m.logs.query, styles.DangerText)
		}
		return bg.Render("/"+m.logs.query, styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", m.logs.matchIdx+1, len(m.logs.matches)), styles.WarningText) +
			bg.Render(" - Press ", styles.FaintText) +
			bg.Render("n", styles.AccentText) +
			bg.Render(" for next, ", styles.FaintText) +
			bg.Render("N", styles.AccentText) +
			bg.Render(" for previous, ", styles.FaintText) +
			bg.Render("Esc", styles.AccentText) +
			bg.Render(" to clear", styles.FaintText)
	}

	autoScroll := "off"
	if m.logs.autoScroll {
		autoScroll = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d/%d lines", len(m.logs.lines), m.currentTail()), styles.FaintText),
		bg.Render("auto-scroll "+autoScroll, styles.FaintText),
	}
	if sess, ok := m.ctrl.Session(); ok && sess.Since != "" {
		parts = append(parts, bg.Render("since "+sess.Since, styles.MutedText))
	}

	return bg.Join(parts, bg.Space()+bg.Render("•", styles.FaintText)+bg.Space())
}

// renderLogContent renders the committed window with line numbers and
// search highlighting.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logs.viewport.Width

	if len(m.logs.lines) == 0 {
		msg := "Waiting for log lines..."
		switch {
		case m.ctrl.State() != logstream.StateActive:
			msg = "No stream running"
		case m.ctrl.Ended():
			msg = "No log lines"
		}
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	matchSet := make(map[int]bool, len(m.logs.matches))
	for _, idx := range m.logs.matches {
		matchSet[idx] = true
	}
	activeMatch := -1
	if len(m.logs.matches) > 0 {
		activeMatch = m.logs.matches[m.logs.matchIdx]
	}

	const gutter = 7 // "%4d │ "
	textWidth := max(width-gutter, 1)

	var b strings.Builder
	for i, line := range m.logs.lines {
		prefix := fmt.Sprintf("%4d │ ", i+1)
		text := ansi.Truncate(line, textWidth, "…")

		var content string
		switch {
		case i == activeMatch:
			highlight := lipgloss.Color(m.theme.Warning)
			content = styles.FaintText.Background(highlight).Render(prefix) +
				lipgloss.NewStyle().
					Background(highlight).
					Foreground(lipgloss.Color(m.theme.Background)).
					Render(text)
		case matchSet[i]:
			content = bg.Render(prefix, styles.AccentText) + bg.Render(text, styles.AccentText)
		default:
			content = bg.Render(prefix, styles.FaintText) + bg.Render(text, lineStyle(line, styles))
		}

		b.WriteString(bg.FillLine(content, width))
		if i < len(m.logs.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

var levelRe = regexp.MustCompile(`\b(ERROR|FATAL|PANIC|WARN|WARNING|DEBUG)\b`)

// lineStyle colors a line by the first log level word in it.
func lineStyle(line string, styles Styles) lipgloss.Style {
	switch levelRe.FindString(line) {
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "WARN", "WARNING":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}
