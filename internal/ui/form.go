package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swarmtail/internal/logstream"
	"github.com/five82/swarmtail/internal/swarm"
)

type field int

const (
	fieldService field = iota
	fieldTail
	fieldSinceMode
	fieldSinceValue
	fieldSinceUnit
	fieldFollow
	fieldTimestamps
	fieldStdout
	fieldStderr
	fieldDetails
)

var fieldLabels = map[field]string{
	fieldService:    "Service",
	fieldTail:       "Tail",
	fieldSinceMode:  "Since",
	fieldSinceValue: "",
	fieldSinceUnit:  "Unit",
	fieldFollow:     "Follow",
	fieldTimestamps: "Timestamps",
	fieldStdout:     "Stdout",
	fieldStderr:     "Stderr",
	fieldDetails:    "Details",
}

// formState is the editable copy of the stream form. Text fields live in
// textinputs and are folded back in by value.
type formState struct {
	values logstream.FormState
	focus  field
	tail   textinput.Model
	amount textinput.Model
	iso    textinput.Model
}

func newFormState(values logstream.FormState) formState {
	tail := textinput.New()
	tail.Placeholder = fmt.Sprint(logstream.DefaultTail)
	tail.CharLimit = 7
	tail.SetValue(values.Tail)

	amount := textinput.New()
	amount.Placeholder = "1"
	amount.CharLimit = 6
	amount.SetValue(values.Since.Amount)

	iso := textinput.New()
	iso.Placeholder = "2006-01-02T15:04:05Z"
	iso.CharLimit = 40
	iso.SetValue(values.Since.ISO)

	f := formState{values: values, tail: tail, amount: amount, iso: iso}
	f.syncFocus()
	return f
}

// value returns the form with the text inputs applied.
func (f formState) value() logstream.FormState {
	v := f.values
	v.Tail = f.tail.Value()
	v.Since.Amount = f.amount.Value()
	v.Since.ISO = f.iso.Value()
	return v
}

func (f formState) fields() []field {
	out := []field{fieldService, fieldTail, fieldSinceMode, fieldSinceValue}
	if f.values.Since.Mode == logstream.SinceRelative {
		out = append(out, fieldSinceUnit)
	}
	return append(out, fieldFollow, fieldTimestamps, fieldStdout, fieldStderr, fieldDetails)
}

func (f *formState) move(delta int) {
	fields := f.fields()
	idx := 0
	for i, fl := range fields {
		if fl == f.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	f.focus = fields[idx]
	f.syncFocus()
}

// activeInput returns the textinput under focus, if any.
func (f *formState) activeInput() *textinput.Model {
	switch f.focus {
	case fieldTail:
		return &f.tail
	case fieldSinceValue:
		if f.values.Since.Mode == logstream.SinceAbsolute {
			return &f.iso
		}
		return &f.amount
	}
	return nil
}

func (f *formState) syncFocus() {
	f.tail.Blur()
	f.amount.Blur()
	f.iso.Blur()
	if in := f.activeInput(); in != nil {
		in.Focus()
	}
}

func (f *formState) toggleSinceMode() {
	f.values.Since.ToggleMode()
	if f.focus == fieldSinceUnit {
		f.focus = fieldSinceValue
	}
	f.syncFocus()
}

func (f *formState) applyPreset(preset string) {
	if f.values.Since.ApplyPreset(preset) {
		f.amount.SetValue(f.values.Since.Amount)
		f.syncFocus()
	}
}

// cycleService moves the selection through the catalog.
func (f *formState) cycleService(services []swarm.Service, delta int) {
	if len(services) == 0 {
		return
	}
	idx := -1
	for i, s := range services {
		if s.ID == f.values.Source.ID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta < 0:
		idx = len(services) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + delta + len(services)) % len(services)
	}
	f.values.Source = services[idx].Source()
}

// resolveSource fills in the display name of a source restored by ID, or
// selects the first service when nothing is selected yet.
func (f *formState) resolveSource(services []swarm.Service) {
	if f.values.Source.ID == "" {
		if len(services) > 0 {
			f.values.Source = services[0].Source()
		}
		return
	}
	if svc, ok := swarm.FindService(services, f.values.Source.ID); ok {
		f.values.Source = svc.Source()
	}
}

func (f *formState) toggle(services []swarm.Service) {
	switch f.focus {
	case fieldService:
		f.cycleService(services, 1)
	case fieldSinceMode:
		f.toggleSinceMode()
	case fieldSinceUnit:
		f.values.Since.CycleUnit()
	case fieldFollow:
		f.values.Follow = !f.values.Follow
	case fieldTimestamps:
		f.values.Timestamps = !f.values.Timestamps
	case fieldStdout:
		f.values.Stdout = !f.values.Stdout
	case fieldStderr:
		f.values.Stderr = !f.values.Stderr
	case fieldDetails:
		f.values.Details = !f.values.Details
	}
}

// handleFormKey processes keyboard input for the form view.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	services := m.snapshot.Services

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextField):
		m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.form.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.BackToLogs):
		if m.ctrl.State() == logstream.StateActive {
			m.showLogs()
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleMode):
		m.form.toggleSinceMode()
		return m, nil
	}

	if in := m.form.activeInput(); in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.Presets):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(logstream.SincePresets) {
			m.form.applyPreset(logstream.SincePresets[idx])
		}
	case key.Matches(msg, m.keys.Toggle):
		m.form.toggle(services)
	case key.Matches(msg, m.keys.CycleLeft):
		switch m.form.focus {
		case fieldService:
			m.form.cycleService(services, -1)
		default:
			m.form.toggle(services)
		}
	case key.Matches(msg, m.keys.CycleRight):
		m.form.toggle(services)
	}
	return m, nil
}

// submitForm starts a session from the form. Validation errors stay on the
// form; a running session keeps running until a valid form replaces it.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	form := m.form.value()
	if err := m.ctrl.Start(form); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.clearStatus()
	m.logs.reset()
	m.savePrefs()
	m.showLogs()
	return m, nil
}

// renderForm renders the stream configuration form.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	f := m.form
	var b strings.Builder

	for _, fl := range f.fields() {
		focused := fl == f.focus
		label := fieldLabels[fl]
		if fl == fieldSinceValue {
			label = "Amount"
			if f.values.Since.Mode == logstream.SinceAbsolute {
				label = "Timestamp"
			}
		}

		labelStyle := styles.MutedText
		marker := "  "
		if focused {
			labelStyle = styles.AccentText.Bold(true)
			marker = styles.AccentText.Render("› ")
		}
		b.WriteString(marker)
		b.WriteString(labelStyle.Width(12).Render(label))
		b.WriteString(m.renderFieldValue(fl, focused, styles))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("presets: " + strings.Join(logstream.SincePresets, " ")))
	b.WriteString("\n")
	if m.status != "" {
		style := styles.SuccessText
		if m.statusErr {
			style = styles.DangerText
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	hint := []key.Binding{m.keys.Submit, m.keys.NextField, m.keys.Toggle, m.keys.Presets, m.keys.Help}
	if m.ctrl.State() == logstream.StateActive {
		hint = []key.Binding{m.keys.Submit, m.keys.BackToLogs, m.keys.Help}
	}
	b.WriteString(styles.FaintText.Render(helpKeys(hint)))

	return m.renderBox("Show logs", b.String(), min(m.width, LayoutFormWidth), m.height-2, true)
}

func (m Model) renderFieldValue(fl field, focused bool, styles Styles) string {
	f := m.form
	v := f.values
	switch fl {
	case fieldService:
		name := v.Source.Name
		if name == "" {
			name = v.Source.ID
		}
		if name == "" {
			if len(m.snapshot.Services) == 0 {
				return styles.FaintText.Render("no services available")
			}
			name = "select a service"
		}
		if focused {
			return styles.Text.Render("‹ " + name + " ›")
		}
		return styles.Text.Render(name)
	case fieldTail:
		return f.tail.View()
	case fieldSinceMode:
		if v.Since.Mode == logstream.SinceAbsolute {
			return styles.Text.Render("absolute")
		}
		return styles.Text.Render("relative")
	case fieldSinceValue:
		if v.Since.Mode == logstream.SinceAbsolute {
			return f.iso.View()
		}
		return f.amount.View()
	case fieldSinceUnit:
		return styles.Text.Render(unitLabel(v.Since.Unit))
	case fieldFollow:
		return checkbox(v.Follow, styles)
	case fieldTimestamps:
		return checkbox(v.Timestamps, styles)
	case fieldStdout:
		return checkbox(v.Stdout, styles)
	case fieldStderr:
		return checkbox(v.Stderr, styles)
	case fieldDetails:
		return checkbox(v.Details, styles)
	}
	return ""
}

func unitLabel(unit string) string {
	switch unit {
	case "s":
		return "seconds"
	case "m":
		return "minutes"
	case "h":
		return "hours"
	case "d":
		return "days"
	default:
		return unit
	}
}

func checkbox(on bool, styles Styles) string {
	if on {
		return styles.SuccessText.Render("[x]")
	}
	return styles.FaintText.Render("[ ]")
}

// renderBox draws a rounded border with the title set into the top edge.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(content)

	if title == "" {
		return box
	}
	lines := strings.SplitN(box, "\n", 2)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true).Render(" " + title + " ")
	top := lipgloss.NewStyle().Foreground(lipgloss.Color(border)).Render("╭─") + label
	fill := width - lipgloss.Width(top) - 1
	if fill < 0 {
		fill = 0
	}
	top += lipgloss.NewStyle().Foreground(lipgloss.Color(border)).Render(strings.Repeat("─", fill) + "╮")
	if len(lines) == 2 {
		return top + "\n" + lines[1]
	}
	return top
}
