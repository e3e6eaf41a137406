package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	// Form
	NextField  key.Binding
	PrevField  key.Binding
	Toggle     key.Binding
	CycleLeft  key.Binding
	CycleRight key.Binding
	ToggleMode key.Binding
	Presets    key.Binding
	Submit     key.Binding
	BackToLogs key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Logs actions
	Stop       key.Binding
	EditForm   key.Binding
	AutoScroll key.Binding
	MoreLines  key.Binding
	FewerLines key.Binding
	SetLines   key.Binding
	Search     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	Copy       key.Binding
	Download   key.Binding

	// Search/input
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),

		// Form
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/down", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/up", "Previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "Toggle option"),
		),
		CycleLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left", "Previous choice"),
		),
		CycleRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right", "Next choice"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Relative/absolute since"),
		),
		Presets: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "Since preset 5m/15m/1h/6h/24h"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show logs"),
		),
		BackToLogs: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to running stream"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		// Logs actions
		Stop: key.NewBinding(
			key.WithKeys("esc", "s"),
			key.WithHelp("esc/s", "Stop and hide logs"),
		),
		EditForm: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit form, keep stream"),
		),
		AutoScroll: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle auto-scroll"),
		),
		MoreLines: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Keep 10 more lines"),
		),
		FewerLines: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Keep 10 fewer lines"),
		),
		SetLines: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Set number of lines"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search logs"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy lines"),
		),
		Download: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Save lines to file"),
		),

		// Search/input
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// FullHelp groups the bindings for the help overlay, one column per
// entry of helpTitles.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Form
		{k.NextField, k.PrevField, k.Toggle, k.CycleLeft, k.CycleRight, k.ToggleMode, k.Presets, k.Submit, k.BackToLogs},
		// Logs
		{k.Stop, k.EditForm, k.AutoScroll, k.MoreLines, k.FewerLines, k.SetLines},
		{k.Search, k.NextMatch, k.PrevMatch, k.Copy, k.Download},
		// Navigation
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		// General
		{k.CycleTheme, k.Help, k.Quit},
	}
}
