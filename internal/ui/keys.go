package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// Tab switching
	ViewDashboard  key.Binding
	ViewWeekly     key.Binding
	ViewPersonal   key.Binding
	ViewRecordings key.Binding
	ViewStatus     key.Binding

	// Navigation
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	PrevScope key.Binding
	NextScope key.Binding

	// Recordings
	Expand   key.Binding
	PrevHour key.Binding
	NextHour key.Binding
	NextDay  key.Binding

	// Sync
	Reload key.Binding
	Clear  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next tab"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous tab"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Collapse"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Dashboard"),
		),
		ViewWeekly: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Weekly"),
		),
		ViewPersonal: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Personal"),
		),
		ViewRecordings: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Recordings"),
		),
		ViewStatus: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Status"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),
		PrevScope: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous room/group"),
		),
		NextScope: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next room/group"),
		),

		Expand: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Expand user"),
		),
		PrevHour: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "Previous hour"),
		),
		NextHour: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "Next hour"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Next day"),
		),

		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear cache and reload"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Reload, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewDashboard, k.ViewWeekly, k.ViewPersonal, k.ViewRecordings, k.ViewStatus, k.Tab},
		{k.Up, k.Down, k.Top, k.Bottom, k.PrevScope, k.NextScope},
		{k.Expand, k.PrevHour, k.NextHour, k.NextDay, k.Escape},
		{k.Reload, k.Clear},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
