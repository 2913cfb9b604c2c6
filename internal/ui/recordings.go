package ui

import (
	"fmt"
	"strings"

	"github.com/five82/statdeck/internal/rollup"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

// renderRecordings renders per-user availability of the selected room and,
// when a user is expanded, the hour grid of the selected day.
func (m Model) renderRecordings(v state.View) string {
	r, err := statsapi.DecodeAs[statsapi.Recordings](v.Data)
	if err != nil {
		return m.renderDecodeError(v, err)
	}
	styles := m.theme.Styles()

	var b strings.Builder
	name := r.RoomName
	if name == "" {
		name = statsapi.RoomName(m.room)
	}
	b.WriteString(styles.Text.Bold(true).Render(name))
	b.WriteString("  " + styles.MutedText.Render(fmt.Sprintf("%d users", len(r.Users))))
	if r.IsMock {
		b.WriteString("  " + styles.WarningText.Render("sample data"))
	}
	b.WriteString("\n\n")

	if len(r.Users) == 0 {
		b.WriteString(styles.MutedText.Render("No users recorded in this room"))
		return b.String()
	}

	header := padRight("USER", 24) + padRight("TODAY", 14) + padRight("WEEK", 14) + "SIZE"
	b.WriteString(styles.FaintText.Render("  " + header))
	b.WriteString("\n")

	for i, u := range r.Users {
		today := "-"
		todayLevel := "idle"
		if d, ok := rollup.RollupUserToday(u); ok {
			today = fmt.Sprintf("%d/%d %d%%", d.RecordedCount, rollup.TotalRecordingHours, d.Percent())
			todayLevel = levelName(d.Percent())
		}
		week := rollup.RollupUserWeek(u)
		weekText := fmt.Sprintf("%d/%d %d%%", week.RecordedHours, week.TotalHours, week.Percent)

		nameCell := padRight(truncate(u.Name, 23), 24)
		if i == m.cursor[TabRecordings] {
			marker := "› "
			if m.expanded {
				marker = "▾ "
			}
			b.WriteString(styles.Selected.Render(marker + nameCell))
		} else {
			b.WriteString("  " + styles.Text.Render(nameCell))
		}
		b.WriteString(styles.StatusText(todayLevel).Render(padRight(today, 14)))
		b.WriteString(styles.StatusText(levelName(week.Percent)).Render(padRight(weekText, 14)))
		b.WriteString(styles.MutedText.Render(formatSizeMB(week.TotalSizeMB)))
		b.WriteString("\n")

		if m.expanded && i == m.cursor[TabRecordings] {
			b.WriteString(m.renderHourGrid(u))
		}
	}

	return b.String()
}

// slotStatus maps a slot class to a theme status color.
func slotStatus(c rollup.Class) string {
	switch {
	case c.Future:
		return "future"
	case c.Available:
		return "available"
	case c.Current:
		return "current"
	default:
		return "missing"
	}
}

// slotGlyph is the grid cell of a slot class.
func slotGlyph(c rollup.Class) string {
	switch {
	case c.Future:
		return "·"
	case c.Available:
		return "●"
	case c.Current:
		return "◌"
	default:
		return "○"
	}
}

// renderHourGrid renders the selected day of u as one cell per hour, the
// selected hour's details and its playback URL.
func (m Model) renderHourGrid(u statsapi.RecordingUser) string {
	styles := m.theme.Styles()
	var b strings.Builder

	day, ok := u.Days[m.day]
	if !ok {
		b.WriteString("    " + styles.MutedText.Render("no days reported"))
		b.WriteString("\n")
		return b.String()
	}

	label := m.day
	switch {
	case day.IsToday:
		label += " (today)"
	case day.IsFuture:
		label += " (upcoming)"
	}
	rolled := rollup.RollupRecordingDay(day)
	b.WriteString("    " + styles.AccentText.Render(label) + "  " +
		styles.MutedText.Render(fmt.Sprintf("%d/%d hours · %s", rolled.RecordedCount,
			rollup.TotalRecordingHours, formatSizeMB(rolled.TotalSizeMB))))
	b.WriteString("\n")

	currentHour := m.now().Hour()
	var hours, cells strings.Builder
	for h := rollup.RecordingStartHour; h < rollup.RecordingEndHour; h++ {
		class := rollup.ClassifyHour(day, h, currentHour)
		hourLabel := fmt.Sprintf("%02d", h)
		cell := " " + slotGlyph(class)
		if h == m.hour {
			hours.WriteString(styles.Selected.Render(hourLabel))
			cells.WriteString(styles.Selected.Render(cell))
		} else {
			hours.WriteString(styles.FaintText.Render(hourLabel))
			cells.WriteString(styles.StatusText(slotStatus(class)).Render(cell))
		}
		hours.WriteString(" ")
		cells.WriteString(" ")
	}
	b.WriteString("    " + hours.String() + "\n")
	b.WriteString("    " + cells.String() + "\n")

	part := rollup.HourName(m.hour)
	class := rollup.ClassifyHour(day, m.hour, currentHour)
	slot := day.Hours[part]
	detail := fmt.Sprintf("%s  %s", part, slotStatus(class))
	if slot.SizeMB > 0 {
		detail += "  " + formatSizeMB(slot.SizeMB)
	}
	if n := len(slot.Files); n > 0 {
		detail += fmt.Sprintf("  %d file(s)", n)
	}
	b.WriteString("    " + styles.Text.Render(detail))
	b.WriteString("\n")

	if class.Playable() && m.client != nil {
		date := day.Date
		if date == "" {
			date = m.day
		}
		url := m.client.VideoStreamURL(m.room, u.ID, date, part)
		b.WriteString("    " + styles.FaintText.Render("play") + " " + styles.InfoText.Render(url))
		b.WriteString("\n")
	}

	return b.String()
}
