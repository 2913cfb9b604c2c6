package ui

import (
	"fmt"
	"strings"

	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

// renderStatus renders bot status, backend settings, backend cache stats
// and the tail of statdeck's own log.
func (m Model) renderStatus(v state.View) string {
	st, err := statsapi.DecodeAs[statsapi.BotStatus](v.Data)
	if err != nil {
		return m.renderDecodeError(v, err)
	}
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Bot"))
	b.WriteString("\n")
	status := st.Status
	if status == "" {
		status = "unknown"
	}
	b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
		styles.MutedText.Render("status"), styles.Text.Render(status),
		styles.MutedText.Render("uptime"), styles.Text.Render(st.Uptime)))
	errStyle := styles.Text
	if st.ErrorsLastHour > 0 {
		errStyle = styles.DangerText
	}
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		styles.MutedText.Render("processed"), styles.Text.Render(formatCount(st.Processed)),
		styles.MutedText.Render("recorded"), styles.Text.Render(formatCount(st.Recorded)),
		styles.MutedText.Render("errors/h"), errStyle.Render(fmt.Sprint(st.ErrorsLastHour))))
	if st.Buffer != nil {
		b.WriteString(fmt.Sprintf("  %s %d/%d\n", styles.MutedText.Render("buffer"), st.Buffer.Pending, st.Buffer.Size))
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Settings"))
	b.WriteString("\n")
	b.WriteString(m.renderSecondary(scope.New(scope.Settings, ""), func(snap statsapi.Snapshot) string {
		s, err := statsapi.DecodeAs[statsapi.Settings](snap)
		if err != nil {
			return styles.DangerText.Render(err.Error())
		}
		return styles.Text.Render(fmt.Sprintf("  %s · UTC%+d · %d groups\n  ru %02d-%02d · uzb %02d-%02d",
			s.BotName, s.Timezone, s.Groups, s.RUStart, s.RUEnd, s.UZBStart, s.UZBEnd))
	}))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render("Backend cache"))
	b.WriteString("\n")
	b.WriteString(m.renderSecondary(scope.New(scope.CacheStats, ""), func(snap statsapi.Snapshot) string {
		c, err := statsapi.DecodeAs[statsapi.CacheStats](snap)
		if err != nil {
			return styles.DangerText.Render(err.Error())
		}
		ranking := "empty"
		switch {
		case c.Ranking.Present && c.Ranking.Fresh:
			ranking = "fresh"
		case c.Ranking.Present:
			ranking = "stale"
		}
		lines := []string{
			fmt.Sprintf("  dashboard %d entries (ttl %ds)", c.Dashboard.Entries, c.Dashboard.TTLSeconds),
			fmt.Sprintf("  personal  %d entries (ttl %ds)", c.Personal.Entries, c.Personal.TTLSeconds),
			fmt.Sprintf("  recordings %d entries (ttl %ds)", c.Recordings.Entries, c.Recordings.TTLSeconds),
			fmt.Sprintf("  ranking   %s (ttl %ds)", ranking, c.Ranking.TTLSeconds),
			fmt.Sprintf("  fetch slots %d/%d free", c.Semaphore.Available, c.Semaphore.Max),
		}
		return styles.Text.Render(strings.Join(lines, "\n"))
	}))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render("Log"))
	if m.logPath != "" {
		b.WriteString("  " + styles.FaintText.Render(m.logPath))
	}
	b.WriteString("\n")

	used := strings.Count(b.String(), "\n") + 4
	room := max(3, m.height-used)
	lines := m.logLines
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	if len(lines) == 0 {
		b.WriteString(styles.MutedText.Render("  no log lines yet"))
	}
	for _, line := range lines {
		b.WriteString(styles.MutedText.Render("  " + truncate(line, max(20, m.width-4))))
		b.WriteString("\n")
	}

	return b.String()
}

// renderSecondary renders a scope that shares the tab with the primary one.
// It shows its own loading and error state inline.
func (m Model) renderSecondary(k scope.Key, render func(statsapi.Snapshot) string) string {
	styles := m.theme.Styles()
	v, ok := m.views[k]
	switch {
	case !ok:
		return styles.FaintText.Render("  not loaded")
	case v.HasData():
		out := render(v.Data)
		if v.SoftError() {
			out += "\n  " + styles.WarningText.Render("⚠ "+statsapi.Message(v.Err))
		}
		return out
	case v.HardError():
		return "  " + styles.DangerText.Render(statsapi.Message(v.Err))
	case v.Loading:
		return "  " + m.spinner.View() + " " + styles.MutedText.Render("loading")
	default:
		return styles.FaintText.Render("  not loaded")
	}
}
