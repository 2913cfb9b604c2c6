package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

const barWidth = 20

// renderDashboard renders totals, the RU/UZB split, groups and top users.
func (m Model) renderDashboard(v state.View) string {
	d, err := statsapi.DecodeAs[statsapi.Dashboard](v.Data)
	if err != nil {
		return m.renderDecodeError(v, err)
	}
	styles := m.theme.Styles()

	var b strings.Builder

	title := strings.TrimSpace(d.Date + " " + d.Weekday)
	if d.Time != "" {
		title += "  " + d.Time
	}
	b.WriteString(styles.Text.Bold(true).Render(title))
	if d.Sheet != "" {
		b.WriteString("  " + styles.MutedText.Render(d.Sheet))
	}
	if !d.IsToday && d.SelectedDate != "" {
		b.WriteString("  " + styles.WarningText.Render("history"))
	}
	if d.BotOffline {
		b.WriteString("  " + styles.DangerText.Render("bot offline"))
	}
	if d.Updating {
		b.WriteString("  " + styles.InfoText.Render("backend updating"))
	}
	b.WriteString("\n\n")

	pct := int(math.Round(d.Total.Percent))
	b.WriteString(styles.AccentText.Bold(true).Render("Total"))
	b.WriteString("  ")
	b.WriteString(renderBar(styles, pct, barWidth))
	b.WriteString(" ")
	b.WriteString(styles.StatusText(levelName(pct)).Render(formatPercent(d.Total.Percent)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf(
		"users %s  took %s  shadow %s  frost %s  flight %s  lost %s  left %s",
		formatCount(d.Total.Users), formatCount(d.Total.Took), formatCount(d.Total.Shadow),
		formatCount(d.Total.Frost), formatCount(d.Total.Flight), formatCount(d.Total.Lost),
		formatCount(d.Total.Left),
	)))
	b.WriteString("\n")
	b.WriteString(m.blockLine("RU ", d.RU))
	b.WriteString("\n")
	b.WriteString(m.blockLine("UZB", d.UZB))
	b.WriteString("\n")
	if d.Purchases != nil {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("purchases today ru %d uzb %d · week ru %d uzb %d",
			d.Purchases.Day.RU, d.Purchases.Day.UZB, d.Purchases.Week.RU, d.Purchases.Week.UZB)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	header := padRight("GROUP", 18) + padLeft("USERS", 7) + padLeft("TOOK", 7) +
		padLeft("LOST", 7) + padLeft("%", 8) + "  STATUS"
	b.WriteString(styles.FaintText.Render("  " + header))
	b.WriteString("\n")
	for i, g := range d.Groups {
		row := padRight(truncate(g.Name, 17), 18) +
			padLeft(formatCount(g.Users), 7) +
			padLeft(formatCount(g.Took), 7) +
			padLeft(formatCount(g.Lost), 7) +
			padLeft(formatPercent(g.Percent), 8) + "  " + g.Status
		if i == m.cursor[TabDashboard] {
			b.WriteString(styles.Selected.Render("› " + row))
		} else {
			level := levelName(int(math.Round(g.Percent)))
			b.WriteString("  " + styles.StatusText(level).Render(row))
		}
		b.WriteString("\n")
	}

	if len(d.TopUsers) > 0 && m.width >= LayoutCompactWidth {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Top users"))
		b.WriteString("\n")
		for i, u := range d.TopUsers {
			if i >= TopUsersLimit {
				break
			}
			b.WriteString(styles.Text.Render(fmt.Sprintf("%2d. %s", i+1, padRight(truncate(u.Name, 24), 25))))
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-10s total %d", truncate(u.Group, 10), u.Total)))
			b.WriteString("\n")
		}
	}

	if d.Metrics.Processed > 0 || d.Metrics.Queued > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("bot processed %s · recorded %s · errors %d · queued %d",
			formatCount(d.Metrics.Processed), formatCount(d.Metrics.Recorded), d.Metrics.Errors, d.Metrics.Queued)))
	}

	return b.String()
}

func (m Model) blockLine(label string, s statsapi.StatsBlock) string {
	styles := m.theme.Styles()
	pct := int(math.Round(s.Percent))
	return styles.Text.Render(label) + "    " +
		renderBar(styles, pct, barWidth) + " " +
		styles.StatusText(levelName(pct)).Render(padRight(formatPercent(s.Percent), 7)) +
		styles.MutedText.Render(fmt.Sprintf("people %d  took %d  total %d", s.People, s.Took, s.Total))
}

// renderWeekly renders the weekly group ranking.
func (m Model) renderWeekly(v state.View) string {
	w, err := statsapi.DecodeAs[statsapi.WeeklyStats](v.Data)
	if err != nil {
		return m.renderDecodeError(v, err)
	}
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Weekly ranking"))
	if w.Period != "" {
		b.WriteString("  " + styles.MutedText.Render(w.Period))
	}
	if w.CurrentDay > 0 {
		b.WriteString("  " + styles.FaintText.Render(fmt.Sprintf("day %d", w.CurrentDay)))
	}
	b.WriteString("\n\n")

	if len(w.Groups) == 0 {
		b.WriteString(styles.MutedText.Render("No groups ranked yet"))
		return b.String()
	}

	for i, g := range w.Groups {
		pct := int(math.Round(g.AveragePercent))
		row := fmt.Sprintf("%2d  %s", g.Rank, padRight(truncate(g.Name, 17), 18))
		line := row + renderBar(styles, pct, barWidth) + " " +
			styles.StatusText(levelName(pct)).Render(padRight(formatPercent(g.AveragePercent), 7)) +
			styles.FaintText.Render(fmt.Sprintf("%d days", g.DaysWithData))
		if i == m.cursor[TabWeekly] {
			b.WriteString(styles.Selected.Render("›") + " " + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	idx := min(m.cursor[TabWeekly], len(w.Groups)-1)
	sel := w.Groups[idx]
	if len(sel.Days) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render(sel.Name))
		b.WriteString("\n")
		for _, day := range sortedKeys(sel.Days) {
			ds := sel.Days[day]
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %-12s took %-4d lost %-4d %s",
				day, ds.Took, ds.Lost, formatPercent(ds.Percent))))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderPersonal renders the users of the selected group.
func (m Model) renderPersonal(v state.View) string {
	p, err := statsapi.DecodeAs[statsapi.PersonalStats](v.Data)
	if err != nil {
		return m.renderDecodeError(v, err)
	}
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.Group))
	b.WriteString("  " + styles.MutedText.Render(fmt.Sprintf("%d users", p.UsersCount)))
	if p.Sheet != "" {
		b.WriteString("  " + styles.FaintText.Render(p.Sheet))
	}
	b.WriteString("\n\n")

	if len(p.Users) == 0 {
		b.WriteString(styles.MutedText.Render("No users in this group"))
		return b.String()
	}

	header := padRight("USER", 24) + padRight("TYPE", 8) + padLeft("TOOK", 6) + padLeft("LOST", 6) + padLeft("LEFT", 6)
	b.WriteString(styles.FaintText.Render("  " + header))
	b.WriteString("\n")
	for i, u := range p.Users {
		wk := u.Weekly
		pct := int(math.Round(wk.Percent))
		row := padRight(truncate(u.Name, 23), 24) + padRight(truncate(u.Type, 7), 8) +
			padLeft(fmt.Sprint(wk.Took), 6) + padLeft(fmt.Sprint(wk.Lost), 6) + padLeft(fmt.Sprint(wk.Left), 6)
		if i == m.cursor[TabPersonal] {
			b.WriteString(styles.Selected.Render("› " + row))
		} else {
			b.WriteString("  " + styles.Text.Render(row))
		}
		b.WriteString("  " + renderBar(styles, pct, 10) + " " + styles.StatusText(levelName(pct)).Render(formatPercent(wk.Percent)))
		b.WriteString("\n")
	}

	sel := p.Users[min(m.cursor[TabPersonal], len(p.Users)-1)]
	if len(sel.Days) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render(sel.Name))
		b.WriteString("\n")
		for _, day := range sortedKeys(sel.Days) {
			d := sel.Days[day]
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %-12s took %-3d shadow %-3d frost %-3d flight %-3d lost %-3d left %d",
				day, d.Took, d.Shadow, d.Frost, d.Flight, d.Lost, d.Left)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
