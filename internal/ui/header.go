package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

// renderHeader renders the status bar for the primary scope of the tab.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	v := m.primaryView()

	parts := []string{
		bg.Render("statdeck", styles.Logo),
		m.phaseIndicator(v, styles, bg),
	}

	if !v.UpdatedAt.IsZero() {
		parts = append(parts,
			bg.Render("updated", styles.FaintText)+bg.Space()+
				bg.Render(formatUpdated(v.UpdatedAt, m.now()), styles.MutedText))
	}
	if v.FromCache {
		parts = append(parts, bg.Render("cached", styles.InfoText))
	}
	if v.Stale {
		parts = append(parts, bg.Render("stale", styles.WarningText))
	}
	if v.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	}
	if m.width >= LayoutCompactWidth && m.apiURL != "" {
		parts = append(parts, bg.Render(truncate(m.apiURL, 48), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// phaseIndicator shows the sync phase of v, with the spinner while a fetch
// is running.
func (m Model) phaseIndicator(v state.View, styles Styles, bg BgStyle) string {
	switch {
	case v.Loading:
		return bg.Render(m.spinner.View(), styles.AccentText) + bg.Space() +
			bg.Render("loading", styles.StatusText("loading"))
	case v.Revalidating:
		return bg.Render(m.spinner.View(), styles.AccentText) + bg.Space() +
			bg.Render("revalidating", styles.StatusText("loading"))
	case v.Phase == state.PhaseReady:
		return bg.Render("● ready", styles.StatusText("ready"))
	case v.Phase == state.PhaseFailed:
		return bg.Render("● failed", styles.StatusText("failed"))
	default:
		return bg.Render("○ idle", styles.StatusText("idle"))
	}
}

// renderTabBar renders the numbered tabs and the selected room or group.
func (m Model) renderTabBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	tabs := make([]string, 0, tabCount+1)
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", t+1, tabTitles[t])
		if t == m.tab {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactive.Render(label))
		}
	}

	var selector string
	switch m.tab {
	case TabRecordings:
		selector = "room " + statsapi.RoomName(m.room)
	case TabPersonal:
		if m.group != "" {
			selector = "group " + m.group
		}
	}
	if selector != "" {
		tabs = append(tabs, bg.Spaces(2)+bg.Render("[ "+selector+" ]", styles.WarningText))
	}

	return bg.FillLine(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width)
}

// renderFooter shows the short help and the last notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings)+1)
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, bg.Render(h.Key, styles.WarningText)+bg.Space()+bg.Render(h.Desc, styles.MutedText))
	}
	if m.notice != "" {
		parts = append(parts, bg.Render(m.notice, styles.InfoText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderContent picks the error screen, the pending screen or the tab body.
func (m Model) renderContent() string {
	v := m.primaryView()

	if m.tab == TabPersonal && v.Key.Kind == scope.Dashboard && v.HasData() {
		return m.renderCentered(m.theme.Styles().MutedText.Render("The dashboard lists no groups"))
	}

	switch {
	case v.HardError():
		return m.renderHardError(v)
	case !v.HasData():
		return m.renderPending(v)
	}

	var body string
	switch m.tab {
	case TabWeekly:
		body = m.renderWeekly(v)
	case TabPersonal:
		body = m.renderPersonal(v)
	case TabRecordings:
		body = m.renderRecordings(v)
	case TabStatus:
		body = m.renderStatus(v)
	default:
		body = m.renderDashboard(v)
	}

	if banner := m.renderBanner(v); banner != "" {
		return banner + "\n" + body
	}
	return body
}

// renderHardError is shown when a scope failed and has never loaded.
func (m Model) renderHardError(v state.View) string {
	styles := m.theme.Styles()
	lines := []string{
		styles.DangerText.Render("Could not load " + v.Key.String()),
		"",
		styles.Text.Render(statsapi.Message(v.Err)),
	}
	if v.ConsecutiveFailures > 1 {
		lines = append(lines, styles.MutedText.Render(fmt.Sprintf("failed %d times in a row", v.ConsecutiveFailures)))
	}
	lines = append(lines, "", styles.FaintText.Render("press r to retry"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Danger)).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
	return m.renderCentered(box)
}

// renderPending is shown while a scope has no data yet.
func (m Model) renderPending(v state.View) string {
	styles := m.theme.Styles()
	if v.Loading || v.Phase == state.PhaseLoading {
		return m.renderCentered(m.spinner.View() + " " + styles.MutedText.Render("Loading "+v.Key.String()+"..."))
	}
	return m.renderCentered(styles.MutedText.Render("Waiting for " + v.Key.String()))
}

// renderBanner returns the soft error line shown above retained data.
func (m Model) renderBanner(v state.View) string {
	styles := m.theme.Styles()
	switch {
	case v.SoftError():
		msg := "⚠ " + statsapi.Message(v.Err) + " · showing data from " + formatUpdated(v.UpdatedAt, m.now())
		if v.IsOffline() {
			msg += " · backend offline"
		}
		return styles.Banner.Width(m.width).Render(msg)
	case v.Stale && v.Revalidating:
		return styles.Banner.Width(m.width).Render("refreshing data from " + formatUpdated(v.UpdatedAt, m.now()))
	default:
		return ""
	}
}

func (m Model) renderCentered(content string) string {
	return lipgloss.Place(m.width, max(1, m.height-3), lipgloss.Center, lipgloss.Center, content)
}

// renderDecodeError replaces a tab body whose snapshot does not match the
// expected document.
func (m Model) renderDecodeError(v state.View, err error) string {
	styles := m.theme.Styles()
	return styles.DangerText.Render("Cannot read "+v.Key.String()) + "\n" +
		styles.MutedText.Render(err.Error())
}
