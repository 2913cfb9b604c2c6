package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/statdeck/internal/logging"
	"github.com/five82/statdeck/internal/logtail"
	"github.com/five82/statdeck/internal/prefs"
	"github.com/five82/statdeck/internal/rollup"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

// Tab identifies a top-level screen.
type Tab int

const (
	TabDashboard Tab = iota
	TabWeekly
	TabPersonal
	TabRecordings
	TabStatus
	tabCount
)

var tabNames = [tabCount]string{"dashboard", "weekly", "personal", "recordings", "status"}

var tabTitles = [tabCount]string{"Dashboard", "Weekly", "Personal", "Recordings", "Status"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return tabNames[TabDashboard]
	}
	return tabNames[t]
}

// tabFromName is the inverse of Tab.String; unknown names give the dashboard.
func tabFromName(name string) Tab {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tabNames {
		if n == name {
			return Tab(i)
		}
	}
	return TabDashboard
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Coordinator *state.Coordinator
	// Client builds playback URLs; nil hides them.
	Client    *statsapi.Client
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	APIURL    string
	Tick      time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	coord     *state.Coordinator
	client    *statsapi.Client
	prefsPath string
	logPath   string
	apiURL    string
	tick      time.Duration
	now       func() time.Time
	keys      keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	spinner  spinner.Model
	notice   string

	// Sync state
	tab     Tab
	watched []scope.Key
	views   map[scope.Key]state.View

	// Selection
	cursor   [tabCount]int
	room     string
	group    string
	expanded bool
	day      string
	hour     int

	// Status tab
	logLines []string
}

// New creates a new Bubble Tea model. Nothing is watched until Init runs.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	room := opts.Prefs.Room
	if statsapi.RoomName(room) == room {
		room = statsapi.Rooms[0].Short
	}

	return Model{
		ctx:       ctx,
		coord:     opts.Coordinator,
		client:    opts.Client,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		apiURL:    opts.APIURL,
		tick:      tick,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		spinner:   sp,
		tab:       tabFromName(opts.Prefs.Tab),
		views:     make(map[scope.Key]state.View),
		room:      room,
		group:     strings.TrimSpace(opts.Prefs.Group),
		hour:      rollup.RecordingStartHour,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		func() tea.Msg { return startMsg{} },
		tickCmd(m.tick),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case startMsg:
		m.watchTab()
		m.followSelection()
		return m, m.tabCmd()

	case viewMsg:
		if !m.isWatched(msg.key) {
			return m, nil
		}
		m.views[msg.key] = m.coord.View(msg.key)
		m.followSelection()
		return m, nil

	case refreshedMsg:
		if !m.isWatched(msg.view.Key) {
			return m, nil
		}
		m.views[msg.view.Key] = msg.view
		m.notice = "cache cleared for " + msg.view.Key.String()
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		return m, nil

	case tickMsg:
		m.pullViews()
		m.followSelection()
		return m, tea.Batch(tickCmd(m.tick), m.tabCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.releaseTab()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ViewDashboard):
		return m.switchTab(TabDashboard)
	case key.Matches(msg, m.keys.ViewWeekly):
		return m.switchTab(TabWeekly)
	case key.Matches(msg, m.keys.ViewPersonal):
		return m.switchTab(TabPersonal)
	case key.Matches(msg, m.keys.ViewRecordings):
		return m.switchTab(TabRecordings)
	case key.Matches(msg, m.keys.ViewStatus):
		return m.switchTab(TabStatus)
	case key.Matches(msg, m.keys.Tab):
		return m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, m.keys.Reload):
		if m.coord == nil {
			return m, nil
		}
		for _, k := range m.watched {
			m.views[k] = m.coord.Request(k, state.Options{Force: true})
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		return m, refreshCmd(m.ctx, m.coord, m.primaryKey())

	case key.Matches(msg, m.keys.PrevScope):
		m.cycleScope(-1)
		return m, nil
	case key.Matches(msg, m.keys.NextScope):
		m.cycleScope(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.cursor[m.tab] = 0
		m.resetDay()
	case key.Matches(msg, m.keys.Bottom):
		m.cursor[m.tab] = max(0, m.rowCount()-1)
		m.resetDay()

	case key.Matches(msg, m.keys.Expand):
		if m.tab == TabRecordings && m.rowCount() > 0 {
			m.expanded = !m.expanded
			m.resetDay()
		}
	case key.Matches(msg, m.keys.Escape):
		m.expanded = false

	case key.Matches(msg, m.keys.PrevHour):
		if m.expanded {
			m.hour = max(rollup.RecordingStartHour, m.hour-1)
		}
	case key.Matches(msg, m.keys.NextHour):
		if m.expanded {
			m.hour = min(rollup.RecordingEndHour-1, m.hour+1)
		}
	case key.Matches(msg, m.keys.NextDay):
		if m.expanded {
			m.nextDay()
		}
	}

	return m, nil
}

// switchTab releases the scopes of the current tab and watches the new one.
func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	if t == m.tab {
		return m, nil
	}
	m.releaseTab()
	m.tab = t
	m.expanded = false
	m.watchTab()
	m.followSelection()
	m.savePrefs()
	return m, m.tabCmd()
}

// tabKeys lists the scopes the current tab displays. The personal tab also
// needs the dashboard for its group list.
func (m *Model) tabKeys() []scope.Key {
	switch m.tab {
	case TabWeekly:
		return []scope.Key{scope.New(scope.Weekly, "")}
	case TabPersonal:
		keys := []scope.Key{scope.New(scope.Dashboard, "")}
		if m.group != "" {
			keys = append(keys, scope.New(scope.Personal, m.group))
		}
		return keys
	case TabRecordings:
		return []scope.Key{scope.New(scope.Recordings, m.room)}
	case TabStatus:
		return []scope.Key{
			scope.New(scope.Status, ""),
			scope.New(scope.Settings, ""),
			scope.New(scope.CacheStats, ""),
		}
	default:
		return []scope.Key{scope.New(scope.Dashboard, "")}
	}
}

// primaryKey is the scope whose state drives the header, the error screen
// and the C key.
func (m *Model) primaryKey() scope.Key {
	keys := m.tabKeys()
	if m.tab == TabPersonal {
		return keys[len(keys)-1]
	}
	return keys[0]
}

func (m *Model) primaryView() state.View {
	k := m.primaryKey()
	if v, ok := m.views[k]; ok {
		return v
	}
	return state.View{Key: k}
}

func (m *Model) watchTab() {
	if m.coord == nil {
		return
	}
	m.watched = m.tabKeys()
	for _, k := range m.watched {
		m.views[k] = m.coord.Watch(k)
	}
	m.clampCursor()
}

func (m *Model) releaseTab() {
	if m.coord == nil {
		return
	}
	for _, k := range m.watched {
		m.coord.Release(k)
		delete(m.views, k)
	}
	m.watched = nil
}

func (m *Model) rewatch() {
	m.releaseTab()
	m.watchTab()
}

func (m *Model) isWatched(k scope.Key) bool {
	for _, w := range m.watched {
		if w == k {
			return true
		}
	}
	return false
}

func (m *Model) pullViews() {
	if m.coord == nil {
		return
	}
	for _, k := range m.watched {
		m.views[k] = m.coord.View(k)
	}
	m.clampCursor()
}

// followSelection reacts to new data: the personal tab picks its first
// group once the dashboard lists them.
func (m *Model) followSelection() {
	m.clampCursor()
	if m.tab != TabPersonal || m.group != "" {
		return
	}
	groups := m.groupNames()
	if len(groups) == 0 {
		return
	}
	m.group = groups[0]
	m.rewatch()
	m.savePrefs()
}

// cycleScope moves between recording rooms or personal groups.
func (m *Model) cycleScope(delta int) {
	switch m.tab {
	case TabRecordings:
		idx := 0
		for i, r := range statsapi.Rooms {
			if r.Short == m.room {
				idx = i
				break
			}
		}
		n := len(statsapi.Rooms)
		m.room = statsapi.Rooms[(idx+delta+n)%n].Short
	case TabPersonal:
		groups := m.groupNames()
		if len(groups) == 0 {
			return
		}
		idx := -1
		for i, g := range groups {
			if g == m.group {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = 0
		} else {
			idx = (idx + delta + len(groups)) % len(groups)
		}
		m.group = groups[idx]
	default:
		return
	}
	m.cursor[m.tab] = 0
	m.expanded = false
	m.rewatch()
	m.savePrefs()
}

func (m *Model) moveCursor(delta int) {
	n := m.rowCount()
	if n == 0 {
		m.cursor[m.tab] = 0
		return
	}
	m.cursor[m.tab] = max(0, min(n-1, m.cursor[m.tab]+delta))
	m.resetDay()
}

func (m *Model) clampCursor() {
	n := m.rowCount()
	if m.cursor[m.tab] >= n {
		m.cursor[m.tab] = max(0, n-1)
	}
}

// rowCount is the number of selectable rows on the current tab.
func (m *Model) rowCount() int {
	v, ok := m.views[m.primaryKey()]
	if !ok || !v.HasData() {
		return 0
	}
	switch m.tab {
	case TabDashboard:
		d, err := statsapi.DecodeAs[statsapi.Dashboard](v.Data)
		if err != nil {
			return 0
		}
		return len(d.Groups)
	case TabWeekly:
		w, err := statsapi.DecodeAs[statsapi.WeeklyStats](v.Data)
		if err != nil {
			return 0
		}
		return len(w.Groups)
	case TabPersonal:
		if v.Key.Kind != scope.Personal {
			return 0
		}
		p, err := statsapi.DecodeAs[statsapi.PersonalStats](v.Data)
		if err != nil {
			return 0
		}
		return len(p.Users)
	case TabRecordings:
		r, err := statsapi.DecodeAs[statsapi.Recordings](v.Data)
		if err != nil {
			return 0
		}
		return len(r.Users)
	default:
		return 0
	}
}

// groupNames lists group names from the live dashboard.
func (m *Model) groupNames() []string {
	v, ok := m.views[scope.New(scope.Dashboard, "")]
	if !ok || !v.HasData() {
		return nil
	}
	d, err := statsapi.DecodeAs[statsapi.Dashboard](v.Data)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(d.Groups))
	for _, g := range d.Groups {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

// selectedUser returns the recordings user under the cursor.
func (m *Model) selectedUser() (statsapi.RecordingUser, bool) {
	v, ok := m.views[scope.New(scope.Recordings, m.room)]
	if !ok || !v.HasData() {
		return statsapi.RecordingUser{}, false
	}
	r, err := statsapi.DecodeAs[statsapi.Recordings](v.Data)
	if err != nil || len(r.Users) == 0 {
		return statsapi.RecordingUser{}, false
	}
	idx := max(0, min(len(r.Users)-1, m.cursor[TabRecordings]))
	return r.Users[idx], true
}

// resetDay selects the selected user's current day, or the last day when
// none is flagged as today.
func (m *Model) resetDay() {
	m.day = ""
	u, ok := m.selectedUser()
	if !ok {
		return
	}
	keys := rollup.DayKeys(u.Days)
	for _, k := range keys {
		if u.Days[k].IsToday {
			m.day = k
			return
		}
	}
	if len(keys) > 0 {
		m.day = keys[len(keys)-1]
	}
}

func (m *Model) nextDay() {
	u, ok := m.selectedUser()
	if !ok {
		return
	}
	keys := rollup.DayKeys(u.Days)
	if len(keys) == 0 {
		return
	}
	for i, k := range keys {
		if k == m.day {
			m.day = keys[(i+1)%len(keys)]
			return
		}
	}
	m.day = keys[0]
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{
		Theme: m.theme.Name,
		Tab:   m.tab.String(),
		Room:  m.room,
		Group: m.group,
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		logging.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs")
	}
}

// tabCmd returns the periodic work of the current tab.
func (m *Model) tabCmd() tea.Cmd {
	if m.tab != TabStatus || m.logPath == "" {
		return nil
	}
	return readLogCmd(m.logPath)
}

// renderMain renders header, tab bar and the active tab.
func (m Model) renderMain() string {
	contentHeight := max(1, m.height-3)
	content := lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(contentHeight).
		Render(m.renderContent())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabBar(),
		content,
		m.renderFooter(),
	)
}

// Messages

type startMsg struct{}

type tickMsg time.Time

// viewMsg announces that a scope changed; the model reads it back from the
// coordinator so out-of-order delivery is harmless.
type viewMsg struct {
	key scope.Key
}

type refreshedMsg struct {
	view state.View
}

type logLinesMsg struct {
	lines []string
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshCmd(ctx context.Context, coord *state.Coordinator, k scope.Key) tea.Cmd {
	if coord == nil {
		return nil
	}
	return func() tea.Msg {
		rctx, cancel := context.WithTimeout(ctx, RefreshTimeout)
		defer cancel()
		return refreshedMsg{view: coord.Refresh(rctx, k)}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logLinesMsg{lines: []string{"cannot read log: " + err.Error()}}
		}
		return logLinesMsg{lines: logtail.FormatLines(lines)}
	}
}

// Run starts the Bubble Tea program and bridges coordinator updates into it.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.Coordinator != nil {
		updates := make(chan scope.Key, PendingViewUpdates)
		unsubscribe := opts.Coordinator.Subscribe(func(v state.View) {
			select {
			case updates <- v.Key:
			default:
				// The next tick re-reads every watched view.
			}
		})
		done := make(chan struct{})
		go func() {
			for {
				select {
				case k := <-updates:
					p.Send(viewMsg{key: k})
				case <-done:
					return
				}
			}
		}()
		defer func() {
			unsubscribe()
			close(done)
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
