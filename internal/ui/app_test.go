package ui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/statdeck/internal/cache"
	"github.com/five82/statdeck/internal/prefs"
	"github.com/five82/statdeck/internal/sched"
	"github.com/five82/statdeck/internal/scope"
	"github.com/five82/statdeck/internal/state"
	"github.com/five82/statdeck/internal/statsapi"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

const dashboardBody = `{
  "дата": "02.03.2026", "день": "понедельник", "это_сегодня": true, "лист": "Март",
  "всего": {"юзеров": 1200, "взяли_тг": 950, "процент": 79.2, "осталось": 250},
  "ру": {"людей": 800, "взяли_тг": 700, "всего": 800, "процент": 87.5},
  "узб": {"людей": 400, "взяли_тг": 250, "всего": 400, "процент": 62.5},
  "группы": [
    {"имя": "Alpha", "юзеров": 40, "взяли_тг": 35, "процент": 87.5, "статус": "ok"},
    {"имя": "Beta", "юзеров": 30, "взяли_тг": 12, "процент": 40, "статус": "low"}
  ]
}`

const personalAlphaBody = `{"group": "Alpha", "sheet": "Март", "users_count": 1,
  "users": [{"name": "Olga Sidorova", "row": 3, "type": "ru", "days": {},
    "weekly": {"took": 5, "lost": 1, "left": 0, "percent": 83}}]}`

const personalBetaBody = `{"group": "Beta", "users_count": 0, "users": []}`

const recordingsBody = `{
  "short": "vinn1", "room_name": "ВИНН 1",
  "users": [{
    "name": "Ivan Petrov", "id": "ivan_petrov", "row": 4,
    "weekly": {"total_hours": 15, "recorded_hours": 2, "size_mb": 100, "percent": 13},
    "days": {
      "2026-03-02": {"date": "2026-03-02", "is_today": true, "hours": {
        "hour_08": {"available": true, "size_mb": 50, "files": [{"name": "08.mp4", "size_mb": 50}]},
        "hour_09": {"available": false, "exists": true, "size_mb": 50},
        "hour_10": {"available": false, "size_mb": 0}
      }},
      "2026-03-03": {"date": "2026-03-03", "is_future": true, "hours": {}}
    }
  }]
}`

type stubFetcher struct {
	mu          sync.Mutex
	bodies      map[string]string
	fail        map[string]error
	calls       map[string]int
	invalidated []scope.Kind
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies: map[string]string{
			"dashboard":        dashboardBody,
			"weekly":           `{"лист": "Март", "период": "02.03-08.03", "группы": []}`,
			"personal:Alpha":   personalAlphaBody,
			"personal:Beta":    personalBetaBody,
			"recordings:vinn1": recordingsBody,
			"recordings:vinn2": `{"short": "vinn2", "room_name": "ВИНН 2", "users": []}`,
			"recordings:gazon": `{"short": "gazon", "users": []}`,
			"status":           `{"статус": "работает", "аптайм": "1ч"}`,
			"settings":         `{"имя_бота": "statbot"}`,
			"cache-stats":      `{}`,
		},
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, key scope.Key, params statsapi.Params) (statsapi.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key.String()
	f.calls[k]++
	if err := f.fail[k]; err != nil {
		return statsapi.Snapshot{}, err
	}
	body, ok := f.bodies[k]
	if !ok {
		return statsapi.Snapshot{}, &statsapi.Error{Kind: statsapi.KindHTTP, Status: 404, Op: "GET " + k}
	}
	return statsapi.Snapshot{Key: k, FetchedAt: t0, Body: []byte(body)}, nil
}

func (f *stubFetcher) Invalidate(ctx context.Context, kind scope.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, kind)
	return nil
}

func (f *stubFetcher) setFail(k string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[k] = err
}

type harness struct {
	t         *testing.T
	fetcher   *stubFetcher
	coord     *state.Coordinator
	sched     *sched.Manual
	prefsPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := newStubFetcher()
	manual := sched.NewManual()
	coord := state.New(f, cache.New(cache.NewMemoryStore(), cache.NewMemoryStore()),
		state.WithScheduler(manual),
		state.WithClock(func() time.Time { return t0 }),
	)
	t.Cleanup(coord.Close)
	return &harness{
		t:         t,
		fetcher:   f,
		coord:     coord,
		sched:     manual,
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
}

func (h *harness) start(p prefs.Prefs, client *statsapi.Client) Model {
	h.t.Helper()
	m := New(Options{
		Context:     context.Background(),
		Coordinator: h.coord,
		Client:      client,
		Prefs:       p,
		PrefsPath:   h.prefsPath,
		Now:         func() time.Time { return t0 },
	})
	m = h.update(m, tea.WindowSizeMsg{Width: 160, Height: 60})
	m = h.update(m, startMsg{})
	return h.settle(m)
}

func (h *harness) update(m Model, msg tea.Msg) Model {
	h.t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// settle waits for every watched fetch and lets the model pick up the
// results, twice so a follow-up watch (personal group) completes too.
func (h *harness) settle(m Model) Model {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range 2 {
		for _, k := range m.watched {
			if _, err := h.coord.Wait(ctx, k); err != nil {
				h.t.Fatalf("wait %s: %v", k, err)
			}
		}
		m = h.update(m, tickMsg(t0))
	}
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) press(m Model, keys ...string) Model {
	h.t.Helper()
	for _, k := range keys {
		m = h.update(m, keyPress(k))
	}
	return h.settle(m)
}

func TestStartWatchesTabFromPrefs(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Tab: "recordings", Room: "vinn2"}, nil)

	if m.tab != TabRecordings {
		t.Fatalf("tab = %v, want recordings", m.tab)
	}
	want := scope.New(scope.Recordings, "vinn2")
	if len(m.watched) != 1 || m.watched[0] != want {
		t.Fatalf("watched = %v, want [%s]", m.watched, want)
	}
	if !h.sched.Active(want.String()) {
		t.Fatal("resync timer not scheduled for the watched room")
	}
	if v := m.views[want]; v.Phase != state.PhaseReady {
		t.Fatalf("view = %v, want ready", v)
	}
}

func TestUnknownRoomFallsBackToFirst(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Tab: "recordings", Room: "atlantis"}, nil)
	if m.room != statsapi.Rooms[0].Short {
		t.Fatalf("room = %q, want %q", m.room, statsapi.Rooms[0].Short)
	}
}

func TestSwitchTabReleasesPreviousScopes(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)

	if !h.sched.Active("dashboard") {
		t.Fatal("dashboard should be watched on start")
	}

	m = h.press(m, "2")
	if m.tab != TabWeekly {
		t.Fatalf("tab = %v, want weekly", m.tab)
	}
	if h.sched.Active("dashboard") {
		t.Fatal("dashboard timer still active after leaving the tab")
	}
	if !h.sched.Active("weekly") {
		t.Fatal("weekly timer not scheduled")
	}
	if _, ok := m.views[scope.New(scope.Dashboard, "")]; ok {
		t.Fatal("released view kept in the model")
	}

	saved := prefs.Load(h.prefsPath)
	if saved.Tab != "weekly" {
		t.Fatalf("saved tab = %q, want weekly", saved.Tab)
	}

	m = h.press(m, "5")
	for _, k := range []string{"status", "settings", "cache-stats"} {
		if !h.sched.Active(k) {
			t.Fatalf("status tab does not watch %s", k)
		}
	}
	if h.sched.Active("weekly") {
		t.Fatal("weekly timer still active")
	}
	out := m.View()
	if !strings.Contains(out, "работает") || !strings.Contains(out, "statbot") {
		t.Fatalf("status tab output missing bot status or settings:\n%s", out)
	}
}

func TestRoomCycling(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Tab: "recordings"}, nil)

	m = h.press(m, "]")
	if m.room != statsapi.Rooms[1].Short {
		t.Fatalf("room after ] = %q, want %q", m.room, statsapi.Rooms[1].Short)
	}
	if h.sched.Active("recordings:vinn1") {
		t.Fatal("previous room still watched")
	}

	m = h.press(m, "[", "[")
	last := statsapi.Rooms[len(statsapi.Rooms)-1].Short
	if m.room != last {
		t.Fatalf("room after wrap = %q, want %q", m.room, last)
	}
	if got := prefs.Load(h.prefsPath).Room; got != last {
		t.Fatalf("saved room = %q, want %q", got, last)
	}
}

func TestPersonalPicksFirstGroup(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Tab: "personal"}, nil)

	if m.group != "Alpha" {
		t.Fatalf("group = %q, want Alpha", m.group)
	}
	if !h.sched.Active("personal:Alpha") || !h.sched.Active("dashboard") {
		t.Fatal("personal tab should watch the group and the dashboard")
	}
	if out := m.View(); !strings.Contains(out, "Olga Sidorova") {
		t.Fatalf("personal output missing user:\n%s", out)
	}

	m = h.press(m, "]")
	if m.group != "Beta" {
		t.Fatalf("group after ] = %q, want Beta", m.group)
	}
	if h.sched.Active("personal:Alpha") {
		t.Fatal("previous group still watched")
	}
	if out := m.View(); !strings.Contains(out, "No users in this group") {
		t.Fatalf("empty group output:\n%s", out)
	}
}

func TestHardErrorScreen(t *testing.T) {
	h := newHarness(t)
	h.fetcher.setFail("dashboard", &statsapi.Error{Kind: statsapi.KindHTTP, Status: 503})
	m := h.start(prefs.Prefs{}, nil)

	out := m.View()
	if !strings.Contains(out, "Could not load dashboard") {
		t.Fatalf("missing hard error title:\n%s", out)
	}
	if !strings.Contains(out, "backend returned HTTP 503") {
		t.Fatalf("missing error message:\n%s", out)
	}
}

func TestSoftErrorBannerKeepsData(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)

	h.fetcher.setFail("dashboard", &statsapi.Error{Kind: statsapi.KindTimeout})
	m = h.press(m, "r")

	v := m.views[scope.New(scope.Dashboard, "")]
	if !v.SoftError() {
		t.Fatalf("view = %v, want soft error", v)
	}
	out := m.View()
	if !strings.Contains(out, "backend did not respond in time") || !strings.Contains(out, "showing data from") {
		t.Fatalf("missing soft error banner:\n%s", out)
	}
	if !strings.Contains(out, "Alpha") {
		t.Fatalf("retained data not rendered:\n%s", out)
	}
}

func TestRecordingsHourGridAndPlayback(t *testing.T) {
	h := newHarness(t)
	client, err := statsapi.NewClient("http://stats.local/api")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	m := h.start(prefs.Prefs{Tab: "recordings", Room: "vinn1"}, client)

	out := m.View()
	if !strings.Contains(out, "Ivan Petrov") {
		t.Fatalf("missing user row:\n%s", out)
	}
	// 2 of 15 hours recorded today.
	if !strings.Contains(out, "2/15 13%") {
		t.Fatalf("missing today rollup:\n%s", out)
	}

	m = h.press(m, "enter")
	if !m.expanded || m.day != "2026-03-02" || m.hour != 8 {
		t.Fatalf("expanded=%t day=%q hour=%d", m.expanded, m.day, m.hour)
	}
	out = m.View()
	for _, want := range []string{"recordings/stream-converted", "username=ivan_petrov", "part=hour_08", "group=vinn1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("playback URL missing %q:\n%s", want, out)
		}
	}

	// Legacy slot flagged only by exists is still playable.
	m = h.press(m, "l")
	if out = m.View(); !strings.Contains(out, "part=hour_09") {
		t.Fatalf("hour_09 should be playable:\n%s", out)
	}

	m = h.press(m, "l")
	if out = m.View(); strings.Contains(out, "stream-converted") {
		t.Fatalf("hour_10 has no recording but shows a URL:\n%s", out)
	}

	m = h.press(m, "d")
	if m.day != "2026-03-03" {
		t.Fatalf("day after d = %q, want 2026-03-03", m.day)
	}
	if out = m.View(); !strings.Contains(out, "(upcoming)") {
		t.Fatalf("future day not labelled:\n%s", out)
	}

	m = h.press(m, "esc")
	if m.expanded {
		t.Fatal("esc should collapse the grid")
	}
}

func TestHourSelectionClamps(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Tab: "recordings", Room: "vinn1"}, nil)
	m = h.press(m, "enter", "h", "h")
	if m.hour != 8 {
		t.Fatalf("hour = %d, want clamp at 8", m.hour)
	}
	for range 20 {
		m = h.update(m, keyPress("l"))
	}
	if m.hour != 22 {
		t.Fatalf("hour = %d, want clamp at 22", m.hour)
	}
}

func TestClearInvalidatesAndReloads(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)
	before := h.fetcher.calls["dashboard"]

	next, cmd := m.Update(keyPress("C"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("C should return a refresh command")
	}
	m = h.update(m, cmd())
	m = h.settle(m)

	if len(h.fetcher.invalidated) != 1 || h.fetcher.invalidated[0] != scope.Dashboard {
		t.Fatalf("invalidated = %v, want [dashboard]", h.fetcher.invalidated)
	}
	if h.fetcher.calls["dashboard"] != before+1 {
		t.Fatalf("dashboard fetched %d times, want %d", h.fetcher.calls["dashboard"], before+1)
	}
	if !strings.Contains(m.notice, "cache cleared") {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestRefreshResultAfterLeavingTabIgnored(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)

	next, cmd := m.Update(keyPress("C"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("C should return a refresh command")
	}
	m = h.press(m, "2")

	m = h.update(m, cmd())
	if m.notice != "" {
		t.Fatalf("notice = %q, want none for a scope no longer shown", m.notice)
	}
	if _, ok := m.views[scope.New(scope.Dashboard, "")]; ok {
		t.Fatal("refreshed view stored for an unwatched scope")
	}
}

func TestThemeCycleSavesPrefs(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{Theme: "Nightfox"}, nil)
	m = h.press(m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	if got := prefs.Load(h.prefsPath).Theme; got != "Kanagawa" {
		t.Fatalf("saved theme = %q", got)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)

	m = h.update(m, keyPress("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("? should open help")
	}
	m = h.update(m, keyPress("2"))
	if m.showHelp || m.tab != TabDashboard {
		t.Fatal("any key closes help without acting")
	}
}

func TestQuitReleasesScopes(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)
	next, cmd := m.Update(keyPress("e"))
	if cmd == nil {
		t.Fatal("e should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit command did not produce QuitMsg")
	}
	if len(next.(Model).watched) != 0 || h.sched.Active("dashboard") {
		t.Fatal("quit should release watched scopes")
	}
}

func TestViewMsgForUnwatchedKeyIgnored(t *testing.T) {
	h := newHarness(t)
	m := h.start(prefs.Prefs{}, nil)
	k := scope.New(scope.Weekly, "")
	m = h.update(m, viewMsg{key: k})
	if _, ok := m.views[k]; ok {
		t.Fatal("unwatched key stored")
	}
}
