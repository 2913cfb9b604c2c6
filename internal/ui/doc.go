// Package ui is the statdeck terminal interface, built on Bubble Tea.
//
// # Tabs
//
//   - Dashboard: totals, RU/UZB split, groups and top users (scope "dashboard")
//   - Weekly: the weekly group ranking ("weekly")
//   - Personal: users of one group ("personal:<group>", plus "dashboard" for
//     the group list)
//   - Recordings: per-user availability of one room ("recordings:<room>")
//   - Status: bot status, settings, backend cache stats and the tail of
//     statdeck's own log ("status", "settings", "cache-stats")
//
// # Sync
//
// The model never fetches. Entering a tab calls Coordinator.Watch for each
// of its scopes and leaving it calls Release, which stops the periodic
// resync and cancels any fetch still running for those scopes. Run subscribes
// to the coordinator and forwards each change as a viewMsg carrying only the
// scope key; the model reads the current View back from the coordinator, so
// a dropped or reordered notification only delays a redraw. A one second
// tick re-reads every watched view as well.
//
// The header reflects the primary scope of the tab: its phase, when it was
// last updated, whether it came from the cache or is stale, and the offline
// marker after repeated failures. A scope that failed without ever loading
// gets a full-screen error; one that failed with data on screen gets a
// banner above the data.
//
// # Key Bindings
//
//   - 1-5, tab/shift+tab: switch tabs
//   - [ and ]: previous/next room (Recordings) or group (Personal)
//   - j/k, g/G: move the row cursor
//   - enter: expand the selected user's hour grid (Recordings)
//   - h/l: previous/next hour, d: next day (expanded grid)
//   - r: forced reload of the tab's scopes
//   - C: invalidate the backend cache, drop local data and reload
//   - T: cycle theme, ?: help, e or ctrl+c: quit
//
// Theme, tab, room and group are saved to the prefs file whenever they change.
package ui
