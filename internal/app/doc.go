// Package app is the composition root of statdeck.
//
// # Overview
//
// Run loads the configuration, sets up logging, opens the cache, builds the
// stats backend client and the sync coordinator, and hands them to the TUI.
// It blocks until the user quits or the context is cancelled.
//
// # Startup Order
//
//  1. config.Load plus command line overrides, then Validate
//  2. logging.OpenFile and logging.Init (JSON into log_file)
//  3. cache.OpenBadger under cache_dir/badger when persistence is enabled
//  4. statsapi.NewClient against api_url
//  5. state.New with the configured poll interval
//  6. optional /metrics listener on metrics_addr
//  7. prefs.Load and ui.Run
//
// A badger database that cannot be opened (for example because another
// statdeck holds its lock) is logged and replaced by a memory store, so the
// dashboard still starts without a warm cache.
//
// # Dump Mode
//
// With Options.Dump set, Run skips the TUI: it parses the scope key, forces
// one sync through the coordinator and prints the indented response body to
// Options.Out. Logs go to Options.Err in console format. Dump mode never
// touches the durable cache.
//
//	statdeck -dump recordings:vinn1
//	statdeck -dump dashboard:01.03.2026 -log-level debug
//
// A failed sync returns an error carrying the same short message the TUI
// shows ("backend returned HTTP 503", "backend did not respond in time").
package app
