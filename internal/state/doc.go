// Package state owns the sync state of every scope statdeck displays.
//
// # Overview
//
// The Coordinator decides when to fetch, when a cached snapshot can be
// trusted, and what the UI sees while a backend is slow or failing. It is
// the only component that writes to the cache.Store; the UI receives View
// copies and never mutates anything.
//
// # State Machine
//
// Each scope key moves through:
//
//	Idle ──> Loading ──> Ready
//	            │   └──> Failed
//	Ready/Failed ──> Loading   (next request)
//
// Request follows three paths:
//
//	fresh cache entry            -> Ready, no fetch
//	stale entry, kind revalidates -> Ready(stale) + background fetch
//	anything else / Force         -> Loading + foreground fetch
//
// A background failure leaves the stale Ready state untouched and is only
// logged. A foreground failure moves to Failed but keeps the last good
// snapshot in View.Data, so the UI can tell a hard error (nothing to show)
// from a soft one (error shown above retained data).
//
// # Ordering
//
// At most one fetch per key is in flight. Non-forced requests join it,
// forced requests queue one fetch behind it. Every fetch carries a
// per-key sequence number; a result whose sequence is not newer than the
// last applied one is dropped, as is the result of a fetch whose abort
// scope was cancelled. Dropped results never reach the cache.
//
// # Periodic Resync
//
// Watch and Release are reference counted. The first watcher schedules a
// non-forced request every interval (60s by default) through the injected
// sched.Scheduler; the last release stops the timer and cancels any fetch
// in flight for the key.
//
// # Usage Example
//
//	coord := state.New(client, store, state.WithContext(ctx))
//	defer coord.Close()
//
//	unsubscribe := coord.Subscribe(func(v state.View) { program.Send(v) })
//	defer unsubscribe()
//
//	view := coord.Watch(scope.New(scope.Dashboard, ""))
//	render(view)
package state
