package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the top users column.
	LayoutWideWidth = 140
)

// Display limits.
const (
	// LogTailLines is how many log lines the status tab reads.
	LogTailLines = 200

	// TopUsersLimit caps the top users list on the dashboard.
	TopUsersLimit = 10

	// PendingViewUpdates buffers coordinator notifications between the
	// subscriber and the program.
	PendingViewUpdates = 64
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads views and the log tail.
	DefaultUIInterval = time.Second

	// RefreshTimeout bounds the backend cache invalidation triggered by C.
	RefreshTimeout = 15 * time.Second
)
