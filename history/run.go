// Package history persists one row per sequence run: a one-shot
// invocation or a single cycle of a periodic task. The scheduler writes
// rows as runs start and finish; the CLI and HTTP surface read them back.
package history

// Run represents a single run of a named sequence
//
// Each time the scheduler fires a sequence, a Run record is created to
// track:
// - Timing (started_at, finished_at, duration)
// - Status (running, completed, failed, cancelled)
// - How the run was triggered (once, periodic, autostart)
// - The error that ended it, if any
//
// This provides run history for debugging and for auditing what a
// document actually did overnight.
type Run struct {
	// Identity
	ID       string `json:"id"`       // RN-prefixed ASID
	Sequence string `json:"sequence"` // Sequence name from the loaded document
	Trigger  string `json:"trigger"`  // "once", "periodic", "autostart"

	// Run status
	Status string `json:"status"` // "running", "completed", "failed", "cancelled"

	// Timing
	StartedAt  string  `json:"started_at"`            // RFC3339 timestamp
	FinishedAt *string `json:"finished_at,omitempty"` // RFC3339 timestamp (null if running)
	DurationMs *int    `json:"duration_ms,omitempty"` // Milliseconds (null if running)

	// Failure detail
	ErrorMessage *string `json:"error_message,omitempty"` // Error if failed
}
