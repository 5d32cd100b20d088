// Package runner schedules named action sequences: one-shot runs and
// periodic repeating tasks with jittered intervals, window-focus gating,
// and cooperative cancellation.
//
// The scheduler owns a task set keyed by sequence name; at most one
// periodic task per name is live at a time. Cancellation is observed at
// sleep boundaries, and keys or buttons still held when a run ends are
// released before the run is reported finished.
package runner

import (
	"time"

	id "github.com/teranos/vanity-id"
)

// Trigger values recorded for each run, naming how it was initiated.
const (
	TriggerOnce      = "once"
	TriggerPeriodic  = "periodic"
	TriggerAutostart = "autostart"
)

// Status values recorded for each run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// RunRecorder persists run lifecycle records. history.Store implements it;
// a nil recorder disables persistence.
type RunRecorder interface {
	RecordStart(runID, sequence, trigger string) error
	RecordFinish(runID, status, message string, durationMs int) error
}

// RunBroadcaster publishes run lifecycle events to connected clients.
// This avoids a circular dependency between the runner and server packages.
type RunBroadcaster interface {
	BroadcastRunStarted(runID, sequence, trigger string)
	BroadcastRunFinished(runID, sequence, trigger, status, errorMsg string, durationMs int)
}

// TaskStatus is a point-in-time snapshot of one live periodic task.
type TaskStatus struct {
	Name      string    `json:"name"`
	Every     float64   `json:"every"`
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	Cycles    int64     `json:"cycles"`
}

// newRunID returns a fresh run identifier with the RN prefix.
func newRunID() string {
	return id.GenerateASIDSimple("RN", "run", "cadence")
}
