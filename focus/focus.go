// Package focus gates automation on whether the target application
// currently has input focus.
package focus

import (
	"strings"
	"time"
)

// DefaultCheckInterval is how often pollers re-check a gate while
// execution is suspended.
const DefaultCheckInterval = time.Second

// Gate reports whether the automation target is active. Gates must be
// cheap enough to poll every CheckInterval without perceptible
// overhead, and hold no side effects.
type Gate interface {
	Active() bool
	CheckInterval() time.Duration
}

// Static is a Gate pinned to a fixed answer. Disabled gating uses
// Static with Answer true, keeping the polling interface intact while
// never suspending anything.
type Static struct {
	Answer   bool
	Interval time.Duration
}

func (s Static) Active() bool { return s.Answer }

func (s Static) CheckInterval() time.Duration {
	if s.Interval <= 0 {
		return DefaultCheckInterval
	}
	return s.Interval
}

// MatchTitle reports whether title contains any of the targets,
// case-insensitively.
func MatchTitle(title string, targets []string) bool {
	lower := strings.ToLower(title)
	for _, target := range targets {
		if strings.Contains(lower, strings.ToLower(target)) {
			return true
		}
	}
	return false
}
