package focus

import (
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/teranos/cadence/logger"
)

// ProcessGate reports active while a process with the configured name
// is running. It is a coarse fallback for environments where window
// titles cannot be queried (no EWMH window manager, Wayland without a
// compatibility layer); presence does not imply focus.
type ProcessGate struct {
	name     string
	interval time.Duration
	log      *zap.SugaredLogger
}

// NewProcessGate creates a gate keyed on a process name, matched
// case-insensitively.
func NewProcessGate(name string, checkInterval time.Duration) *ProcessGate {
	if checkInterval <= 0 {
		checkInterval = DefaultCheckInterval
	}
	return &ProcessGate{
		name:     name,
		interval: checkInterval,
		log:      logger.AddGateSymbol(logger.Base()),
	}
}

func (g *ProcessGate) Active() bool {
	procs, err := process.Processes()
	if err != nil {
		g.log.Warnw("Process list query failed",
			logger.FieldError, err)
		return false
	}

	want := strings.ToLower(g.name)
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.ToLower(name) == want {
			return true
		}
	}
	return false
}

func (g *ProcessGate) CheckInterval() time.Duration {
	return g.interval
}
