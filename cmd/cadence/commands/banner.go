package commands

import (
	"fmt"

	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/sym"
	"github.com/teranos/cadence/version"
)

// printStartupBanner prints the user-friendly server startup message
func printStartupBanner(verbosity int, eng *engine, port int, watch bool) {
	// ANSI escape codes
	cyan := "\033[36m"
	green := "\033[32m"
	blue := "\033[34m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s   %s c a d e n c e %s%s sequence engine%s\n\n", cyan, bold, sym.Repeat, reset, cyan, reset)

	fmt.Printf("%s%s┌─ cadence ───────────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Document:  %s (%d sequences)\n", green, reset, eng.docPath, eng.store.Len())
	fmt.Printf("%s│%s Port:      %d\n", green, reset, port)
	if eng.runs != nil {
		fmt.Printf("%s│%s History:   %s\n", green, reset, eng.cfg.Database.Path)
	}
	if watch {
		fmt.Printf("%s│%s Watch:     document hot-reload enabled\n", green, reset)
	}
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}
