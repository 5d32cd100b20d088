package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/sym"
)

// RunCmd runs named sequences once each
var RunCmd = &cobra.Command{
	Use:   "run <sequence> [sequence...]",
	Short: sym.Run + " Run sequences once",
	Long: sym.Run + ` Run one or more named sequences a single time each.

Sequences run in the order given, each to completion, with the same
humanized jitter, chance gating, and focus gating as periodic runs.
Keys and buttons still held when a run ends are released before the
next one starts.

Example:
  cadence run buff_cycle                      # One sequence
  cadence run buff_cycle loot_nearby          # Two sequences, in order
  cadence run --document rotations.yaml aoe   # Explicit document`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var runDocPath string

func init() {
	RunCmd.Flags().StringVar(&runDocPath, "document", "", "Sequence document path or URL (overrides config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(runDocPath)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C cancels the in-flight run; held keys are released before
	// the scheduler reports it finished.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n%s Cancelling...\n", sym.Stop)
		cancel()
	}()

	failed := 0
	for _, name := range args {
		fmt.Printf("%s Running %s...\n", sym.Run, name)
		started := time.Now()
		if err := eng.sched.RunOnce(ctx, name); err != nil {
			if errors.Is(err, context.Canceled) {
				pterm.Warning.Printf("%s cancelled after %s\n", name, time.Since(started).Round(time.Millisecond))
				failed++
				break
			}
			pterm.Error.Printf("%s: %v\n", name, err)
			failed++
			continue
		}
		pterm.Success.Printf("%s completed in %s\n", name, time.Since(started).Round(time.Millisecond))
	}

	if failed > 0 {
		return errors.Newf("%d of %d run(s) did not complete", failed, len(args))
	}
	return nil
}
