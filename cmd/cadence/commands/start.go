package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/sym"
)

// StartCmd starts the saved or named selection of sequences
var StartCmd = &cobra.Command{
	Use:   "start [sequence...]",
	Short: sym.Repeat + " Start sequences and run until interrupted",
	Long: sym.Repeat + ` Start a selection of sequences.

Periodic sequences (object form with every > 0) repeat on a jittered
interval until Ctrl+C. One-shot sequences in the selection run once,
concurrently, while the periodic tasks keep going.

With no arguments the selection saved in ~/.cadence/settings.toml is
started; with no saved selection either, every periodic sequence in the
document starts. Naming sequences on the command line also saves them
as the new selection.

Example:
  cadence start                    # Start the saved selection
  cadence start buff_cycle loot    # Start these and save the selection`,
	RunE: runStart,
}

var startDocPath string

func init() {
	StartCmd.Flags().StringVar(&startDocPath, "document", "", "Sequence document path or URL (overrides config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(startDocPath)
	if err != nil {
		return err
	}
	defer eng.Close()

	settings, err := am.LoadSettings()
	if err != nil {
		logger.Warnw("Failed to load host settings", logger.FieldError, err)
		settings = am.DefaultSettings()
	}

	selected := args
	if len(selected) == 0 {
		selected = settings.SelectedSequences
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var oneShots sync.WaitGroup
	oneShotCount := 0
	var periodic []string

	if len(selected) == 0 {
		// No selection anywhere: start every periodic sequence.
		started, failed := eng.sched.StartAll()
		for name, err := range failed {
			pterm.Warning.Printf("%s: %v\n", name, err)
		}
		for _, name := range started {
			if seq, err := eng.store.Get(name); err == nil {
				fmt.Printf("%s Started %s (every %.1fs)\n", sym.Repeat, name, seq.Every)
			}
		}
		periodic = started
	} else {
		for _, name := range selected {
			seq, err := eng.store.Get(name)
			if err != nil {
				pterm.Warning.Printf("%s: %v\n", name, err)
				continue
			}
			if seq.Periodic() {
				if err := eng.sched.StartRepeating(name); err != nil {
					pterm.Warning.Printf("%s: %v\n", name, err)
					continue
				}
				fmt.Printf("%s Started %s (every %.1fs)\n", sym.Repeat, name, seq.Every)
				periodic = append(periodic, name)
			} else {
				oneShotCount++
				oneShots.Add(1)
				go func(name string) {
					defer oneShots.Done()
					fmt.Printf("%s Running %s once...\n", sym.Run, name)
					if err := eng.sched.RunOnce(ctx, name); err != nil {
						pterm.Error.Printf("%s: %v\n", name, err)
					}
				}(name)
			}
		}
	}

	if len(periodic) == 0 && oneShotCount == 0 {
		return errors.New("nothing to start: no periodic sequences and no runnable selection")
	}

	// Persist the document and selection for next time.
	settings.DocumentPath = eng.docPath
	if len(args) > 0 {
		settings.SelectedSequences = args
	}

	if len(periodic) == 0 {
		// Only one-shots: wait for them and exit.
		done := make(chan struct{})
		go func() {
			oneShots.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-sigChan:
			fmt.Printf("\n%s Cancelling...\n", sym.Stop)
			cancel()
			<-done
		}
		settings.WasRunning = false
		saveHostSettings(settings)
		return nil
	}

	settings.WasRunning = true
	saveHostSettings(settings)

	fmt.Printf("\n%s %d periodic task(s) running. Press Ctrl+C to stop\n\n", sym.Repeat, len(periodic))

	<-sigChan

	fmt.Printf("\n%s Stopping...\n", sym.Stop)
	cancel()
	stopped := eng.sched.StopAll()
	oneShots.Wait()
	if !eng.sched.Shutdown(shutdownTimeout) {
		pterm.Warning.Println("Timed out waiting for in-flight runs to finish")
	}
	fmt.Printf("%s Stopped %d periodic task(s)\n", sym.Stop, stopped)

	settings.WasRunning = false
	saveHostSettings(settings)
	return nil
}

// saveHostSettings persists settings, downgrading failures to a warning
// so a read-only home directory never blocks the runner itself.
func saveHostSettings(settings *am.Settings) {
	if err := am.SaveSettings(settings); err != nil {
		logger.Warnw("Failed to save host settings", logger.FieldError, err)
	}
}
