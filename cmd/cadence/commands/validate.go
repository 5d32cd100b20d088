package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/focus"
	"github.com/teranos/cadence/input"
	"github.com/teranos/cadence/runner"
	"github.com/teranos/cadence/sequence"
	"github.com/teranos/cadence/sym"
)

// ValidateCmd dry-runs a document against the recording driver
var ValidateCmd = &cobra.Command{
	Use:   "validate <document> [sequence...]",
	Short: sym.Input + " Dry-run a document against the recording driver",
	Long: sym.Input + ` Load a document and execute its sequences without emitting anything.

Every sequence (or just the named ones) runs once against the recording
driver with all sleeps skipped, printing the events a live run would
emit. Unknown keys and buttons are reported as warnings instead of
failing the run, so a whole document can be checked in one pass. Chance
gates are rolled exactly as in a live run; pass --seed for a
reproducible roll.

Example:
  cadence validate rotations.yaml
  cadence validate rotations.yaml buff_cycle
  cadence validate --seed 7 rotations.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var validateSeed int64

func init() {
	ValidateCmd.Flags().Int64Var(&validateSeed, "seed", 0, "Jitter seed for reproducible validation (0 = time-seeded)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	docPath := args[0]
	names := args[1:]

	resolved, remote, err := sequence.ResolvePath(docPath)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve document path %s", docPath)
	}
	if remote {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resolved, err = sequence.Fetch(ctx, docPath, documentCacheDir())
		if err != nil {
			return err
		}
	}

	store := sequence.NewStore()
	if _, err := store.LoadFile(resolved); err != nil {
		return err
	}
	pterm.Success.Printf("Document loaded: %d sequence(s)\n", store.Len())

	if len(names) == 0 {
		names = store.Names()
	}

	recorder := input.NewRecorder()
	jitter := input.NewJitter(validateSeed)
	instant := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	exec := input.NewExecutor(recorder, jitter, input.WithDiagnostic(), input.WithSleep(instant))
	sched := runner.NewScheduler(store, exec, jitter, focus.Static{Answer: true})

	failed := 0
	for _, name := range names {
		seq, err := store.Get(name)
		if err != nil {
			pterm.Error.Printf("%s: %v\n", name, err)
			failed++
			continue
		}

		form := "one-shot"
		if seq.Periodic() {
			form = fmt.Sprintf("every %.1fs", seq.Every)
		}
		fmt.Printf("\n%s %s (%s, %d action(s))\n", sym.Store, name, form, len(seq.Actions))

		recorder.Reset()
		if err := sched.RunOnce(context.Background(), name); err != nil {
			pterm.Error.Printf("%s: %v\n", name, err)
			failed++
			continue
		}
		for _, ev := range recorder.Events() {
			if ev.Kind == input.EventMove {
				fmt.Printf("   %s %-12s %d,%d\n", sym.Input, ev.Kind, ev.X, ev.Y)
			} else {
				fmt.Printf("   %s %-12s %s\n", sym.Input, ev.Kind, ev.Name)
			}
		}
	}

	pterm.Println()
	if failed > 0 {
		return errors.Newf("%d of %d sequence(s) failed validation", failed, len(names))
	}
	pterm.Success.Printf("%d sequence(s) validated\n", len(names))
	return nil
}
