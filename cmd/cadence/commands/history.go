package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/history"
	"github.com/teranos/cadence/sym"
)

// HistoryCmd shows recent run history
var HistoryCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: sym.DB + " Show recent run history",
	Long: sym.DB + ` Show recorded sequence runs, newest first.

Each one-shot run and each cycle of a periodic task is one record. Pass
a run ID for the full record including the error that ended it.

Example:
  cadence history                     # Last 20 runs
  cadence history --limit 50          # More
  cadence history --sequence loot     # One sequence only
  cadence history RN_a1b2c3           # Full record
  cadence history cleanup --days 7    # Drop old records`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete run records older than the retention window",
	RunE:  runHistoryCleanup,
}

var (
	historyLimit         int
	historySequence      string
	historyRetentionDays int
)

func init() {
	HistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	HistoryCmd.Flags().StringVar(&historySequence, "sequence", "", "Only show runs of this sequence")
	historyCleanupCmd.Flags().IntVar(&historyRetentionDays, "days", 30, "Retention window in days")
	HistoryCmd.AddCommand(historyCleanupCmd)
}

// openHistory opens the configured history store, refusing when run
// recording is disabled.
func openHistory() (*history.Store, func(), error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load config")
	}
	if !cfg.Database.Enabled {
		return nil, nil, errors.New("run history is disabled (database.enabled = false)")
	}

	database, err := openDatabase(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	if len(args) == 1 {
		return showRun(runs, args[0])
	}

	list, total, err := runs.ListRuns(historySequence, historyLimit, 0)
	if err != nil {
		return errors.Wrap(err, "failed to list runs")
	}
	if len(list) == 0 {
		pterm.Info.Println("No runs recorded")
		return nil
	}

	for _, run := range list {
		duration := "-"
		if run.DurationMs != nil {
			duration = fmt.Sprintf("%dms", *run.DurationMs)
		}
		fmt.Printf("%s %-22s %-20s %-9s %-10s %s  %s\n",
			sym.ForRunStatus(run.Status), run.ID, run.Sequence, run.Status, run.Trigger, run.StartedAt, duration)
		if run.ErrorMessage != nil {
			fmt.Printf("    %s\n", *run.ErrorMessage)
		}
	}
	fmt.Printf("\n%d of %d run(s)\n", len(list), total)
	return nil
}

func showRun(runs *history.Store, id string) error {
	run, err := runs.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s Run %s\n\n", sym.ForRunStatus(run.Status), run.ID)
	fmt.Printf("  Sequence: %s\n", run.Sequence)
	fmt.Printf("  Trigger:  %s\n", run.Trigger)
	fmt.Printf("  Status:   %s\n", run.Status)
	fmt.Printf("  Started:  %s\n", run.StartedAt)
	if run.FinishedAt != nil {
		fmt.Printf("  Finished: %s\n", *run.FinishedAt)
	}
	if run.DurationMs != nil {
		fmt.Printf("  Duration: %dms\n", *run.DurationMs)
	}
	if run.ErrorMessage != nil {
		fmt.Printf("  Error:    %s\n", *run.ErrorMessage)
	}
	return nil
}

func runHistoryCleanup(cmd *cobra.Command, args []string) error {
	runs, closeDB, err := openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	deleted, err := runs.CleanupOldRuns(historyRetentionDays)
	if err != nil {
		return errors.Wrap(err, "failed to clean up runs")
	}
	pterm.Success.Printf("Deleted %d run(s) older than %d day(s)\n", deleted, historyRetentionDays)
	return nil
}
