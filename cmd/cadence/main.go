package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/cmd/cadence/commands"
	"github.com/teranos/cadence/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "cadence - Input sequence engine",
	Long: `cadence - Named input sequences, run once or on a humanized beat.

cadence loads a YAML/JSON document of named action sequences and executes
them through a simulated keyboard/mouse driver, with jittered timing,
chance gating, and window-focus gating. Runs are recorded to a local
history database and can be driven remotely over a small control API.

Available commands:
  run        - Run sequences once
  start      - Start the saved selection (periodic + one-shot)
  serve      - Start the control server (REST + WebSocket)
  sequences  - List sequences in the loaded document
  validate   - Dry-run a document against the recording driver
  history    - Show recent run history
  config     - Manage cadence configuration
  version    - Show version information

Examples:
  cadence sequences                    # List sequences from the configured document
  cadence run buff_cycle               # Run one sequence immediately
  cadence start                        # Start the saved selection
  cadence serve --watch                # Control server with document hot-reload
  cadence validate rotations.yaml      # Preview what a document would emit
  cadence history --limit 10           # Recent runs`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		// Skip for commands that print raw machine-readable output
		switch cmd.Name() {
		case "show", "get", "where", "settings":
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithLevel(am.GetBool("log.json"), logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	// Add commands
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.StartCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SequencesCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
