package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/sym"
)

// SequencesCmd lists the sequences in the loaded document
var SequencesCmd = &cobra.Command{
	Use:     "sequences",
	Aliases: []string{"ls"},
	Short:   sym.Store + " List sequences in the loaded document",
	Long: sym.Store + ` List every sequence the document defines.

Periodic sequences show their repeat interval; bare-list and zero-interval
sequences are one-shot only. Names saved as the current selection are
marked with *.

Example:
  cadence sequences
  cadence sequences --document rotations.yaml`,
	RunE: runSequences,
}

var sequencesDocPath string

func init() {
	SequencesCmd.Flags().StringVar(&sequencesDocPath, "document", "", "Sequence document path or URL (overrides config)")
}

func runSequences(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	store, resolved, names, err := loadDocument(sequencesDocPath, cfg)
	if err != nil {
		return err
	}

	selected := make(map[string]bool)
	if settings, err := am.LoadSettings(); err == nil {
		for _, name := range settings.SelectedSequences {
			selected[name] = true
		}
	}

	fmt.Printf("%s %s\n\n", sym.Store, resolved)
	for _, name := range names {
		seq, err := store.Get(name)
		if err != nil {
			continue
		}
		marker := " "
		if selected[name] {
			marker = "*"
		}
		if seq.Periodic() {
			fmt.Printf(" %s %s %-24s every %-6.1fs %3d action(s)\n", marker, sym.Repeat, name, seq.Every, len(seq.Actions))
		} else {
			fmt.Printf(" %s %s %-24s one-shot     %3d action(s)\n", marker, sym.Run, name, len(seq.Actions))
		}
	}
	fmt.Printf("\n%d sequence(s)\n", len(names))
	if len(selected) > 0 {
		fmt.Printf("* selected in %s\n", am.GetSettingsPath())
	}
	return nil
}
