package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipharvest/internal/config"
	"clipharvest/internal/history"
)

var (
	flagLimit int
	flagPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extraction runs",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().IntVar(&flagPrune, "prune", -1, "Delete all but the newest N runs")
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if flagPrune >= 0 {
		n, err := store.Prune(ctx, flagPrune)
		if err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
		fmt.Fprintf(out, "Removed %d run(s).\n", n)
		return nil
	}

	entries, err := store.Recent(ctx, flagLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return nil
	}

	fmt.Fprintln(out, renderHistory(entries))
	return nil
}
