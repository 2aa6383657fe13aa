package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/adapter/output"
	"github.com/jmylchreest/azkar/internal/store"
)

var historyOpts struct {
	limit  int
	prune  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or prune the reminder history",
	Long: `Show the reminders azkard has fired, oldest first.

History is recorded when [history] enabled = true in azkard.toml.

Examples:
  # Last 20 reminders
  azkar history --limit 20

  # As JSON
  azkar history --format json

  # Keep only the 100 most recent entries (restart azkard afterwards)
  azkar history --prune 100`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Show only the N most recent entries (0=unlimited)")
	historyCmd.Flags().IntVar(&historyOpts.prune, "prune", 0,
		"Keep only the N most recent entries and remove the rest")
	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyOpts.prune < 0 || historyOpts.limit < 0 {
		return fmt.Errorf("--limit and --prune must not be negative")
	}
	format, err := output.ParseFormat(strings.ToLower(historyOpts.format))
	if err != nil {
		return err
	}

	path, err := store.HistoryPath()
	if err != nil {
		return fmt.Errorf("failed to get history path: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No history")
		return nil
	}

	h, err := store.OpenHistoryLog(path)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if historyOpts.prune > 0 {
		removed, err := h.Prune(historyOpts.prune)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr%s\n", removed, pluralY(removed))
		return nil
	}

	records, err := h.Load()
	if err != nil {
		return err
	}
	if historyOpts.limit > 0 && len(records) > historyOpts.limit {
		records = records[len(records)-historyOpts.limit:]
	}
	if len(records) == 0 && format == output.FormatPlain {
		fmt.Fprintln(cmd.OutOrStdout(), "No history")
		return nil
	}

	opts := output.DefaultFormatterOptions()
	return output.FormatHistory(cmd.OutOrStdout(), records, format, opts)
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
