package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI",
	Long: `Launch the interactive terminal user interface for managing azkar.

The TUI provides:
  - Scrollable list of reminder items, with the last shown item marked
  - Today's count, interval and pause state in the header
  - Add, edit and delete items in place
  - Search and copy to clipboard support
  - Live updates from azkard

Key bindings:
  j/k, ↑/↓    Navigate list
  a           Add item
  e, enter    Edit item
  d           Delete item
  p           Pause or resume reminders
  +/-         Lengthen or shorten the interval
  c           Copy item text to clipboard
  /           Search items
  r           Refresh
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}

	return tui.Run(c, tui.Options{
		Clipboard: getConfig().CLI.Clipboard,
	})
}
