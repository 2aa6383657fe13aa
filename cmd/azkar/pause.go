package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/model"
)

// pauseCmd represents the pause command group.
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause or resume reminders",
	Long: `Pause or resume reminders.

While paused, azkard keeps running and still resets the daily count at
midnight, but shows no reminders.

Use 'azkar pause status' to check the current state.
Use 'azkar pause toggle' to pause or resume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing status
		return pauseStatusRun(cmd, args)
	},
}

var pauseToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Pause or resume reminders",
	Args:  cobra.NoArgs,
	RunE:  pauseToggleRun,
}

var pauseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether reminders are paused",
	Args:  cobra.NoArgs,
	RunE:  pauseStatusRun,
}

func init() {
	pauseCmd.AddCommand(pauseToggleCmd)
	pauseCmd.AddCommand(pauseStatusCmd)

	rootCmd.AddCommand(pauseCmd)
}

func pauseToggleRun(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	st, err := c.TogglePause()
	if err != nil {
		return err
	}
	printPaused(cmd.OutOrStdout(), st)
	return nil
}

func pauseStatusRun(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	st, err := c.Get()
	if err != nil {
		return err
	}
	printPaused(cmd.OutOrStdout(), st)
	return nil
}

func printPaused(w io.Writer, st model.SchedulerState) {
	if st.IsPaused {
		fmt.Fprintln(w, "Reminders: paused")
	} else {
		fmt.Fprintln(w, "Reminders: active")
	}
}
