package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/adapter/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output reminder status in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/azkar": {
    "exec": "azkar status",
    "interval": 30,
    "return-type": "json",
    "on-click": "azkar pause toggle"
  }

The output includes:
  - text: Number of reminders shown today
  - alt/class: active or paused
  - tooltip: Today's count, interval and time of the last reminder`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	st, err := c.Get()
	if err != nil {
		return err
	}
	return output.NewWaybarFormatter(output.DefaultFormatterOptions()).Format(cmd.OutOrStdout(), st)
}
