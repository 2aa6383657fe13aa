package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/adapter/output"
)

var intervalCmd = &cobra.Command{
	Use:   "interval [seconds|duration]",
	Short: "Show or set the reminder interval",
	Long: `Show or set the minimum time between reminders.

The value is a number of seconds or a Go duration. Values below one second
are raised to one second.

Examples:
  azkar interval          # show the current interval
  azkar interval 300      # every five minutes
  azkar interval 1h30m`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInterval,
}

func init() {
	rootCmd.AddCommand(intervalCmd)
}

func runInterval(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		st, err := c.Get()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Interval: %s\n", output.FormatInterval(st.IntervalSeconds))
		return nil
	}

	seconds, err := parseIntervalArg(args[0])
	if err != nil {
		return err
	}
	st, err := c.SetInterval(seconds)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Interval: %s\n", output.FormatInterval(st.IntervalSeconds))
	return nil
}

// parseIntervalArg accepts plain seconds or a time.Duration string.
func parseIntervalArg(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: want seconds or a duration like 5m", s)
	}
	return int64(d / time.Second), nil
}
