package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/adapter/output"
	"github.com/jmylchreest/azkar/internal/core"
)

var getOpts struct {
	format    string
	template  string
	itemsOnly bool
	maxLen    int
}

var getCmd = &cobra.Command{
	Use:   "get [ref]",
	Short: "Show the scheduler state",
	Long: `Show the reminder list and scheduler state in various formats.

With a ref argument (item id, unique id prefix or 1-based index), prints
only that item's text.

Examples:
  # Status header and numbered item list
  azkar get

  # Full state as JSON
  azkar get --format json

  # Item ids only, one per line
  azkar get --format ids

  # Custom line per item
  azkar get --items-only --template '{{.Index}}: {{.Item.Text}}'

  # Copy the third item
  azkar get 3 | wl-copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOpts.format, "format", "f", "",
		"Output format (plain, json, yaml, ids, waybar; default from config)")
	getCmd.Flags().StringVar(&getOpts.template, "template", "",
		"Custom Go template for each item (plain format)")
	getCmd.Flags().BoolVar(&getOpts.itemsOnly, "items-only", false,
		"List items without the status header (plain format)")
	getCmd.Flags().IntVar(&getOpts.maxLen, "max-len", 80,
		"Truncate item text to this many characters (0=unlimited)")
}

func runGet(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}

	st, err := c.Get()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		item, err := core.Resolve(st.Items, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), item.Text)
		return err
	}

	formatter, err := createFormatter()
	if err != nil {
		return err
	}
	return formatter.Format(cmd.OutOrStdout(), st)
}

// createFormatter creates the output formatter based on options.
func createFormatter() (output.Formatter, error) {
	name := getOpts.format
	if name == "" {
		name = getConfig().CLI.Format
	}
	format, err := output.ParseFormat(strings.ToLower(name))
	if err != nil {
		return nil, err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = getOpts.template
	opts.ItemsOnly = getOpts.itemsOnly
	opts.TextMaxLen = getOpts.maxLen

	return output.NewFormatter(format, opts), nil
}
