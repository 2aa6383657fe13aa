package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/azkar/internal/adapter/output"
	"github.com/jmylchreest/azkar/internal/core"
	"github.com/jmylchreest/azkar/internal/model"
)

var itemsOpts struct {
	stdin bool
}

// itemsCmd represents the items command group.
var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the reminder list",
	Long: `Manage the azkar shown by the reminder daemon.

Items are referenced by id, a unique id prefix, or their 1-based position
in the list (as shown by 'azkar items list').

Use 'azkar items list' to show the items.
Use 'azkar items add <text>' to add an item.
Use 'azkar items update <ref> <text>' to change an item's text.
Use 'azkar items remove <ref>' to remove an item.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to listing
		return itemsListRun(cmd, args)
	},
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminder items",
	Args:  cobra.NoArgs,
	RunE:  itemsListRun,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a reminder item",
	Long: `Add a reminder item. The arguments are joined with spaces.

With --stdin, every non-empty line of standard input is added as its own item:

  cat azkar.txt | azkar items add --stdin`,
	RunE: itemsAddRun,
}

var itemsRemoveCmd = &cobra.Command{
	Use:     "remove <ref>",
	Aliases: []string{"rm"},
	Short:   "Remove a reminder item",
	Args:    cobra.ExactArgs(1),
	RunE:    itemsRemoveRun,
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update <ref> <text...>",
	Short: "Change the text of a reminder item",
	Args:  cobra.MinimumNArgs(2),
	RunE:  itemsUpdateRun,
}

func init() {
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsRemoveCmd)
	itemsCmd.AddCommand(itemsUpdateCmd)

	itemsAddCmd.Flags().BoolVar(&itemsOpts.stdin, "stdin", false,
		"Read items from standard input, one per line")

	rootCmd.AddCommand(itemsCmd)
}

func itemsListRun(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	st, err := c.Get()
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.ItemsOnly = true
	opts.TextMaxLen = 0
	return output.NewPlainFormatter(opts).Format(cmd.OutOrStdout(), st)
}

func itemsAddRun(cmd *cobra.Command, args []string) error {
	texts, err := addTexts(cmd, args)
	if err != nil {
		return err
	}

	c, err := connect()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, text := range texts {
		st, err := c.AddItem(text)
		if err != nil {
			return err
		}
		if n := len(st.Items); n > 0 {
			added := st.Items[n-1]
			fmt.Fprintf(out, "Added [%d] %s\n", n, added.ID)
		}
	}
	return nil
}

// addTexts collects item texts from args or, with --stdin, from standard input.
func addTexts(cmd *cobra.Command, args []string) ([]string, error) {
	if !itemsOpts.stdin {
		if len(args) == 0 {
			return nil, fmt.Errorf("specify the item text or --stdin")
		}
		return []string{strings.Join(args, " ")}, nil
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("--stdin does not take arguments")
	}

	var texts []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	const maxSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return texts, nil
}

// resolveItem looks up ref against the current item list.
func resolveItem(ref string) (model.ReminderItem, error) {
	c, err := connect()
	if err != nil {
		return model.ReminderItem{}, err
	}
	st, err := c.Get()
	if err != nil {
		return model.ReminderItem{}, err
	}
	return core.Resolve(st.Items, ref)
}

func itemsRemoveRun(cmd *cobra.Command, args []string) error {
	item, err := resolveItem(args[0])
	if err != nil {
		return err
	}
	if _, err := ctrl.RemoveItem(item.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", item.ID)
	return nil
}

func itemsUpdateRun(cmd *cobra.Command, args []string) error {
	item, err := resolveItem(args[0])
	if err != nil {
		return err
	}
	if _, err := ctrl.UpdateItem(item.ID, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", item.ID)
	return nil
}
