package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases [prefix]",
	Short: "List remembered aliases",
	Long: `List remembered aliases and the IDs they stand for, sorted by alias.

With a prefix, only aliases starting with it are shown.

Examples:
  ss aliases
  ss aliases Mat --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := aliasesCommand{}
		if len(args) == 1 {
			c.Prefix = args[0]
		}
		return run(cmd, c)
	},
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
}

func (a *app) aliases(c aliasesCommand) error {
	entries, err := a.store.Aliases(c.Prefix)
	if err != nil {
		return err
	}

	if !a.human {
		return writeJSON(a.stdout, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No aliases found.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Alias, e.ID)
	}
	return tw.Flush()
}
