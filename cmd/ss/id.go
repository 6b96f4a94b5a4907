package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id <alias>",
	Short: "Print the canonical ID behind an alias",
	Long: `Print the canonical Semantic Scholar ID behind an alias.

Without --human the ID is written with no trailing newline, for use in
shell substitutions.

Examples:
  ss id bo4c
  curl "https://www.semanticscholar.org/paper/$(ss id bo4c)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, idCommand{Alias: args[0]})
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}

func (a *app) id(c idCommand) error {
	id, err := a.store.Resolve(c.Alias)
	if err != nil {
		return err
	}
	if a.human {
		_, err = fmt.Fprintln(a.stdout, id)
	} else {
		_, err = fmt.Fprint(a.stdout, id)
	}
	return err
}
