package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/ss/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  ss config                      # Show all config
  ss config outdir               # Get specific value
  ss config outdir ~/reading     # Set value

Keys:
  api-key      Semantic Scholar API key (S2_API_KEY is used when unset)
  outdir       Directory PDFs are saved in (default ~/papers)
  alias-path   Alias store location (SS_ALIAS_PATH overrides)
  ledger-path  Download ledger location (SS_LEDGER_PATH overrides)
  base-url     API base URL`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := configCommand{}
		if len(args) > 0 {
			c.Key = args[0]
		}
		if len(args) == 2 {
			c.Value, c.Set = args[1], true
		}
		return run(cmd, c)
	},
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func (a *app) configure(c configCommand) error {
	// No key: show all config
	if c.Key == "" {
		all := make(map[string]string)
		for _, key := range config.Keys() {
			all[key] = a.displayValue(key)
		}
		if !a.human {
			return writeJSON(a.stdout, all)
		}
		for _, key := range config.Keys() {
			fmt.Fprintf(a.stdout, "%-12s %s\n", key+":", all[key])
		}
		fmt.Fprintf(a.stdout, "%-12s %s\n", "config:", config.Path())
		return nil
	}

	key := config.NormalizeKey(c.Key)

	if !c.Set {
		value, err := a.cfg.Get(key)
		if err != nil {
			return fmt.Errorf("%w: %w", errConfig, err)
		}
		if a.human {
			_, err = fmt.Fprintln(a.stdout, value)
			return err
		}
		return writeJSON(a.stdout, map[string]string{key: value})
	}

	if err := a.cfg.Set(key, c.Value); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	if err := a.cfg.Save(); err != nil {
		return fmt.Errorf("%w: saving config: %w", errConfig, err)
	}

	value := a.displayValue(key)
	if a.human {
		_, err := fmt.Fprintf(a.stdout, "Updated %s to %s\n", key, value)
		return err
	}
	return writeJSON(a.stdout, UpdateResponse{Status: "updated", Key: key, Value: value})
}

// displayValue returns a config value for printing, with the API key masked.
func (a *app) displayValue(key string) string {
	value, _ := a.cfg.Get(key)
	if key == "api-key" {
		return maskSecret(value)
	}
	return value
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
