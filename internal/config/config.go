// Package config handles user configuration stored in ~/.config/ss/config.yml
// and the on-disk locations derived from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvAPIKey     = "S2_API_KEY"
	EnvAliasPath  = "SS_ALIAS_PATH"
	EnvLedgerPath = "SS_LEDGER_PATH"
)

// Config represents configuration stored in ~/.config/ss/config.yml.
type Config struct {
	APIKey     string `yaml:"api_key,omitempty"`
	OutDir     string `yaml:"outdir,omitempty"`
	AliasPath  string `yaml:"alias_path,omitempty"`
	LedgerPath string `yaml:"ledger_path,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
}

// configCache caches the loaded config.
var configCache *Config

// Load loads the config file.
// Returns an empty config (not an error) if the file doesn't exist.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			configCache = &Config{}
			return configCache, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.OutDir = ExpandPath(cfg.OutDir)
	cfg.AliasPath = ExpandPath(cfg.AliasPath)
	cfg.LedgerPath = ExpandPath(cfg.LedgerPath)

	configCache = &cfg
	return &cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// Save writes the config file, creating its directory if needed.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	configCache = c
	return nil
}

// ResolvedAPIKey returns the API key from config, falling back to S2_API_KEY.
func (c *Config) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// ResolvedAliasPath returns the alias store location.
// SS_ALIAS_PATH wins over alias_path, which wins over the default.
func (c *Config) ResolvedAliasPath() string {
	if p := os.Getenv(EnvAliasPath); p != "" {
		return ExpandPath(p)
	}
	if c.AliasPath != "" {
		return c.AliasPath
	}
	return filepath.Join(Dir(), AliasFile)
}

// ResolvedLedgerPath returns the download ledger location.
func (c *Config) ResolvedLedgerPath() string {
	if p := os.Getenv(EnvLedgerPath); p != "" {
		return ExpandPath(p)
	}
	if c.LedgerPath != "" {
		return c.LedgerPath
	}
	return filepath.Join(Dir(), LedgerFile)
}

// ResolvedOutDir returns the download directory. A non-empty override
// (from a command-line flag) takes precedence.
func (c *Config) ResolvedOutDir(override string) string {
	if override != "" {
		return ExpandPath(override)
	}
	if c.OutDir != "" {
		return c.OutDir
	}
	return ExpandPath(DefaultOutDir)
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fields maps normalized keys to their storage in Config.
var fields = map[string]func(*Config) *string{
	"api-key":     func(c *Config) *string { return &c.APIKey },
	"outdir":      func(c *Config) *string { return &c.OutDir },
	"alias-path":  func(c *Config) *string { return &c.AliasPath },
	"ledger-path": func(c *Config) *string { return &c.LedgerPath },
	"base-url":    func(c *Config) *string { return &c.BaseURL },
}

// NormalizeKey converts key formats (alias-path, alias_path, ALIAS_PATH) to
// the dashed form.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", "-")
}

// Get returns the value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	field, ok := fields[NormalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return *field(c), nil
}

// Set updates a configuration key. Path-valued keys have ~ expanded.
func (c *Config) Set(key, value string) error {
	normalized := NormalizeKey(key)
	field, ok := fields[normalized]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if strings.HasSuffix(normalized, "-path") || normalized == "outdir" {
		value = ExpandPath(value)
	}
	*field(c) = value
	return nil
}
