package config

import (
	"os"
	"path/filepath"
)

const (
	// DirName is the directory name under XDG_CONFIG_HOME.
	DirName = "ss"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// AliasFile is the alias store file name.
	AliasFile = "ids.json"
	// LedgerFile is the download ledger database name.
	LedgerFile = "downloads.db"
	// DefaultOutDir is where downloaded PDFs go when nothing else is configured.
	DefaultOutDir = "~/papers"
)

// Dir returns the user configuration directory.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/ss.
func Dir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DirName)
}

// Path returns the path to the config file.
func Path() string {
	return filepath.Join(Dir(), ConfigFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
