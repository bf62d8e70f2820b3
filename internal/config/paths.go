package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	gap "github.com/muesli/go-app-paths"
)

// DataPath returns the data path for the application.
func DataPath() (string, error) {
	scope := gap.NewScope(gap.User, appName)
	dataDir, err := scope.DataPath("")
	if err != nil {
		return "", fmt.Errorf("getting data path: %w", err)
	}

	return dataDir, nil
}

// ConfigPath returns the config path for the application.
func ConfigPath() (string, error) {
	scope := gap.NewScope(gap.User, appName)
	configDir, err := scope.ConfigPath("")
	if err != nil {
		return "", fmt.Errorf("getting config path: %w", err)
	}

	return configDir, nil
}

// DefaultDBPath returns the database path inside the data directory, or the
// working directory when it cannot be resolved.
func DefaultDBPath() string {
	p, err := DataPath()
	if err != nil {
		slog.Warn("using working directory for the database", "error", err)
		return DefaultDBName
	}

	return filepath.Join(p, DefaultDBName)
}

// DefaultConfigFile returns the config file path, empty when the config
// directory cannot be resolved.
func DefaultConfigFile() string {
	p, err := ConfigPath()
	if err != nil {
		slog.Debug("no config directory", "error", err)
		return ""
	}

	return filepath.Join(p, DefaultFilename)
}
