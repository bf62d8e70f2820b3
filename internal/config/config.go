// Package config holds the marklet configuration and its sources.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mateconpizza/marklet/internal/db"
	"github.com/mateconpizza/marklet/internal/selector"
	"github.com/mateconpizza/marklet/internal/sys/files"
)

// version of the application.
var version = "0.1.0"

const (
	appName         string = "marklet"         // Default name of the application
	command         string = "marklet"         // Default name of the executable
	DefaultDBName   string = "bookmarklets.db" // Default name of the database
	DefaultFilename string = "config.yml"      // Default config filename
)

const (
	DefaultDriver         = db.DriverModernc
	DefaultAPIAddr        = ":8080"
	DefaultFrontendAddr   = ":8081"
	DefaultOrigin         = "http://localhost:8081"
	DefaultMinifyFormat   = "json"
	DefaultMinifyTimeout  = 30 * time.Second
	DefaultSelectorRootID = selector.DefaultRootID
	DefaultHeading        = selector.DefaultHeading
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

type (
	// Config is the effective configuration.
	Config struct {
		DB       DB       `yaml:"db"`
		Server   Server   `yaml:"server"`
		Minify   Minify   `yaml:"minify"`
		Selector Selector `yaml:"selector"`
	}

	DB struct {
		Path      string `yaml:"path"`                 // Path to the SQLite file
		Driver    string `yaml:"driver"`               // sqlite (pure Go) or sqlite3 (cgo)
		BackupDir string `yaml:"backup_dir,omitempty"` // Defaults next to the database
	}

	Server struct {
		APIAddr        string   `yaml:"api_addr"`
		FrontendAddr   string   `yaml:"frontend_addr"` // Empty serves the page on the API listener
		AllowedOrigins []string `yaml:"allowed_origins"`
		Frontend       bool     `yaml:"frontend"`
		StaticDir      string   `yaml:"static_dir,omitempty"`
		MaxConns       int      `yaml:"max_conns"` // Per listener, 0 is unlimited
	}

	Minify struct {
		Enabled  bool          `yaml:"enabled"`
		Command  string        `yaml:"command,omitempty"` // Empty runs terser through node
		Format   string        `yaml:"format"`            // json or raw
		Timeout  time.Duration `yaml:"timeout"`
		Fallback bool          `yaml:"fallback"` // Serve unminified source on failure
	}

	Selector struct {
		RootID  string `yaml:"root_id"`
		Heading string `yaml:"heading"`
	}
)

// Version returns the application version.
func Version() string {
	return version
}

// Name returns the application name.
func Name() string {
	return command
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DB: DB{
			Path:   DefaultDBPath(),
			Driver: DefaultDriver,
		},
		Server: Server{
			APIAddr:        DefaultAPIAddr,
			FrontendAddr:   DefaultFrontendAddr,
			AllowedOrigins: []string{DefaultOrigin},
			Frontend:       true,
		},
		Minify: Minify{
			Enabled: true,
			Format:  DefaultMinifyFormat,
			Timeout: DefaultMinifyTimeout,
		},
		Selector: Selector{
			RootID:  DefaultSelectorRootID,
			Heading: DefaultHeading,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path, a .env
// file in the working directory and the environment, in increasing order of
// precedence.
//
// An empty path reads the default config file if it exists. A path that was
// given explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = DefaultConfigFile()
	}

	if err := cfg.readFile(file, path != ""); err != nil {
		return nil, err
	}

	LoadDotEnv()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readFile overlays the YAML file at p on top of c.
func (c *Config) readFile(p string, required bool) error {
	if p == "" || !files.Exists(p) {
		if required {
			return fmt.Errorf("%w: %q", ErrConfigNotFound, p)
		}

		slog.Debug("config file not found, using defaults", "path", p)

		return nil
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, p, err)
	}

	slog.Debug("config file loaded", "path", p)

	return nil
}

// Validate normalizes c and reports values that cannot be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("%w: empty database path", ErrInvalidConfig)
	}

	c.Server.AllowedOrigins = splitList(c.Server.AllowedOrigins...)
	if len(c.Server.AllowedOrigins) == 0 {
		slog.Warn("empty allowed origins, using default", "origin", DefaultOrigin)
		c.Server.AllowedOrigins = []string{DefaultOrigin}
	}

	if c.Server.APIAddr == "" {
		c.Server.APIAddr = DefaultAPIAddr
	}

	if c.Server.MaxConns < 0 {
		return fmt.Errorf("%w: max_conns must not be negative, got %d", ErrInvalidConfig, c.Server.MaxConns)
	}

	if c.Minify.Timeout <= 0 {
		return fmt.Errorf("%w: minify timeout must be positive, got %s", ErrInvalidConfig, c.Minify.Timeout)
	}

	if c.Minify.Format == "" {
		c.Minify.Format = DefaultMinifyFormat
	}

	if !slices.Contains([]string{"json", "raw"}, c.Minify.Format) {
		return fmt.Errorf("%w: unknown minify format %q", ErrInvalidConfig, c.Minify.Format)
	}

	if c.Selector.RootID == "" {
		c.Selector.RootID = DefaultSelectorRootID
	}

	if c.Selector.Heading == "" {
		c.Selector.Heading = DefaultHeading
	}

	return nil
}

// BackupDir returns the backup directory, next to the database unless set.
func (c *Config) BackupDir() string {
	if c.DB.BackupDir != "" {
		return c.DB.BackupDir
	}

	return filepath.Join(filepath.Dir(c.DB.Path), "backup")
}

// YAML returns c encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("error marshalling YAML: %w", err)
	}

	return b, nil
}

// splitList flattens comma separated values, dropping blanks.
func splitList(ss ...string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}
