package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDBPath         = "MARKLET_DB_PATH"
	EnvDBDriver       = "MARKLET_DB_DRIVER"
	EnvAPIAddr        = "MARKLET_API_ADDR"
	EnvFrontendAddr   = "MARKLET_FRONTEND_ADDR"
	EnvAllowedOrigins = "MARKLET_ALLOWED_ORIGINS"
	EnvNoFrontend     = "MARKLET_NO_FRONTEND"
	EnvStaticDir      = "MARKLET_STATIC_DIR"
	EnvMaxConns       = "MARKLET_MAX_CONNS"
	EnvMinify         = "MARKLET_MINIFY"
	EnvMinifyCmd      = "MARKLET_MINIFY_CMD"
	EnvMinifyTimeout  = "MARKLET_MINIFY_TIMEOUT"
	EnvMinifyFallback = "MARKLET_MINIFY_FALLBACK"
)

// LookupFn reports the value of an environment variable.
type LookupFn func(key string) (string, bool)

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// is given. Variables already set are kept.
func LoadDotEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		slog.Debug("no .env file loaded, using environment variables", "error", err)
	}
}

// applyEnv overrides c with the MARKLET_* variables.
func (c *Config) applyEnv(lookup LookupFn) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	boolean := func(key string, dst *bool, invert bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}

		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, v, err)
		}

		*dst = b != invert

		return nil
	}

	str(EnvDBPath, &c.DB.Path)
	str(EnvDBDriver, &c.DB.Driver)
	str(EnvAPIAddr, &c.Server.APIAddr)
	str(EnvFrontendAddr, &c.Server.FrontendAddr)
	str(EnvStaticDir, &c.Server.StaticDir)
	str(EnvMinifyCmd, &c.Minify.Command)

	if v, ok := lookup(EnvAllowedOrigins); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	if err := boolean(EnvNoFrontend, &c.Server.Frontend, true); err != nil {
		return err
	}

	if err := boolean(EnvMinify, &c.Minify.Enabled, false); err != nil {
		return err
	}

	if err := boolean(EnvMinifyFallback, &c.Minify.Fallback, false); err != nil {
		return err
	}

	if v, ok := lookup(EnvMaxConns); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvMaxConns, v, err)
		}

		c.Server.MaxConns = n
	}

	if v, ok := lookup(EnvMinifyTimeout); ok && v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvMinifyTimeout, v, err)
		}

		c.Minify.Timeout = d
	}

	return nil
}

// parseTimeout accepts a duration ("45s") or a number of seconds ("45").
func parseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return d, nil
}
