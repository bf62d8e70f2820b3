// Package cmd implements the marklet command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/marklet/internal/config"
	"github.com/mateconpizza/marklet/internal/db"
	"github.com/mateconpizza/marklet/internal/packager"
	"github.com/mateconpizza/marklet/internal/selector"
	"github.com/mateconpizza/marklet/internal/service"
	"github.com/mateconpizza/marklet/internal/sys/terminal"
)

// app holds the persistent flags and the configuration they produce.
type app struct {
	cfgFile string
	dbPath  string
	driver  string
	verbose int
	force   bool

	cfg *config.Config
}

// New returns the root command with every subcommand attached.
func New() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               config.Name(),
		Short:             "Manage bookmarklets and build a selector bookmarklet",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: "+config.DefaultConfigFile()+")")
	f.StringVar(&a.dbPath, "db", "", "database path")
	f.StringVar(&a.driver, "driver", "", "database driver [sqlite|sqlite3]")
	f.CountVarP(&a.verbose, "verbose", "v", "verbosity level (-v, -vv, -vvv)")
	f.BoolVar(&a.force, "force", false, "do not ask for confirmation")

	root.CompletionOptions.HiddenDefaultCmd = true
	root.AddCommand(
		a.serveCmd(),
		a.selectorCmd(),
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.backupCmd(),
		a.configCmd(),
		versionCmd(),
	)

	return root
}

// Execute runs the root command.
func Execute() {
	if err := New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", config.Name(), err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the persistent flags on top.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	config.SetLogger(cmd.ErrOrStderr(), a.verbose)

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if a.dbPath != "" {
		cfg.DB.Path = a.dbPath
	}
	if a.driver != "" {
		cfg.DB.Driver = a.driver
	}

	a.cfg = cfg
	slog.Debug("config loaded", "db", cfg.DB.Path, "driver", cfg.DB.Driver)

	return nil
}

// openStore opens the database and makes sure it is migrated and seeded.
func (a *app) openStore(ctx context.Context) (*db.SQLite, error) {
	r, err := db.Open(ctx, a.cfg.DB.Path, a.cfg.DB.Driver)
	if err != nil {
		return nil, err
	}

	if err := r.EnsureInitialized(ctx); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// newService wires the store, the synthesizer and the minifier.
func (a *app) newService(r service.Store) (*service.Service, error) {
	syn := selector.New(
		selector.WithRootID(a.cfg.Selector.RootID),
		selector.WithHeading(a.cfg.Selector.Heading),
	)

	opts := []service.OptFn{service.WithMinifyFallback(a.cfg.Minify.Fallback)}
	if a.cfg.Minify.Enabled {
		m, err := packager.NewTerser(
			packager.WithCommand(a.cfg.Minify.Command),
			packager.WithFormat(packager.Format(a.cfg.Minify.Format)),
			packager.WithTimeout(a.cfg.Minify.Timeout),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithMinifier(m))
	}

	return service.New(r, syn, opts...), nil
}

// term returns a terminal bound to the command's streams.
func (a *app) term(cmd *cobra.Command) *terminal.Term {
	return terminal.New(
		terminal.WithReader(cmd.InOrStdin()),
		terminal.WithWriter(cmd.ErrOrStderr()),
	)
}
