package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mateconpizza/marklet/internal/config"
)

func (a *app) backupCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:     "backup",
		Aliases: []string{"bk"},
		Short:   "Write a verified copy of the database",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			if dir == "" {
				dir = a.cfg.BackupDir()
			}

			p, err := r.Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "backup created: %s\n", p)

			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "backup directory (default next to the database)")

	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.cfg.YAML()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(b)

			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", config.Name(), config.Version())
		},
	}
}
