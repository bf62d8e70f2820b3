package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
)

// tables.
const tableMainName Table = "bookmarklets"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureInitialized creates the schema if absent and seeds the default items
// when the table is empty. It is safe to call on every start.
func (r *SQLite) EnsureInitialized(ctx context.Context) error {
	if err := r.migrate(ctx); err != nil {
		return err
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM bookmarklets"); err != nil {
			return fmt.Errorf("%w: counting records: %w", ErrStorage, err)
		}

		if n > 0 {
			slog.Debug("database already seeded", "name", r.Name(), "count", n)
			return nil
		}

		ds := bookmarklet.Defaults()
		for _, b := range ds {
			if _, err := insertRecord(ctx, tx, b, b.Position); err != nil {
				return err
			}
		}

		slog.Info("seeded default bookmarklets", "name", r.Name(), "count", len(ds))

		return nil
	})
}

// migrate applies the embedded goose migrations.
func (r *SQLite) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, r.DB.DB, fsys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	for _, res := range results {
		slog.Debug("applied migration",
			"version", res.Source.Version,
			"duration", res.Duration,
		)
	}

	return nil
}

// tableExists checks whether a table with the specified name exists in the SQLite database.
func tableExists(ctx context.Context, r *SQLite, t Table) (bool, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", t)
	if err != nil {
		slog.Error("checking if table exists", "name", t, "error", err)
		return false, fmt.Errorf("tableExists: %w", err)
	}

	return count > 0, nil
}

// IsInitialized returns true if the main table exists.
func (r *SQLite) IsInitialized(ctx context.Context) bool {
	ok, err := tableExists(ctx, r, tableMainName)
	if err != nil {
		return false
	}

	return ok
}
