package db

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mateconpizza/marklet/internal/sys/files"
)

// Backup writes a consistent copy of the database into dir and verifies its
// integrity. An empty dir uses the configured backup directory. A store
// without schema is refused.
//
// The copy is named after the database, prefixed with a timestamp:
//
//	20060102-150405_bookmarklets.db
func (r *SQLite) Backup(ctx context.Context, dir string) (string, error) {
	if !r.IsInitialized(ctx) {
		return "", fmt.Errorf("%w: %q", ErrDBNotInitialized, r.Name())
	}

	if dir == "" {
		dir = r.Cfg.BackupDir
	}

	if err := files.MkdirAll(dir); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	destDSN := fmt.Sprintf("%s_%s", time.Now().Format(r.Cfg.DateFormat), r.Name())
	destPath := filepath.Join(dir, destDSN)
	slog.Info("creating SQLite backup",
		"src", r.Cfg.Fullpath(),
		"dest", destPath,
	)

	if files.Exists(destPath) {
		return "", fmt.Errorf("%w: %q", ErrBackupExists, destPath)
	}

	if _, err := r.DB.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return "", fmt.Errorf("%w: vacuum into: %w", ErrStorage, err)
	}

	if err := VerifyIntegrity(ctx, r.Cfg.Driver, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// VerifyIntegrity checks the integrity of the SQLite database at path.
func VerifyIntegrity(ctx context.Context, driver, path string) error {
	slog.Debug("verifying SQLite integrity", "path", path)

	if !files.Exists(path) {
		return fmt.Errorf("%w: %q", ErrDBNotFound, path)
	}

	db, err := OpenDatabase(ctx, driver, path)
	if err != nil {
		return err
	}

	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing db", "error", err)
		}
	}()

	var result string
	if err := db.GetContext(ctx, &result, "PRAGMA integrity_check;"); err != nil {
		return fmt.Errorf("%w: %w", ErrDBCorrupted, err)
	}

	if result != "ok" {
		return fmt.Errorf("%w: integrity check: %q", ErrDBCorrupted, result)
	}

	slog.Debug("SQLite integrity verified", "result", result)

	return nil
}
