package db

import "errors"

var (
	// database errs.
	ErrDBNotFound       = errors.New("database not found")
	ErrDBNotInitialized = errors.New("database not initialized")
	ErrDBCorrupted      = errors.New("database corrupted")
	ErrDriverUnknown    = errors.New("unknown database driver")
	ErrStorage          = errors.New("storage error")
	ErrMigrationFailed  = errors.New("migration failed")
)

var (
	// records errs.
	ErrRecordNotFound = errors.New("not found")
	ErrRecordScan     = errors.New("scan record")
)

var (
	// backups errs.
	ErrBackupExists = errors.New("backup already exists")
)
