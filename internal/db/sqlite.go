// Package db provides the SQLite-backed store of bookmarklets.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/mateconpizza/marklet/internal/sys/files"
)

const (
	MaxOpenConns    = 10        // Maximum number of open connections
	MaxIdleConns    = 5         // Maximum number of idle connections
	MaxLifetimeConn = time.Hour // Maximum connection lifetime
)

const (
	DriverModernc = "sqlite"  // pure Go driver, modernc.org/sqlite
	DriverCGO     = "sqlite3" // cgo driver, mattn/go-sqlite3
)

// Default date format for backup names.
const defaultDateFormat = "20060102-150405"

type Table string

// SQLite is the bookmarklets store.
type SQLite struct {
	DB        *sqlx.DB `json:"-"`
	Cfg       *Cfg     `json:"db"`
	closeOnce sync.Once
}

// Name returns the name of the SQLite database.
func (r *SQLite) Name() string {
	return r.Cfg.Name
}

// Close closes the SQLite database connection and logs any errors encountered.
func (r *SQLite) Close() {
	s := r.Name()
	r.closeOnce.Do(func() {
		if err := r.DB.Close(); err != nil {
			slog.Error("closing database", "name", s, "error", err)
		} else {
			slog.Debug("database closed", "name", s)
		}
	})
}

// newSQLiteRepository returns a new SQLite store.
func newSQLiteRepository(db *sqlx.DB, cfg *Cfg) *SQLite {
	return &SQLite{
		DB:  db,
		Cfg: cfg,
	}
}

// Open opens (creating if needed) the database at path p using the given
// driver. An empty driver selects the pure Go driver.
//
// The schema is not touched, call EnsureInitialized for that.
func Open(ctx context.Context, p, driver string) (*SQLite, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: %q", ErrDBNotFound, p)
	}

	c, err := NewSQLiteCfg(p, driver)
	if err != nil {
		return nil, err
	}

	if !isMemory(p) {
		if err := files.MkdirAll(c.Path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	db, err := OpenDatabase(ctx, c.Driver, p)
	if err != nil {
		slog.Error("open database", "error", err, "path", p, "driver", c.Driver)
		return nil, err
	}

	return newSQLiteRepository(db, c), nil
}

// buildSQLiteDSN constructs a SQLite Data Source Name from a file path and
// optional parameters.
func buildSQLiteDSN(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%s%s", path, separator, params.Encode())
}

// dsnParams returns the connection pragmas in the syntax understood by the
// given driver.
func dsnParams(driver string, memory bool) url.Values {
	q := url.Values{}

	switch driver {
	case DriverCGO:
		q.Set("_foreign_keys", "on")
		if memory {
			return q
		}
		q.Set("_journal_mode", "WAL")   // enable multi-thread safe mode with wal
		q.Set("_synchronous", "NORMAL") // balance performance and durability
		q.Set("_busy_timeout", "5000")  // set a timeout for a busy database
	default:
		q.Add("_pragma", "foreign_keys(1)")
		if memory {
			return q
		}
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
		q.Add("_pragma", "busy_timeout(5000)")
	}

	return q
}

// OpenDatabase opens a SQLite database at the specified path and verifies
// the connection, returning the database handle or an error.
func OpenDatabase(ctx context.Context, driver, path string) (*sqlx.DB, error) {
	slog.Debug("opening database", "path", path, "driver", driver)

	memory := isMemory(path)
	if memory {
		path = sharedMemory(path)
	}

	dsn := buildSQLiteDSN(path, dsnParams(driver, memory))
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", ErrStorage, err)
	}

	// Connection pool tuning
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	if memory {
		// the database lives as long as one connection to it does.
		db.SetConnMaxLifetime(0)
	} else {
		db.SetConnMaxLifetime(MaxLifetimeConn)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: on ping context: %w", ErrStorage, err)
	}

	return db, nil
}

func isMemory(p string) bool {
	return p == ":memory:" || strings.Contains(p, "mode=memory")
}

// sharedMemory rewrites an in-memory path so every pooled connection opens
// the same database. A bare ":memory:" gets a unique name, so two stores
// never share state.
func sharedMemory(p string) string {
	if p == ":memory:" {
		return "file:marklet-" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	if strings.Contains(p, "cache=shared") {
		return p
	}

	return buildSQLiteDSN(p, url.Values{"cache": {"shared"}})
}

// Cfg represents the configuration for a SQLite database.
type Cfg struct {
	Name       string `json:"name"`        // Name of the SQLite database
	Path       string `json:"path"`        // Path to the SQLite database
	Driver     string `json:"driver"`      // database/sql driver name
	BackupDir  string `json:"backup_path"` // Backup path
	DateFormat string `json:"date_format"` // Date format
}

// Fullpath returns the full path to the SQLite database.
func (c *Cfg) Fullpath() string {
	return filepath.Join(c.Path, c.Name)
}

// Exists returns true if the SQLite database exists.
func (c *Cfg) Exists() bool {
	return files.Exists(c.Fullpath())
}

// NewSQLiteCfg returns the default settings for the database.
func NewSQLiteCfg(p, driver string) (*Cfg, error) {
	switch driver {
	case "":
		driver = DriverModernc
	case DriverModernc, DriverCGO:
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriverUnknown, driver)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %q: %w", p, err)
	}

	baseDir := filepath.Dir(abs)

	return &Cfg{
		Path:       baseDir,
		Name:       filepath.Base(abs),
		Driver:     driver,
		BackupDir:  filepath.Join(baseDir, "backup"),
		DateFormat: defaultDateFormat,
	}, nil
}
