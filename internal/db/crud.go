package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
)

// All returns all records ordered by position, ties broken by id.
func (r *SQLite) All(ctx context.Context) ([]*bookmarklet.Item, error) {
	q := `
    SELECT
      id, title, match_js, code_js, position, created_at, updated_at
    FROM
      bookmarklets
    ORDER BY
      position ASC,
      id ASC;`

	bs := make([]*bookmarklet.Item, 0)
	if err := r.DB.SelectContext(ctx, &bs, q); err != nil {
		return nil, fmt.Errorf("%w: listing records: %w", ErrStorage, err)
	}

	slog.Debug("getting all records", "got", len(bs))

	return bs, nil
}

// ByID returns a record by its ID.
func (r *SQLite) ByID(ctx context.Context, id int64) (*bookmarklet.Item, error) {
	q := `
    SELECT
      id, title, match_js, code_js, position, created_at, updated_at
    FROM
      bookmarklets
    WHERE
      id = ?`

	var b bookmarklet.Item
	if err := r.DB.GetContext(ctx, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
		}

		return nil, fmt.Errorf("%w: %w: %w", ErrStorage, ErrRecordScan, err)
	}

	return &b, nil
}

// Create validates and inserts a new record after the current last position,
// returning its new ID. The given item is trimmed and updated in place with
// the assigned ID, position and timestamps.
func (r *SQLite) Create(ctx context.Context, b *bookmarklet.Item) (int64, error) {
	if b == nil {
		return 0, bookmarklet.ErrInvalid
	}

	b.Trim()
	if err := bookmarklet.Validate(b); err != nil {
		return 0, err
	}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := timestamp()
		res, err := tx.ExecContext(ctx, `
    INSERT INTO bookmarklets (title, match_js, code_js, position, created_at, updated_at)
    SELECT ?, ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?
    FROM bookmarklets`,
			b.Title, b.MatchJS, b.CodeJS, now, now,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting record: %w", ErrStorage, err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}

		if err := tx.GetContext(ctx, &b.Position, "SELECT position FROM bookmarklets WHERE id = ?", id); err != nil {
			return fmt.Errorf("%w: reading position: %w", ErrStorage, err)
		}

		b.ID = id
		b.CreatedAt = now
		b.UpdatedAt = now

		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("inserted record", "id", b.ID, "position", b.Position)

	return b.ID, nil
}

// Update replaces title, match and code of the record with the given ID.
// The position is left untouched.
func (r *SQLite) Update(ctx context.Context, id int64, b *bookmarklet.Item) error {
	if b == nil {
		return bookmarklet.ErrInvalid
	}

	b.Trim()
	if err := bookmarklet.Validate(b); err != nil {
		return err
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := timestamp()
		res, err := tx.ExecContext(ctx, `
    UPDATE bookmarklets
    SET title = ?, match_js = ?, code_js = ?, updated_at = ?
    WHERE id = ?`,
			b.Title, b.MatchJS, b.CodeJS, now, id,
		)
		if err != nil {
			return fmt.Errorf("%w: updating record: %w", ErrStorage, err)
		}

		if err := expectAffected(res, id); err != nil {
			return err
		}

		b.ID = id
		b.UpdatedAt = now
		slog.Debug("updated record", "id", id)

		return nil
	})
}

// Delete removes the record with the given ID. Remaining positions are not
// renumbered.
func (r *SQLite) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM bookmarklets WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("%w: deleting record: %w", ErrStorage, err)
		}

		if err := expectAffected(res, id); err != nil {
			return err
		}

		slog.Debug("deleted record", "id", id)

		return nil
	})
}

// Count returns the number of records.
func (r *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM bookmarklets"); err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", ErrStorage, err)
	}

	return n, nil
}

// WithTx executes a function within a transaction.
func (r *SQLite) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrStorage, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() // ensure rollback on panic

			panic(p) // re-throw the panic after rollback
		} else if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback error", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit failed: %w", ErrStorage, err)
	}

	return nil
}

// insertRecord inserts a record at the given position.
func insertRecord(ctx context.Context, tx *sqlx.Tx, b *bookmarklet.Item, pos int) (int64, error) {
	now := timestamp()
	res, err := tx.ExecContext(ctx, `
    INSERT INTO bookmarklets (title, match_js, code_js, position, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?)`,
		b.Title, b.MatchJS, b.CodeJS, pos, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: inserting record: %w", ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	b.ID = id
	b.Position = pos
	b.CreatedAt = now
	b.UpdatedAt = now

	return id, nil
}

// expectAffected returns ErrRecordNotFound when the statement touched no rows.
func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}

	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
