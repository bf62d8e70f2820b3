// Package bookmarklet contains the bookmarklet record.
package bookmarklet

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrInvalid   = errors.New("title, match_js, code_js are required")
	ErrInvalidID = errors.New("invalid bookmarklet id")
)

// Item represents a stored bookmarklet.
//
// MatchJS and CodeJS hold user-authored script source. They are never parsed
// or executed here, only transcluded into the selector script.
type Item struct {
	ID        int64  `db:"id"         json:"id"`
	Title     string `db:"title"      json:"title"`
	MatchJS   string `db:"match_js"   json:"match_js"`
	CodeJS    string `db:"code_js"    json:"code_js"`
	Position  int    `db:"position"   json:"position"`
	CreatedAt string `db:"created_at" json:"-"`
	UpdatedAt string `db:"updated_at" json:"-"`
}

// New returns a new item with its text fields trimmed.
func New(title, matchJS, codeJS string) *Item {
	b := &Item{
		Title:   title,
		MatchJS: matchJS,
		CodeJS:  codeJS,
	}
	b.Trim()

	return b
}

// Trim removes leading and trailing whitespace from the text fields.
func (b *Item) Trim() {
	b.Title = strings.TrimSpace(b.Title)
	b.MatchJS = strings.TrimSpace(b.MatchJS)
	b.CodeJS = strings.TrimSpace(b.CodeJS)
}

func (b *Item) String() string {
	return fmt.Sprintf("%d:%d %s", b.ID, b.Position, b.Title)
}

// Validate checks that title, match and code are non-empty after trimming
// whitespace.
func Validate(b *Item) error {
	if b == nil {
		return ErrInvalid
	}

	missing := make([]string, 0, 3)
	if strings.TrimSpace(b.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(b.MatchJS) == "" {
		missing = append(missing, "match_js")
	}
	if strings.TrimSpace(b.CodeJS) == "" {
		missing = append(missing, "code_js")
	}

	if len(missing) > 0 {
		slog.Debug("bookmarklet is invalid", "empty", missing)
		return fmt.Errorf("%w: empty %s", ErrInvalid, strings.Join(missing, ", "))
	}

	return nil
}
