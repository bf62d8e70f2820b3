// Package sys wraps the few operating system facilities the CLI needs.
package sys

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"golang.org/x/term"
)

var (
	ErrCopyToClipboard = errors.New("copy to clipboard")
	ErrOpenBrowser     = errors.New("open in browser")
)

// Env retrieves an environment variable.
//
// If the environment variable is not set, returns the default value.
func Env(s, def string) string {
	if v, ok := os.LookupEnv(s); ok {
		return v
	}

	return def
}

// OpenInBrowser opens a URL in the default browser.
func OpenInBrowser(s string) error {
	if err := browser.OpenURL(s); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenBrowser, err)
	}

	return nil
}

// CopyClipboard copies a string to the clipboard.
func CopyClipboard(s string) error {
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("%w: %w", ErrCopyToClipboard, err)
	}

	slog.Debug("text copied to clipboard", "bytes", len(s))

	return nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
