// Package files provides utilities for working with files/directories.
package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrPathNotFound = errors.New("path not found")
	ErrFileExists   = errors.New("file already exists")
)

// Exists checks if a file exists.
func Exists(s string) bool {
	_, err := os.Stat(s)
	return !os.IsNotExist(err)
}

// mkdir creates a new directory at the specified path.
func mkdir(s string) error {
	if Exists(s) {
		return nil
	}

	slog.Debug("creating path", "path", s)
	if err := os.MkdirAll(s, DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", s, err)
	}

	return nil
}

// MkdirAll creates all the given paths.
func MkdirAll(s ...string) error {
	for _, path := range s {
		if err := mkdir(path); err != nil {
			return err
		}
	}

	return nil
}

// WriteFile writes data to path, creating its parent directory. When force is
// false an existing file is not overwritten.
func WriteFile(path string, data []byte, force bool) error {
	if !force && Exists(path) {
		return fmt.Errorf("%w: %q", ErrFileExists, path)
	}

	if err := mkdir(filepath.Dir(path)); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, FilePerm); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}

	slog.Debug("file written", "path", path, "bytes", len(data))

	return nil
}

// Remove removes the specified file if it exists.
func Remove(s string) error {
	if !Exists(s) {
		return fmt.Errorf("%w: %q", ErrFileNotFound, s)
	}

	slog.Debug("removing file", "path", s)

	if err := os.Remove(s); err != nil {
		return fmt.Errorf("removing file: %w", err)
	}

	return nil
}
