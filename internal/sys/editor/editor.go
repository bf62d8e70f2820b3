// Package editor opens content in the user's text editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	shellwords "github.com/junegunn/go-shellwords"

	"github.com/mateconpizza/marklet/internal/sys"
)

var (
	ErrCommandNotFound    = errors.New("command not found")
	ErrTextEditorNotFound = errors.New("text editor not found")
)

// EnvEditor overrides $EDITOR for marklet.
const EnvEditor = "MARKLET_EDITOR"

// Fallback text editors if $EDITOR || $MARKLET_EDITOR var is not set.
var textEditors = []string{"vim", "nvim", "nano", "vi", "emacs"}

type TextEditor struct {
	name   string
	cmd    string
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// EditBytes writes content to a temporary file with the given extension,
// opens it in the editor and returns the saved content.
func (te *TextEditor) EditBytes(ctx context.Context, content []byte, ext string) ([]byte, error) {
	if te.cmd == "" {
		return nil, ErrCommandNotFound
	}

	f, err := os.CreateTemp("", "marklet-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	defer func() {
		if err := os.Remove(name); err != nil {
			slog.Warn("removing temp file", "file", name, "error", err)
		}
	}()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	slog.Debug("editing file", "name", name, "editor", te.name)

	cmd := exec.CommandContext(ctx, te.cmd, append(te.args, name)...)
	cmd.Stdin = te.stdin
	cmd.Stdout = te.stdout
	cmd.Stderr = te.stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("error running editor: %w", err)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return data, nil
}

// Name returns the editor name.
func (te *TextEditor) Name() string {
	return te.name
}

// New retrieves the preferred editor to use.
//
// $MARKLET_EDITOR wins over $EDITOR. When neither is set the first available
// fallback editor is used.
//
// # fallbackEditors: `"vim", "nvim", "nano", "vi", "emacs"`.
func New() (*TextEditor, error) {
	for _, e := range []string{EnvEditor, "EDITOR"} {
		editor, found, err := fromEnv(e)
		if err != nil {
			return nil, err
		}
		if found {
			return editor, nil
		}
	}

	slog.Debug("$EDITOR and $MARKLET_EDITOR not set, checking fallback text editor",
		"editors", textEditors)

	for _, e := range textEditors {
		if p, err := exec.LookPath(e); err == nil {
			return newTextEditor(p, e, nil), nil
		}
	}

	return nil, ErrTextEditorNotFound
}

// fromEnv builds an editor from the command line stored in env var e.
func fromEnv(e string) (*TextEditor, bool, error) {
	v := sys.Env(e, "")
	if v == "" {
		return nil, false, nil
	}

	s, err := shellwords.Parse(v)
	if err != nil || len(s) == 0 {
		return nil, false, fmt.Errorf("%w: $%s=%q", ErrTextEditorNotFound, e, v)
	}

	p, err := exec.LookPath(s[0])
	if err != nil {
		return nil, false, fmt.Errorf("%w: %q", ErrTextEditorNotFound, s[0])
	}

	slog.Info("$EDITOR set", "editor", s[0], "env", e)

	return newTextEditor(p, s[0], s[1:]), true, nil
}

func newTextEditor(c, n string, arg []string) *TextEditor {
	return &TextEditor{
		cmd:    c,
		name:   n,
		args:   arg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}
