// Package terminal provides the interactive prompts used by the CLI.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var (
	ErrActionAborted    = errors.New("action aborted")
	ErrNotInteractive   = errors.New("not an interactive terminal")
	ErrNoStateToRestore = errors.New("no term state to restore")
)

// OptFn is an option function for the terminal.
type OptFn func(*Options)

// Options represents the options for the terminal.
type Options struct {
	reader      io.Reader
	writer      io.Writer
	interruptFn func(error)
}

// Term reads answers from a reader and writes questions to a writer.
type Term struct {
	Options
	br    *bufio.Reader
	state *term.State
}

func defaultOpts() Options {
	return Options{
		reader:      os.Stdin,
		writer:      os.Stderr,
		interruptFn: defaultInterruptFn,
	}
}

// defaultInterruptFn reports err and exits.
func defaultInterruptFn(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// WithReader sets the reader for the terminal.
func WithReader(r io.Reader) OptFn {
	return func(o *Options) {
		o.reader = r
	}
}

// WithWriter sets the writer prompts are printed to.
func WithWriter(w io.Writer) OptFn {
	return func(o *Options) {
		o.writer = w
	}
}

// WithInterruptFn sets the function called when the user presses Ctrl-C
// inside the line editor.
func WithInterruptFn(fn func(error)) OptFn {
	return func(o *Options) {
		o.interruptFn = fn
	}
}

// New returns a new terminal.
func New(opts ...OptFn) *Term {
	t := &Term{Options: defaultOpts()}
	for _, opt := range opts {
		opt(&t.Options)
	}
	t.br = bufio.NewReader(t.reader)

	return t
}

// Interactive reports whether the reader is a terminal.
func (t *Term) Interactive() bool {
	f, ok := t.reader.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// saveState saves the current terminal state.
func (t *Term) saveState() error {
	f, ok := t.reader.(*os.File)
	if !ok {
		return ErrNotInteractive
	}

	s, err := term.GetState(int(f.Fd()))
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	t.state = s

	return nil
}

// restoreState restores the previously saved terminal state.
func (t *Term) restoreState() error {
	if t.state == nil {
		return ErrNoStateToRestore
	}

	f, ok := t.reader.(*os.File)
	if !ok {
		return ErrNotInteractive
	}

	if err := term.Restore(int(f.Fd()), t.state); err != nil {
		return fmt.Errorf("restoring state: %w", err)
	}
	t.state = nil

	return nil
}
