// Package menu wraps fzf to let the user pick items from a list.
package menu

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	fzf "github.com/junegunn/fzf/src"
)

var (
	ErrFzf                 = errors.New("fzf: error: code 2")
	ErrFzfNoItems          = errors.New("fzf: no items provided")
	ErrFzfNoMatching       = errors.New("fzf: no matching record: code 1")
	ErrFzfActionAborted    = errors.New("fzf: action aborted: code 130")
	ErrFzfPermissionDenied = errors.New("fzf: permission denied: code 126")
	ErrFzfInvalidCommand   = errors.New("fzf: invalid shell command: code 127")
)

const defaultPrompt = " Marklet> "

var fzfDefaults = []string{
	"--ansi",
	"--cycle",
	"--reverse",
	"--sync",
	"--info=inline-right",
	"--no-bold",
	"--delimiter=\t",
	"--with-nth=2..",
}

// Runner builds and runs fzf.
type Runner interface {
	Parse(defaults bool, args []string) (*fzf.Options, error)
	Run(opts *fzf.Options) (int, error)
}

type fzfRunner struct{}

func (fzfRunner) Parse(defaults bool, args []string) (*fzf.Options, error) {
	return fzf.ParseOptions(defaults, args)
}

func (fzfRunner) Run(opts *fzf.Options) (int, error) {
	return fzf.Run(opts)
}

type OptFn func(*Options)

type Options struct {
	args     []string
	header   string
	prompt   string
	defaults bool
	runner   Runner
}

// Menu selects items of type T through fzf.
type Menu[T any] struct {
	Options
	items        []T
	preprocessor func(*T) string
}

func defaultOpts() Options {
	args := make([]string, len(fzfDefaults))
	copy(args, fzfDefaults)

	return Options{
		args:   args,
		prompt: defaultPrompt,
		runner: fzfRunner{},
	}
}

// WithArgs adds extra args to fzf.
func WithArgs(args ...string) OptFn {
	return func(o *Options) {
		o.args = append(o.args, args...)
	}
}

// WithHeader sets the sticky header line.
func WithHeader(h string) OptFn {
	return func(o *Options) {
		o.header = h
	}
}

// WithPrompt sets the input prompt.
func WithPrompt(p string) OptFn {
	return func(o *Options) {
		if p != "" {
			o.prompt = p
		}
	}
}

// WithDefaultSettings loads $FZF_DEFAULT_OPTS and $FZF_DEFAULT_OPTS_FILE.
func WithDefaultSettings() OptFn {
	return func(o *Options) {
		o.defaults = true
	}
}

// WithMultiSelection allows selecting more than one item.
func WithMultiSelection() OptFn {
	return func(o *Options) {
		o.args = append(o.args, "--multi", "--highlight-line", "--bind=ctrl-a:toggle-all")
	}
}

// WithRunner replaces the fzf runner.
func WithRunner(r Runner) OptFn {
	return func(o *Options) {
		o.runner = r
	}
}

// New creates a new menu.
func New[T any](opts ...OptFn) *Menu[T] {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}

	return &Menu[T]{Options: o}
}

// SetItems sets the items to choose from.
func (m *Menu[T]) SetItems(items []T) {
	m.items = items
}

// SetPreprocessor sets the function that renders an item as a line.
func (m *Menu[T]) SetPreprocessor(fn func(*T) string) {
	m.preprocessor = fn
}

// Args returns the fzf arguments the menu will run with.
func (m *Menu[T]) Args() []string {
	args := append([]string{}, m.args...)
	args = append(args, "--prompt="+m.prompt)
	if m.header != "" {
		args = append(args, "--header="+m.header)
	}

	return args
}

// Select runs fzf and returns the chosen items.
func (m *Menu[T]) Select() ([]T, error) {
	if len(m.items) == 0 {
		return nil, ErrFzfNoItems
	}
	if m.preprocessor == nil {
		m.preprocessor = defaultPreprocessor[T]
	}

	args := m.Args()
	slog.Debug("menu args", "args", args)

	options, err := m.runner.Parse(m.defaults, args)
	if err != nil {
		return nil, fmt.Errorf("fzf: %w", err)
	}

	formatted := make([]string, len(m.items))
	lines := make(map[string]int, len(m.items))
	for i := range m.items {
		formatted[i] = m.preprocessor(&m.items[i])
		lines[formatted[i]] = i
	}

	input := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(input)
		for _, s := range formatted {
			select {
			case input <- s:
			case <-done:
				return
			}
		}
	}()

	output := make(chan string)
	results := make(chan []string)
	go func() {
		var out []string
		for s := range output {
			out = append(out, s)
		}
		results <- out
	}()

	options.Input = input
	options.Output = output

	retcode, err := m.runner.Run(options)
	close(output)
	selected := <-results

	if retcode != 0 {
		return nil, handleFzfErr(retcode)
	}
	if err != nil {
		return nil, fmt.Errorf("fzf: %w", err)
	}

	result := make([]T, 0, len(selected))
	for _, s := range selected {
		if i, ok := lines[s]; ok {
			result = append(result, m.items[i])
		}
	}
	if len(result) == 0 {
		return nil, ErrFzfNoMatching
	}

	return result, nil
}

func defaultPreprocessor[T any](t *T) string {
	return strings.ReplaceAll(fmt.Sprintf("%+v", *t), "\n", " ")
}

// handleFzfErr returns an error based on the exit code of fzf.
//
//	0      Normal exit
//	1      No match
//	2      Error
//	126    Permission denied error from become action
//	127    Invalid shell command for become action.
//	130    Interrupted with CTRL-C or ESC.
func handleFzfErr(retcode int) error {
	switch retcode {
	case 1:
		return ErrFzfNoMatching
	case 126:
		return ErrFzfPermissionDenied
	case 127:
		return ErrFzfInvalidCommand
	case 130:
		return ErrFzfActionAborted
	}

	return ErrFzf
}
