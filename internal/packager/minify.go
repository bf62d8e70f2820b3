package packager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	shellwords "github.com/junegunn/go-shellwords"
	"github.com/tidwall/gjson"
)

var (
	ErrMinify        = errors.New("minify failed")
	ErrEmptyCommand  = errors.New("empty minifier command")
	ErrUnknownFormat = errors.New("unknown minifier output format")
)

// Format is the shape of the minifier output.
type Format string

const (
	FormatJSON Format = "json" // {"code": "..."} or {"error": "..."}
	FormatRaw  Format = "raw"  // stdout is the code
)

const (
	DefaultTimeout = 30 * time.Second
	waitDelay      = 2 * time.Second
	maxDiagLen     = 2048
)

// terserProgram reads a script from stdin and writes the JSON payload.
const terserProgram = `const terser=require('terser');` +
	`const fs=require('fs');` +
	`const src=fs.readFileSync(0,'utf8');` +
	`const options={compress:{booleans:true,dead_code:true,passes:2,unsafe:false},` +
	`mangle:false,ecma:5,format:{comments:false,semicolons:true}};` +
	`const fail=e=>{process.stdout.write(JSON.stringify({error:String(e&&e.message||e)}));process.exit(1);};` +
	`terser.minify(src,options).then(r=>{if(r.error){fail(r.error);}` +
	`process.stdout.write(JSON.stringify({code:r.code}));}).catch(fail);`

// DefaultCommand runs terser through node.
func DefaultCommand() []string {
	return []string{"node", "-e", terserProgram}
}

// Minifier compacts a script.
type Minifier interface {
	Minify(ctx context.Context, src string) (string, error)
}

// OptFn is an option function for the terser minifier.
type OptFn func(*Options)

// Options represents the options for the terser minifier.
type Options struct {
	Command string
	Format  Format
	Timeout time.Duration
}

// Terser minifies scripts by piping them through an external command.
type Terser struct {
	args    []string
	format  Format
	timeout time.Duration
}

// WithCommand sets the command line to run, parsed with shell quoting rules.
// An empty string keeps the default terser program.
func WithCommand(s string) OptFn {
	return func(o *Options) {
		o.Command = s
	}
}

// WithFormat sets the expected output format.
func WithFormat(f Format) OptFn {
	return func(o *Options) {
		if f != "" {
			o.Format = f
		}
	}
}

// WithTimeout bounds each run.
func WithTimeout(d time.Duration) OptFn {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// NewTerser returns a new minifier.
func NewTerser(opts ...OptFn) (*Terser, error) {
	o := Options{
		Format:  FormatJSON,
		Timeout: DefaultTimeout,
	}
	for _, fn := range opts {
		fn(&o)
	}

	switch o.Format {
	case FormatJSON, FormatRaw:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
	}

	args := DefaultCommand()
	if strings.TrimSpace(o.Command) != "" {
		a, err := shellwords.Parse(o.Command)
		if err != nil {
			return nil, fmt.Errorf("parsing minifier command: %w", err)
		}

		args = a
	}

	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	return &Terser{args: args, format: o.Format, timeout: o.Timeout}, nil
}

// Minify runs the command with src on stdin.
func (t *Terser) Minify(ctx context.Context, src string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.args[0], t.args[1:]...)
	cmd.Stdin = strings.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	slog.Debug("minifier finished", "cmd", t.args[0], "took", time.Since(start), "in", len(src), "out", stdout.Len())

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrMinify, t.timeout)
		}

		return "", fmt.Errorf("%w: %w", ErrMinify, ctxErr)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMinify, t.diagnostic(err, stdout.String(), stderr.String()))
	}

	code, err := t.parse(stdout.String())
	if err != nil {
		return "", err
	}

	return code, nil
}

// parse extracts the code from the command output.
func (t *Terser) parse(out string) (string, error) {
	if t.format == FormatRaw {
		code := strings.TrimSpace(out)
		if code == "" {
			return "", fmt.Errorf("%w: empty output", ErrMinify)
		}

		return code, nil
	}

	if !gjson.Valid(out) {
		return "", fmt.Errorf("%w: invalid payload: %s", ErrMinify, truncate(out))
	}

	if e := gjson.Get(out, "error"); e.Exists() {
		return "", fmt.Errorf("%w: %s", ErrMinify, truncate(e.String()))
	}

	code := gjson.Get(out, "code")
	if !code.Exists() || strings.TrimSpace(code.String()) == "" {
		return "", fmt.Errorf("%w: empty output", ErrMinify)
	}

	return code.String(), nil
}

// diagnostic picks the most useful message from a failed run.
func (t *Terser) diagnostic(err error, stdout, stderr string) string {
	if t.format == FormatJSON && gjson.Valid(stdout) {
		if e := gjson.Get(stdout, "error"); e.Exists() && e.String() != "" {
			return truncate(e.String())
		}
	}

	if s := strings.TrimSpace(stderr); s != "" {
		return truncate(s)
	}

	return err.Error()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxDiagLen {
		return s[:maxDiagLen] + "..."
	}

	return s
}
