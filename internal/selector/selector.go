// Package selector builds the overlay script that lists the bookmarklets
// matching the current page and runs the chosen one.
package selector

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
)

const (
	DefaultRootID  = "bookmarklet-selector"
	DefaultHeading = "Bookmarklets"
)

var ErrRender = errors.New("render selector")

//go:embed selector.js.tmpl
var selectorTmpl string

var tmpl = template.Must(template.New("selector").Parse(selectorTmpl))

// OptFn is an option function for the synthesizer.
type OptFn func(*Options)

// Options holds the tunables of the generated overlay.
type Options struct {
	RootID  string
	Heading string
}

// Synthesizer renders item lists into the selector script. It holds no
// mutable state and is safe for concurrent use.
type Synthesizer struct {
	Options
}

func defaultOpts() Options {
	return Options{
		RootID:  DefaultRootID,
		Heading: DefaultHeading,
	}
}

// WithRootID sets the DOM id of the overlay element.
func WithRootID(id string) OptFn {
	return func(o *Options) {
		if id != "" {
			o.RootID = id
		}
	}
}

// WithHeading sets the overlay title.
func WithHeading(s string) OptFn {
	return func(o *Options) {
		if s != "" {
			o.Heading = s
		}
	}
}

// New returns a new synthesizer.
func New(opts ...OptFn) *Synthesizer {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}

	return &Synthesizer{Options: o}
}

type literal struct {
	Title string
	Match string
	Code  string
}

type data struct {
	RootID  string
	Heading string
	Items   []literal
}

// Render returns the selector script for items, kept in the given order.
//
// Titles are emitted as JSON string literals. Match and code sources are
// transcluded verbatim and are not checked.
func (s *Synthesizer) Render(items []*bookmarklet.Item) (string, error) {
	d := data{
		RootID:  jsString(s.RootID),
		Heading: jsString(s.Heading),
		Items:   make([]literal, 0, len(items)),
	}

	for _, b := range items {
		if b == nil {
			continue
		}

		d.Items = append(d.Items, literal{
			Title: jsString(b.Title),
			Match: b.MatchJS,
			Code:  b.CodeJS,
		})
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	slog.Debug("selector rendered", "items", len(d.Items), "bytes", sb.Len())

	return sb.String(), nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s) // never fails for strings
	return string(b)
}
