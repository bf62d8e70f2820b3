// Package service ties the store, the selector synthesizer and the packager
// together.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/packager"
)

// Store is the persistence the service needs.
type Store interface {
	All(ctx context.Context) ([]*bookmarklet.Item, error)
	Create(ctx context.Context, b *bookmarklet.Item) (int64, error)
	Update(ctx context.Context, id int64, b *bookmarklet.Item) error
	Delete(ctx context.Context, id int64) error
}

// Renderer builds the selector script from an ordered item list.
type Renderer interface {
	Render(items []*bookmarklet.Item) (string, error)
}

// Payload is the packaged selector.
type Payload struct {
	JavaScript     string `json:"javascript"      yaml:"javascript"`
	BookmarkletURL string `json:"bookmarklet_url" yaml:"bookmarklet_url"`
	Minified       bool   `json:"minified"        yaml:"minified"`
}

// OptFn is an option function for the service.
type OptFn func(*Options)

// Options represents the options for the service.
type Options struct {
	minifier packager.Minifier
	fallback bool
}

// Service exposes the bookmarklet operations.
type Service struct {
	Options
	store    Store
	renderer Renderer
}

// WithMinifier minifies the selector script before packaging. A nil
// minifier disables minification.
func WithMinifier(m packager.Minifier) OptFn {
	return func(o *Options) {
		o.minifier = m
	}
}

// WithMinifyFallback serves the unminified script when minification fails.
func WithMinifyFallback(b bool) OptFn {
	return func(o *Options) {
		o.fallback = b
	}
}

// New returns a new service.
func New(store Store, r Renderer, opts ...OptFn) *Service {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	return &Service{
		Options:  o,
		store:    store,
		renderer: r,
	}
}

// Minifies reports whether a minifier is configured.
func (s *Service) Minifies() bool {
	return s.minifier != nil
}

// List returns all items in selector order.
func (s *Service) List(ctx context.Context) ([]*bookmarklet.Item, error) {
	return s.store.All(ctx)
}

// Create stores a new item and returns its id.
func (s *Service) Create(ctx context.Context, b *bookmarklet.Item) (int64, error) {
	return s.store.Create(ctx, b)
}

// Update replaces the item with the given id.
func (s *Service) Update(ctx context.Context, id int64, b *bookmarklet.Item) error {
	return s.store.Update(ctx, id, b)
}

// Delete removes the item with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Selector renders the current items and packages the result.
func (s *Service) Selector(ctx context.Context) (*Payload, error) {
	items, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	script, err := s.renderer.Render(items)
	if err != nil {
		return nil, fmt.Errorf("building selector: %w", err)
	}

	p := &Payload{JavaScript: script}
	if s.minifier != nil {
		m, err := s.minifier.Minify(ctx, script)
		switch {
		case err == nil:
			p.JavaScript = m
			p.Minified = true
		case s.fallback && errors.Is(err, packager.ErrMinify):
			slog.Warn("serving unminified selector", "error", err)
		default:
			return nil, err
		}
	}

	p.BookmarkletURL = packager.ToURI(p.JavaScript)
	slog.Debug("selector packaged", "items", len(items), "minified", p.Minified, "bytes", len(p.JavaScript))

	return p, nil
}
