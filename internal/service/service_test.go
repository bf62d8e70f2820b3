package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/db"
	"github.com/mateconpizza/marklet/internal/packager"
	"github.com/mateconpizza/marklet/internal/selector"
)

type minifyFn func(ctx context.Context, src string) (string, error)

func (f minifyFn) Minify(ctx context.Context, src string) (string, error) { return f(ctx, src) }

type renderFn func([]*bookmarklet.Item) (string, error)

func (f renderFn) Render(items []*bookmarklet.Item) (string, error) { return f(items) }

func setupStore(t *testing.T) *db.SQLite {
	t.Helper()

	r, err := db.Open(t.Context(), filepath.Join(t.TempDir(), "svc.db"), "")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	require.NoError(t, r.EnsureInitialized(t.Context()))

	return r
}

func TestSelectorUnminified(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	svc := New(store, selector.New())
	assert.False(t, svc.Minifies())

	p, err := svc.Selector(t.Context())
	require.NoError(t, err)
	assert.False(t, p.Minified)
	assert.Contains(t, p.JavaScript, `"Sample: Alert"`)
	assert.Equal(t, "javascript:"+p.JavaScript, p.BookmarkletURL)
}

func TestSelectorMinified(t *testing.T) {
	t.Parallel()

	var seen string
	m := minifyFn(func(_ context.Context, src string) (string, error) {
		seen = src
		return "min();", nil
	})

	svc := New(setupStore(t), selector.New(), WithMinifier(m))
	p, err := svc.Selector(t.Context())
	require.NoError(t, err)

	assert.True(t, p.Minified)
	assert.Equal(t, "min();", p.JavaScript)
	assert.Equal(t, "javascript:min();", p.BookmarkletURL)
	assert.Contains(t, seen, "Admin Path Only")
}

func TestSelectorMinifyFailure(t *testing.T) {
	t.Parallel()

	failing := minifyFn(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: SyntaxError", packager.ErrMinify)
	})

	t.Run("error surfaces", func(t *testing.T) {
		t.Parallel()

		svc := New(setupStore(t), selector.New(), WithMinifier(failing))
		_, err := svc.Selector(t.Context())
		require.ErrorIs(t, err, packager.ErrMinify)
		assert.Contains(t, err.Error(), "SyntaxError")
	})

	t.Run("fallback serves source", func(t *testing.T) {
		t.Parallel()

		svc := New(setupStore(t), selector.New(), WithMinifier(failing), WithMinifyFallback(true))
		p, err := svc.Selector(t.Context())
		require.NoError(t, err)
		assert.False(t, p.Minified)
		assert.Contains(t, p.JavaScript, "'use strict';")
	})

	t.Run("fallback ignores other errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		m := minifyFn(func(context.Context, string) (string, error) { return "", boom })
		svc := New(setupStore(t), selector.New(), WithMinifier(m), WithMinifyFallback(true))
		_, err := svc.Selector(t.Context())
		require.ErrorIs(t, err, boom)
	})
}

func TestSelectorRenderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := New(setupStore(t), renderFn(func([]*bookmarklet.Item) (string, error) { return "", boom }))

	_, err := svc.Selector(t.Context())
	require.ErrorIs(t, err, boom)
}

func TestSelectorStorageError(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	svc := New(store, selector.New())
	store.Close()

	_, err := svc.Selector(t.Context())
	require.ErrorIs(t, err, db.ErrStorage)
}

func TestSelectorReflectsWrites(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := New(setupStore(t), selector.New())

	id, err := svc.Create(ctx, bookmarklet.New("Fresh", "function (u) { return true; }", "function () {}"))
	require.NoError(t, err)

	p, err := svc.Selector(ctx)
	require.NoError(t, err)
	assert.Contains(t, p.JavaScript, `"Fresh"`)

	require.NoError(t, svc.Update(ctx, id, bookmarklet.New("Renamed", "function (u) { return true; }", "function () {}")))
	p, err = svc.Selector(ctx)
	require.NoError(t, err)
	assert.NotContains(t, p.JavaScript, `"Fresh"`)
	assert.Contains(t, p.JavaScript, `"Renamed"`)

	require.NoError(t, svc.Delete(ctx, id))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	require.ErrorIs(t, svc.Delete(ctx, id), db.ErrRecordNotFound)
}
