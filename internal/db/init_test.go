package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
)

func TestEnsureInitializedSeedsEmptyStore(t *testing.T) {
	t.Parallel()

	r, err := Open(t.Context(), filepath.Join(t.TempDir(), "seed.db"), "")
	require.NoError(t, err)
	t.Cleanup(r.Close)

	assert.False(t, r.IsInitialized(t.Context()))
	require.NoError(t, r.EnsureInitialized(t.Context()))
	assert.True(t, r.IsInitialized(t.Context()))

	bs, err := r.All(t.Context())
	require.NoError(t, err)

	want := bookmarklet.Defaults()
	require.Len(t, bs, len(want))
	for i := range want {
		assert.Equal(t, want[i].Title, bs[i].Title)
		assert.Equal(t, want[i].MatchJS, bs[i].MatchJS)
		assert.Equal(t, want[i].CodeJS, bs[i].CodeJS)
		assert.Equal(t, i, bs[i].Position)
	}
}

func TestEnsureInitializedIsIdempotent(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()

	require.NoError(t, r.EnsureInitialized(ctx))
	require.NoError(t, r.EnsureInitialized(ctx))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(bookmarklet.Defaults()), n)
}

func TestEnsureInitializedKeepsExistingItems(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()
	insertAt(t, r, "mine", 3)

	require.NoError(t, r.EnsureInitialized(ctx))

	bs, err := r.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, titles(bs))
}

func TestEnsureInitializedReopen(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "reopen.db")

	r, err := Open(t.Context(), p, "")
	require.NoError(t, err)
	require.NoError(t, r.EnsureInitialized(t.Context()))
	b := bookmarklet.New("extra", "m", "c")
	_, err = r.Create(t.Context(), b)
	require.NoError(t, err)
	r.Close()

	r, err = Open(t.Context(), p, "")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	require.NoError(t, r.EnsureInitialized(t.Context()))

	n, err := r.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, len(bookmarklet.Defaults())+1, n)
}
