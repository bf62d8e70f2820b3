package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
)

func titles(bs []*bookmarklet.Item) []string {
	s := make([]string, 0, len(bs))
	for _, b := range bs {
		s = append(s, b.Title)
	}

	return s
}

func TestCreateFirstPositionIsZero(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	b := bookmarklet.New("first", "function (u) { return true; }", "function () {}")

	id, err := r.Create(t.Context(), b)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, 0, b.Position)
	assert.NotEmpty(t, b.CreatedAt)
}

func TestCreateAppendsAfterMax(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	insertAt(t, r, "a", 0)
	insertAt(t, r, "b", 7)
	insertAt(t, r, "c", 3)

	b := bookmarklet.New("new", "function (u) { return true; }", "function () {}")
	_, err := r.Create(t.Context(), b)
	require.NoError(t, err)
	assert.Equal(t, 8, b.Position)

	got, err := r.ByID(t.Context(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Position)
}

func TestCreateTrimsAndValidates(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()

	b := &bookmarklet.Item{Title: "  spaced  ", MatchJS: " m ", CodeJS: "\tc\n"}
	_, err := r.Create(ctx, b)
	require.NoError(t, err)

	got, err := r.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "spaced", got.Title)
	assert.Equal(t, "m", got.MatchJS)
	assert.Equal(t, "c", got.CodeJS)

	invalid := []*bookmarklet.Item{
		nil,
		{Title: "", MatchJS: "m", CodeJS: "c"},
		{Title: "t", MatchJS: "   ", CodeJS: "c"},
		{Title: "t", MatchJS: "m", CodeJS: ""},
	}
	for _, b := range invalid {
		_, err := r.Create(ctx, b)
		require.ErrorIs(t, err, bookmarklet.ErrInvalid)
	}

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAllOrdering(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	insertAt(t, r, "p5-first", 5)
	insertAt(t, r, "p1", 1)
	insertAt(t, r, "p5-second", 5)
	insertAt(t, r, "p0", 0)

	bs, err := r.All(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1", "p5-first", "p5-second"}, titles(bs))
}

func TestAllEmpty(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	bs, err := r.All(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, bs)
	assert.Empty(t, bs)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()
	old := insertAt(t, r, "old", 4)

	err := r.Update(ctx, old.ID, bookmarklet.New(" renamed ", "function (u) { return false; }", "function () { go(); }"))
	require.NoError(t, err)

	got, err := r.ByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "function (u) { return false; }", got.MatchJS)
	assert.Equal(t, "function () { go(); }", got.CodeJS)
	assert.Equal(t, 4, got.Position, "position must not change")
	assert.Equal(t, old.CreatedAt, got.CreatedAt)
}

func TestUpdateInvalid(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	b := insertAt(t, r, "keep", 0)

	err := r.Update(t.Context(), b.ID, &bookmarklet.Item{Title: "x"})
	require.ErrorIs(t, err, bookmarklet.ErrInvalid)

	got, err := r.ByID(t.Context(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
}

func TestNotFoundLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()
	insertAt(t, r, "a", 0)
	insertAt(t, r, "b", 1)

	before, err := r.All(ctx)
	require.NoError(t, err)

	err = r.Update(ctx, 999, bookmarklet.New("x", "m", "c"))
	require.ErrorIs(t, err, ErrRecordNotFound)

	err = r.Delete(ctx, 999)
	require.ErrorIs(t, err, ErrRecordNotFound)

	_, err = r.ByID(ctx, 999)
	require.ErrorIs(t, err, ErrRecordNotFound)

	after, err := r.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteKeepsPositions(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()
	insertAt(t, r, "a", 0)
	mid := insertAt(t, r, "b", 1)
	insertAt(t, r, "c", 2)

	require.NoError(t, r.Delete(ctx, mid.ID))

	bs, err := r.All(ctx)
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.Equal(t, 0, bs[0].Position)
	assert.Equal(t, 2, bs[1].Position, "positions are not compacted")

	require.ErrorIs(t, r.Delete(ctx, mid.ID), ErrRecordNotFound)
}

func TestIDsAreNotReused(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()

	a := bookmarklet.New("a", "m", "c")
	_, err := r.Create(ctx, a)
	require.NoError(t, err)
	b := bookmarklet.New("b", "m", "c")
	_, err = r.Create(ctx, b)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, b.ID))

	c := bookmarklet.New("c", "m", "c")
	_, err = r.Create(ctx, c)
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID)
	assert.Equal(t, 1, c.Position, "max(position)+1 over remaining items")
}
