package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := t.Context()
	require.NoError(t, r.EnsureInitialized(ctx))

	dir := filepath.Join(t.TempDir(), "backups")
	dest, err := r.Backup(ctx, dir)
	require.NoError(t, err)
	assert.FileExists(t, dest)
	assert.Equal(t, dir, filepath.Dir(dest))
	assert.Contains(t, filepath.Base(dest), "_test.db")

	b, err := Open(ctx, dest, "")
	require.NoError(t, err)
	t.Cleanup(b.Close)

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBackupDefaultDir(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	dest, err := r.Backup(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, r.Cfg.BackupDir, filepath.Dir(dest))
}

func TestVerifyIntegrity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := VerifyIntegrity(t.Context(), DriverModernc, filepath.Join(dir, "missing.db"))
	require.ErrorIs(t, err, ErrDBNotFound)

	bad := filepath.Join(dir, "bad.db")
	require.NoError(t, os.WriteFile(bad, []byte("this is not a database file at all"), 0o644))
	err = VerifyIntegrity(t.Context(), DriverModernc, bad)
	require.Error(t, err)
}

func TestBackupRequiresSchema(t *testing.T) {
	t.Parallel()

	r, err := Open(t.Context(), filepath.Join(t.TempDir(), "empty.db"), "")
	require.NoError(t, err)
	t.Cleanup(r.Close)

	dir := filepath.Join(t.TempDir(), "backups")
	_, err = r.Backup(t.Context(), dir)
	require.ErrorIs(t, err, ErrDBNotInitialized)
	assert.NoDirExists(t, dir)
}
