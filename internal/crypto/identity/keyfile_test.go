package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFileRoundTrip(t *testing.T) {
	id, err := New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "keeper.key")
	require.NoError(t, id.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, id.Address(), loaded.Address())

	assert.ErrorIs(t, id.SaveFile(path), ErrKeyFileExists)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.key"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.key")
	require.NoError(t, os.WriteFile(garbage, []byte("not hex\n"), 0o600))
	_, err = LoadFile(garbage)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}
