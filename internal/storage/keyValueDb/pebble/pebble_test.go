package pebble

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/dbtest"
)

func TestPebbleDB(t *testing.T) {
	manager := NewManager(t.TempDir())
	defer manager.Close()

	dbtest.Run(t, manager)
}

func TestPebbleLifecycle(t *testing.T) {
	dir := t.TempDir()
	manager := NewManager(dir)
	ctx := context.Background()

	db, err := manager.OpenDB("lifecycle")
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, manager.CloseDB("lifecycle"))

	_, err = os.Stat(filepath.Join(dir, "lifecycle.db"))
	require.NoError(t, err)

	// Data survives a reopen.
	db, err = manager.OpenDB("lifecycle")
	require.NoError(t, err)
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	require.NoError(t, manager.Close())
}
