package leveldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/dbtest"
)

func TestLevelDB(t *testing.T) {
	manager := NewManager(t.TempDir())
	defer manager.Close()

	dbtest.Run(t, manager)
}

func TestLevelDBReopen(t *testing.T) {
	manager := NewManager(t.TempDir())
	ctx := context.Background()

	db, err := manager.OpenDB("reopen")
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, manager.CloseDB("reopen"))

	db, err = manager.OpenDB("reopen")
	require.NoError(t, err)
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	require.NoError(t, manager.Close())
}
