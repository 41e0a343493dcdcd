package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	dbtest.Run(t, NewManager())
}

func TestMemoryIteratorIsSnapshot(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	require.NoError(t, db.Write(ctx, []byte("b"), []byte("1")))
	require.NoError(t, db.Write(ctx, []byte("a"), []byte("0")))

	iter, err := db.Iterator(ctx, nil, []byte("c"))
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("a"), []byte("changed")))
	require.NoError(t, db.Delete(ctx, []byte("b")))

	var got []string
	for iter.Next() {
		got = append(got, string(iter.Key())+"="+string(iter.Value()))
	}
	assert.Equal(t, []string{"a=0", "b=1"}, got)
	assert.Nil(t, iter.Key())
}

func TestMemoryInvertedRange(t *testing.T) {
	db := NewDB()
	require.NoError(t, db.Write(context.Background(), []byte("m"), []byte("x")))
	iter, err := db.Iterator(context.Background(), []byte("z"), []byte("a"))
	require.NoError(t, err)
	assert.False(t, iter.Next())
}

func TestOpenRegisteredBackend(t *testing.T) {
	m, err := keyValueDb.Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Manager{}, m)

	_, err = keyValueDb.Open("nudb", "")
	assert.ErrorIs(t, err, keyValueDb.ErrUnknownBackend)
}
