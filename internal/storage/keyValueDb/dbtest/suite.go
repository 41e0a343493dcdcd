// Package dbtest holds the behaviour every keyValueDb backend must share.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

// Run exercises a backend through its Manager.
func Run(t *testing.T, manager keyValueDb.Manager) {
	ctx := context.Background()

	t.Run("Write and Read", func(t *testing.T) {
		db, err := manager.OpenDB("rw")
		require.NoError(t, err)

		require.NoError(t, db.Write(ctx, []byte("test-key"), []byte("test-value")))

		got, err := db.Read(ctx, []byte("test-key"))
		require.NoError(t, err)
		assert.Equal(t, []byte("test-value"), got)

		_, err = db.Read(ctx, []byte("missing"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		db, err := manager.OpenDB("delete")
		require.NoError(t, err)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
		require.NoError(t, db.Delete(ctx, []byte("k")))

		_, err = db.Read(ctx, []byte("k"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
	})

	t.Run("Batch Operations", func(t *testing.T) {
		db, err := manager.OpenDB("batch")
		require.NoError(t, err)

		ops := []keyValueDb.BatchOperation{
			{Type: keyValueDb.BatchPut, Key: []byte("key1"), Value: []byte("value1")},
			{Type: keyValueDb.BatchPut, Key: []byte("key2"), Value: []byte("value2")},
			{Type: keyValueDb.BatchDelete, Key: []byte("key1")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		_, err = db.Read(ctx, []byte("key1"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)

		value, err := db.Read(ctx, []byte("key2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value2"), value)
	})

	t.Run("Batch rejects unknown op", func(t *testing.T) {
		db, err := manager.OpenDB("batch-bad")
		require.NoError(t, err)

		err = db.Batch(ctx, []keyValueDb.BatchOperation{
			{Type: keyValueDb.BatchPut, Key: []byte("a"), Value: []byte("1")},
			{Type: keyValueDb.BatchOpType(42), Key: []byte("b")},
		})
		require.ErrorIs(t, err, keyValueDb.ErrUnknownBatchOp)

		_, err = db.Read(ctx, []byte("a"))
		assert.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
	})

	t.Run("Iterator", func(t *testing.T) {
		db, err := manager.OpenDB("iter")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			require.NoError(t, db.Write(ctx, []byte(fmt.Sprintf("iter%d", i)), []byte(fmt.Sprintf("value%d", i))))
		}
		require.NoError(t, db.Write(ctx, []byte("other"), []byte("x")))

		iter, err := db.Iterator(ctx, []byte("iter1"), []byte("iter4"))
		require.NoError(t, err)

		var keys []string
		for iter.Next() {
			keys = append(keys, string(iter.Key()))
			assert.Equal(t, "value"+string(iter.Key())[4:], string(iter.Value()))
		}
		require.NoError(t, iter.Error())
		require.NoError(t, iter.Close())

		assert.Equal(t, []string{"iter1", "iter2", "iter3"}, keys)
	})

	t.Run("Prefix iteration", func(t *testing.T) {
		db, err := manager.OpenDB("prefix")
		require.NoError(t, err)

		require.NoError(t, db.Write(ctx, []byte{0x01, 0xff}, []byte("a")))
		require.NoError(t, db.Write(ctx, []byte{0x01, 0x00}, []byte("b")))
		require.NoError(t, db.Write(ctx, []byte{0x02}, []byte("c")))

		prefix := []byte{0x01}
		iter, err := db.Iterator(ctx, prefix, keyValueDb.PrefixEnd(prefix))
		require.NoError(t, err)
		defer iter.Close()

		count := 0
		for iter.Next() {
			count++
		}
		assert.Equal(t, 2, count)
	})

	t.Run("Overwrite keeps one entry", func(t *testing.T) {
		db, err := manager.OpenDB("overwrite")
		require.NoError(t, err)

		require.NoError(t, db.Batch(ctx, []keyValueDb.BatchOperation{
			keyValueDb.Put([]byte("k"), []byte("1")),
			keyValueDb.Put([]byte("k"), []byte("2")),
			keyValueDb.Del([]byte("absent")),
		}))
		iter, err := db.Iterator(ctx, nil, nil)
		require.NoError(t, err)
		defer iter.Close()
		require.True(t, iter.Next())
		assert.Equal(t, []byte("2"), iter.Value())
		assert.False(t, iter.Next())
	})

	t.Run("Closed handle", func(t *testing.T) {
		db, err := manager.OpenDB("closing")
		require.NoError(t, err)
		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
		require.NoError(t, manager.CloseDB("closing"))

		_, err = db.Read(ctx, []byte("k"))
		assert.ErrorIs(t, err, keyValueDb.ErrDBClosed)
		assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), keyValueDb.ErrDBClosed)
		assert.ErrorIs(t, manager.CloseDB("closing"), keyValueDb.ErrUnknownDB)
	})

	t.Run("Name rules", func(t *testing.T) {
		for _, name := range []string{"", "../escape", "Upper", "a/b"} {
			_, err := manager.OpenDB(name)
			assert.ErrorIs(t, err, keyValueDb.ErrInvalidName, name)
		}
	})

	t.Run("Canceled context", func(t *testing.T) {
		db, err := manager.OpenDB("canceled")
		require.NoError(t, err)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, db.Write(canceled, []byte("k"), []byte("v")))
	})
}
