// Package memory is the in-process keyValueDb backend used by tests and
// throwaway runs. Nothing survives the process.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

func init() {
	keyValueDb.RegisterBackend(keyValueDb.BackendMemory, func(string) (keyValueDb.Manager, error) {
		return NewManager(), nil
	})
}

type entry struct {
	key, value []byte
}

// DB keeps entries sorted by key so iteration is a slice walk.
type DB struct {
	mu      sync.RWMutex
	entries []entry
	closed  bool
}

func NewDB() *DB {
	return &DB{}
}

func (m *DB) find(key []byte) (int, bool) {
	return slices.BinarySearchFunc(m.entries, key, func(e entry, k []byte) int {
		return bytes.Compare(e.key, k)
	})
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, keyValueDb.ErrDBClosed
	}
	i, ok := m.find(key)
	if !ok {
		return nil, keyValueDb.ErrKeyNotFound
	}
	return bytes.Clone(m.entries[i].value), nil
}

func (m *DB) Write(ctx context.Context, key []byte, value []byte) error {
	return m.Batch(ctx, []keyValueDb.BatchOperation{keyValueDb.Put(key, value)})
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	return m.Batch(ctx, []keyValueDb.BatchOperation{keyValueDb.Del(key)})
}

func (m *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	if err := keyValueDb.CheckOps(ops); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return keyValueDb.ErrDBClosed
	}
	for _, op := range ops {
		i, ok := m.find(op.Key)
		switch {
		case op.Type == keyValueDb.BatchDelete && ok:
			m.entries = slices.Delete(m.entries, i, i+1)
		case op.Type == keyValueDb.BatchPut && ok:
			m.entries[i].value = bytes.Clone(op.Value)
		case op.Type == keyValueDb.BatchPut:
			m.entries = slices.Insert(m.entries, i, entry{key: bytes.Clone(op.Key), value: bytes.Clone(op.Value)})
		}
	}
	return nil
}

// Iterator walks a copy of [start, end) taken when it is created.
func (m *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, keyValueDb.ErrDBClosed
	}

	lo := 0
	if start != nil {
		lo, _ = m.find(start)
	}
	hi := len(m.entries)
	if end != nil {
		hi, _ = m.find(end)
	}
	if hi < lo {
		hi = lo
	}
	snapshot := make([]entry, hi-lo)
	for i, e := range m.entries[lo:hi] {
		snapshot[i] = entry{key: bytes.Clone(e.key), value: bytes.Clone(e.value)}
	}
	return &Iterator{entries: snapshot, pos: -1}, nil
}

func (m *DB) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
}

// Iterator implements keyValueDb.Iterator over a snapshot.
type Iterator struct {
	entries []entry
	pos     int
}

func (it *Iterator) Next() bool {
	if it.pos < len(it.entries) {
		it.pos++
	}
	return it.pos < len(it.entries)
}

func (it *Iterator) current() *entry {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return &it.entries[it.pos]
}

func (it *Iterator) Key() []byte {
	if e := it.current(); e != nil {
		return e.key
	}
	return nil
}

func (it *Iterator) Value() []byte {
	if e := it.current(); e != nil {
		return e.value
	}
	return nil
}

func (it *Iterator) Error() error { return nil }
func (it *Iterator) Close() error { return nil }
