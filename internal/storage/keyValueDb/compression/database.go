package compression

import (
	"context"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

// DB frames every value written to an underlying keyValueDb.DB.
type DB struct {
	inner      keyValueDb.DB
	compressor Compressor
}

// Wrap returns db with values compressed by c.
func Wrap(db keyValueDb.DB, c Compressor) *DB {
	return &DB{inner: db, compressor: c}
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	stored, err := d.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(stored)
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	framed, err := Encode(d.compressor, value)
	if err != nil {
		return err
	}
	return d.inner.Write(ctx, key, framed)
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	return d.inner.Delete(ctx, key)
}

// Batch frames put values; other operations pass through so the inner
// database still rejects unknown types.
func (d *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	framed := make([]keyValueDb.BatchOperation, len(ops))
	for i, op := range ops {
		framed[i] = op
		if op.Type != keyValueDb.BatchPut {
			continue
		}
		value, err := Encode(d.compressor, op.Value)
		if err != nil {
			return err
		}
		framed[i].Value = value
	}
	return d.inner.Batch(ctx, framed)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	it, err := d.inner.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &Iterator{inner: it}, nil
}

// Iterator decodes values as it goes and stops at the first corrupt one.
type Iterator struct {
	inner keyValueDb.Iterator
	value []byte
	err   error
}

func (it *Iterator) Next() bool {
	if it.err != nil || !it.inner.Next() {
		it.value = nil
		return false
	}
	it.value, it.err = Decode(it.inner.Value())
	return it.err == nil
}

func (it *Iterator) Key() []byte   { return it.inner.Key() }
func (it *Iterator) Value() []byte { return it.value }

func (it *Iterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.inner.Error()
}

func (it *Iterator) Close() error { return it.inner.Close() }

// Manager wraps every database a keyValueDb.Manager opens.
type Manager struct {
	keyValueDb.Manager
	compressor Compressor
}

// WrapManager returns m with values compressed by c.
func WrapManager(m keyValueDb.Manager, c Compressor) *Manager {
	return &Manager{Manager: m, compressor: c}
}

func (m *Manager) OpenDB(name string) (keyValueDb.DB, error) {
	db, err := m.Manager.OpenDB(name)
	if err != nil {
		return nil, err
	}
	return Wrap(db, m.compressor), nil
}
