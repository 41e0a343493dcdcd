package pebble

import (
	"bytes"
	"context"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

// DB is a keyValueDb.DB over one pebble instance. Every write is synced;
// the host commits one batch per call.
type DB struct {
	gate keyValueDb.Gate
	db   *pebble.DB
}

func (d *DB) close() error {
	return d.gate.Shut(d.db.Close)
}

func (d *DB) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.gate.Enter()
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if err := d.enter(ctx); err != nil {
		return nil, err
	}
	defer d.gate.Leave()

	val, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, keyValueDb.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return bytes.Clone(val), nil
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	return d.Batch(ctx, []keyValueDb.BatchOperation{keyValueDb.Put(key, value)})
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	return d.Batch(ctx, []keyValueDb.BatchOperation{keyValueDb.Del(key)})
}

func (d *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	if err := keyValueDb.CheckOps(ops); err != nil {
		return err
	}
	if err := d.enter(ctx); err != nil {
		return err
	}
	defer d.gate.Leave()

	batch := d.db.NewBatch()
	defer batch.Close()
	for _, op := range ops {
		var err error
		if op.Type == keyValueDb.BatchPut {
			err = batch.Set(op.Key, op.Value, nil)
		} else {
			err = batch.Delete(op.Key, nil)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	if err := d.enter(ctx); err != nil {
		return nil, err
	}
	defer d.gate.Leave()

	iter, err := d.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &iterator{iter: iter, ctx: ctx}, nil
}

// iterator copies each entry out of pebble's buffers and stops early when
// its context ends.
type iterator struct {
	iter       *pebble.Iterator
	ctx        context.Context
	positioned bool
	key, value []byte
	err        error
}

func (it *iterator) Next() bool {
	if it.err = it.ctx.Err(); it.err != nil {
		return false
	}
	if it.positioned {
		it.iter.Next()
	} else {
		it.iter.First()
		it.positioned = true
	}
	if !it.iter.Valid() {
		it.key, it.value = nil, nil
		return false
	}
	it.key = bytes.Clone(it.iter.Key())
	it.value = bytes.Clone(it.iter.Value())
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }

func (it *iterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.iter.Error()
}

func (it *iterator) Close() error { return it.iter.Close() }
