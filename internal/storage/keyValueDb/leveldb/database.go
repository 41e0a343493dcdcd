// Package leveldb backs keyValueDb with syndtr/goleveldb.
package leveldb

import (
	"bytes"
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

var syncWrites = &opt.WriteOptions{Sync: true}

// DB is a keyValueDb.DB over one leveldb directory.
type DB struct {
	gate keyValueDb.Gate
	db   *leveldb.DB
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

	val, err := d.db.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, keyValueDb.ErrKeyNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return nil, keyValueDb.ErrDBClosed
	}
	return val, err
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

	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Type == keyValueDb.BatchPut {
			batch.Put(op.Key, op.Value)
		} else {
			batch.Delete(op.Key)
		}
	}
	return d.db.Write(batch, syncWrites)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	if err := d.enter(ctx); err != nil {
		return nil, err
	}
	defer d.gate.Leave()
	return &iter{it: d.db.NewIterator(&util.Range{Start: start, Limit: end}, nil), ctx: ctx}, nil
}

// iter copies entries out since goleveldb reuses its buffers between steps.
type iter struct {
	it         iterator.Iterator
	ctx        context.Context
	key, value []byte
	err        error
}

func (i *iter) Next() bool {
	if i.err = i.ctx.Err(); i.err != nil || !i.it.Next() {
		i.key, i.value = nil, nil
		return false
	}
	i.key = bytes.Clone(i.it.Key())
	i.value = bytes.Clone(i.it.Value())
	return true
}

func (i *iter) Key() []byte   { return i.key }
func (i *iter) Value() []byte { return i.value }

func (i *iter) Error() error {
	if i.err != nil {
		return i.err
	}
	return i.it.Error()
}

func (i *iter) Close() error {
	i.it.Release()
	return nil
}
