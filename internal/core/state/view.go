// Package state holds contract storage: the View a contract reads and writes
// through, the Table that stages writes until the host commits them, and
// typed singleton items encoded with CBOR.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

// Base is the read side of a view. Read returns nil, nil for absent entries.
type Base interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
}

// View is what contract code is handed for storage access.
type View interface {
	Base
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Put inserts or updates depending on whether k is already present.
func Put(v View, k keylet.Keylet, data []byte) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// DBView is a read-only Base over one namespace of a keyValueDb.
type DBView struct {
	ctx    context.Context
	db     keyValueDb.DB
	prefix []byte
}

// NewDBView reads keys of the form prefix || keylet.Key from db.
func NewDBView(ctx context.Context, db keyValueDb.DB, prefix []byte) *DBView {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &DBView{ctx: ctx, db: db, prefix: p}
}

// StorageKey returns the database key backing k.
func (v *DBView) StorageKey(key [32]byte) []byte {
	out := make([]byte, 0, len(v.prefix)+len(key))
	out = append(out, v.prefix...)
	return append(out, key[:]...)
}

func (v *DBView) Read(k keylet.Keylet) ([]byte, error) {
	data, err := v.db.Read(v.ctx, v.StorageKey(k.Key))
	if errors.Is(err, keyValueDb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k.Type, err)
	}
	return data, nil
}

func (v *DBView) Exists(k keylet.Keylet) (bool, error) {
	data, err := v.Read(k)
	return data != nil, err
}

// BatchOps translates staged changes into database operations.
func (v *DBView) BatchOps(changes []Change) []keyValueDb.BatchOperation {
	ops := make([]keyValueDb.BatchOperation, 0, len(changes))
	for _, c := range changes {
		if c.Erase {
			ops = append(ops, keyValueDb.Del(v.StorageKey(c.Key)))
		} else {
			ops = append(ops, keyValueDb.Put(v.StorageKey(c.Key), c.Data))
		}
	}
	return ops
}

// ReadOnly wraps a Base so that every write fails. Queries run against it.
type ReadOnly struct {
	Base
}

func (ReadOnly) Insert(keylet.Keylet, []byte) error { return ErrReadOnly }
func (ReadOnly) Update(keylet.Keylet, []byte) error { return ErrReadOnly }
func (ReadOnly) Erase(keylet.Keylet) error          { return ErrReadOnly }
