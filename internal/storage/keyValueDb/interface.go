// Package keyValueDb is the ordered byte store under the contract host.
// Backends (pebble, leveldb, memory) register with Open from init.
package keyValueDb

import (
	"context"
	"fmt"
)

// DB is one named ordered keyspace.
type DB interface {
	// Read returns ErrKeyNotFound for a missing key.
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies ops atomically, or none of them.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end) in ascending order. A nil bound is open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator yields copies; callers may keep Key and Value past Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

// Put and Del build batch operations.
func Put(key, value []byte) BatchOperation {
	return BatchOperation{Type: BatchPut, Key: key, Value: value}
}

func Del(key []byte) BatchOperation {
	return BatchOperation{Type: BatchDelete, Key: key}
}

// CheckOps rejects a batch holding an unknown operation before any of it
// is applied.
func CheckOps(ops []BatchOperation) error {
	for i, op := range ops {
		if op.Type != BatchPut && op.Type != BatchDelete {
			return fmt.Errorf("%w: op %d has type %d", ErrUnknownBatchOp, i, op.Type)
		}
	}
	return nil
}

// Manager owns the named databases of one store.
type Manager interface {
	OpenDB(name string) (DB, error)
	// CloseDB returns ErrUnknownDB when name is not open.
	CloseDB(name string) error
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
