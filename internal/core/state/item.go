package state

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
)

var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

// Encode serialises v in canonical CBOR. Struct fields are named by their
// `codec` tags.
func Encode(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte, v any) error {
	return codec.NewDecoderBytes(data, cborHandle).Decode(v)
}

// Item is a typed singleton stored under one keylet.
type Item[T any] struct {
	key keylet.Keylet
}

// NewItem binds T to k.
func NewItem[T any](k keylet.Keylet) Item[T] {
	return Item[T]{key: k}
}

// Keylet returns where the item lives.
func (i Item[T]) Keylet() keylet.Keylet {
	return i.key
}

// Load returns the stored value or ErrNotFound.
func (i Item[T]) Load(v Base) (T, error) {
	var out T
	data, err := v.Read(i.key)
	if err != nil {
		return out, err
	}
	if data == nil {
		return out, fmt.Errorf("%s: %w", i.key.Type, ErrNotFound)
	}
	if err := Decode(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", i.key.Type, err)
	}
	return out, nil
}

// MayLoad returns nil when nothing is stored.
func (i Item[T]) MayLoad(v Base) (*T, error) {
	data, err := v.Read(i.key)
	if err != nil || data == nil {
		return nil, err
	}
	out := new(T)
	if err := Decode(data, out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", i.key.Type, err)
	}
	return out, nil
}

// Save writes val, creating the entry if needed.
func (i Item[T]) Save(v View, val T) error {
	data, err := Encode(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", i.key.Type, err)
	}
	return Put(v, i.key, data)
}

// Update loads the current value, applies fn and saves the result.
func (i Item[T]) Update(v View, fn func(T) (T, error)) (T, error) {
	cur, err := i.Load(v)
	if err != nil {
		return cur, err
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	return next, i.Save(v, next)
}

// Remove erases the entry.
func (i Item[T]) Remove(v View) error {
	return v.Erase(i.key)
}
