// Package compression stores keyValueDb values behind a one-byte codec tag.
// The tag, not the configured compressor, decides how a value is read back,
// so the setting can change between runs.
package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Compressor is one block compression algorithm.
type Compressor interface {
	Name() string
	// Tag identifies the algorithm on disk. Tags are never reused.
	Tag() byte
	Compress(data []byte) ([]byte, error)
	// Decompress must reject a size data cannot expand to before
	// allocating it.
	Decompress(data []byte, size int) ([]byte, error)
}

var (
	ErrUnknownCompressor = errors.New("unknown compressor")
	ErrCorruptValue      = errors.New("corrupt compressed value")
)

var (
	mu     sync.RWMutex
	byName = make(map[string]Compressor)
	byTag  = make(map[byte]Compressor)
)

// Register makes a compressor available to Get and to decoding.
func Register(c Compressor) {
	mu.Lock()
	defer mu.Unlock()
	byName[c.Name()] = c
	byTag[c.Tag()] = c
}

// Get returns the compressor registered under name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompressor, name)
	}
	return c, nil
}

// Available returns the registered names, sorted.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(None{})
	Register(LZ4{})
}

// Encode frames value as tag || uvarint(len(value)) || payload. Values the
// compressor cannot shrink are stored raw.
func Encode(c Compressor, value []byte) ([]byte, error) {
	if c.Tag() != tagNone && len(value) > 0 {
		packed, err := c.Compress(value)
		if err != nil {
			return nil, err
		}
		if len(packed) > 0 && len(packed) < len(value) {
			out := make([]byte, 0, 1+binary.MaxVarintLen64+len(packed))
			out = append(out, c.Tag())
			out = binary.AppendUvarint(out, uint64(len(value)))
			return append(out, packed...), nil
		}
	}
	out := make([]byte, 0, 1+len(value))
	out = append(out, tagNone)
	return append(out, value...), nil
}

// Decode reverses Encode. Every malformed frame, including one with an
// unregistered tag, fails with ErrCorruptValue.
func Decode(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorruptValue)
	}
	if stored[0] == tagNone {
		return stored[1:], nil
	}

	mu.RLock()
	c, ok := byTag[stored[0]]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w: tag %d", ErrCorruptValue, ErrUnknownCompressor, stored[0])
	}
	size, n := binary.Uvarint(stored[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length", ErrCorruptValue)
	}
	if size > math.MaxInt32 {
		return nil, fmt.Errorf("%w: length %d out of range", ErrCorruptValue, size)
	}
	value, err := c.Decompress(stored[1+n:], int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return value, nil
}
