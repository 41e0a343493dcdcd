package compression

import (
	"fmt"

	"github.com/pierrec/lz4"
)

const (
	tagNone byte = 0
	tagLZ4  byte = 1
)

// None stores values as they are.
type None struct{}

func (None) Name() string { return "none" }
func (None) Tag() byte    { return tagNone }

func (None) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (None) Decompress(data []byte, _ int) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// LZ4 uses raw LZ4 blocks. The uncompressed size travels in the frame.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }
func (LZ4) Tag() byte    { return tagLZ4 }

func (LZ4) Compress(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	return dst[:n], nil
}

// maxLZ4Expansion bounds what n bytes of LZ4 block can decode to: each
// byte yields at most 255 more.
func maxLZ4Expansion(n int) int { return n*255 + 16 }

func (LZ4) Decompress(data []byte, size int) ([]byte, error) {
	if size < 0 || size > maxLZ4Expansion(len(data)) {
		return nil, fmt.Errorf("lz4 block of %d bytes cannot hold %d", len(data), size)
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompressed %d bytes, expected %d", n, size)
	}
	return dst, nil
}
