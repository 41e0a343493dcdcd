package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrKeyFileExists is returned by SaveFile when it would overwrite a key.
var ErrKeyFileExists = errors.New("key file already exists")

// LoadFile reads a hex private key written by SaveFile.
func LoadFile(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return FromPrivateKey(strings.TrimSpace(string(data)))
}

// SaveFile writes the private key to path, readable by the owner only. An
// existing file is never overwritten.
func (i *Identity) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.WriteString(i.PrivateKeyHex() + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return f.Close()
}
