package keyValueDb

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Opener builds a Manager rooted at path.
type Opener func(path string) (Manager, error)

var openers = map[string]Opener{}

// RegisterBackend makes a backend available to Open. Backends register
// themselves from init.
func RegisterBackend(name string, opener Opener) {
	openers[strings.ToLower(name)] = opener
}

// Open returns a Manager for the named backend.
func Open(backend, path string) (Manager, error) {
	opener, ok := openers[strings.ToLower(backend)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return opener(path)
}
