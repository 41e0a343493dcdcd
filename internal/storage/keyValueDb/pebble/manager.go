// Package pebble backs keyValueDb with cockroachdb/pebble, one pebble
// instance per named database under the store root.
package pebble

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

func init() {
	keyValueDb.RegisterBackend(keyValueDb.BackendPebble, func(path string) (keyValueDb.Manager, error) {
		return NewManager(path), nil
	})
}

// Manager opens pebble databases as <root>/<name>.db.
type Manager struct {
	root string
	dbs  *keyValueDb.Catalog[*DB]
}

func NewManager(root string) *Manager {
	return &Manager{
		root: root,
		dbs:  keyValueDb.NewCatalog(func(db *DB) error { return db.close() }),
	}
}

func (m *Manager) OpenDB(name string) (keyValueDb.DB, error) {
	return m.dbs.Open(name, func() (*DB, error) {
		if err := os.MkdirAll(m.root, 0o755); err != nil {
			return nil, err
		}
		db, err := pebble.Open(filepath.Join(m.root, name+".db"), &pebble.Options{})
		if err != nil {
			return nil, err
		}
		return &DB{db: db}, nil
	})
}

func (m *Manager) CloseDB(name string) error { return m.dbs.Close(name) }

func (m *Manager) Close() error { return m.dbs.CloseAll() }
