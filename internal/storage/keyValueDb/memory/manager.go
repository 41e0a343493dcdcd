package memory

import (
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

// Manager keeps named in-memory databases until they are closed.
type Manager struct {
	dbs *keyValueDb.Catalog[*DB]
}

func NewManager() *Manager {
	return &Manager{dbs: keyValueDb.NewCatalog(func(db *DB) error {
		db.close()
		return nil
	})}
}

func (m *Manager) OpenDB(name string) (keyValueDb.DB, error) {
	return m.dbs.Open(name, func() (*DB, error) { return NewDB(), nil })
}

func (m *Manager) CloseDB(name string) error { return m.dbs.Close(name) }

func (m *Manager) Close() error { return m.dbs.CloseAll() }
