package leveldb

import (
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

func init() {
	keyValueDb.RegisterBackend(keyValueDb.BackendLevelDB, func(path string) (keyValueDb.Manager, error) {
		return NewManager(path), nil
	})
}

// Manager opens leveldb databases as <root>/<name>.ldb.
type Manager struct {
	root string
	opts *opt.Options
	dbs  *keyValueDb.Catalog[*DB]
}

func NewManager(root string) *Manager {
	return &Manager{
		root: root,
		// Contract state is small; keep the table cache modest.
		opts: &opt.Options{OpenFilesCacheCapacity: 64},
		dbs:  keyValueDb.NewCatalog(func(db *DB) error { return db.close() }),
	}
}

func (m *Manager) OpenDB(name string) (keyValueDb.DB, error) {
	return m.dbs.Open(name, func() (*DB, error) {
		db, err := leveldb.OpenFile(filepath.Join(m.root, name+".ldb"), m.opts)
		if err != nil {
			return nil, err
		}
		return &DB{db: db}, nil
	})
}

func (m *Manager) CloseDB(name string) error { return m.dbs.Close(name) }

func (m *Manager) Close() error { return m.dbs.CloseAll() }
