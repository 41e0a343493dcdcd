package keyValueDb

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// validName keeps database names usable as file names on every backend.
var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// Catalog is the name bookkeeping shared by Manager implementations: it
// opens each database once, hands the same handle back on later opens and
// refuses new opens once closed.
type Catalog[T any] struct {
	mu     sync.Mutex
	open   map[string]T
	closed bool
	shut   func(T) error
}

// NewCatalog returns a Catalog that releases databases with shut.
func NewCatalog[T any](shut func(T) error) *Catalog[T] {
	return &Catalog[T]{open: make(map[string]T), shut: shut}
}

// Open returns the database called name, creating it on first use.
func (c *Catalog[T]) Open(name string, create func() (T, error)) (T, error) {
	var zero T
	if !validName.MatchString(name) {
		return zero, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return zero, ErrDBClosed
	}
	if db, ok := c.open[name]; ok {
		return db, nil
	}
	db, err := create()
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", name, err)
	}
	c.open[name] = db
	return db, nil
}

// Close releases one database. Handles to it fail with ErrDBClosed.
func (c *Catalog[T]) Close(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	db, ok := c.open[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDB, name)
	}
	delete(c.open, name)
	return c.shut(db)
}

// CloseAll releases every database and closes the catalog.
func (c *Catalog[T]) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true

	var errs []error
	for _, name := range c.names() {
		if err := c.shut(c.open[name]); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(c.open, name)
	}
	return errors.Join(errs...)
}

// names lists the open databases in order. The caller holds mu.
func (c *Catalog[T]) names() []string {
	names := make([]string, 0, len(c.open))
	for name := range c.open {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gate guards a backend handle against use after close. Operations hold
// it shared, so Shut waits for those in flight.
type Gate struct {
	mu     sync.RWMutex
	closed bool
}

// Enter admits an operation; Leave must follow unless it returns an error.
func (g *Gate) Enter() error {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return ErrDBClosed
	}
	return nil
}

func (g *Gate) Leave() { g.mu.RUnlock() }

// Shut marks the gate closed and runs release once.
func (g *Gate) Shut(release func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return release()
}
