package state

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
)

// Action represents the type of modification to an entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents an entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // nil for inserts
	Current  []byte
}

// Change is one net write produced by a Table.
type Change struct {
	Key   [32]byte
	Data  []byte
	Erase bool
}

// Table stages reads and writes over a Base. Nothing reaches the base until
// the caller commits Changes(); dropping the table discards everything.
type Table struct {
	base  Base
	items map[[32]byte]*TrackedEntry
}

// NewTable creates a new Table wrapping the given base view
func NewTable(base Base) *Table {
	return &Table{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads an entry, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return fmt.Errorf("%s: %w", k.Type, ErrEntryExists)
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", k.Type, ErrEntryExists)
	}

	t.items[k.Key] = &TrackedEntry{Action: ActionInsert, Current: data}
	return nil
}

// Update modifies an existing entry
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%s: %w", k.Type, ErrEntryDeleted)
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		// An insert stays an insert with new data
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%s: %w", k.Type, ErrNotFound)
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *Table) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%s: %w", k.Type, ErrEntryDeleted)
		}
		if entry.Action == ActionInsert {
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%s: %w", k.Type, ErrNotFound)
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// Changes returns the net writes in key order. Modifies that restore the
// original bytes are dropped.
func (t *Table) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for key, entry := range t.items {
		switch entry.Action {
		case ActionCache:
			continue
		case ActionModify:
			if bytes.Equal(entry.Original, entry.Current) {
				continue
			}
			changes = append(changes, Change{Key: key, Data: entry.Current})
		case ActionInsert:
			changes = append(changes, Change{Key: key, Data: entry.Current})
		case ActionErase:
			changes = append(changes, Change{Key: key, Erase: true})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].Key[:], changes[j].Key[:]) < 0
	})
	return changes
}
