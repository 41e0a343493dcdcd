package state

import "errors"

var (
	// ErrNotFound is returned when a typed item has never been saved
	ErrNotFound = errors.New("entry not found")

	// ErrEntryExists is returned when inserting over a live entry
	ErrEntryExists = errors.New("entry already exists")

	// ErrEntryDeleted is returned when touching an entry erased in the same table
	ErrEntryDeleted = errors.New("entry deleted")

	// ErrReadOnly is returned by views that do not accept writes
	ErrReadOnly = errors.New("view is read-only")
)
