package keyValueDb

import "errors"

var (
	ErrDBClosed    = errors.New("keyValueDb: database closed")
	ErrKeyNotFound = errors.New("keyValueDb: key not found")

	// ErrUnknownBackend is returned by Open for an unregistered backend name.
	ErrUnknownBackend = errors.New("keyValueDb: unknown backend")
	ErrUnknownDB      = errors.New("keyValueDb: database not open")
	ErrInvalidName    = errors.New("keyValueDb: invalid database name")
	ErrUnknownBatchOp = errors.New("keyValueDb: unknown batch operation")
)
