package relationaldb

import (
	"errors"
	"fmt"
)

// Config errors.
var (
	ErrMissingHost            = errors.New("journal: host is required")
	ErrMissingDatabase        = errors.New("journal: database is required")
	ErrMissingUsername        = errors.New("journal: username is required")
	ErrInvalidPort            = errors.New("journal: invalid port")
	ErrInvalidDriver          = errors.New("journal: invalid driver")
	ErrInvalidMaxOpenConns    = errors.New("journal: max_open_conns must be >= 0")
	ErrInvalidMaxIdleConns    = errors.New("journal: max_idle_conns must be >= 0")
	ErrMaxIdleExceedsMaxOpen  = errors.New("journal: max_idle_conns exceeds max_open_conns")
	ErrInvalidTimeout         = errors.New("journal: default_timeout must be positive")
	ErrInvalidConnMaxLifetime = errors.New("journal: conn_max_lifetime must be >= 0")
)

var (
	ErrDatabaseClosed = errors.New("journal: closed")
	ErrInvalidLimit   = errors.New("journal: invalid limit")
	ErrRunNotFound    = errors.New("journal: run not found")
)

// ErrorType says which stage of talking to the database failed.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeQuery
	ErrorTypeSchema
)

var errorTypeNames = [...]string{"unknown", "configuration", "connection", "query", "schema"}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return errorTypeNames[0]
	}
	return errorTypeNames[t]
}

// DatabaseError wraps a driver or config error with the journal operation
// it broke.
type DatabaseError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *DatabaseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("journal %s (%s): %s", e.Operation, e.Type, e.Message)
	}
	return fmt.Sprintf("journal %s (%s): %s: %v", e.Operation, e.Type, e.Message, e.Cause)
}

func (e *DatabaseError) Unwrap() error { return e.Cause }

func newError(t ErrorType) func(op, msg string, cause error) *DatabaseError {
	return func(op, msg string, cause error) *DatabaseError {
		return &DatabaseError{Type: t, Operation: op, Message: msg, Cause: cause}
	}
}

var (
	NewConfigurationError = newError(ErrorTypeConfiguration)
	NewConnectionError    = newError(ErrorTypeConnection)
	NewQueryError         = newError(ErrorTypeQuery)
	NewSchemaError        = newError(ErrorTypeSchema)
)

// IsErrorType reports whether err is a DatabaseError of type t.
func IsErrorType(err error, t ErrorType) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == t
}
