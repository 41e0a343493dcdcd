package contract

import (
	"errors"

	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/core/scaling"
)

var (
	// ErrValidation covers inputs rejected before any state write
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized is returned when the sender may not perform the action
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotSupported is returned for an action dispatched to the wrong handler
	ErrNotSupported = errors.New("not supported")

	// ErrExternalQuery is returned when the hub query fails
	ErrExternalQuery = errors.New("external query failed")

	// ErrInvalidMsg is returned when a message does not decode
	ErrInvalidMsg = errors.New("invalid message")
)

// Error kinds reported by Kind.
const (
	KindValidation   = "validation"
	KindOverflow     = "overflow"
	KindUnauthorized = "unauthorized"
	KindNotSupported = "not_supported"
	KindQuery        = "external_query"
	KindInternal     = "internal"
)

// Kind classifies an entry point error. Nil is reported as "".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidMsg):
		return KindValidation
	case errors.Is(err, scaling.ErrOverflow):
		return KindOverflow
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	case errors.Is(err, ErrExternalQuery), errors.Is(err, hub.ErrQueryFailed), errors.Is(err, hub.ErrMalformedResponse):
		return KindQuery
	default:
		return KindInternal
	}
}
