package host

import "errors"

var (
	// ErrContractExists is returned when an instantiation derives an address
	// that is already registered
	ErrContractExists = errors.New("contract already exists")

	// ErrContractNotFound is returned for calls to an unregistered address
	ErrContractNotFound = errors.New("contract not found")

	// ErrNotAdmin is returned when someone other than the admin migrates
	ErrNotAdmin = errors.New("sender is not the contract admin")

	// ErrInvalidSender is returned when the caller address does not decode
	ErrInvalidSender = errors.New("invalid sender")

	// ErrInvalidEnvelope is returned for malformed signed calls
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrRejectedMessage is returned when a contract emits a message that
	// fails stateless validation
	ErrRejectedMessage = errors.New("emitted message rejected")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("host is closed")
)
