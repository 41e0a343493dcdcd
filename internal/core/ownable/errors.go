package ownable

import "errors"

var (
	ErrNoOwner           = errors.New("contract ownership has been renounced")
	ErrNotOwner          = errors.New("caller is not the contract's current owner")
	ErrTransferNotFound  = errors.New("contract ownership transfer not found")
	ErrNotPendingOwner   = errors.New("caller is not the contract's pending owner")
	ErrTransferExpired   = errors.New("contract ownership transfer has expired")
	ErrInvalidExpiration = errors.New("expiration is already expired")
)
