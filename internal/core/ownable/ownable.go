// Package ownable is a single-owner gate with a two-step transfer: the owner
// proposes, the pending owner accepts before the proposal expires.
package ownable

import (
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/core/state"
	"github.com/LeJamon/goScalingd/internal/core/vm"
)

// Ownership is the stored record.
type Ownership struct {
	Owner         *string     `codec:"owner" json:"owner"`
	PendingOwner  *string     `codec:"pending_owner" json:"pending_owner"`
	PendingExpiry *Expiration `codec:"pending_expiry" json:"pending_expiry"`
}

var ownership = state.NewItem[Ownership](keylet.Ownership())

// Initialize validates owner and stores it with no pending transfer.
func Initialize(v state.View, api vm.API, owner string) (Ownership, error) {
	addr, err := api.AddrValidate(owner)
	if err != nil {
		return Ownership{}, err
	}
	o := Ownership{Owner: &addr}
	return o, ownership.Save(v, o)
}

// Get returns the stored record, or an empty one before Initialize.
func Get(v state.Base) (Ownership, error) {
	o, err := ownership.MayLoad(v)
	if err != nil || o == nil {
		return Ownership{}, err
	}
	return *o, nil
}

// AssertOwner fails unless sender is the current owner.
func AssertOwner(v state.Base, sender string) error {
	o, err := Get(v)
	if err != nil {
		return err
	}
	return o.assertOwner(sender)
}

func (o Ownership) assertOwner(sender string) error {
	if o.Owner == nil {
		return ErrNoOwner
	}
	if *o.Owner != sender {
		return ErrNotOwner
	}
	return nil
}

// Update applies action on behalf of sender and returns the new record.
func Update(v state.View, api vm.API, block vm.BlockInfo, sender string, action Action) (Ownership, error) {
	o, err := Get(v)
	if err != nil {
		return o, err
	}

	switch {
	case action.TransferOwnership != nil:
		o, err = o.transfer(api, block, sender, *action.TransferOwnership)
	case action.AcceptOwnership:
		o, err = o.accept(block, sender)
	case action.RenounceOwnership:
		o, err = o.renounce(sender)
	default:
		return o, fmt.Errorf("empty ownership action")
	}
	if err != nil {
		return o, err
	}
	if o.Owner == nil && o.PendingOwner == nil {
		// Renounced: Get reports the same empty record for a missing slot.
		return o, ownership.Remove(v)
	}
	return o, ownership.Save(v, o)
}

func (o Ownership) transfer(api vm.API, block vm.BlockInfo, sender string, t Transfer) (Ownership, error) {
	if err := o.assertOwner(sender); err != nil {
		return o, err
	}
	newOwner, err := api.AddrValidate(t.NewOwner)
	if err != nil {
		return o, err
	}
	if t.Expiry.IsExpired(block) {
		return o, ErrInvalidExpiration
	}
	o.PendingOwner = &newOwner
	o.PendingExpiry = t.Expiry
	return o, nil
}

func (o Ownership) accept(block vm.BlockInfo, sender string) (Ownership, error) {
	if o.PendingOwner == nil {
		return o, ErrTransferNotFound
	}
	if *o.PendingOwner != sender {
		return o, ErrNotPendingOwner
	}
	if o.PendingExpiry.IsExpired(block) {
		return o, ErrTransferExpired
	}
	return Ownership{Owner: o.PendingOwner}, nil
}

func (o Ownership) renounce(sender string) (Ownership, error) {
	if err := o.assertOwner(sender); err != nil {
		return o, err
	}
	return Ownership{}, nil
}
