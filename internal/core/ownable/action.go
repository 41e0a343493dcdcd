package ownable

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	actionTransfer = "transfer_ownership"
	actionAccept   = "accept_ownership"
	actionRenounce = "renounce_ownership"
)

// Transfer proposes a new owner. Expiry nil means the proposal never expires.
type Transfer struct {
	NewOwner string      `json:"new_owner"`
	Expiry   *Expiration `json:"expiry"`
}

// Action is one step of the ownership handshake. Exactly one field is set.
type Action struct {
	TransferOwnership *Transfer
	AcceptOwnership   bool
	RenounceOwnership bool
}

func TransferOwnership(newOwner string, expiry *Expiration) Action {
	return Action{TransferOwnership: &Transfer{NewOwner: newOwner, Expiry: expiry}}
}

func AcceptOwnership() Action   { return Action{AcceptOwnership: true} }
func RenounceOwnership() Action { return Action{RenounceOwnership: true} }

// MarshalJSON renders unit actions as bare strings.
func (a Action) MarshalJSON() ([]byte, error) {
	switch {
	case a.TransferOwnership != nil:
		return json.Marshal(map[string]*Transfer{actionTransfer: a.TransferOwnership})
	case a.AcceptOwnership:
		return json.Marshal(actionAccept)
	case a.RenounceOwnership:
		return json.Marshal(actionRenounce)
	default:
		return nil, errors.New("empty ownership action")
	}
}

func (a *Action) UnmarshalJSON(data []byte) error {
	*a = Action{}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case actionAccept:
			a.AcceptOwnership = true
		case actionRenounce:
			a.RenounceOwnership = true
		default:
			return fmt.Errorf("unknown ownership action %q", name)
		}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if len(obj) != 1 {
		return errors.New("ownership action must have exactly one variant")
	}
	for key, raw := range obj {
		switch key {
		case actionTransfer:
			var t Transfer
			if err := json.Unmarshal(raw, &t); err != nil {
				return fmt.Errorf("%s: %w", actionTransfer, err)
			}
			a.TransferOwnership = &t
		case actionAccept:
			a.AcceptOwnership = true
		case actionRenounce:
			a.RenounceOwnership = true
		default:
			return fmt.Errorf("unknown ownership action %q", key)
		}
	}
	return nil
}
