// Package version stamps the contract name and version into storage so
// that migrations can tell what they are upgrading from.
package version

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/core/state"
)

// ErrWrongContract is returned when a migration targets storage written by
// another contract.
var ErrWrongContract = errors.New("stored contract name does not match")

// ContractVersion is the stored stamp.
type ContractVersion struct {
	Contract string `codec:"contract" json:"contract"`
	Version  string `codec:"version" json:"version"`
}

var stamp = state.NewItem[ContractVersion](keylet.ContractInfo())

// Set writes the stamp, replacing any previous one.
func Set(v state.View, contract, version string) error {
	return stamp.Save(v, ContractVersion{Contract: contract, Version: version})
}

// Get reads the stamp.
func Get(v state.Base) (ContractVersion, error) {
	return stamp.Load(v)
}

// AssertContract fails unless the stored stamp names contract.
func AssertContract(v state.Base, contract string) error {
	cur, err := Get(v)
	if err != nil {
		return err
	}
	if cur.Contract != contract {
		return fmt.Errorf("%w: stored %q, expected %q", ErrWrongContract, cur.Contract, contract)
	}
	return nil
}
