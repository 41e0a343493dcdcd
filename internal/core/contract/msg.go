package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ownable"
)

// InstantiateMsg creates the contract.
type InstantiateMsg struct {
	PoolID     uint64 `json:"pool_id"`
	ScaleFirst bool   `json:"scale_first"`
	Hub        string `json:"hub"`
	Owner      string `json:"owner"`
	Decimals   uint32 `json:"decimals"`
}

// ExecuteMsg carries exactly one action.
type ExecuteMsg struct {
	UpdateScalingFactor *UpdateScalingFactor `json:"update_scaling_factor,omitempty"`
	UpdateConfig        *UpdateConfig        `json:"update_config,omitempty"`
	UpdateOwnership     *ownable.Action      `json:"update_ownership,omitempty"`
}

// UpdateScalingFactor recalibrates the pool from the hub's exchange rate.
type UpdateScalingFactor struct{}

// UpdateConfig overwrites the fields that are set and leaves the rest.
type UpdateConfig struct {
	PoolID     *uint64 `json:"pool_id,omitempty"`
	Hub        *string `json:"hub,omitempty"`
	ScaleFirst *bool   `json:"scale_first,omitempty"`
	Decimals   *uint32 `json:"decimals,omitempty"`
}

func (m ExecuteMsg) variants() int {
	n := 0
	if m.UpdateScalingFactor != nil {
		n++
	}
	if m.UpdateConfig != nil {
		n++
	}
	if m.UpdateOwnership != nil {
		n++
	}
	return n
}

// QueryMsg carries exactly one query.
type QueryMsg struct {
	Config    *struct{} `json:"config,omitempty"`
	Ownership *struct{} `json:"ownership,omitempty"`
}

// MigrateMsg is empty; migrating only re-stamps the version.
type MigrateMsg struct{}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMsg, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidMsg)
	}
	return nil
}
