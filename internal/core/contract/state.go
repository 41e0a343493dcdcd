package contract

import (
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/core/scaling"
	"github.com/LeJamon/goScalingd/internal/core/state"
	"github.com/LeJamon/goScalingd/internal/core/vm"
)

// Config is the contract's operational record.
type Config struct {
	PoolID     uint64  `codec:"pool_id" json:"pool_id"`
	Hub        string  `codec:"hub" json:"hub"`
	ScaleFirst bool    `codec:"scale_first" json:"scale_first"`
	Decimals   *uint32 `codec:"decimals" json:"decimals"`
}

var config = state.NewItem[Config](keylet.Config())

func validateDecimals(decimals uint32) error {
	if err := scaling.ValidateDecimals(decimals); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func validateHub(api vm.API, hub string) (string, error) {
	addr, err := api.AddrValidate(hub)
	if err != nil {
		return "", fmt.Errorf("%w: hub: %w", ErrValidation, err)
	}
	return addr, nil
}

// initializeConfig validates msg and writes the first Config.
func initializeConfig(v state.View, api vm.API, msg InstantiateMsg) (Config, error) {
	if err := validateDecimals(msg.Decimals); err != nil {
		return Config{}, err
	}
	hub, err := validateHub(api, msg.Hub)
	if err != nil {
		return Config{}, err
	}

	decimals := msg.Decimals
	cfg := Config{
		PoolID:     msg.PoolID,
		Hub:        hub,
		ScaleFirst: msg.ScaleFirst,
		Decimals:   &decimals,
	}
	return cfg, config.Save(v, cfg)
}

func loadConfig(v state.Base) (Config, error) {
	return config.Load(v)
}

// applyPartialUpdate merges the set fields of upd over cfg.
func applyPartialUpdate(api vm.API, cfg Config, upd UpdateConfig) (Config, error) {
	if upd.PoolID != nil {
		cfg.PoolID = *upd.PoolID
	}
	if upd.ScaleFirst != nil {
		cfg.ScaleFirst = *upd.ScaleFirst
	}
	if upd.Hub != nil {
		hub, err := validateHub(api, *upd.Hub)
		if err != nil {
			return cfg, err
		}
		cfg.Hub = hub
	}
	if upd.Decimals != nil {
		if err := validateDecimals(*upd.Decimals); err != nil {
			return cfg, err
		}
		d := *upd.Decimals
		cfg.Decimals = &d
	}
	return cfg, nil
}
