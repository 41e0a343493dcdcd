// Package contract recalibrates a stableswap pool's scaling factors from a
// liquid staking hub's exchange rate.
package contract

import (
	"encoding/json"
	"fmt"

	"github.com/LeJamon/goScalingd/internal/core/ownable"
	"github.com/LeJamon/goScalingd/internal/core/scaling"
	"github.com/LeJamon/goScalingd/internal/core/stableswap"
	"github.com/LeJamon/goScalingd/internal/core/version"
	"github.com/LeJamon/goScalingd/internal/core/vm"
)

const (
	ContractName    = "eris-update-scaling-factor"
	ContractVersion = "1.1.0"
)

// Instantiate stamps the version, records the owner and writes Config.
func Instantiate(deps vm.Deps, _ vm.Env, _ vm.MessageInfo, msg InstantiateMsg) (*vm.Response, error) {
	if err := validateDecimals(msg.Decimals); err != nil {
		return nil, err
	}
	if err := version.Set(deps.Storage, ContractName, ContractVersion); err != nil {
		return nil, err
	}
	if _, err := ownable.Initialize(deps.Storage, deps.API, msg.Owner); err != nil {
		return nil, fmt.Errorf("%w: owner: %w", ErrValidation, err)
	}
	if _, err := initializeConfig(deps.Storage, deps.API, msg); err != nil {
		return nil, err
	}
	return vm.NewResponse(), nil
}

// Execute dispatches on the single action set in msg.
func Execute(deps vm.Deps, env vm.Env, info vm.MessageInfo, msg ExecuteMsg) (*vm.Response, error) {
	if msg.variants() != 1 {
		return nil, ErrNotSupported
	}

	switch {
	case msg.UpdateOwnership != nil:
		if _, err := ownable.Update(deps.Storage, deps.API, env.Block, info.Sender, *msg.UpdateOwnership); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return vm.NewResponse().AddAttribute("action", "update_ownership"), nil
	case msg.UpdateScalingFactor != nil:
		return updateScalingFactor(deps, env)
	default:
		return updateConfig(deps, info, msg)
	}
}

func updateScalingFactor(deps vm.Deps, env vm.Env) (*vm.Response, error) {
	cfg, err := loadConfig(deps.Storage)
	if err != nil {
		return nil, err
	}

	st, err := deps.Querier.QueryState(deps.Ctx, cfg.Hub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalQuery, err)
	}
	rate := st.ExchangeRate

	var factors scaling.Factors
	if cfg.ScaleFirst {
		factors, err = scaling.DeriveFactors(rate.Numerator(), rate.Denominator(), cfg.Decimals)
	} else {
		factors, err = scaling.DeriveFactors(rate.Denominator(), rate.Numerator(), cfg.Decimals)
	}
	if err != nil {
		return nil, err
	}

	msg := &stableswap.MsgStableSwapAdjustScalingFactors{
		Sender:         env.Contract.Address,
		PoolID:         cfg.PoolID,
		ScalingFactors: factors.Slice(),
	}

	return vm.NewResponse().
		AddAttribute("action", "update_scaling_factor").
		AddAttribute("factors", factors.String()).
		AddMessage(msg.ToAny()), nil
}

func updateConfig(deps vm.Deps, info vm.MessageInfo, msg ExecuteMsg) (*vm.Response, error) {
	if msg.UpdateConfig == nil {
		return nil, ErrNotSupported
	}
	if err := ownable.AssertOwner(deps.Storage, info.Sender); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	_, err := config.Update(deps.Storage, func(cfg Config) (Config, error) {
		return applyPartialUpdate(deps.API, cfg, *msg.UpdateConfig)
	})
	if err != nil {
		return nil, err
	}
	return vm.NewResponse().AddAttribute("action", "update_config"), nil
}

// Query answers config and ownership reads as JSON.
func Query(deps vm.Deps, _ vm.Env, msg QueryMsg) ([]byte, error) {
	switch {
	case msg.Config != nil && msg.Ownership == nil:
		cfg, err := loadConfig(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cfg)
	case msg.Ownership != nil && msg.Config == nil:
		o, err := ownable.Get(deps.Storage)
		if err != nil {
			return nil, err
		}
		return json.Marshal(o)
	default:
		return nil, ErrNotSupported
	}
}

// Migrate re-stamps the version. Storage written by another contract is
// refused.
func Migrate(deps vm.Deps, _ vm.Env, _ MigrateMsg) (*vm.Response, error) {
	if err := version.AssertContract(deps.Storage, ContractName); err != nil {
		return nil, err
	}
	if err := version.Set(deps.Storage, ContractName, ContractVersion); err != nil {
		return nil, err
	}
	return vm.NewResponse().
		AddAttribute("new_contract_name", ContractName).
		AddAttribute("new_contract_version", ContractVersion), nil
}

// Entrypoints adapts the typed entry points to vm.Contract.
type Entrypoints struct{}

var _ vm.Contract = Entrypoints{}

func (Entrypoints) Instantiate(deps vm.Deps, env vm.Env, info vm.MessageInfo, raw []byte) (*vm.Response, error) {
	var msg InstantiateMsg
	if err := decodeStrict(raw, &msg); err != nil {
		return nil, err
	}
	return Instantiate(deps, env, info, msg)
}

func (Entrypoints) Execute(deps vm.Deps, env vm.Env, info vm.MessageInfo, raw []byte) (*vm.Response, error) {
	var msg ExecuteMsg
	if err := decodeStrict(raw, &msg); err != nil {
		return nil, err
	}
	return Execute(deps, env, info, msg)
}

func (Entrypoints) Query(deps vm.Deps, env vm.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if err := decodeStrict(raw, &msg); err != nil {
		return nil, err
	}
	return Query(deps, env, msg)
}

func (Entrypoints) Migrate(deps vm.Deps, env vm.Env, raw []byte) (*vm.Response, error) {
	var msg MigrateMsg
	if err := decodeStrict(raw, &msg); err != nil {
		return nil, err
	}
	return Migrate(deps, env, msg)
}
