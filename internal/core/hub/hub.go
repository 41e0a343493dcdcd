// Package hub reads the liquid staking hub's state, which carries the
// exchange rate the scaling factors follow.
package hub

import (
	"context"
	"errors"

	"github.com/LeJamon/goScalingd/internal/core/decimal"
)

//go:generate mockgen -destination=mock_querier.go -package=hub . Querier

var (
	// ErrQueryFailed is returned when the hub could not be reached or
	// answered with an error
	ErrQueryFailed = errors.New("hub query failed")

	// ErrMalformedResponse is returned when the hub's answer lacks a usable
	// exchange rate
	ErrMalformedResponse = errors.New("malformed hub response")
)

// StateResponse is the subset of the hub's `state` answer that is consumed.
type StateResponse struct {
	TotalStake   string          `json:"total_ustake"`
	TotalUtoken  string          `json:"total_utoken"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

// Querier issues the `{"state":{}}` smart query against a hub contract.
type Querier interface {
	QueryState(ctx context.Context, hub string) (StateResponse, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, hub string) (StateResponse, error)

func (f QuerierFunc) QueryState(ctx context.Context, hub string) (StateResponse, error) {
	return f(ctx, hub)
}

// Static answers every query with rate. Used for dry runs.
func Static(rate decimal.Decimal) Querier {
	return QuerierFunc(func(context.Context, string) (StateResponse, error) {
		return StateResponse{ExchangeRate: rate}, nil
	})
}
