package decimal

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	tests := []struct {
		in      string
		atomics string
		out     string
	}{
		{in: "1.19234", atomics: "1192340000000000000", out: "1.19234"},
		{in: "1.192342342456", atomics: "1192342342456000000", out: "1.192342342456"},
		{in: "18446744073.709551615", atomics: "18446744073709551615000000000", out: "18446744073.709551615"},
		{in: "0", atomics: "0", out: "0"},
		{in: "007.500", atomics: "7500000000000000000", out: "7.5"},
		{in: "0.000000000000000001", atomics: "1", out: "0.000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := FromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.atomics, d.Numerator().String())
			assert.Equal(t, "1000000000000000000", d.Denominator().String())
			assert.Equal(t, tt.out, d.String())
		})
	}
}

func TestFromStringRejects(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{in: "", wantErr: ErrInvalidDecimal},
		{in: "-1", wantErr: ErrInvalidDecimal},
		{in: "+1", wantErr: ErrInvalidDecimal},
		{in: ".5", wantErr: ErrInvalidDecimal},
		{in: "1.", wantErr: ErrInvalidDecimal},
		{in: "1.2.3", wantErr: ErrInvalidDecimal},
		{in: "1e5", wantErr: ErrInvalidDecimal},
		{in: "0.0000000000000000001", wantErr: ErrTooManyFractionalDigits},
		{in: "340282366920938463463.374607431768211456", wantErr: ErrDecimalOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := FromString(tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMax(t *testing.T) {
	max := Max()
	assert.Equal(t, "340282366920938463463.374607431768211455", max.String())

	parsed, err := FromString(max.String())
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Cmp(max))

	// Mutating the returned numerator must not change the constant.
	max.Numerator().SetInt64(0)
	assert.Equal(t, "340282366920938463463.374607431768211455", Max().String())
}

func TestFromAtomics(t *testing.T) {
	d, err := FromAtomics(big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "0.000000000000000001", d.String())

	_, err = FromAtomics(big.NewInt(-1))
	require.ErrorIs(t, err, ErrInvalidDecimal)

	_, err = FromAtomics(nil)
	require.ErrorIs(t, err, ErrInvalidDecimal)
}

func TestZeroValue(t *testing.T) {
	var d Decimal
	assert.True(t, d.IsZero())
	assert.Equal(t, "0", d.String())
	assert.Equal(t, 0, d.Numerator().Sign())
	assert.Equal(t, 1, One().Cmp(d))
}

func TestJSON(t *testing.T) {
	var payload struct {
		ExchangeRate Decimal `json:"exchange_rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"exchange_rate":"1.0843"}`), &payload))
	assert.Equal(t, "1.0843", payload.ExchangeRate.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exchange_rate":"1.0843"}`, string(out))

	err = json.Unmarshal([]byte(`{"exchange_rate":1.0843}`), &payload)
	require.ErrorIs(t, err, ErrInvalidDecimal)
}
