package scaling

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goScalingd/internal/core/decimal"
)

func ptr(v uint32) *uint32 { return &v }

func TestDeriveFactors(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		decimals *uint32
		want     Factors
	}{
		{name: "plain rate", rate: "1.19234", decimals: ptr(9), want: Factors{1192340000, 1000000000}},
		{name: "cutoff after 9th position", rate: "1.192342342456", decimals: ptr(9), want: Factors{1192342342, 1000000000}},
		{name: "two decimals", rate: "1.192342342456", decimals: ptr(2), want: Factors{119, 100}},
		{name: "one decimal", rate: "1.192342342456", decimals: ptr(1), want: Factors{11, 10}},
		{name: "zero decimals", rate: "1.192342342456", decimals: ptr(0), want: Factors{1, 1}},
		{name: "default decimals", rate: "1.192342342456", decimals: nil, want: Factors{11923, 10000}},
		{name: "max decimals", rate: "1.192342342456", decimals: ptr(17), want: Factors{119234234245600000, 100000000000000000}},
		{name: "max supported rate", rate: "18446744073.709551615", decimals: ptr(9), want: Factors{math.MaxUint64, 1000000000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := decimal.MustFromString(tt.rate)
			got, err := DeriveFactors(rate.Numerator(), rate.Denominator(), tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveFactorsOverflow(t *testing.T) {
	rate := decimal.Max()
	_, err := DeriveFactors(rate.Numerator(), rate.Denominator(), ptr(9))
	require.ErrorIs(t, err, ErrOverflow)
	assert.Contains(t, err.Error(), "out of range integral type conversion attempted")

	// One atomic unit past the supported maximum.
	past := decimal.MustFromString("18446744073.709551616")
	_, err = DeriveFactors(past.Numerator(), past.Denominator(), ptr(9))
	require.ErrorIs(t, err, ErrOverflow)

	// The denominator side overflows as well when it is the large one.
	_, err = DeriveFactors(rate.Denominator(), rate.Numerator(), ptr(9))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDeriveFactorsBoundary(t *testing.T) {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(9), nil)
	maxU64 := new(big.Int).SetUint64(math.MaxUint64)

	// Largest input that floors to MaxUint64.
	edge := new(big.Int).Mul(maxU64, divisor)
	edge.Add(edge, new(big.Int).Sub(divisor, big.NewInt(1)))
	got, err := DeriveFactors(edge, divisor, ptr(9))
	require.NoError(t, err)
	assert.Equal(t, Factors{math.MaxUint64, 1}, got)

	// Smallest input that floors to 2^64.
	over := new(big.Int).Add(edge, big.NewInt(1))
	_, err = DeriveFactors(over, divisor, ptr(9))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDeriveFactorsTruncatesForEveryPrecision(t *testing.T) {
	rate := decimal.MustFromString("7.999999999999999999")
	for d := uint32(0); d <= MaxDecimals; d++ {
		got, err := DeriveFactors(rate.Numerator(), rate.Denominator(), ptr(d))
		require.NoError(t, err)

		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(FixedPointDigits-d)), nil)
		want := new(big.Int).Div(rate.Numerator(), divisor)
		assert.Equal(t, want.Uint64(), got[0], "decimals=%d", d)
	}
}

func TestDeriveFactorsSwapSymmetry(t *testing.T) {
	rate := decimal.MustFromString("1.0843210987")
	for d := uint32(0); d <= MaxDecimals; d++ {
		forward, err := DeriveFactors(rate.Numerator(), rate.Denominator(), ptr(d))
		require.NoError(t, err)
		reverse, err := DeriveFactors(rate.Denominator(), rate.Numerator(), ptr(d))
		require.NoError(t, err)
		assert.Equal(t, Factors{forward[1], forward[0]}, reverse)
	}
}

func TestDeriveFactorsMonotonicInPrecision(t *testing.T) {
	rates := []string{"0.000123456789", "1.192342342456", "999.999999999999999999", "18446744073.709551615"}
	for _, r := range rates {
		rate := decimal.MustFromString(r)
		var prev *Factors
		for d := uint32(0); d <= 9; d++ {
			got, err := DeriveFactors(rate.Numerator(), rate.Denominator(), ptr(d))
			require.NoError(t, err)
			if prev != nil {
				// Less precision never yields a larger output.
				assert.LessOrEqual(t, prev[0], got[0], "rate=%s decimals=%d", r, d)
			}
			cp := got
			prev = &cp
		}
	}
}

func TestDeriveFactorsDeterministic(t *testing.T) {
	rate := decimal.MustFromString("1.192342342456")
	num, den := rate.Numerator(), rate.Denominator()

	first, err := DeriveFactors(num, den, ptr(9))
	require.NoError(t, err)
	second, err := DeriveFactors(num, den, ptr(9))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Inputs are not mutated.
	assert.Equal(t, "1192342342456000000", num.String())
	assert.Equal(t, "1000000000000000000", den.String())
}

func TestDeriveFactorsInvalidInput(t *testing.T) {
	_, err := DeriveFactors(nil, big.NewInt(1), nil)
	require.ErrorIs(t, err, ErrNegativeInput)

	_, err = DeriveFactors(big.NewInt(-1), big.NewInt(1), nil)
	require.ErrorIs(t, err, ErrNegativeInput)

	_, err = DeriveFactors(big.NewInt(1), big.NewInt(1), ptr(19))
	require.ErrorIs(t, err, ErrDecimalsOutOfRange)

	// 18 would divide by one; it is refused like any stored value above
	// MaxDecimals.
	_, err = DeriveFactors(big.NewInt(1), big.NewInt(1), ptr(18))
	require.ErrorIs(t, err, ErrDecimalsOutOfRange)
}

func TestValidateDecimals(t *testing.T) {
	require.NoError(t, ValidateDecimals(0))
	require.NoError(t, ValidateDecimals(17))
	require.ErrorIs(t, ValidateDecimals(18), ErrDecimalsOutOfRange)
}

func TestFactorsFormatting(t *testing.T) {
	f := Factors{1192340000, 1000000000}
	assert.Equal(t, "1192340000,1000000000", f.String())
	assert.Equal(t, []uint64{1192340000, 1000000000}, f.Slice())
}
