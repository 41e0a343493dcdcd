// Package scaling derives stableswap scaling factors from a fixed-point
// exchange rate.
package scaling

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// FixedPointDigits is the implicit fractional scale of rate inputs.
	FixedPointDigits = 18

	// DefaultDecimals is used when no precision is configured.
	DefaultDecimals uint32 = 4

	// MaxDecimals is the largest precision a config may store. One digit of
	// headroom below the input scale keeps the divisor above 1.
	MaxDecimals uint32 = 17
)

// divisors[s] = 10^s for every shift DeriveFactors can produce. Read-only.
var divisors = func() [FixedPointDigits + 1]*big.Int {
	var d [FixedPointDigits + 1]*big.Int
	ten := big.NewInt(10)
	for s := range d {
		d[s] = new(big.Int).Exp(ten, big.NewInt(int64(s)), nil)
	}
	return d
}()

// Factors is an ordered pair of scaling factors.
type Factors [2]uint64

// Slice returns the factors in order, as the pool message expects them.
func (f Factors) Slice() []uint64 {
	return []uint64{f[0], f[1]}
}

// String joins the factors with a comma, e.g. "1192340000,1000000000".
func (f Factors) String() string {
	parts := make([]string, len(f))
	for i, v := range f {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ",")
}

// ValidateDecimals checks a precision against MaxDecimals.
func ValidateDecimals(decimals uint32) error {
	if decimals > MaxDecimals {
		return fmt.Errorf("%w: got %d", ErrDecimalsOutOfRange, decimals)
	}
	return nil
}

// ResolveDecimals returns the configured precision or DefaultDecimals.
func ResolveDecimals(decimals *uint32) uint32 {
	if decimals == nil {
		return DefaultDecimals
	}
	return *decimals
}

// DeriveFactors truncates numerator and denominator, both scaled by 10^18,
// to the given number of fractional digits and returns them in the order
// supplied. The truncation is a floor division by 10^(18-decimals); it never
// rounds. Decimals above MaxDecimals fail with ErrDecimalsOutOfRange, and
// either result exceeding the uint64 range fails with ErrOverflow.
func DeriveFactors(numerator, denominator *big.Int, decimals *uint32) (Factors, error) {
	if numerator == nil || denominator == nil || numerator.Sign() < 0 || denominator.Sign() < 0 {
		return Factors{}, ErrNegativeInput
	}

	d := ResolveDecimals(decimals)
	if err := ValidateDecimals(d); err != nil {
		return Factors{}, err
	}
	divisor := divisors[FixedPointDigits-d]

	first, err := truncate(numerator, divisor)
	if err != nil {
		return Factors{}, err
	}
	second, err := truncate(denominator, divisor)
	if err != nil {
		return Factors{}, err
	}

	return Factors{first, second}, nil
}

func truncate(v, divisor *big.Int) (uint64, error) {
	q := new(big.Int).Quo(v, divisor)
	if !q.IsUint64() {
		return 0, fmt.Errorf("%w: %s exceeds uint64", ErrOverflow, q.String())
	}
	return q.Uint64(), nil
}
