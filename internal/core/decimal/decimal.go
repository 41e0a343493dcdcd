// Package decimal implements an unsigned fixed-point decimal with 18
// fractional digits, bounded to the uint128 range. It is the wire type of
// exchange rates reported by the hub.
package decimal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Places is the number of implicit fractional digits.
const Places = 18

var (
	// ErrInvalidDecimal is returned for strings that are not unsigned decimals.
	ErrInvalidDecimal = errors.New("invalid decimal")

	// ErrTooManyFractionalDigits is returned when more than 18 fractional digits are given.
	ErrTooManyFractionalDigits = errors.New("cannot parse more than 18 fractional digits")

	// ErrDecimalOverflow is returned when a value does not fit in 128 bits of atomics.
	ErrDecimalOverflow = errors.New("decimal value exceeds uint128 range")
)

var (
	fractional = new(big.Int).Exp(big.NewInt(10), big.NewInt(Places), nil)
	maxAtomics = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Decimal is value × 10^18 stored as an unsigned integer. The zero value is 0.
type Decimal struct {
	atomics *big.Int
}

// FromAtomics builds a Decimal from its raw scaled integer.
func FromAtomics(atomics *big.Int) (Decimal, error) {
	if atomics == nil || atomics.Sign() < 0 {
		return Decimal{}, ErrInvalidDecimal
	}
	if atomics.Cmp(maxAtomics) > 0 {
		return Decimal{}, ErrDecimalOverflow
	}
	return Decimal{atomics: new(big.Int).Set(atomics)}, nil
}

// MustFromString is FromString for constants; it panics on error.
func MustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromString parses an unsigned decimal such as "1.192342342456".
func FromString(s string) (Decimal, error) {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) {
		return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	if hasPoint {
		if frac == "" || !isDigits(frac) {
			return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
		}
		if len(frac) > Places {
			return Decimal{}, ErrTooManyFractionalDigits
		}
	}

	atomics, ok := new(big.Int).SetString(whole+frac+strings.Repeat("0", Places-len(frac)), 10)
	if !ok {
		return Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return FromAtomics(atomics)
}

// Max returns the largest representable Decimal (atomics 2^128-1).
func Max() Decimal {
	return Decimal{atomics: new(big.Int).Set(maxAtomics)}
}

// One returns 1.0.
func One() Decimal {
	return Decimal{atomics: new(big.Int).Set(fractional)}
}

// Atomics returns a copy of the scaled integer.
func (d Decimal) Atomics() *big.Int {
	if d.atomics == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(d.atomics)
}

// Numerator returns the numerator of the decimal as a fraction over 10^18.
func (d Decimal) Numerator() *big.Int {
	return d.Atomics()
}

// Denominator returns 10^18.
func (d Decimal) Denominator() *big.Int {
	return new(big.Int).Set(fractional)
}

// IsZero reports whether the value is 0.
func (d Decimal) IsZero() bool {
	return d.atomics == nil || d.atomics.Sign() == 0
}

// Cmp compares d and o.
func (d Decimal) Cmp(o Decimal) int {
	return d.Atomics().Cmp(o.Atomics())
}

// String renders the decimal without trailing fractional zeros.
func (d Decimal) String() string {
	whole, frac := new(big.Int).QuoRem(d.Atomics(), fractional, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	digits := frac.String()
	digits = strings.Repeat("0", Places-len(digits)) + digits
	return whole.String() + "." + strings.TrimRight(digits, "0")
}

// MarshalJSON encodes the decimal as a JSON string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a JSON string into the decimal.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: expected string", ErrInvalidDecimal)
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
