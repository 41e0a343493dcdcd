package scaling

import "errors"

var (
	// ErrOverflow is returned when a derived factor does not fit in a uint64.
	ErrOverflow = errors.New("out of range integral type conversion attempted")

	// ErrDecimalsOutOfRange is returned when the requested precision exceeds
	// MaxDecimals.
	ErrDecimalsOutOfRange = errors.New("decimals must be less than 18")

	// ErrNegativeInput is returned for nil or negative numerators and denominators.
	ErrNegativeInput = errors.New("scaling inputs must be unsigned")
)
