// Package amount converts between human-readable decimal strings and the
// fixed-point integer amounts the ledger stores (raw units scaled by
// 10^decimals). Conversions are exact: the raw integer is never passed through
// floating point.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string cannot be converted losslessly
// into a positive integer number of raw token units.
var ErrInvalidAmount = errors.New("invalid token amount")

// Parse converts a decimal string such as "1.5" into raw token units for a
// token with the given number of decimals. The amount must be positive and
// must not carry more fractional digits than the token supports.
func Parse(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %q", ErrInvalidAmount, s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, decimals)
	}
	return scaled.BigInt(), nil
}

// Format renders raw token units as a decimal string, trimming trailing zero
// fractional digits. The quotient and remainder are computed on the integer
// itself, so the output is exact for any magnitude.
func Format(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(raw, divisor, new(big.Int))

	neg := rem.Sign() < 0
	if neg {
		rem.Neg(rem)
	}
	if rem.Sign() == 0 {
		return quo.String()
	}

	frac := strings.TrimRight(fmt.Sprintf("%0*s", int(decimals), rem.String()), "0")
	if frac == "" {
		return quo.String()
	}
	if neg && quo.Sign() == 0 {
		return fmt.Sprintf("-%s.%s", quo.String(), frac)
	}
	return fmt.Sprintf("%s.%s", quo.String(), frac)
}
