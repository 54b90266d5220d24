// Package pricing provides exact price scaling with explicit rounding.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	tcerrors "tcprice/pkg/errors"
)

// Rounding selects how a fractional scaled price becomes an integer.
type Rounding int

const (
	// RoundFloor drops the fraction. For non-negative prices this matches truncation.
	RoundFloor Rounding = iota
	// RoundHalfUp rounds to the nearest integer, halves away from zero.
	RoundHalfUp
	// RoundCeil rounds any fraction up.
	RoundCeil
)

func (r Rounding) String() string {
	switch r {
	case RoundFloor:
		return "floor"
	case RoundHalfUp:
		return "round"
	case RoundCeil:
		return "ceil"
	default:
		return "unknown"
	}
}

// ParseRounding maps a rounding mode name to its value.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "floor":
		return RoundFloor, nil
	case "round":
		return RoundHalfUp, nil
	case "ceil":
		return RoundCeil, nil
	default:
		return RoundFloor, fmt.Errorf("unknown rounding mode %q (want floor, round or ceil)", s)
	}
}

// Multiplier bounds, as powers of ten. Outside them decimal arithmetic on the
// exponent alone would allocate 10^|exp| sized values.
const (
	MaxMultiplierMagnitude = 18
	MinMultiplierExponent  = -30
)

var (
	maxPrice = decimal.NewFromInt(math.MaxInt64)
)

// ParseMultiplier reads a decimal multiplier exactly. The multiplier must be positive.
func ParseMultiplier(s string) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, tcerrors.NewParseError(s, err)
	}
	if err := CheckMultiplier(m); err != nil {
		return decimal.Zero, err
	}
	return m, nil
}

// CheckMultiplier rejects non-positive multipliers and those outside
// [1e-30, 1e18]. The range is checked on coefficient and exponent before m is
// formatted or compared.
func CheckMultiplier(m decimal.Decimal) error {
	coef := strings.TrimLeft(m.Coefficient().String(), "-")
	if coef == "0" {
		return tcerrors.New(tcerrors.ErrCodeInvalidMultiplier, tcerrors.SeverityFatal,
			"multiplier must be positive, got 0")
	}

	exp := int64(m.Exponent())
	trimmed := strings.TrimRight(coef, "0")
	exp += int64(len(coef) - len(trimmed))
	magnitude := exp + int64(len(trimmed)) - 1

	if magnitude > MaxMultiplierMagnitude {
		return tcerrors.New(tcerrors.ErrCodeInvalidMultiplier, tcerrors.SeverityFatal,
			"multiplier is too large (about 1e%d, max 1e%d)", magnitude, MaxMultiplierMagnitude)
	}
	if exp < MinMultiplierExponent {
		return tcerrors.New(tcerrors.ErrCodeInvalidMultiplier, tcerrors.SeverityFatal,
			"multiplier has too many decimal places (%d, max %d)", -exp, -MinMultiplierExponent)
	}
	if !m.IsPositive() {
		return tcerrors.New(tcerrors.ErrCodeInvalidMultiplier, tcerrors.SeverityFatal,
			"multiplier must be positive, got %s", m.String())
	}
	return nil
}

// Scale multiplies price by m and rounds the product to an integer.
// The product is computed exactly; results beyond int64 are rejected.
func Scale(price int64, m decimal.Decimal, r Rounding) (int64, error) {
	if price < 0 {
		return 0, tcerrors.New(tcerrors.ErrCodeInvalidPrice, tcerrors.SeverityError,
			"price must be non-negative, got %d", price)
	}

	product := decimal.NewFromInt(price).Mul(m)
	var rounded decimal.Decimal
	switch r {
	case RoundFloor:
		rounded = product.Floor()
	case RoundHalfUp:
		rounded = product.Round(0)
	case RoundCeil:
		rounded = product.Ceil()
	default:
		return 0, fmt.Errorf("unknown rounding mode %d", int(r))
	}

	if rounded.GreaterThan(maxPrice) {
		return 0, tcerrors.NewOverflowError(price, rounded.String())
	}
	if rounded.IsNegative() {
		return 0, tcerrors.New(tcerrors.ErrCodeInvalidPrice, tcerrors.SeverityError,
			"scaled price %s for %d is negative", rounded.String(), price)
	}
	return rounded.IntPart(), nil
}
