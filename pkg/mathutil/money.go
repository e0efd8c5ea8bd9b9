// Package mathutil provides decimal helpers for currency arithmetic.
package mathutil

import (
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
)

// compoundPrecision bounds the scale of intermediate powers so repeated
// squaring stays cheap while keeping far more digits than a cent needs.
const compoundPrecision = 32

var hundred = decimal.NewFromInt(constants.PercentageMultiplier)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Ties round half away from zero.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total).Mul(hundred)
}

// ApplyRatio scales value by a fractional ratio and rounds to currency.
func ApplyRatio(value, ratio decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(ratio))
}

// Bounded reports whether val carries at most maxScale fractional digits and
// its absolute value does not exceed limit. The exponent is checked first so
// values such as 1e200000000 are rejected without being expanded.
func Bounded(val, limit decimal.Decimal, maxScale int32) bool {
	exp := val.Exponent()
	if exp < -maxScale {
		return false
	}
	if exp > limit.Exponent()+int32(limit.NumDigits()) {
		return false
	}
	return val.Abs().LessThanOrEqual(limit)
}

// Compound returns base raised to a non-negative integer power using
// repeated squaring. Non-positive exponents yield one. For bases above one it
// stops as soon as the power exceeds ceiling and reports false; the returned
// value is then only known to be larger than ceiling.
func Compound(base decimal.Decimal, exponent int, ceiling decimal.Decimal) (decimal.Decimal, bool) {
	result := decimal.NewFromInt(1)
	if exponent <= 0 {
		return result, true
	}
	grows := base.GreaterThan(result)
	factor := base
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(factor).Truncate(compoundPrecision)
			if grows && result.GreaterThan(ceiling) {
				return result, false
			}
		}
		exponent >>= 1
		if exponent > 0 {
			if grows && factor.GreaterThan(ceiling) {
				return factor, false
			}
			factor = factor.Mul(factor).Truncate(compoundPrecision)
		}
	}
	return result, true
}
