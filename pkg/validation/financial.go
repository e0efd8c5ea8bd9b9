package validation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/mathutil"
	"github.com/shopspring/decimal"
)

var (
	// ErrAmountOutOfRange is returned for amounts the calculator will not accept.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrTermOutOfRange is returned for terms the calculator will not accept.
	ErrTermOutOfRange = errors.New("term out of range")
)

var maxAmount = decimal.RequireFromString(constants.MaxAmount)

// CheckAmount rejects amounts whose magnitude exceeds constants.MaxAmount or
// that carry more than constants.MaxAmountScale decimals. The offending value
// is left out of the error since it may be arbitrarily large.
func CheckAmount(amount decimal.Decimal) error {
	if !mathutil.Bounded(amount, maxAmount, constants.MaxAmountScale) {
		return fmt.Errorf("%w: at most %s with up to %d decimal places",
			ErrAmountOutOfRange, constants.MaxAmount, constants.MaxAmountScale)
	}
	return nil
}

// CheckTerm rejects negative terms and terms above constants.MaxTermMonths.
func CheckTerm(termMonths int) error {
	if termMonths < 0 || termMonths > constants.MaxTermMonths {
		return fmt.Errorf("%w: %d months, expected 0 to %d", ErrTermOutOfRange, termMonths, constants.MaxTermMonths)
	}
	return nil
}

// MinimumDownPayment returns the smallest acceptable down payment for the
// financed amount, rounded to currency.
func MinimumDownPayment(financedAmount, ratio decimal.Decimal) decimal.Decimal {
	if !financedAmount.IsPositive() {
		return decimal.Zero
	}
	return mathutil.ApplyRatio(financedAmount, ratio)
}

// MeetsMinimumDownPayment reports whether the down payment covers the
// required share of a positive financed amount.
func MeetsMinimumDownPayment(financedAmount, downPayment, ratio decimal.Decimal) bool {
	if downPayment.IsNegative() {
		return false
	}
	return downPayment.GreaterThanOrEqual(MinimumDownPayment(financedAmount, ratio))
}

// IsAllowedTerm reports whether termMonths is one of the offered terms.
func IsAllowedTerm(termMonths int, options []int) bool {
	for _, option := range options {
		if option == termMonths {
			return true
		}
	}
	return false
}
