package proposal

import (
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
)

// Rules holds the fixed business constants the record is validated against.
type Rules struct {
	AnnualRate          decimal.Decimal
	TermOptions         []int
	MinDownPaymentRatio decimal.Decimal
}

// DefaultRules returns the 12% annual rate, the 120–360 month terms and the
// 20% minimum down payment.
func DefaultRules() Rules {
	return Rules{
		AnnualRate:          decimal.RequireFromString(constants.DefaultAnnualRate),
		TermOptions:         append([]int(nil), constants.DefaultTermOptions...),
		MinDownPaymentRatio: decimal.RequireFromString(constants.DefaultMinDownPaymentRatio),
	}
}
