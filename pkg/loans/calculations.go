// Package loans provides fixed-payment amortization calculations.
package loans

import (
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// divisionPrecision is the scale kept when dividing intermediate values.
const divisionPrecision = 20

var (
	monthsPerYear   = decimal.NewFromInt(constants.MonthsPerYear)
	maxPrincipal    = decimal.RequireFromString(constants.MaxAmount)
	maxAnnualRate   = decimal.RequireFromString(constants.MaxAnnualRate)
	compoundCeiling = decimal.RequireFromString(constants.CompoundCeiling)
)

// Quote holds the derived payment values for a loan.
type Quote struct {
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// IsZero reports whether the quote is the degenerate zero-state.
func (q Quote) IsZero() bool {
	return q.MonthlyPayment.IsZero() && q.TotalAmount.IsZero()
}

// Installment holds the values for a given monthly payment.
type Installment struct {
	Number             int             `json:"number" yaml:"number"`
	Payment            decimal.Decimal `json:"payment" yaml:"payment"`
	Principal          decimal.Decimal `json:"principal" yaml:"principal"`
	Interest           decimal.Decimal `json:"interest" yaml:"interest"`
	RemainingPrincipal decimal.Decimal `json:"remainingPrincipal" yaml:"remainingPrincipal"`
}

// MonthlyRate converts a nominal annual rate fraction into the periodic monthly rate.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(monthsPerYear, divisionPrecision)
}

// ComputeAmortization calculates the fixed monthly payment and total payback
// for a loan using the standard amortization formula. Any non-positive input
// yields the zero quote, as does a principal above constants.MaxAmount or a
// rate above constants.MaxAnnualRate. The total is derived from the rounded
// monthly payment.
func ComputeAmortization(principal, annualRate decimal.Decimal, termMonths int) Quote {
	if !principal.IsPositive() || !annualRate.IsPositive() || termMonths <= 0 {
		return Quote{MonthlyPayment: decimal.Zero, TotalAmount: decimal.Zero}
	}
	if !mathutil.Bounded(principal, maxPrincipal, constants.MaxAmountScale) ||
		!mathutil.Bounded(annualRate, maxAnnualRate, constants.MaxAmountScale) {
		return Quote{MonthlyPayment: decimal.Zero, TotalAmount: decimal.Zero}
	}

	monthly := mathutil.Round(unroundedPayment(principal, annualRate, termMonths))
	return Quote{
		MonthlyPayment: monthly,
		TotalAmount:    mathutil.Round(monthly.Mul(decimal.NewFromInt(int64(termMonths)))),
	}
}

func unroundedPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	rate := MonthlyRate(annualRate)
	power, ok := mathutil.Compound(decimal.NewFromInt(1).Add(rate), termMonths, compoundCeiling)
	if !ok {
		// P·r·g/(g-1) equals P·r to well below a cent once g passes the ceiling.
		return principal.Mul(rate)
	}
	numerator := principal.Mul(rate).Mul(power)
	return numerator.DivRound(power.Sub(decimal.NewFromInt(1)), divisionPrecision)
}

// CalculateInterestPayment calculates the interest portion of a payment on
// the given outstanding balance, rounded to currency.
func CalculateInterestPayment(remainingPrincipal, annualRate decimal.Decimal) decimal.Decimal {
	return mathutil.Round(remainingPrincipal.Mul(MonthlyRate(annualRate)))
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates the complete month-by-month amortization table.
// The final installment absorbs accumulated rounding so the balance closes at
// exactly zero. Degenerate inputs and terms above constants.MaxTermMonths
// produce an empty schedule.
func (g *AmortizationScheduleGenerator) GenerateSchedule(principal, annualRate decimal.Decimal, termMonths int) []Installment {
	if termMonths > constants.MaxTermMonths {
		g.logger.Debug("skipping schedule longer than the maximum term",
			zap.String("op", "loans.GenerateSchedule"),
			zap.Int("termMonths", termMonths),
			zap.Int("maxTermMonths", constants.MaxTermMonths),
		)
		return nil
	}

	quote := ComputeAmortization(principal, annualRate, termMonths)
	if quote.IsZero() {
		g.logger.Debug("skipping schedule for degenerate loan inputs",
			zap.String("op", "loans.GenerateSchedule"),
			zap.String("principal", principal.String()),
			zap.String("annualRate", annualRate.String()),
			zap.Int("termMonths", termMonths),
		)
		return nil
	}

	schedule := make([]Installment, 0, termMonths)
	balance := mathutil.Round(principal)
	for month := 1; month <= termMonths; month++ {
		var current Installment
		current.Number = month
		current.Interest = CalculateInterestPayment(balance, annualRate)

		if month == termMonths || quote.MonthlyPayment.Sub(current.Interest).GreaterThanOrEqual(balance) {
			// Settle whatever is left so the loan closes at zero.
			current.Principal = balance
			current.Payment = balance.Add(current.Interest)
			current.RemainingPrincipal = decimal.Zero
			schedule = append(schedule, current)
			if month != termMonths {
				g.logger.Debug("loan settled before final term month",
					zap.String("op", "loans.GenerateSchedule"),
					zap.Int("month", month),
					zap.Int("termMonths", termMonths),
				)
			}
			break
		}

		current.Payment = quote.MonthlyPayment
		current.Principal = quote.MonthlyPayment.Sub(current.Interest)
		current.RemainingPrincipal = balance.Sub(current.Principal)
		balance = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	return schedule
}

// TotalInterest sums the interest paid across a schedule.
func TotalInterest(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, installment := range schedule {
		total = total.Add(installment.Interest)
	}
	return total
}
