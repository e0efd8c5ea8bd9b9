// Package proposal defines the financing record threaded through the wizard
// and the signed proposal persisted once the wizard completes.
package proposal

import (
	"fmt"

	"github.com/iwvelando/financing-wizard/pkg/format"
	"github.com/iwvelando/financing-wizard/pkg/loans"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"github.com/shopspring/decimal"
)

// Field names reported by validation.
const (
	FieldFinancedAmount = "financedAmount"
	FieldDownPayment    = "downPayment"
	FieldTermMonths     = "termMonths"
	FieldFullName       = "fullName"
	FieldCPF            = "cpf"
	FieldEmail          = "email"
	FieldPhone          = "phone"
)

// Record is the accumulated user input plus the derived payment values.
// CPF and Phone are always stored masked.
type Record struct {
	FinancedAmount decimal.Decimal `json:"financedAmount"`
	DownPayment    decimal.Decimal `json:"downPayment"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	TermMonths     int             `json:"termMonths"`
	FullName       string          `json:"fullName"`
	CPF            string          `json:"cpf"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PDFReference   string          `json:"pdfReference,omitempty"`
}

// FieldError describes one field that blocks step advancement.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewRecord returns the empty record a wizard starts with.
func NewRecord(rules Rules) Record {
	return Record{
		FinancedAmount: decimal.Zero,
		DownPayment:    decimal.Zero,
		InterestRate:   rules.AnnualRate,
		MonthlyPayment: decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
}

// Recompute refreshes MonthlyPayment and TotalAmount from the current
// financed amount, rate and term. Callers invoke it after every mutation.
func (r *Record) Recompute() {
	quote := loans.ComputeAmortization(r.FinancedAmount, r.InterestRate, r.TermMonths)
	r.MonthlyPayment = quote.MonthlyPayment
	r.TotalAmount = quote.TotalAmount
}

// SetCPF stores the CPF in its masked form.
func (r *Record) SetCPF(raw string) {
	r.CPF = format.MaskCPF(raw)
}

// SetPhone stores the phone number in its masked form.
func (r *Record) SetPhone(raw string) {
	r.Phone = format.MaskPhone(raw)
}

// PropertyValue is the financed amount plus the down payment.
func (r Record) PropertyValue() decimal.Decimal {
	return r.FinancedAmount.Add(r.DownPayment)
}

// ValidateFinancial checks the inputs collected on the financial step.
func (r Record) ValidateFinancial(rules Rules) []FieldError {
	var errs []FieldError

	if !r.FinancedAmount.IsPositive() {
		errs = append(errs, FieldError{Field: FieldFinancedAmount, Message: "financed amount must be greater than zero"})
	}
	if r.DownPayment.IsNegative() {
		errs = append(errs, FieldError{Field: FieldDownPayment, Message: "down payment cannot be negative"})
	} else if !validation.MeetsMinimumDownPayment(r.FinancedAmount, r.DownPayment, rules.MinDownPaymentRatio) {
		minimum := validation.MinimumDownPayment(r.FinancedAmount, rules.MinDownPaymentRatio)
		errs = append(errs, FieldError{
			Field:   FieldDownPayment,
			Message: fmt.Sprintf("down payment must be at least %s", format.Currency(minimum)),
		})
	}
	if !validation.IsAllowedTerm(r.TermMonths, rules.TermOptions) {
		errs = append(errs, FieldError{
			Field:   FieldTermMonths,
			Message: fmt.Sprintf("term must be one of %v months", rules.TermOptions),
		})
	}

	return errs
}

// ValidatePersonal checks the inputs collected on the personal data step.
func (r Record) ValidatePersonal() []FieldError {
	var errs []FieldError

	if !validation.IsValidFullName(r.FullName) {
		errs = append(errs, FieldError{Field: FieldFullName, Message: "enter first and last name (e.g. João Silva)"})
	}
	if !validation.IsValidCPF(r.CPF) {
		errs = append(errs, FieldError{Field: FieldCPF, Message: "invalid CPF"})
	}
	if !validation.IsValidEmail(r.Email) {
		errs = append(errs, FieldError{Field: FieldEmail, Message: "invalid e-mail"})
	}
	if !validation.IsValidBrazilianPhone(r.Phone) {
		errs = append(errs, FieldError{Field: FieldPhone, Message: "invalid phone, use (11) 99999-9999"})
	}

	return errs
}
