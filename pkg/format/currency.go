// Package format provides pt-BR display formatting and progressive input masks.
package format

import (
	"strings"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a BRL currency string with pt-BR separators (e.g., "R$ 1.234,56", "-R$ 1.234,56").
func Currency(amount decimal.Decimal) string {
	formatted := formatPositiveCurrency(amount.Abs())
	if amount.Round(constants.CurrencyPlaces).IsNegative() {
		return "-" + constants.CurrencySymbol + " " + formatted
	}
	return constants.CurrencySymbol + " " + formatted
}

// NumericCurrency returns a pt-BR amount without the currency symbol (e.g., "1.234,56").
func NumericCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.Round(constants.CurrencyPlaces).IsNegative() {
		sign = "-"
	}
	return sign + formatPositiveCurrency(amount.Abs())
}

// MaskCurrencyInput treats every digit typed so far as a cents-scaled integer
// and reformats it for display. Input without digits yields an empty string.
func MaskCurrencyInput(raw string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return ""
	}
	return Currency(cents.Shift(-constants.CurrencyPlaces))
}

// ParseCurrencyInput converts a displayed pt-BR amount back into a decimal.
// The currency symbol, whitespace and "." thousands separators are dropped and
// "," is read as the decimal separator. Unparsable input yields zero.
func ParseCurrencyInput(masked string) decimal.Decimal {
	cleaned := strings.ReplaceAll(masked, constants.CurrencySymbol, "")
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r == '.':
			return -1
		case r == ',':
			return '.'
		case r == ' ' || r == '\u00a0' || r == '\t':
			return -1
		}
		return r
	}, cleaned)
	if cleaned == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.CurrencyPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte('.')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "," + decPart
}
