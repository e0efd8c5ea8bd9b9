package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{"Zero", "0", "R$ 0,00"},
		{"Cents only", "0.5", "R$ 0,50"},
		{"Hundreds", "100", "R$ 100,00"},
		{"Thousands", "1234.56", "R$ 1.234,56"},
		{"Millions with rounding", "1234567.891", "R$ 1.234.567,89"},
		{"Negative", "-1234.56", "-R$ 1.234,56"},
		{"Negative rounding to zero", "-0.001", "R$ 0,00"},
		{"Exact thousand", "1000", "R$ 1.000,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(decimal.RequireFromString(tt.amount)); got != tt.expected {
				t.Errorf("Currency(%s) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{"0", "0,00"},
		{"1234.56", "1.234,56"},
		{"-98765.4", "-98.765,40"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := NumericCurrency(decimal.RequireFromString(tt.amount)); got != tt.expected {
				t.Errorf("NumericCurrency(%s) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestMaskCurrencyInput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"Empty", "", ""},
		{"No digits", "abc", ""},
		{"One digit", "1", "R$ 0,01"},
		{"Two digits", "12", "R$ 0,12"},
		{"Three digits", "123", "R$ 1,23"},
		{"Thousands", "123456", "R$ 1.234,56"},
		{"Leading zeros", "00012", "R$ 0,12"},
		{"All zeros", "000", "R$ 0,00"},
		{"Keystroke on masked value", "R$ 1.234,567", "R$ 12.345,67"},
		{"Backspace on masked value", "R$ 1.234,5", "R$ 123,45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskCurrencyInput(tt.raw); got != tt.expected {
				t.Errorf("MaskCurrencyInput(%q) = %q, expected %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestMaskCurrencyInputIdempotent(t *testing.T) {
	for _, raw := range []string{"1", "12", "123456", "30000000"} {
		once := MaskCurrencyInput(raw)
		twice := MaskCurrencyInput(once)
		if once != twice {
			t.Errorf("MaskCurrencyInput not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestParseCurrencyInput(t *testing.T) {
	tests := []struct {
		name     string
		masked   string
		expected string
	}{
		{"Masked display", "R$ 1.234,56", "1234.56"},
		{"Without symbol", "1.234,56", "1234.56"},
		{"Non-breaking space", "R$\u00a01.234,56", "1234.56"},
		{"Cents", "R$ 0,01", "0.01"},
		{"Single decimal", "12,5", "12.5"},
		{"Negative", "-R$ 1.234,56", "-1234.56"},
		{"Plain integer", "300000", "300000"},
		{"Empty", "", "0"},
		{"Symbol only", "R$ ", "0"},
		{"Letters", "abc", "0"},
		{"Two decimal separators", "1,2,3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCurrencyInput(tt.masked)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("ParseCurrencyInput(%q) = %s, expected %s", tt.masked, got, tt.expected)
			}
		})
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	for _, amount := range []string{"1234.56", "0.01", "300000", "987654321.99", "-42.5"} {
		t.Run(amount, func(t *testing.T) {
			value := decimal.RequireFromString(amount)
			if got := ParseCurrencyInput(Currency(value)); !got.Equal(value) {
				t.Errorf("round trip of %s produced %s", amount, got)
			}
		})
	}
}
