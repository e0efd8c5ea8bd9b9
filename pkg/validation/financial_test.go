package validation

import (
	"errors"
	"testing"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/shopspring/decimal"
)

func TestMinimumDownPayment(t *testing.T) {
	ratio := decimal.RequireFromString(constants.DefaultMinDownPaymentRatio)
	tests := []struct {
		financed string
		expected string
	}{
		{"100000", "20000"},
		{"300000", "60000"},
		{"0", "0"},
		{"-500", "0"},
		{"12345.67", "2469.13"},
	}

	for _, tt := range tests {
		t.Run(tt.financed, func(t *testing.T) {
			got := MinimumDownPayment(decimal.RequireFromString(tt.financed), ratio)
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("MinimumDownPayment(%s) = %s, expected %s", tt.financed, got, tt.expected)
			}
		})
	}
}

func TestMeetsMinimumDownPayment(t *testing.T) {
	ratio := decimal.RequireFromString(constants.DefaultMinDownPaymentRatio)
	tests := []struct {
		name     string
		financed string
		down     string
		expected bool
	}{
		{"One cent short", "100000", "19999.99", false},
		{"Exactly twenty percent", "100000", "20000.00", true},
		{"Above minimum", "100000", "50000", true},
		{"No financing", "0", "0", true},
		{"Negative down payment", "0", "-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeetsMinimumDownPayment(decimal.RequireFromString(tt.financed), decimal.RequireFromString(tt.down), ratio)
			if got != tt.expected {
				t.Errorf("MeetsMinimumDownPayment(%s, %s) = %v, expected %v", tt.financed, tt.down, got, tt.expected)
			}
		})
	}
}

func TestIsAllowedTerm(t *testing.T) {
	tests := []struct {
		term     int
		expected bool
	}{
		{120, true},
		{180, true},
		{240, true},
		{300, true},
		{360, true},
		{0, false},
		{121, false},
		{420, false},
	}

	for _, tt := range tests {
		if got := IsAllowedTerm(tt.term, constants.DefaultTermOptions); got != tt.expected {
			t.Errorf("IsAllowedTerm(%d) = %v, expected %v", tt.term, got, tt.expected)
		}
	}
}

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"300000", true},
		{"0", true},
		{"-500", true},
		{"1234.5678901234", true},
		{"1000000000000000", true},
		{"1000000000000000.01", false},
		{"1e200000000", false},
		{"-1e200000000", false},
		{"1e-200000000", false},
		{"0.00000000001", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := CheckAmount(decimal.RequireFromString(tt.value))
			if tt.valid && err != nil {
				t.Errorf("CheckAmount(%s) returned %v", tt.value, err)
			}
			if !tt.valid && !errors.Is(err, ErrAmountOutOfRange) {
				t.Errorf("CheckAmount(%s) = %v, expected ErrAmountOutOfRange", tt.value, err)
			}
		})
	}
}

func TestCheckTerm(t *testing.T) {
	tests := []struct {
		term  int
		valid bool
	}{
		{0, true},
		{360, true},
		{constants.MaxTermMonths, true},
		{constants.MaxTermMonths + 1, false},
		{-1, false},
		{1 << 40, false},
	}

	for _, tt := range tests {
		err := CheckTerm(tt.term)
		if tt.valid && err != nil {
			t.Errorf("CheckTerm(%d) returned %v", tt.term, err)
		}
		if !tt.valid && !errors.Is(err, ErrTermOutOfRange) {
			t.Errorf("CheckTerm(%d) = %v, expected ErrTermOutOfRange", tt.term, err)
		}
	}
}
