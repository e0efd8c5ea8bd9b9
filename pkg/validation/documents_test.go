package validation

import "testing"

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Valid masked", "529.982.247-25", true},
		{"Valid raw", "52998224725", true},
		{"Valid with zero check digits", "987.654.321-00", true},
		{"Valid sequence", "123.456.789-09", true},
		{"Valid other", "111.444.777-35", true},
		{"Last digit altered", "529.982.247-26", false},
		{"First check digit altered", "529.982.247-15", false},
		{"All zeros", "00000000000", false},
		{"All ones", "11111111111", false},
		{"Masked repeated digits", "999.999.999-99", false},
		{"Too short", "5299822472", false},
		{"Too long", "529982247251", false},
		{"Empty", "", false},
		{"Letters only", "abc.def.ghi-jk", false},
		{"Digits with noise", "529 982 247 25", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCPF(tt.input); got != tt.expected {
				t.Errorf("IsValidCPF(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsValidBrazilianPhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Masked mobile", "(11) 98888-7777", true},
		{"Raw mobile", "11988887777", true},
		{"Landline without leading nine", "11) 8888-7777", true},
		{"Masked landline", "(21) 3333-4444", true},
		{"Highest area code", "(99) 3333-4444", true},
		{"Invalid area code", "(05) 98888-7777", false},
		{"Area code ten", "(10) 3333-4444", false},
		{"Mobile without nine", "(11) 88888-7777", false},
		{"Too short", "(11) 8888-777", false},
		{"Too long", "(11) 98888-77770", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidBrazilianPhone(tt.input); got != tt.expected {
				t.Errorf("IsValidBrazilianPhone(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
