// Package validation provides the predicates that gate wizard step advancement.
package validation

import (
	"strconv"
	"strings"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/format"
)

// IsValidCPF checks a CPF, masked or raw, against the check-digit algorithm.
func IsValidCPF(input string) bool {
	digits := format.Digits(input)
	if len(digits) != constants.CPFDigits {
		return false
	}

	// Repeated digits pass the checksum but are known placeholders.
	if strings.Count(digits, digits[:1]) == constants.CPFDigits {
		return false
	}

	if cpfCheckDigit(digits[:9]) != digits[9] {
		return false
	}
	return cpfCheckDigit(digits[:10]) == digits[10]
}

// cpfCheckDigit computes the check digit for the given prefix, weighting the
// digits from len(prefix)+1 down to 2.
func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	check := 11 - sum%11
	if check >= 10 {
		check = 0
	}
	return byte('0' + check)
}

// IsValidBrazilianPhone checks a landline (10 digits) or mobile (11 digits,
// third digit 9) number with an area code between 11 and 99.
func IsValidBrazilianPhone(input string) bool {
	digits := format.Digits(input)
	if len(digits) != constants.LandlineDigits && len(digits) != constants.MobileDigits {
		return false
	}

	areaCode, err := strconv.Atoi(digits[:2])
	if err != nil || areaCode < constants.MinAreaCode || areaCode > constants.MaxAreaCode {
		return false
	}

	if len(digits) == constants.MobileDigits && digits[2] != '9' {
		return false
	}
	return true
}
