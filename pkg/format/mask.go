package format

import (
	"strings"

	"github.com/iwvelando/financing-wizard/pkg/constants"
)

// Digits strips every non-ASCII-digit character.
func Digits(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			builder.WriteByte(value[i])
		}
	}
	return builder.String()
}

// MaskCPF progressively formats up to 11 digits as NNN.NNN.NNN-NN.
func MaskCPF(raw string) string {
	digits := truncate(Digits(raw), constants.CPFDigits)
	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

// MaskPhone progressively formats up to 11 digits as (NN) NNNN-NNNN for
// landlines or (NN) NNNNN-NNNN once an eleventh digit is present.
func MaskPhone(raw string) string {
	digits := truncate(Digits(raw), constants.MobileDigits)
	if len(digits) <= 2 {
		return digits
	}

	area, local := digits[:2], digits[2:]
	prefix := 4
	if len(digits) == constants.MobileDigits {
		prefix = 5
	}
	if len(local) <= prefix {
		return "(" + area + ") " + local
	}
	return "(" + area + ") " + local[:prefix] + "-" + local[prefix:]
}

func truncate(digits string, max int) string {
	if len(digits) > max {
		return digits[:max]
	}
	return digits
}
