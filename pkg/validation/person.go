package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iwvelando/financing-wizard/pkg/constants"
	"golang.org/x/text/unicode/norm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// portugueseLetters lists the accented Latin letters accepted in names.
const portugueseLetters = "áàâãäéèêëíìîïóòôõöúùûüçñÁÀÂÃÄÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÛÜÇÑ"

// NormalizeFullName composes accents, trims, and collapses whitespace runs.
func NormalizeFullName(input string) string {
	return strings.Join(strings.Fields(norm.NFC.String(input)), " ")
}

// IsValidFullName requires a first and last name, each at least two letters.
func IsValidFullName(input string) bool {
	name := NormalizeFullName(input)
	if utf8.RuneCountInString(name) < constants.MinFullNameLength {
		return false
	}

	parts := strings.Split(name, " ")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if utf8.RuneCountInString(part) < constants.MinNamePartLength {
			return false
		}
		for _, r := range part {
			if !isNameLetter(r) {
				return false
			}
		}
	}
	return true
}

func isNameLetter(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		return true
	}
	return strings.ContainsRune(portugueseLetters, r)
}

// IsValidEmail is a shape check only: local@domain.tld without whitespace.
func IsValidEmail(input string) bool {
	return emailPattern.MatchString(input)
}
