package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail canonicalizes an email address for lookups and uniqueness:
// surrounding whitespace is trimmed, the string is NFC-normalized and case-folded.
func NormalizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// cases.Caser keeps state, so it is not shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}
