// Package phone turns phone numbers typed in any format into a comparison key.
package phone

import (
	"sort"
	"strings"
)

// DefaultCountryCodes covers NANP numbers: a leading "1" followed by ten national digits.
var DefaultCountryCodes = map[string]int{"1": 10}

type countryCode struct {
	code   string
	digits int
}

// Normalizer computes phone keys. It is safe for concurrent use.
type Normalizer struct {
	codes []countryCode
}

// NewNormalizer builds a normalizer from a country code to national digit count table.
// A nil table uses DefaultCountryCodes; an empty table only strips non-digits.
func NewNormalizer(countryCodes map[string]int) *Normalizer {
	if countryCodes == nil {
		countryCodes = DefaultCountryCodes
	}

	codes := make([]countryCode, 0, len(countryCodes))
	for code, digits := range countryCodes {
		if code == "" || digits <= 0 {
			continue
		}
		codes = append(codes, countryCode{code: code, digits: digits})
	}
	// Longer codes first so "44" is not shadowed by a hypothetical "4".
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i].code) != len(codes[j].code) {
			return len(codes[i].code) > len(codes[j].code)
		}
		return codes[i].code < codes[j].code
	})

	return &Normalizer{codes: codes}
}

// Normalize strips every non-digit and drops a configured country code when the
// remaining digits are exactly that code followed by its national digit count.
// Blank input yields an empty key.
func (n *Normalizer) Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	for _, c := range n.codes {
		if len(digits) == len(c.code)+c.digits && strings.HasPrefix(digits, c.code) {
			return digits[len(c.code):]
		}
	}
	return digits
}

// Same reports whether two raw phone strings denote the same number.
// Blank numbers never match anything.
func (n *Normalizer) Same(a, b string) bool {
	ka := n.Normalize(a)
	return ka != "" && ka == n.Normalize(b)
}
