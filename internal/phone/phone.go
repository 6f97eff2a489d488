package phone

import "strings"

// DefaultCountryCode is the calling code substituted for a leading "0" in
// local-format numbers when no code is configured.
const DefaultCountryCode = "60"

// Normalizer canonicalizes raw phone input into a single comparable key.
// The zero value uses DefaultCountryCode.
type Normalizer struct {
	CountryCode string
}

func NewNormalizer(countryCode string) Normalizer {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return Normalizer{CountryCode: countryCode}
}

// Normalize returns the canonical form of raw, or "" if no digits remain.
// The function is idempotent: normalizing an already-canonical number returns
// the same value.
func (n Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	hadPlus := strings.HasPrefix(raw, "+")

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

	if hadPlus {
		return "+" + digits
	}

	cc := n.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}

	// Local format: swap the leading 0 for the country calling code.
	if strings.HasPrefix(digits, "0") {
		return "+" + cc + digits[1:]
	}
	if strings.HasPrefix(digits, cc) {
		return "+" + digits
	}
	return "+" + digits
}
