package address

import "strings"

// MinDigits is the number of digits a lookup key needs before the registry is queried.
const MinDigits = 8

// NormalizeCode strips everything but ASCII decimal digits from raw.
// Hyphens, dots and spaces are cosmetic to the registry.
func NormalizeCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseCode normalizes raw and returns the lookup key.
// Returns ErrInvalidCode when raw is empty or holds fewer than MinDigits digits.
func ParseCode(raw string) (string, error) {
	key := NormalizeCode(raw)
	if len(key) < MinDigits {
		return "", ErrInvalidCode
	}
	return key, nil
}

// FormatCode renders an 8-digit key as 12345-678. Other keys are returned unchanged.
func FormatCode(key string) string {
	if len(key) != MinDigits {
		return key
	}
	return key[:5] + "-" + key[5:]
}
