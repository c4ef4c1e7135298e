// Package license implements the /license command group on top of the
// license ledger.
package license

import "strings"

// KeyLength is the length of a license key in hex characters
const KeyLength = 40

// NormalizeKey trims and lower-cases a key
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidKey reports whether s is a 40 character hexadecimal key, in any case
func ValidKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// ShortKey abbreviates a key as first8...last8 for listings
func ShortKey(key string) string {
	if len(key) <= 16 {
		return key
	}
	return key[:8] + "..." + key[len(key)-8:]
}
