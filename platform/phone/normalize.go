// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code. Hawaii numbers are US.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// LooksLikePhone reports whether s parses as a valid number in DefaultRegion.
// Owner contact fields hold either an email or a phone number.
func LooksLikePhone(s string) bool {
	if strings.Contains(s, "@") {
		return false
	}
	number, err := phonenumbers.Parse(strings.TrimSpace(s), DefaultRegion)
	return err == nil && phonenumbers.IsValidNumber(number)
}
