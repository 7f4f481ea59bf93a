// Package normalizers provides per-platform identifier canonicalization.
// Every function is total: bad input yields ok=false, never a panic or
// an error.
package normalizers

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/Ramsey-B/aster/pkg/models"
)

// DefaultPhoneRegion is the region assumed when a phone number carries
// no country code.
const DefaultPhoneRegion = "IN"

// ForPlatform normalizes a raw identifier with the rule for its
// platform. Unknown platforms fall back to lowercase+trim.
func ForPlatform(platform models.Platform, raw, phoneRegion string) (string, bool) {
	switch platform {
	case models.PlatformEmail:
		return Email(raw)
	case models.PlatformWhatsApp:
		return Phone(raw, phoneRegion)
	case models.PlatformDashboard, models.PlatformInstagram:
		return Username(raw)
	}
	v := strings.ToLower(strings.TrimSpace(raw))
	return v, v != ""
}

// Email lowercases, trims, and validates the address structure. No
// deliverability checks.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		// ParseAddress accepts display-name forms; only a bare address
		// is a valid identifier.
		return "", false
	}
	return addr.Address, true
}

// Phone strips formatting, parses against the given default region, and
// emits E.164. Implausible numbers yield ok=false.
func Phone(s, region string) (string, bool) {
	if region == "" {
		region = DefaultPhoneRegion
	}
	var cleaned strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '+' {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return "", false
	}
	num, err := phonenumbers.Parse(cleaned.String(), region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// Username lowercases, trims, and strips a single leading @
func Username(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "@")
	return s, s != ""
}

// Name normalizes a person name: internal whitespace collapsed,
// characters other than letters, spaces, hyphens and apostrophes
// removed, then title-cased.
func Name(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")

	var kept strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			kept.WriteRune(r)
		}
	}

	var out strings.Builder
	prevLetter := false
	for _, r := range strings.TrimSpace(kept.String()) {
		if unicode.IsLetter(r) {
			if prevLetter {
				out.WriteRune(unicode.ToLower(r))
			} else {
				out.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			out.WriteRune(r)
			prevLetter = false
		}
	}

	result := out.String()
	return result, result != ""
}
