package bot

import (
	"regexp"
	"strconv"
	"strings"
)

// emailRe accepts the same local@domain.tld shape the payout API expects.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeEmail trims and lowercases the input and reports whether it looks
// like an email address.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	return email, emailRe.MatchString(email)
}

// parseAmount strips currency symbols and thousands separators and parses a
// positive decimal amount. "$1,250.50" parses to 1250.50.
func parseAmount(raw string) (float64, bool) {
	clean := strings.TrimSpace(raw)
	clean = strings.NewReplacer("$", "", ",", "").Replace(clean)
	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// normalizeOTP strips all whitespace from the one-time password.
func normalizeOTP(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

// normalizeAddress trims a destination wallet address and reports whether it
// is plausibly an on-chain address rather than stray chatter.
func normalizeAddress(raw string) (string, bool) {
	addr := strings.TrimSpace(raw)
	if len(addr) < 16 || strings.ContainsAny(addr, " \t\n") {
		return "", false
	}
	return addr, true
}
