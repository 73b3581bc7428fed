package utils

import (
	"regexp"
	"strings"
)

// Exchange symbols: letters, digits, and the dot/hyphen used for share
// classes (BRK.B, BF-B).
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// NormalizeTicker uppercases and trims a user-supplied ticker and
// strips the $ prefix common in chat and social input.
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}

// ValidTicker reports whether a normalized ticker looks like an
// exchange symbol.
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// ParseTickerList splits a comma-separated ticker parameter into
// normalized, validated symbols, dropping empties and duplicates while
// preserving first-seen order.
func ParseTickerList(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		t := NormalizeTicker(part)
		if t == "" || !ValidTicker(t) || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
