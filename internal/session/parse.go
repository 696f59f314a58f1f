package session

import (
	"strconv"
	"strings"
)

var digitFolder = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

// foldDigits maps Persian digits onto ASCII and trims surrounding space.
// Normalization only; range validation happens at the step that asked.
func foldDigits(text string) string {
	return strings.TrimSpace(digitFolder.Replace(text))
}

// parseCount folds digits and parses a non-negative integer. The second
// return distinguishes a malformed number from an out-of-range one, which
// the caller checks against its own bounds.
func parseCount(text string) (int, bool) {
	s := foldDigits(text)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
