package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims input, drops invalid UTF-8 and control characters, and cuts the result to
// at most maxRunes runes so stored text never ends mid-character. A non-positive maxRunes keeps
// the whole string.
func SanitizeString(input string, maxRunes int) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, strings.ToValidUTF8(input, ""))
	clean = strings.TrimSpace(clean)
	if maxRunes <= 0 || utf8.RuneCountInString(clean) <= maxRunes {
		return clean
	}
	return strings.TrimSpace(string([]rune(clean)[:maxRunes]))
}
