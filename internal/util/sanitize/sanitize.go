// Package sanitize cleans free-text values before they are written to
// report exports.
//
// Backend text (business names, deal names, addresses) is pasted in by
// users and may carry line breaks, invisible Unicode and leading formula
// characters that spreadsheet applications would evaluate.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	invisibleChars = strings.NewReplacer(
		"\u200B", "", // Zero-width space
		"\u200C", "", // Zero-width non-joiner
		"\u200D", "", // Zero-width joiner
		"\uFEFF", "", // BOM
		"\u00AD", "", // Soft hyphen
		"\u2060", "", // Word joiner
		"\u180E", "", // Mongolian vowel separator
	)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Field removes invisible characters, folds line breaks and whitespace
// runs into single spaces, and trims the result.
func Field(s string) string {
	if s == "" {
		return s
	}
	s = invisibleChars.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Cell is Field plus spreadsheet formula neutralization: a value starting
// with = + - @ is prefixed with a single quote. Plain negative numbers are
// left alone.
func Cell(s string) string {
	s = Field(s)
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '@':
		return "'" + s
	case '-':
		if !isNumber(s[1:]) {
			return "'" + s
		}
	}
	return s
}

// isNumber reports whether s is digits with optional separators, such as
// "1,234.50".
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '$':
		default:
			return false
		}
	}
	return digits > 0
}
