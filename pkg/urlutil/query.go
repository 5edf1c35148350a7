package urlutil

import (
	"strings"
	"unicode"
)

var boilerplateTokens = []string{"forbidden", "access denied", "bad gateway", "not found"}

var genericOCRWords = map[string]bool{
	"text": true, "logo": true, "graphics": true, "tm": true,
}

// CleanQuery normalizes optical text extracted from a logo into a search
// query. Directory-listing and error-page boilerplate collapses to an empty
// string; leading noisy lines and short or numeric tokens are dropped;
// punctuation and symbol runes are stripped and whitespace is collapsed.
func CleanQuery(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}

	low := strings.ToLower(q)
	if strings.HasPrefix(low, "index of") {
		return ""
	}
	for _, tok := range boilerplateTokens {
		if strings.Contains(low, tok) {
			return ""
		}
	}
	if genericOCRWords[low] {
		return ""
	}

	// Skip leading lines that mix digits, letters and symbols. Such lines
	// are usually version strings or encodings, not the brand name.
	lines := strings.Split(q, "\n")
	for i, line := range lines {
		if len(line) > 1 && !isNoisyLine(line) {
			q = strings.Join(lines[i:], "\n")
			break
		}
	}

	// Skip leading tokens that are too short or purely numeric.
	parts := strings.Fields(q)
	for i, tok := range parts {
		if len(tok) > 2 && !isNumeric(tok) {
			q = strings.Join(parts[i:], " ")
			break
		}
	}

	q = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, q)

	return strings.Join(strings.Fields(q), " ")
}

func isNoisyLine(line string) bool {
	var hasDigit, hasAlpha, hasSymbol bool
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasAlpha = true
		case !unicode.IsSpace(r):
			hasSymbol = true
		}
	}
	return hasDigit && hasAlpha && hasSymbol
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
