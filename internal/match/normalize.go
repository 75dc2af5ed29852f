package match

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds an identifier so that "fieldTech", "field_tech" and
// "Field-Tech" compare equal.
func NormalizeIdent(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// TokenizeIdent splits camelCase, PascalCase and separated identifiers into
// lower-case tokens. "estScanCount" -> [est scan count], "PCDelivery" -> [pc delivery].
func TokenizeIdent(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// startsToken splits on lower->upper ("scanCount") and at the end of an
// acronym followed by a lower-case letter ("PCDelivery").
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
