package matcher

import (
	"strconv"
	"strings"
)

// minYear and maxYear bound the calendar-year guard: a bare numeric token
// that parses as a year in this range is never a reference id.
const (
	minYear = 2020
	maxYear = 2030
)

// extractNumericTokens returns the set of likely reference-identifier tokens
// found in a free-text description. Candidates are runs of letters, digits,
// and hyphens; each candidate's alphanumeric form (hyphens stripped) is
// classified, and the accepted token is the digit-only core of that form —
// this lets "INV-99821" and "99821" be recognized as the same underlying
// reference even though one carries a letter prefix.
func extractNumericTokens(description string) map[string]bool {
	tokens := make(map[string]bool)

	var candidates []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			candidates = append(candidates, cur.String())
			cur.Reset()
		}
	}
	for _, r := range description {
		if isWordRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	for _, raw := range candidates {
		raw = strings.Trim(raw, "-")
		if raw == "" {
			continue
		}
		if token, ok := classifyReferenceToken(raw); ok {
			tokens[token] = true
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-'
}

// classifyReferenceToken applies the calendar-year guard and the
// all-digit/mixed-alphanumeric acceptance rules to a single candidate,
// returning the comparable numeric core when accepted.
func classifyReferenceToken(raw string) (string, bool) {
	alnum := stripNonAlnum(raw)
	if alnum == "" {
		return "", false
	}

	if year, err := strconv.Atoi(alnum); err == nil {
		if year >= minYear && year <= maxYear {
			return "", false
		}
	}

	var digits strings.Builder
	hasLetter := false
	digitCount := 0
	for _, r := range alnum {
		switch {
		case r >= '0' && r <= '9':
			digitCount++
			digits.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}

	if !hasLetter && digitCount == len([]rune(alnum)) && digitCount >= 3 {
		return alnum, true
	}
	if hasLetter && digitCount >= 3 {
		return digits.String(), true
	}
	return "", false
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sharesNumericToken reports whether a and b have at least one accepted
// reference-identifier token in common.
func sharesNumericToken(a, b string) bool {
	ta := extractNumericTokens(a)
	tb := extractNumericTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	for tok := range ta {
		if tb[tok] {
			return true
		}
	}
	return false
}
