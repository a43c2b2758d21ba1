package matcher

import "strings"

// numericTokenShortCircuit is returned immediately when two descriptions
// share a strong reference-identifier token. It is an exact part of the
// contract: fuzzy passes rely on this precise value.
const numericTokenShortCircuit = 0.98

// containmentScore is returned when one normalized description is a
// substring of the other.
const containmentScore = 0.85

// similarity scores two free-text descriptions in [0,1], combining a
// numeric-token short-circuit and an exact-match check on the normalized
// text with three complementary textual signals (Jaccard over tokens,
// substring containment, edit distance), taking the strongest signal.
func similarity(a, b string) float64 {
	if sharesNumericToken(a, b) {
		return numericTokenShortCircuit
	}

	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	jaccard := tokenJaccard(na, nb)

	containment := 0.0
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		containment = containmentScore
	}

	editScore := 0.0
	la, lb := len([]rune(na)), len([]rune(nb))
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff < 5 && la > 3 {
		maxLen := la
		if lb > maxLen {
			maxLen = lb
		}
		editScore = 1 - float64(editDistance(na, nb))/float64(maxLen)
	}

	return maxOf(jaccard, containment, editScore)
}

func tokenJaccard(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func maxOf(values ...float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
