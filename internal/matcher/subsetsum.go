package matcher

import (
	"sort"

	"golang-reconciliation-service/internal/models"
)

// sumItem is the minimal view subset-sum search operates over: an opaque id
// and an amount in integer cents. Kept free of any Transaction field beyond
// amount so the search can be exercised independently of the matching
// domain, over plain numeric fixtures.
type sumItem struct {
	id          int
	amountCents int64
}

// findSubset performs a bounded-depth, largest-first backtracking search for
// a subset of pool whose amounts sum to within tolerance of targetCents.
//
// Returns the first accepting subset found in search order, or nil if none
// exists or maxDepth is zero.
func findSubset(pool []sumItem, targetCents int64, toleranceCents int64, maxDepth int) []sumItem {
	if maxDepth == 0 || len(pool) == 0 {
		return nil
	}

	sorted := make([]sumItem, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].amountCents > sorted[j].amountCents })

	var search func(index int, currentSum int64, current []sumItem) []sumItem
	search = func(index int, currentSum int64, current []sumItem) []sumItem {
		diff := currentSum - targetCents
		if diff < 0 {
			diff = -diff
		}
		if diff <= toleranceCents && len(current) > 0 {
			return current
		}
		if len(current) >= maxDepth || index >= len(sorted) || currentSum > targetCents+toleranceCents {
			return nil
		}

		for i := index; i < len(sorted); i++ {
			candidateSum := currentSum + sorted[i].amountCents
			if candidateSum > targetCents+toleranceCents {
				continue
			}
			next := make([]sumItem, len(current)+1)
			copy(next, current)
			next[len(current)] = sorted[i]
			if found := search(i+1, candidateSum, next); found != nil {
				return found
			}
		}
		return nil
	}

	return search(0, 0, nil)
}

// findSubsetTransactions adapts findSubset to the cascade's Transaction
// pools: it builds the sumItem view by pool index, runs the search, and maps
// the result back to the original Transaction pointers. This is the only
// place subset-sum search touches the Transaction type.
func findSubsetTransactions(pool []*models.Transaction, targetCents, toleranceCents int64, maxDepth int) []*models.Transaction {
	items := make([]sumItem, len(pool))
	for i, t := range pool {
		items[i] = sumItem{id: i, amountCents: t.AmountCents()}
	}

	found := findSubset(items, targetCents, toleranceCents, maxDepth)
	if found == nil {
		return nil
	}

	out := make([]*models.Transaction, len(found))
	for i, item := range found {
		out[i] = pool[item.id]
	}
	return out
}
