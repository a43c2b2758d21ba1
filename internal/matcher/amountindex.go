package matcher

import (
	"math"
	"sort"

	"golang-reconciliation-service/internal/models"
)

// AmountIndex buckets one side's transactions by integer-cent amount and
// supports a tolerance-bounded range query. Modeled on the teacher's sorted
// amount-key plus sort.Search range-lookup pattern, adapted to exact integer
// cents instead of decimal-string keys so no floating-point drift can enter
// the bucketing.
type AmountIndex struct {
	buckets    map[int64][]*models.Transaction
	sortedKeys []int64
}

// NewAmountIndex builds an AmountIndex over txns, preserving the insertion
// order of txns within each cent bucket.
func NewAmountIndex(txns []*models.Transaction) *AmountIndex {
	idx := &AmountIndex{
		buckets: make(map[int64][]*models.Transaction),
	}
	for _, t := range txns {
		key := t.AmountCents()
		if _, ok := idx.buckets[key]; !ok {
			idx.sortedKeys = append(idx.sortedKeys, key)
		}
		idx.buckets[key] = append(idx.buckets[key], t)
	}
	sort.Slice(idx.sortedKeys, func(i, j int) bool { return idx.sortedKeys[i] < idx.sortedKeys[j] })
	return idx
}

// Candidates returns every indexed transaction whose amount lies within
// tolerance of target, in ascending cent-key order, preserving within-bucket
// insertion order.
func (idx *AmountIndex) Candidates(target int64, tolerance float64) []*models.Transaction {
	delta := int64(math.Ceil(tolerance * 100))
	lo := target - delta
	hi := target + delta

	start := sort.Search(len(idx.sortedKeys), func(i int) bool { return idx.sortedKeys[i] >= lo })

	var out []*models.Transaction
	for i := start; i < len(idx.sortedKeys) && idx.sortedKeys[i] <= hi; i++ {
		out = append(out, idx.buckets[idx.sortedKeys[i]]...)
	}
	return out
}
