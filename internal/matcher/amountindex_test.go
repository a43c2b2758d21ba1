package matcher

import (
	"testing"

	"golang-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func tx(id string, amount float64) *models.Transaction {
	return &models.Transaction{
		ID:     id,
		Amount: decimal.NewFromFloat(amount),
		Type:   models.Debit,
	}
}

func TestAmountIndexCandidates(t *testing.T) {
	txns := []*models.Transaction{
		tx("t1", 100.00),
		tx("t2", 100.04),
		tx("t3", 99.96),
		tx("t4", 200.00),
	}
	idx := NewAmountIndex(txns)

	got := idx.Candidates(10000, 0.05)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates within tolerance, got %d: %v", len(got), ids(got))
	}

	got = idx.Candidates(20000, 0.05)
	if len(got) != 1 || got[0].ID != "t4" {
		t.Fatalf("expected only t4 in range, got %v", ids(got))
	}
}

func TestAmountIndexPreservesInsertionOrderWithinBucket(t *testing.T) {
	txns := []*models.Transaction{
		tx("first", 50.00),
		tx("second", 50.00),
	}
	idx := NewAmountIndex(txns)
	got := idx.Candidates(5000, 0)
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("expected insertion order preserved, got %v", ids(got))
	}
}

func ids(txns []*models.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ID
	}
	return out
}
