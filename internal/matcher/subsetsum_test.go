package matcher

import (
	"testing"

	"golang-reconciliation-service/internal/models"
)

func TestFindSubsetExactSplit(t *testing.T) {
	pool := []sumItem{
		{id: 1, amountCents: 40000},
		{id: 2, amountCents: 60000},
		{id: 3, amountCents: 25000},
	}
	subset := findSubset(pool, 100000, 5, 4)
	if subset == nil {
		t.Fatal("expected a subset summing to 1000.00")
	}
	total := int64(0)
	for _, item := range subset {
		total += item.amountCents
	}
	if total != 100000 {
		t.Errorf("subset total = %d, want 100000", total)
	}
}

func TestFindSubsetRespectsMaxDepth(t *testing.T) {
	pool := []sumItem{
		{id: 1, amountCents: 10000},
		{id: 2, amountCents: 10000},
		{id: 3, amountCents: 10000},
		{id: 4, amountCents: 10000},
		{id: 5, amountCents: 10000},
	}
	// Target requires all 5 items but maxDepth only allows 2.
	if got := findSubset(pool, 50000, 5, 2); got != nil {
		t.Errorf("expected no subset within depth 2, got %v", got)
	}
}

func TestFindSubsetZeroDepthDisabled(t *testing.T) {
	pool := []sumItem{{id: 1, amountCents: 10000}}
	if got := findSubset(pool, 10000, 5, 0); got != nil {
		t.Errorf("expected nil when maxDepth is 0, got %v", got)
	}
}

func TestFindSubsetNoneWithinTolerance(t *testing.T) {
	pool := []sumItem{
		{id: 1, amountCents: 1000},
		{id: 2, amountCents: 2000},
	}
	if got := findSubset(pool, 100000, 5, 4); got != nil {
		t.Errorf("expected no subset for an unreachable target, got %v", got)
	}
}

func TestFindSubsetTransactionsMapsBackToOriginal(t *testing.T) {
	pool := []*models.Transaction{
		tx("l1", 400.00),
		tx("l2", 600.00),
		tx("l3", 250.00),
	}
	subset := findSubsetTransactions(pool, 100000, 5, 4)
	if subset == nil {
		t.Fatal("expected a subset summing to 1000.00")
	}
	total := int64(0)
	for _, txn := range subset {
		total += txn.AmountCents()
	}
	if total != 100000 {
		t.Errorf("subset total = %d, want 100000", total)
	}
	for _, txn := range subset {
		if txn != pool[0] && txn != pool[1] && txn != pool[2] {
			t.Errorf("subset transaction %v is not a pointer from the original pool", txn)
		}
	}
}

func TestFindSubsetTransactionsNoneFound(t *testing.T) {
	pool := []*models.Transaction{tx("l1", 10.00), tx("l2", 20.00)}
	if got := findSubsetTransactions(pool, 100000, 5, 4); got != nil {
		t.Errorf("expected nil for an unreachable target, got %v", ids(got))
	}
}
