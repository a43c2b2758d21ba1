// Package models defines the shared transaction and result types used by the
// reconciliation engine. A single Transaction shape is used symmetrically for
// both the bank side and the ledger side.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the polarity tag of a Transaction. Two transactions may
// only be matched when their types are equal.
type TransactionType string

const (
	Debit  TransactionType = "debit"
	Credit TransactionType = "credit"
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case Debit, Credit:
		return true
	default:
		return false
	}
}

// Transaction is an immutable record of a single entry on one side of a
// reconciliation (bank or ledger). Callers must never mutate a Transaction
// after constructing it; the engine treats every field as read-only.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
}

// Validate checks the structural preconditions on a single Transaction:
// non-empty id, non-negative amount with at most two fractional digits, a
// valid type, and a non-zero date. Cross-transaction checks (uniqueness of
// id within a side) are performed by the caller over the whole slice.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s: date is required", t.ID)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction %s: amount cannot be negative: %s", t.ID, t.Amount.String())
	}
	if t.Amount.Exponent() < -2 {
		return fmt.Errorf("transaction %s: amount has more than two fractional digits: %s", t.ID, t.Amount.String())
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("transaction %s: invalid type: %s", t.ID, t.Type)
	}
	return nil
}

// AmountCents returns the transaction amount as an integer number of cents,
// rounding half away from zero. This is the exact integer representation the
// matching core buckets and compares on, avoiding floating-point drift.
func (t *Transaction) AmountCents() int64 {
	return t.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// String returns a compact human-readable representation, used in log lines
// and error context.
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID:%s, Date:%s, Amount:%s, Type:%s, Desc:%q}",
		t.ID, t.Date.Format("2006-01-02"), t.Amount.StringFixed(2), t.Type, t.Description)
}

// transactionJSON is the wire shape for Transaction, matching the teacher's
// pattern of marshaling decimal amounts as strings; dates are written as
// YYYY-MM-DD.
type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Type:        string(t.Type),
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw.Amount, err)
	}
	date, err := ParseDateOnly(raw.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw.Date, err)
	}
	t.ID = raw.ID
	t.Date = date
	t.Description = raw.Description
	t.Amount = amount
	t.Type = TransactionType(raw.Type)
	return nil
}

// dateLayouts are tried in order when parsing a bare calendar date, mirroring
// the teacher's multi-format date parsing for bank statement ingest.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
}

// ParseDateOnly parses a calendar date string trying each supported layout
// in turn and truncating to day granularity.
func ParseDateOnly(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			y, m, d := parsed.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q: %w", value, lastErr)
}

// MatchKind enumerates the four shapes a MatchGroup can take.
type MatchKind string

const (
	KindExact     MatchKind = "exact"
	KindFuzzy     MatchKind = "fuzzy"
	KindOneToMany MatchKind = "one-to-many"
	KindManyToOne MatchKind = "many-to-one"
)

// MatchGroup is an atomic, immutable match decision produced by the cascade.
// Once committed a MatchGroup is never modified or removed.
type MatchGroup struct {
	ID         string         `json:"id"`
	Bank       []*Transaction `json:"bank"`
	Ledger     []*Transaction `json:"ledger"`
	Kind       MatchKind      `json:"kind"`
	Reason     string         `json:"reason"`
	Confidence float64        `json:"confidence"`
}

// BankAmount returns the sum of bank-side amounts in the group.
func (g *MatchGroup) BankAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range g.Bank {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// LedgerAmount returns the sum of ledger-side amounts in the group.
func (g *MatchGroup) LedgerAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range g.Ledger {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// Stats summarizes counts and the overall match rate for a ReconciliationResult.
type Stats struct {
	TotalBank            int     `json:"totalBank"`
	TotalLedger          int     `json:"totalLedger"`
	MatchedBankCount     int     `json:"matchedBankCount"`
	MatchedLedgerCount   int     `json:"matchedLedgerCount"`
	UnmatchedBankCount   int     `json:"unmatchedBankCount"`
	UnmatchedLedgerCount int     `json:"unmatchedLedgerCount"`
	MatchRate            float64 `json:"matchRate"`
}

// ReconciliationResult is the output of a single reconciliation invocation.
type ReconciliationResult struct {
	Matches         []*MatchGroup  `json:"matches"`
	UnmatchedBank   []*Transaction `json:"unmatchedBank"`
	UnmatchedLedger []*Transaction `json:"unmatchedLedger"`
	Stats           Stats          `json:"stats"`
}
