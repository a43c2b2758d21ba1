// Package reconciler wraps the matching cascade with request validation,
// progress-callback plumbing, and duration-tracked processing statistics,
// mirroring the teacher's ReconciliationService/ReconciliationResult
// orchestration shape.
package reconciler

import (
	"time"

	"golang-reconciliation-service/internal/matcher"
	"golang-reconciliation-service/internal/models"
)

// Config holds driver-level behavior unrelated to the matching thresholds
// themselves (those live in matcher.ReconcileConfig).
type Config struct {
	Mode              matcher.Mode
	ValidateInputs    bool
	IncludeStatistics bool
}

// DefaultConfig returns sane defaults for programmatic use: accuracy mode,
// with input validation and statistics both enabled.
func DefaultConfig() *Config {
	return &Config{
		Mode:              matcher.ModeAccuracy,
		ValidateInputs:    true,
		IncludeStatistics: true,
	}
}

// Request bundles the two input sides for a single reconciliation invocation.
type Request struct {
	Bank   []*models.Transaction
	Ledger []*models.Transaction
}

// ProcessingStats carries stage-level timing around the core result, for
// reporting and operational visibility only.
type ProcessingStats struct {
	TotalProcessingTime time.Duration
	ValidationTime      time.Duration
	MatchingTime        time.Duration
}

// ResultSummary is a human-oriented rollup of the core ReconciliationResult,
// broken down by match kind.
type ResultSummary struct {
	TotalBank            int
	TotalLedger          int
	MatchedBank          int
	MatchedLedger        int
	UnmatchedBank        int
	UnmatchedLedger      int
	ExactMatches         int
	FuzzyMatches         int
	OneToManyMatches     int
	ManyToOneMatches     int
	MatchRate            float64
	ProcessingDuration   time.Duration
}

// Result is the orchestration-level output: the core result plus the
// ambient summary and stats the CLI and reporter consume.
type Result struct {
	Core            *models.ReconciliationResult
	Summary         ResultSummary
	ProcessingStats ProcessingStats
	ProcessedAt     time.Time
}

func summarize(core *models.ReconciliationResult, duration time.Duration) ResultSummary {
	s := ResultSummary{
		TotalBank:          core.Stats.TotalBank,
		TotalLedger:        core.Stats.TotalLedger,
		MatchedBank:        core.Stats.MatchedBankCount,
		MatchedLedger:      core.Stats.MatchedLedgerCount,
		UnmatchedBank:      core.Stats.UnmatchedBankCount,
		UnmatchedLedger:    core.Stats.UnmatchedLedgerCount,
		MatchRate:          core.Stats.MatchRate,
		ProcessingDuration: duration,
	}
	for _, m := range core.Matches {
		switch m.Kind {
		case models.KindExact:
			s.ExactMatches++
		case models.KindFuzzy:
			s.FuzzyMatches++
		case models.KindOneToMany:
			s.OneToManyMatches++
		case models.KindManyToOne:
			s.ManyToOneMatches++
		}
	}
	return s
}
