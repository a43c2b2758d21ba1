package reconciler

import (
	"context"
	"fmt"
	"time"

	"golang-reconciliation-service/internal/matcher"
	"golang-reconciliation-service/internal/models"
	rerrors "golang-reconciliation-service/pkg/errors"
	"golang-reconciliation-service/pkg/logger"
)

// ProgressCallback receives the fixed milestone percentages the cascade
// reports between passes, plus a short stage label.
type ProgressCallback func(percent int, stage string)

// Driver selects a matcher.ReconcileConfig profile, runs the cascade, and
// assembles the final Result. It is the ReconcileDriver of the core
// specification, generalized with the request-validation and
// progress-callback plumbing the teacher's orchestrator established.
type Driver struct {
	config    *Config
	overrides *matcher.ReconcileConfig
	callbacks []ProgressCallback
	log       logger.Logger
}

// NewDriver creates a Driver. If config is nil, DefaultConfig is used.
func NewDriver(config *Config) *Driver {
	if config == nil {
		config = DefaultConfig()
	}
	return &Driver{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("reconciler"),
	}
}

// WithMatchConfig replaces the named mode's profile with a complete threshold
// config (typically one built from a profile with some fields overridden, as
// matcher.CustomConfig allows); Config.Mode is then not consulted. Fields are
// not merged: every field of overrides is used as given.
func (d *Driver) WithMatchConfig(overrides *matcher.ReconcileConfig) *Driver {
	d.overrides = overrides
	return d
}

// OnProgress registers a callback invoked at each fixed milestone percentage.
func (d *Driver) OnProgress(cb ProgressCallback) {
	d.callbacks = append(d.callbacks, cb)
}

func (d *Driver) notify(percent int, stage string) {
	for _, cb := range d.callbacks {
		cb(percent, stage)
	}
}

// Reconcile validates the request, runs the matching cascade, and returns
// the assembled Result. It honors ctx cancellation between passes.
func (d *Driver) Reconcile(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	matchConfig := d.overrides
	if matchConfig == nil {
		resolved, err := matcher.ConfigForMode(d.config.Mode)
		if err != nil {
			return nil, err
		}
		matchConfig = resolved
	}
	if err := matchConfig.Validate(); err != nil {
		return nil, rerrors.ConfigurationError(rerrors.CodeInvalidConfig, "match_config", matchConfig, err)
	}

	validationStart := time.Now()
	if d.config.ValidateInputs {
		if err := validateSide("bank", req.Bank); err != nil {
			return nil, err
		}
		if err := validateSide("ledger", req.Ledger); err != nil {
			return nil, err
		}
	}
	validationTime := time.Since(validationStart)

	if ctx != nil && ctx.Err() != nil {
		return nil, rerrors.Cancelled("before matching")
	}

	cascade := matcher.NewCascade(req.Bank, req.Ledger, matchConfig)

	matchStart := time.Now()
	err := cascade.RunPasses(
		func() bool { return ctx != nil && ctx.Err() != nil },
		func(pct int) {
			d.log.WithFields(logger.Fields{"percent": pct}).Debug("reconciliation progress")
			d.notify(pct, fmt.Sprintf("%d%%", pct))
		},
	)
	matchingTime := time.Since(matchStart)
	if err != nil {
		return nil, err
	}

	core := buildCoreResult(req.Bank, req.Ledger, cascade.Matches())

	result := &Result{
		Core:        core,
		ProcessedAt: start,
		ProcessingStats: ProcessingStats{
			TotalProcessingTime: time.Since(start),
			ValidationTime:      validationTime,
			MatchingTime:        matchingTime,
		},
	}
	if d.config.IncludeStatistics {
		result.Summary = summarize(core, time.Since(start))
	}
	return result, nil
}

// validateSide checks every transaction's structural preconditions and that
// ids are unique within the side.
func validateSide(side string, txns []*models.Transaction) error {
	seen := make(map[string]bool, len(txns))
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return rerrors.ValidationError(rerrors.CodeInvalidData, side, t.ID, err)
		}
		if seen[t.ID] {
			return rerrors.DuplicateIDError(side, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// buildCoreResult computes unmatchedBank/unmatchedLedger by filtering the
// original input slices (preserving original input order) against the
// matched-id bookkeeping, and populates Stats.
func buildCoreResult(bank, ledger []*models.Transaction, matches []*models.MatchGroup) *models.ReconciliationResult {
	matchedBank := make(map[string]bool)
	matchedLedger := make(map[string]bool)
	for _, m := range matches {
		for _, t := range m.Bank {
			matchedBank[t.ID] = true
		}
		for _, t := range m.Ledger {
			matchedLedger[t.ID] = true
		}
	}

	var unmatchedBank []*models.Transaction
	for _, t := range bank {
		if !matchedBank[t.ID] {
			unmatchedBank = append(unmatchedBank, t)
		}
	}
	var unmatchedLedger []*models.Transaction
	for _, t := range ledger {
		if !matchedLedger[t.ID] {
			unmatchedLedger = append(unmatchedLedger, t)
		}
	}

	totalBank, totalLedger := len(bank), len(ledger)
	matchedBankCount := totalBank - len(unmatchedBank)
	matchedLedgerCount := totalLedger - len(unmatchedLedger)

	var matchRate float64
	if totalBank+totalLedger > 0 {
		matchRate = float64(matchedBankCount+matchedLedgerCount) / float64(totalBank+totalLedger) * 100
	}

	return &models.ReconciliationResult{
		Matches:         matches,
		UnmatchedBank:   unmatchedBank,
		UnmatchedLedger: unmatchedLedger,
		Stats: models.Stats{
			TotalBank:            totalBank,
			TotalLedger:          totalLedger,
			MatchedBankCount:     matchedBankCount,
			MatchedLedgerCount:   matchedLedgerCount,
			UnmatchedBankCount:   len(unmatchedBank),
			UnmatchedLedgerCount: len(unmatchedLedger),
			MatchRate:            matchRate,
		},
	}
}
