package matcher

import (
	"fmt"
	"math"
	"sort"

	"golang-reconciliation-service/internal/models"
	rerrors "golang-reconciliation-service/pkg/errors"
)

// Cascade holds the mutable cross-pass state of a single reconciliation
// invocation: the matched-id bookkeeping and the append-only match list. It
// is the only mutable value in the core; every pass is a method on it rather
// than a free function with shared globals.
type Cascade struct {
	config *ReconcileConfig

	bank   []*models.Transaction
	ledger []*models.Transaction

	bankByID   map[string]*models.Transaction
	ledgerByID map[string]*models.Transaction

	ledgerIndex *AmountIndex
	bankIndex   *AmountIndex

	matchedBank   map[string]bool
	matchedLedger map[string]bool
	matches       []*models.MatchGroup
	nextID        int
}

// NewCascade constructs a Cascade over the given bank/ledger slices (already
// validated by the caller). Slices are not mutated; sorted views are built
// internally.
func NewCascade(bank, ledger []*models.Transaction, config *ReconcileConfig) *Cascade {
	c := &Cascade{
		config:        config,
		bank:          sortedByDate(bank),
		ledger:        sortedByDate(ledger),
		bankByID:      make(map[string]*models.Transaction, len(bank)),
		ledgerByID:    make(map[string]*models.Transaction, len(ledger)),
		matchedBank:   make(map[string]bool),
		matchedLedger: make(map[string]bool),
	}
	for _, t := range bank {
		c.bankByID[t.ID] = t
	}
	for _, t := range ledger {
		c.ledgerByID[t.ID] = t
	}
	c.ledgerIndex = NewAmountIndex(ledger)
	c.bankIndex = NewAmountIndex(bank)
	return c
}

// sortedByDate returns a copy of txns ordered ascending by date, ties
// broken by original input order (Go's sort.SliceStable preserves the
// relative order of equal elements, so a single stable sort by date alone
// gives exactly this tie-break).
func sortedByDate(txns []*models.Transaction) []*models.Transaction {
	out := make([]*models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Matches returns the committed match groups in commit order.
func (c *Cascade) Matches() []*models.MatchGroup { return c.matches }

// commit appends a new MatchGroup and marks every participating transaction
// id as matched on its respective side. Committing a transaction id already
// marked matched is an InternalInvariantViolation: every pass is expected to
// have filtered against the matched sets before calling commit.
func (c *Cascade) commit(bank, ledger []*models.Transaction, kind models.MatchKind, reason string, confidence float64) error {
	for _, t := range bank {
		if c.matchedBank[t.ID] {
			return rerrors.InvariantViolation("commit", fmt.Sprintf("bank transaction %s already matched", t.ID))
		}
	}
	for _, t := range ledger {
		if c.matchedLedger[t.ID] {
			return rerrors.InvariantViolation("commit", fmt.Sprintf("ledger transaction %s already matched", t.ID))
		}
	}

	c.nextID++
	group := &models.MatchGroup{
		ID:         fmt.Sprintf("m-%d", c.nextID),
		Bank:       append([]*models.Transaction(nil), bank...),
		Ledger:     append([]*models.Transaction(nil), ledger...),
		Kind:       kind,
		Reason:     reason,
		Confidence: confidence,
	}
	c.matches = append(c.matches, group)
	for _, t := range bank {
		c.matchedBank[t.ID] = true
	}
	for _, t := range ledger {
		c.matchedLedger[t.ID] = true
	}
	return nil
}

func (c *Cascade) unmatchedBank() []*models.Transaction {
	var out []*models.Transaction
	for _, t := range c.bank {
		if !c.matchedBank[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func (c *Cascade) unmatchedLedger() []*models.Transaction {
	var out []*models.Transaction
	for _, t := range c.ledger {
		if !c.matchedLedger[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// dateDiffDays returns the absolute difference in whole days between two
// day-granularity dates.
func dateDiffDays(a, b models.Transaction) int {
	hours := a.Date.Sub(b.Date).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(math.Round(hours / 24))
}

// amountDiffCents returns the absolute difference between two amounts in cents.
func amountDiffCents(a, b *models.Transaction) int64 {
	d := a.AmountCents() - b.AmountCents()
	if d < 0 {
		d = -d
	}
	return d
}

// RunPasses executes passes 1 through 5b in order against the cascade's
// current state, stopping early (without running later passes) if ctx
// signals cancellation between passes. cancelled is a zero-arg predicate so
// the cascade package itself stays free of a context.Context import,
// keeping the core's only dependency on cancellation at the driver layer.
func (c *Cascade) RunPasses(cancelled func() bool, onProgress func(pct int)) error {
	type step struct {
		pct int
		run func() error
	}
	steps := []step{
		{15, c.pass1ReferenceID},
		{30, c.pass2PerfectDate},
		{50, c.pass3StrictWindow},
		{65, c.pass3Point5LooseAmountStrongText},
		{75, c.pass4FuzzyDate},
		{85, c.pass5aOneToMany},
		{92, c.pass5bManyToOne},
	}

	report(onProgress, 5)
	for _, s := range steps {
		if cancelled != nil && cancelled() {
			return rerrors.Cancelled(fmt.Sprintf("before pct %d", s.pct))
		}
		if err := s.run(); err != nil {
			return err
		}
		report(onProgress, s.pct)
	}
	report(onProgress, 100)
	return nil
}

func report(onProgress func(pct int), pct int) {
	if onProgress != nil {
		onProgress(pct)
	}
}

// --- Pass 1: Reference-ID Match ---------------------------------------

func (c *Cascade) pass1ReferenceID() error {
	for _, b := range c.unmatchedBank() {
		candidates := c.ledgerCandidates(b, c.config.amountToleranceCents(), c.config.DateWindowReference, false)
		for _, l := range candidates {
			if l.Type != b.Type {
				continue
			}
			if !sharesNumericToken(b.Description, l.Description) {
				continue
			}
			if err := c.commit([]*models.Transaction{b}, []*models.Transaction{l}, models.KindExact,
				"Matched by Amount & Reference ID", 0.99); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// --- Pass 2: Perfect Date ----------------------------------------------

func (c *Cascade) pass2PerfectDate() error {
	// Equal-score candidates are resolved by their position in c.ledger,
	// which among same-date transactions is the original input order.
	pos := make(map[*models.Transaction]int, len(c.ledger))
	for i, t := range c.ledger {
		pos[t] = i
	}
	for _, b := range c.unmatchedBank() {
		candidates := c.ledgerCandidates(b, c.config.amountToleranceCents(), 0, true)

		var best *models.Transaction
		bestScore := -1.0
		for _, l := range candidates {
			if l.Type != b.Type {
				continue
			}
			score := similarity(b.Description, l.Description)
			if score > bestScore || (score == bestScore && best != nil && pos[l] < pos[best]) {
				bestScore = score
				best = l
			}
		}
		if best == nil {
			continue
		}
		reason := "Matched by Amount & Exact Date"
		if bestScore > 0.8 {
			reason = "Perfect Match"
		}
		if err := c.commit([]*models.Transaction{b}, []*models.Transaction{best}, models.KindExact, reason, 0.95); err != nil {
			return err
		}
	}
	return nil
}

// --- Pass 3: Strict Window -----------------------------------------------

func (c *Cascade) pass3StrictWindow() error {
	for _, b := range c.unmatchedBank() {
		candidates := c.ledgerCandidates(b, c.config.amountToleranceCents(), c.config.DateWindowStrict, false)
		if len(candidates) == 0 {
			continue
		}

		type scored struct {
			l        *models.Transaction
			score    float64
			dateDiff int
		}
		var scoredCands []scored
		for _, l := range candidates {
			if l.Type != b.Type {
				continue
			}
			scoredCands = append(scoredCands, scored{l, similarity(b.Description, l.Description), dateDiffDays(*b, *l)})
		}
		if len(scoredCands) == 0 {
			continue
		}

		sort.SliceStable(scoredCands, func(i, j int) bool {
			if math.Abs(scoredCands[i].score-scoredCands[j].score) < 0.1 {
				return scoredCands[i].dateDiff < scoredCands[j].dateDiff
			}
			return scoredCands[i].score > scoredCands[j].score
		})

		top := scoredCands[0]
		if top.score >= 0.5 || top.dateDiff <= 1 {
			reason := "Amount & Nearby Date"
			if top.score >= 0.8 {
				reason = "Strong Text & Nearby Date"
			}
			if err := c.commit([]*models.Transaction{b}, []*models.Transaction{top.l}, models.KindExact, reason, 0.90); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- Pass 3.5: Loose Amount, Strong Text ---------------------------------

func (c *Cascade) pass3Point5LooseAmountStrongText() error {
	for _, b := range c.unmatchedBank() {
		candidates := c.ledgerCandidates(b, c.config.amountToleranceLooseCents(), c.config.DateWindowStrict, false)
		if len(candidates) == 0 {
			continue
		}

		type scored struct {
			l          *models.Transaction
			score      float64
			amountDiff int64
		}
		var scoredCands []scored
		for _, l := range candidates {
			if l.Type != b.Type {
				continue
			}
			score := similarity(b.Description, l.Description)
			if score <= 0.85 {
				continue
			}
			scoredCands = append(scoredCands, scored{l, score, amountDiffCents(b, l)})
		}
		if len(scoredCands) == 0 {
			continue
		}

		sort.SliceStable(scoredCands, func(i, j int) bool {
			if math.Abs(scoredCands[i].score-scoredCands[j].score) < 0.05 {
				return scoredCands[i].amountDiff < scoredCands[j].amountDiff
			}
			return scoredCands[i].score > scoredCands[j].score
		})

		top := scoredCands[0]
		reason := fmt.Sprintf("Approx Amount (Diff: %s)", centsToDollarsString(top.amountDiff))
		if err := c.commit([]*models.Transaction{b}, []*models.Transaction{top.l}, models.KindFuzzy, reason, 0.88); err != nil {
			return err
		}
	}
	return nil
}

// --- Pass 4: Fuzzy Date --------------------------------------------------

func (c *Cascade) pass4FuzzyDate() error {
	for _, b := range c.unmatchedBank() {
		candidates := c.ledgerCandidates(b, c.config.amountToleranceCents(), c.config.DateWindowLoose, false)
		if len(candidates) == 0 {
			continue
		}

		type scored struct {
			l          *models.Transaction
			rawScore   float64
			finalScore float64
			dateDiff   int
		}
		var scoredCands []scored
		for _, l := range candidates {
			if l.Type != b.Type {
				continue
			}
			raw := similarity(b.Description, l.Description)
			diff := dateDiffDays(*b, *l)
			penalty := (float64(diff) / float64(c.config.DateWindowLoose)) * 0.2
			scoredCands = append(scoredCands, scored{l, raw, raw - penalty, diff})
		}
		if len(scoredCands) == 0 {
			continue
		}

		sort.SliceStable(scoredCands, func(i, j int) bool { return scoredCands[i].finalScore > scoredCands[j].finalScore })

		top := scoredCands[0]
		if top.rawScore >= c.config.FuzzyTextThreshold {
			reason := fmt.Sprintf("%.0f%% text sim, %dd offset", top.rawScore*100, top.dateDiff)
			if err := c.commit([]*models.Transaction{b}, []*models.Transaction{top.l}, models.KindFuzzy, reason, top.finalScore); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- Pass 5a: One-to-Many (split) ----------------------------------------

func (c *Cascade) pass5aOneToMany() error {
	if c.config.MaxCombinationDepth == 0 {
		return nil
	}
	for _, b := range c.unmatchedBank() {
		pool := c.splitPool(c.unmatchedLedger(), b)
		if len(pool) == 0 {
			continue
		}
		subset := findSubsetTransactions(pool, b.AmountCents(), c.config.amountToleranceCents(), c.config.MaxCombinationDepth)
		if subset == nil {
			continue
		}
		if err := c.commit([]*models.Transaction{b}, subset, models.KindOneToMany, "Split across multiple ledger entries", 0.85); err != nil {
			return err
		}
	}
	return nil
}

// --- Pass 5b: Many-to-One (merge) ----------------------------------------

func (c *Cascade) pass5bManyToOne() error {
	if c.config.MaxCombinationDepth == 0 {
		return nil
	}
	for _, l := range c.unmatchedLedger() {
		pool := c.splitPoolLedgerSide(c.unmatchedBank(), l)
		if len(pool) == 0 {
			continue
		}
		subset := findSubsetTransactions(pool, l.AmountCents(), c.config.amountToleranceCents(), c.config.MaxCombinationDepth)
		if subset == nil {
			continue
		}
		if err := c.commit(subset, []*models.Transaction{l}, models.KindManyToOne, "Merged from multiple bank entries", 0.85); err != nil {
			return err
		}
	}
	return nil
}

// splitPool builds the candidate pool for pass 5a: unmatched ledger
// transactions of the same type as b, within the strict date window, whose
// amount does not exceed b.amount + amountTolerance, sorted ascending by
// date difference.
func (c *Cascade) splitPool(ledger []*models.Transaction, b *models.Transaction) []*models.Transaction {
	ceiling := b.AmountCents() + c.config.amountToleranceCents()
	var pool []*models.Transaction
	for _, l := range ledger {
		if l.Type != b.Type {
			continue
		}
		if dateDiffDays(*b, *l) > c.config.DateWindowStrict {
			continue
		}
		if l.AmountCents() > ceiling {
			continue
		}
		pool = append(pool, l)
	}
	sort.SliceStable(pool, func(i, j int) bool { return dateDiffDays(*b, *pool[i]) < dateDiffDays(*b, *pool[j]) })
	return pool
}

// splitPoolLedgerSide is splitPool with sides reversed, for pass 5b.
func (c *Cascade) splitPoolLedgerSide(bank []*models.Transaction, l *models.Transaction) []*models.Transaction {
	ceiling := l.AmountCents() + c.config.amountToleranceCents()
	var pool []*models.Transaction
	for _, b := range bank {
		if b.Type != l.Type {
			continue
		}
		if dateDiffDays(*l, *b) > c.config.DateWindowStrict {
			continue
		}
		if b.AmountCents() > ceiling {
			continue
		}
		pool = append(pool, b)
	}
	sort.SliceStable(pool, func(i, j int) bool { return dateDiffDays(*l, *pool[i]) < dateDiffDays(*l, *pool[j]) })
	return pool
}

// ledgerCandidates returns unmatched ledger transactions within toleranceCents
// of b's amount, and either within maxDateDiff days (when exactDate is false)
// or with dateDiff exactly 0 (when exactDate is true).
func (c *Cascade) ledgerCandidates(b *models.Transaction, toleranceCents int64, maxDateDiff int, exactDate bool) []*models.Transaction {
	raw := c.ledgerIndex.Candidates(b.AmountCents(), float64(toleranceCents)/100.0)
	var out []*models.Transaction
	for _, l := range raw {
		if c.matchedLedger[l.ID] {
			continue
		}
		diff := dateDiffDays(*b, *l)
		if exactDate {
			if diff != 0 {
				continue
			}
		} else if diff > maxDateDiff {
			continue
		}
		out = append(out, l)
	}
	return out
}

// centsToDollarsString renders an integer cent amount as a fixed two-decimal
// dollar string, e.g. 125 -> "1.25".
func centsToDollarsString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
