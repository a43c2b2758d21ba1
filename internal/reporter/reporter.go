// Package reporter renders a reconciliation Result in the format an operator
// or downstream system needs.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: one row per transaction of each match group and one per unmatched
//     transaction, for spreadsheets
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"golang-reconciliation-service/internal/models"
	"golang-reconciliation-service/internal/reconciler"
)

// OutputFormat represents a supported report output format.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid reports whether f is a known output format.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeMatches         bool `json:"include_matches"`
	IncludeUnmatchedBank   bool `json:"include_unmatched_bank"`
	IncludeUnmatchedLedger bool `json:"include_unmatched_ledger"`
	IncludeProcessingStats bool `json:"include_processing_stats"`

	TableMaxWidth int `json:"table_max_width"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	SortByAmount bool `json:"sort_by_amount"`
}

// DefaultReportConfig returns the default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		IncludeMatches:         true,
		IncludeUnmatchedBank:   true,
		IncludeUnmatchedLedger: true,
		IncludeProcessingStats: true,
		TableMaxWidth:          120,
		CSVDelimiter:           ',',
		CSVHeaders:             true,
		SortByAmount:           false,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}
	return nil
}

// ReportGenerator renders reconciliation results in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the given
// configuration, or DefaultReportConfig if config is nil.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders result to writer using the generator's configured format.
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", result.Summary.ProcessingDuration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummaryTable(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== MATCH QUALITY BREAKDOWN ===\n")
	rg.printMatchQualityTable(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMatches && len(result.Core.Matches) > 0 {
		fmt.Fprintf(writer, "=== MATCHES ===\n")
		rg.printMatches(result.Core.Matches, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatchedBank && len(result.Core.UnmatchedBank) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED BANK TRANSACTIONS ===\n")
		rg.printTransactionList(result.Core.UnmatchedBank, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatchedLedger && len(result.Core.UnmatchedLedger) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED LEDGER TRANSACTIONS ===\n")
		rg.printTransactionList(result.Core.UnmatchedLedger, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeProcessingStats {
		fmt.Fprintf(writer, "=== PROCESSING STATISTICS ===\n")
		rg.printProcessingStats(result.ProcessingStats, writer)
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(result *reconciler.Result, writer io.Writer) error {
	filtered := rg.filterResultForOutput(result)
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(filtered)
}

func (rg *ReportGenerator) generateCSVReport(result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Row_Type", "Match_ID", "Side", "ID", "Amount", "Type", "Date",
			"Kind", "Confidence", "Reason",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	if rg.config.IncludeMatches {
		for _, m := range result.Core.Matches {
			for _, b := range m.Bank {
				if err := csvWriter.Write(matchRow(m, "bank", b)); err != nil {
					return fmt.Errorf("failed to write match row: %w", err)
				}
			}
			for _, l := range m.Ledger {
				if err := csvWriter.Write(matchRow(m, "ledger", l)); err != nil {
					return fmt.Errorf("failed to write match row: %w", err)
				}
			}
		}
	}

	if rg.config.IncludeUnmatchedBank {
		for _, t := range result.Core.UnmatchedBank {
			if err := csvWriter.Write(unmatchedRow("bank", t)); err != nil {
				return fmt.Errorf("failed to write unmatched bank row: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatchedLedger {
		for _, t := range result.Core.UnmatchedLedger {
			if err := csvWriter.Write(unmatchedRow("ledger", t)); err != nil {
				return fmt.Errorf("failed to write unmatched ledger row: %w", err)
			}
		}
	}

	return nil
}

func matchRow(m *models.MatchGroup, side string, t *models.Transaction) []string {
	return []string{
		"Match", m.ID, side, t.ID, t.Amount.StringFixed(2), string(t.Type),
		t.Date.Format("2006-01-02"), string(m.Kind), fmt.Sprintf("%.2f", m.Confidence), m.Reason,
	}
}

func unmatchedRow(side string, t *models.Transaction) []string {
	return []string{
		"Unmatched", "", side, t.ID, t.Amount.StringFixed(2), string(t.Type),
		t.Date.Format("2006-01-02"), "", "", "No counterpart found",
	}
}

// Helper methods for console output formatting.

func (rg *ReportGenerator) printSummaryTable(summary reconciler.ResultSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Bank Transactions:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalBank)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.MatchedBank, rg.calculatePercentage(summary.MatchedBank, summary.TotalBank))
	fmt.Fprintf(writer, "  Unmatched: %d (%.1f%%)\n",
		summary.UnmatchedBank, rg.calculatePercentage(summary.UnmatchedBank, summary.TotalBank))

	fmt.Fprintf(writer, "\nLedger Transactions:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalLedger)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.MatchedLedger, rg.calculatePercentage(summary.MatchedLedger, summary.TotalLedger))
	fmt.Fprintf(writer, "  Unmatched: %d (%.1f%%)\n",
		summary.UnmatchedLedger, rg.calculatePercentage(summary.UnmatchedLedger, summary.TotalLedger))

	fmt.Fprintf(writer, "\nOverall Match Rate: %.1f%%\n", summary.MatchRate)
}

func (rg *ReportGenerator) printMatchQualityTable(summary reconciler.ResultSummary, writer io.Writer) {
	total := summary.ExactMatches + summary.FuzzyMatches + summary.OneToManyMatches + summary.ManyToOneMatches
	fmt.Fprintf(writer, "Exact:        %d (%.1f%%)\n", summary.ExactMatches, rg.calculatePercentage(summary.ExactMatches, total))
	fmt.Fprintf(writer, "Fuzzy:        %d (%.1f%%)\n", summary.FuzzyMatches, rg.calculatePercentage(summary.FuzzyMatches, total))
	fmt.Fprintf(writer, "One-to-Many:  %d (%.1f%%)\n", summary.OneToManyMatches, rg.calculatePercentage(summary.OneToManyMatches, total))
	fmt.Fprintf(writer, "Many-to-One:  %d (%.1f%%)\n", summary.ManyToOneMatches, rg.calculatePercentage(summary.ManyToOneMatches, total))
}

func (rg *ReportGenerator) printMatches(matches []*models.MatchGroup, writer io.Writer) {
	groups := make([]*models.MatchGroup, len(matches))
	copy(groups, matches)
	if rg.config.SortByAmount {
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].BankAmount().GreaterThan(groups[j].BankAmount())
		})
	}
	for i, m := range groups {
		fmt.Fprintf(writer, "  %d. [%s] %s (confidence %.2f)\n", i+1, m.Kind, m.Reason, m.Confidence)
		for _, b := range m.Bank {
			fmt.Fprintf(writer, "       bank:   %s\n", b.String())
		}
		for _, l := range m.Ledger {
			fmt.Fprintf(writer, "       ledger: %s\n", l.String())
		}
		if i >= 19 && len(groups) > 20 {
			fmt.Fprintf(writer, "  ... and %d more\n", len(groups)-20)
			break
		}
	}
}

func (rg *ReportGenerator) printTransactionList(transactions []*models.Transaction, writer io.Writer) {
	txns := make([]*models.Transaction, len(transactions))
	copy(txns, transactions)
	if rg.config.SortByAmount {
		sort.SliceStable(txns, func(i, j int) bool { return txns[i].Amount.GreaterThan(txns[j].Amount) })
	}
	for i, t := range txns {
		fmt.Fprintf(writer, "  %d. %s\n", i+1, t.String())
		if i >= 9 && len(txns) > 10 {
			fmt.Fprintf(writer, "  ... and %d more\n", len(txns)-10)
			break
		}
	}
}

func (rg *ReportGenerator) printProcessingStats(stats reconciler.ProcessingStats, writer io.Writer) {
	fmt.Fprintf(writer, "Total Processing Time: %v\n", stats.TotalProcessingTime)
	fmt.Fprintf(writer, "Validation Time:       %v\n", stats.ValidationTime)
	fmt.Fprintf(writer, "Matching Time:         %v\n", stats.MatchingTime)
}

func (rg *ReportGenerator) calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func (rg *ReportGenerator) filterResultForOutput(result *reconciler.Result) map[string]interface{} {
	output := map[string]interface{}{
		"summary":      result.Summary,
		"processed_at": result.ProcessedAt,
		"stats":        result.Core.Stats,
	}
	if rg.config.IncludeMatches {
		output["matches"] = result.Core.Matches
	}
	if rg.config.IncludeUnmatchedBank {
		output["unmatched_bank"] = result.Core.UnmatchedBank
	}
	if rg.config.IncludeUnmatchedLedger {
		output["unmatched_ledger"] = result.Core.UnmatchedLedger
	}
	if rg.config.IncludeProcessingStats {
		output["processing_stats"] = result.ProcessingStats
	}
	return output
}

// UpdateConfiguration replaces the generator's configuration.
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}
	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration.
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
