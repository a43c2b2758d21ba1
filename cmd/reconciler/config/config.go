// Package config builds the parser, matcher, and reporter configurations the
// reconcile command wires together from CLI flags and viper-bound settings.
package config

import (
	"fmt"

	"golang-reconciliation-service/internal/matcher"
	"golang-reconciliation-service/internal/parsers"
	"golang-reconciliation-service/internal/reconciler"
	"golang-reconciliation-service/internal/reporter"
)

// CreateTransactionParserConfig creates a transaction parser configuration with
// common column-name aliases. ResolveParserConfig uses it only to build the
// parser that detects a file's format; a file whose headers match no
// predefined bank profile is parsed with the standard profile.
func CreateTransactionParserConfig() *parsers.TransactionParserConfig {
	config := parsers.DefaultTransactionParserConfig()
	config.ColumnAliases = map[string]string{
		"id":             "id",
		"tx_id":          "id",
		"txn_id":         "id",
		"transaction_id": "id",
		"unique_identifier": "id",
		"amt":            "amount",
		"value":          "amount",
		"sum":            "amount",
		"desc":           "description",
		"memo":           "description",
		"narrative":      "description",
		"time":           "date",
		"datetime":       "date",
		"timestamp":      "date",
		"posting_date":   "date",
		"value_date":     "date",
	}
	return config
}

// ResolveParserConfig picks the parser configuration for a file: the named
// profile if one was requested, auto-detection from the file's headers
// otherwise.
func ResolveParserConfig(profile string, filePath string) (*parsers.TransactionParserConfig, error) {
	if profile != "" {
		config := parsers.GetBankConfig(profile)
		if config == nil {
			return nil, fmt.Errorf("unknown format profile: %s", profile)
		}
		return config, nil
	}

	parser, err := parsers.NewTransactionParser(CreateTransactionParserConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build detection parser: %w", err)
	}

	detected, err := parser.DetectFormat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect format for %s: %w", filePath, err)
	}
	return detected, nil
}

// CreateMatchConfig resolves the named mode to its threshold profile. When
// dateWindowStrictOverride is >= 0, it starts from that profile via
// matcher.CustomConfig and overrides DateWindowStrict, mirroring the
// teacher CLI's practice of overriding individual fields on top of a named
// profile rather than hand-building a config from scratch. A negative value
// means no override was requested.
func CreateMatchConfig(mode string, dateWindowStrictOverride int) (*matcher.ReconcileConfig, error) {
	if dateWindowStrictOverride < 0 {
		return matcher.ConfigForMode(matcher.Mode(mode))
	}

	config, err := matcher.CustomConfig(matcher.Mode(mode))
	if err != nil {
		return nil, err
	}
	config.DateWindowStrict = dateWindowStrictOverride
	return config, nil
}

// CreateReconcilerConfig creates a driver-level configuration for CLI use:
// the requested mode, with input validation and statistics on.
func CreateReconcilerConfig(mode matcher.Mode) *reconciler.Config {
	config := reconciler.DefaultConfig()
	config.Mode = mode
	return config
}

// CreateReportConfig creates a report configuration for the requested output format.
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	outputFormat := reporter.OutputFormat(format)
	if !outputFormat.IsValid() {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	config.Format = outputFormat

	switch outputFormat {
	case reporter.FormatCSV:
		config.IncludeProcessingStats = false
	}

	return config, nil
}

// ValidateConfig validates the full set of configurations built for a run.
func ValidateConfig(bankConfig, ledgerConfig *parsers.TransactionParserConfig, matchConfig *matcher.ReconcileConfig, reportConfig *reporter.ReportConfig) error {
	if err := bankConfig.Validate(); err != nil {
		return fmt.Errorf("invalid bank file configuration: %w", err)
	}
	if err := ledgerConfig.Validate(); err != nil {
		return fmt.Errorf("invalid ledger file configuration: %w", err)
	}
	if err := matchConfig.Validate(); err != nil {
		return fmt.Errorf("invalid matching configuration: %w", err)
	}
	if err := reportConfig.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}
	return nil
}
