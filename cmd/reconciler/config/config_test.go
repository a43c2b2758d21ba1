package config

import (
	"os"
	"testing"

	"golang-reconciliation-service/internal/matcher"
	"golang-reconciliation-service/internal/reporter"
)

func TestCreateTransactionParserConfig(t *testing.T) {
	config := CreateTransactionParserConfig()

	if config.IDColumn != "id" {
		t.Errorf("expected IDColumn 'id', got '%s'", config.IDColumn)
	}
	if config.AmountColumn != "amount" {
		t.Errorf("expected AmountColumn 'amount', got '%s'", config.AmountColumn)
	}
	if config.DateColumn != "date" {
		t.Errorf("expected DateColumn 'date', got '%s'", config.DateColumn)
	}
	if !config.HasHeader {
		t.Error("expected HasHeader to be true")
	}
	if config.Delimiter != ',' {
		t.Errorf("expected Delimiter ',', got '%c'", config.Delimiter)
	}

	if len(config.ColumnAliases) == 0 {
		t.Error("expected column aliases to be set")
	}
	if config.ColumnAliases["unique_identifier"] != "id" {
		t.Error("expected 'unique_identifier' alias to map to 'id'")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("transaction parser config should be valid: %v", err)
	}
}

func TestResolveParserConfig_NamedProfile(t *testing.T) {
	config, err := ResolveParserConfig("standard", "")
	if err != nil {
		t.Fatalf("failed to resolve named profile: %v", err)
	}
	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("resolved config should be valid: %v", err)
	}
}

func TestResolveParserConfig_UnknownProfile(t *testing.T) {
	_, err := ResolveParserConfig("nonexistent-profile", "")
	if err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestResolveParserConfig_AutoDetect(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "txns-*.csv")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString("id,amount,date,description\nA1,100.00,2024-01-01,test\n"); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	config, err := ResolveParserConfig("", f.Name())
	if err != nil {
		t.Fatalf("failed to auto-detect config: %v", err)
	}
	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("detected config should be valid: %v", err)
	}
}

func TestCreateMatchConfig(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		expectError bool
	}{
		{"speed mode", "speed", false},
		{"accuracy mode", "accuracy", false},
		{"unknown mode", "bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateMatchConfig(tt.mode, -1)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for mode '%s'", tt.mode)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("match config should be valid: %v", err)
			}
		})
	}
}

func TestCreateMatchConfig_DateWindowStrictOverride(t *testing.T) {
	base, err := CreateMatchConfig("accuracy", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.DateWindowStrict != 3 {
		t.Fatalf("expected accuracy base DateWindowStrict 3, got %d", base.DateWindowStrict)
	}

	overridden, err := CreateMatchConfig("accuracy", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overridden.DateWindowStrict != 7 {
		t.Errorf("expected overridden DateWindowStrict 7, got %d", overridden.DateWindowStrict)
	}
	if overridden.DateWindowLoose != base.DateWindowLoose {
		t.Errorf("expected other fields to remain at the accuracy profile's values, got DateWindowLoose=%d", overridden.DateWindowLoose)
	}
	if err := overridden.Validate(); err != nil {
		t.Errorf("overridden config should be valid: %v", err)
	}

	if _, err := CreateMatchConfig("bogus", 7); err == nil {
		t.Error("expected error for unknown mode even with an override set")
	}
}

func TestCreateReconcilerConfig(t *testing.T) {
	tests := []struct {
		name string
		mode matcher.Mode
	}{
		{"speed mode", matcher.ModeSpeed},
		{"accuracy mode", matcher.ModeAccuracy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateReconcilerConfig(tt.mode)

			if config.Mode != tt.mode {
				t.Errorf("expected Mode %s, got %s", tt.mode, config.Mode)
			}
			if !config.ValidateInputs {
				t.Error("expected ValidateInputs to be true")
			}
			if !config.IncludeStatistics {
				t.Error("expected IncludeStatistics to be true")
			}
		})
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name         string
		format       string
		expectedType reporter.OutputFormat
		expectError  bool
	}{
		{"console format", "console", reporter.FormatConsole, false},
		{"json format", "json", reporter.FormatJSON, false},
		{"csv format", "csv", reporter.FormatCSV, false},
		{"unsupported format", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateReportConfig(tt.format)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for format '%s'", tt.format)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.expectedType {
				t.Errorf("expected Format %s, got %s", tt.expectedType, config.Format)
			}

			if tt.format == "csv" && config.IncludeProcessingStats {
				t.Error("CSV format should not include processing stats by default")
			}

			if err := config.Validate(); err != nil {
				t.Errorf("report config should be valid: %v", err)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	transactionConfig := CreateTransactionParserConfig()
	matchConfig, err := CreateMatchConfig("accuracy", -1)
	if err != nil {
		t.Fatalf("failed to build match config: %v", err)
	}
	reportConfig, err := CreateReportConfig("console")
	if err != nil {
		t.Fatalf("failed to build report config: %v", err)
	}

	if err := ValidateConfig(transactionConfig, transactionConfig, matchConfig, reportConfig); err != nil {
		t.Errorf("expected valid configuration set, got error: %v", err)
	}

	invalidTransactionConfig := *transactionConfig
	invalidTransactionConfig.IDColumn = ""
	if err := ValidateConfig(&invalidTransactionConfig, transactionConfig, matchConfig, reportConfig); err == nil {
		t.Error("expected error for invalid bank file configuration")
	}

	if err := ValidateConfig(transactionConfig, &invalidTransactionConfig, matchConfig, reportConfig); err == nil {
		t.Error("expected error for invalid ledger file configuration")
	}

	invalidMatchConfig := *matchConfig
	invalidMatchConfig.MaxCombinationDepth = -1
	if err := ValidateConfig(transactionConfig, transactionConfig, &invalidMatchConfig, reportConfig); err == nil {
		t.Error("expected error for invalid matching configuration")
	}

	invalidReportConfig := *reportConfig
	invalidReportConfig.TableMaxWidth = 1
	if err := ValidateConfig(transactionConfig, transactionConfig, matchConfig, &invalidReportConfig); err == nil {
		t.Error("expected error for invalid report configuration")
	}
}
