package reporter

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang-reconciliation-service/internal/models"
	"golang-reconciliation-service/internal/reconciler"

	"github.com/shopspring/decimal"
)

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{name: "default config", config: nil, expectError: false},
		{name: "valid config", config: DefaultReportConfig(), expectError: false},
		{
			name:        "invalid format",
			config:      &ReportConfig{Format: "invalid", TableMaxWidth: 120},
			expectError: true,
		},
		{
			name:        "table width too small",
			config:      &ReportConfig{Format: FormatConsole, TableMaxWidth: 30},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Errorf("expected generator but got nil")
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{FormatCSV, true},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if tt.format.IsValid() != tt.valid {
				t.Errorf("expected IsValid() = %v for format %s", tt.valid, tt.format)
			}
		})
	}
}

func TestReportConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{name: "valid config", config: DefaultReportConfig(), expectError: false},
		{
			name:        "invalid format",
			config:      &ReportConfig{Format: "invalid", TableMaxWidth: 120},
			expectError: true,
		},
		{
			name:        "table width too small",
			config:      &ReportConfig{Format: FormatConsole, TableMaxWidth: 30},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Errorf("expected validation error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestGenerateReport(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		name        string
		config      *ReportConfig
		result      *reconciler.Result
		expectError bool
		checkOutput func(t *testing.T, output string)
	}{
		{
			name: "console format",
			config: &ReportConfig{
				Format:                 FormatConsole,
				IncludeMatches:         true,
				IncludeUnmatchedBank:   true,
				IncludeUnmatchedLedger: true,
				IncludeProcessingStats: true,
				TableMaxWidth:          120,
			},
			result:      result,
			expectError: false,
			checkOutput: func(t *testing.T, output string) {
				if !strings.Contains(output, "RECONCILIATION REPORT") {
					t.Errorf("console output should contain report header")
				}
				if !strings.Contains(output, "=== SUMMARY ===") {
					t.Errorf("console output should contain summary section")
				}
				if !strings.Contains(output, "=== MATCHES ===") {
					t.Errorf("console output should contain matches section")
				}
				if !strings.Contains(output, "=== UNMATCHED BANK TRANSACTIONS ===") {
					t.Errorf("console output should contain unmatched bank section")
				}
			},
		},
		{
			name: "JSON format",
			config: &ReportConfig{
				Format:                 FormatJSON,
				IncludeUnmatchedBank:   true,
				IncludeUnmatchedLedger: true,
				IncludeProcessingStats: true,
				TableMaxWidth:          120,
			},
			result:      result,
			expectError: false,
			checkOutput: func(t *testing.T, output string) {
				var jsonData map[string]interface{}
				if err := json.Unmarshal([]byte(output), &jsonData); err != nil {
					t.Errorf("output should be valid JSON: %v", err)
				}
				if _, exists := jsonData["summary"]; !exists {
					t.Errorf("JSON output should contain summary")
				}
				if _, exists := jsonData["unmatched_bank"]; !exists {
					t.Errorf("JSON output should contain unmatched_bank")
				}
				if _, exists := jsonData["unmatched_ledger"]; !exists {
					t.Errorf("JSON output should contain unmatched_ledger")
				}
			},
		},
		{
			name: "CSV format",
			config: &ReportConfig{
				Format:                 FormatCSV,
				IncludeMatches:         true,
				IncludeUnmatchedBank:   true,
				IncludeUnmatchedLedger: true,
				CSVHeaders:             true,
				CSVDelimiter:           ',',
				TableMaxWidth:          120,
			},
			result:      result,
			expectError: false,
			checkOutput: func(t *testing.T, output string) {
				lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
				if len(lines) < 2 {
					t.Errorf("CSV output should have at least header and one data row")
				}
				if !strings.Contains(lines[0], "Row_Type,Match_ID,Side,ID,Amount") {
					t.Errorf("CSV should contain expected headers, got %q", lines[0])
				}
			},
		},
		{
			name:        "nil result",
			config:      DefaultReportConfig(),
			result:      nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if err != nil {
				t.Fatalf("failed to create report generator: %v", err)
			}

			var buffer bytes.Buffer
			err = generator.GenerateReport(tt.result, &buffer)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.checkOutput != nil {
				tt.checkOutput(t, buffer.String())
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	generator, _ := NewReportGenerator(DefaultReportConfig())

	tests := []struct {
		name     string
		part     int
		total    int
		expected float64
	}{
		{"normal case", 25, 100, 25.0},
		{"zero total", 10, 0, 0.0},
		{"zero part", 0, 100, 0.0},
		{"equal parts", 50, 50, 100.0},
		{"fractional result", 1, 3, float64(1) / float64(3) * 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generator.calculatePercentage(tt.part, tt.total)
			if result != tt.expected {
				t.Errorf("calculatePercentage(%d, %d) = %f, expected %f", tt.part, tt.total, result, tt.expected)
			}
		})
	}
}

func TestFilterResultForOutput(t *testing.T) {
	generator, _ := NewReportGenerator(&ReportConfig{
		Format:                 FormatJSON,
		IncludeUnmatchedBank:   true,
		IncludeProcessingStats: false,
		TableMaxWidth:          120,
	})

	result := sampleResult()
	filtered := generator.filterResultForOutput(result)

	if _, exists := filtered["summary"]; !exists {
		t.Errorf("filtered result should always include summary")
	}
	if _, exists := filtered["processed_at"]; !exists {
		t.Errorf("filtered result should always include processed_at")
	}
	if _, exists := filtered["unmatched_bank"]; !exists {
		t.Errorf("filtered result should include unmatched_bank when configured")
	}
	if _, exists := filtered["processing_stats"]; exists {
		t.Errorf("filtered result should not include processing_stats when not configured")
	}
}

func TestUpdateConfiguration(t *testing.T) {
	generator, _ := NewReportGenerator(DefaultReportConfig())

	newConfig := &ReportConfig{Format: FormatJSON, TableMaxWidth: 80}
	if err := generator.UpdateConfiguration(newConfig); err != nil {
		t.Errorf("unexpected error updating configuration: %v", err)
	}
	if !reflect.DeepEqual(generator.GetConfiguration(), newConfig) {
		t.Errorf("configuration was not updated correctly")
	}

	invalidConfig := &ReportConfig{Format: "invalid", TableMaxWidth: 80}
	if err := generator.UpdateConfiguration(invalidConfig); err == nil {
		t.Errorf("expected error for invalid configuration but got none")
	}
}

func TestConsoleOutputSections(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		name             string
		config           *ReportConfig
		shouldContain    []string
		shouldNotContain []string
	}{
		{
			name: "all sections enabled",
			config: &ReportConfig{
				Format:                 FormatConsole,
				IncludeMatches:         true,
				IncludeUnmatchedBank:   true,
				IncludeUnmatchedLedger: true,
				IncludeProcessingStats: true,
				TableMaxWidth:          120,
			},
			shouldContain: []string{
				"=== SUMMARY ===",
				"=== MATCH QUALITY BREAKDOWN ===",
				"=== MATCHES ===",
				"=== UNMATCHED BANK TRANSACTIONS ===",
				"=== UNMATCHED LEDGER TRANSACTIONS ===",
				"=== PROCESSING STATISTICS ===",
			},
		},
		{
			name: "minimal sections",
			config: &ReportConfig{
				Format:                 FormatConsole,
				IncludeMatches:         false,
				IncludeUnmatchedBank:   false,
				IncludeUnmatchedLedger: false,
				IncludeProcessingStats: false,
				TableMaxWidth:          120,
			},
			shouldContain: []string{
				"=== SUMMARY ===",
				"=== MATCH QUALITY BREAKDOWN ===",
			},
			shouldNotContain: []string{
				"=== MATCHES ===",
				"=== UNMATCHED BANK TRANSACTIONS ===",
				"=== UNMATCHED LEDGER TRANSACTIONS ===",
				"=== PROCESSING STATISTICS ===",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if err != nil {
				t.Fatalf("failed to create report generator: %v", err)
			}

			var buffer bytes.Buffer
			if err := generator.GenerateReport(result, &buffer); err != nil {
				t.Fatalf("failed to generate report: %v", err)
			}

			output := buffer.String()
			for _, section := range tt.shouldContain {
				if !strings.Contains(output, section) {
					t.Errorf("output should contain section: %s", section)
				}
			}
			for _, section := range tt.shouldNotContain {
				if strings.Contains(output, section) {
					t.Errorf("output should not contain section: %s", section)
				}
			}
		})
	}
}

func TestCSVFormatting(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		name      string
		config    *ReportConfig
		checkFunc func(t *testing.T, output string)
	}{
		{
			name: "with headers",
			config: &ReportConfig{
				Format:               FormatCSV,
				IncludeUnmatchedBank: true,
				CSVHeaders:           true,
				CSVDelimiter:         ',',
				TableMaxWidth:        120,
			},
			checkFunc: func(t *testing.T, output string) {
				lines := strings.Split(output, "\n")
				if len(lines) < 1 || !strings.Contains(lines[0], "Row_Type") {
					t.Errorf("CSV should start with headers when enabled")
				}
			},
		},
		{
			name: "without headers",
			config: &ReportConfig{
				Format:               FormatCSV,
				IncludeUnmatchedBank: true,
				CSVHeaders:           false,
				CSVDelimiter:         ',',
				TableMaxWidth:        120,
			},
			checkFunc: func(t *testing.T, output string) {
				lines := strings.Split(output, "\n")
				if len(lines) >= 1 && strings.Contains(lines[0], "Row_Type") {
					t.Errorf("CSV should not start with headers when disabled")
				}
			},
		},
		{
			name: "custom delimiter",
			config: &ReportConfig{
				Format:               FormatCSV,
				IncludeUnmatchedBank: true,
				CSVHeaders:           true,
				CSVDelimiter:         ';',
				TableMaxWidth:        120,
			},
			checkFunc: func(t *testing.T, output string) {
				if !strings.Contains(output, ";") {
					t.Errorf("CSV should use custom delimiter")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if err != nil {
				t.Fatalf("failed to create report generator: %v", err)
			}

			var buffer bytes.Buffer
			if err := generator.GenerateReport(result, &buffer); err != nil {
				t.Fatalf("failed to generate report: %v", err)
			}
			tt.checkFunc(t, buffer.String())
		})
	}
}

func sampleResult() *reconciler.Result {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	bankMatched := &models.Transaction{ID: "b1", Date: now, Description: "Wire ACME", Amount: decimal.NewFromFloat(100.50), Type: models.Debit}
	ledgerMatched := &models.Transaction{ID: "l1", Date: now, Description: "Wire ACME Ltd", Amount: decimal.NewFromFloat(100.50), Type: models.Debit}
	bankUnmatched := &models.Transaction{ID: "b2", Date: now, Description: "Unmatched bank entry", Amount: decimal.NewFromFloat(250.00), Type: models.Credit}
	ledgerUnmatched := &models.Transaction{ID: "l2", Date: now, Description: "Unmatched ledger entry", Amount: decimal.NewFromFloat(75.25), Type: models.Credit}

	match := &models.MatchGroup{
		ID:         "m-1",
		Bank:       []*models.Transaction{bankMatched},
		Ledger:     []*models.Transaction{ledgerMatched},
		Kind:       models.KindExact,
		Reason:     "Perfect Match",
		Confidence: 0.95,
	}

	core := &models.ReconciliationResult{
		Matches:         []*models.MatchGroup{match},
		UnmatchedBank:   []*models.Transaction{bankUnmatched},
		UnmatchedLedger: []*models.Transaction{ledgerUnmatched},
		Stats: models.Stats{
			TotalBank: 2, TotalLedger: 2,
			MatchedBankCount: 1, MatchedLedgerCount: 1,
			UnmatchedBankCount: 1, UnmatchedLedgerCount: 1,
			MatchRate: 50.0,
		},
	}

	return &reconciler.Result{
		Core: core,
		Summary: reconciler.ResultSummary{
			TotalBank: 2, TotalLedger: 2,
			MatchedBank: 1, MatchedLedger: 1,
			UnmatchedBank: 1, UnmatchedLedger: 1,
			ExactMatches:       1,
			MatchRate:          50.0,
			ProcessingDuration: 2 * time.Second,
		},
		ProcessingStats: reconciler.ProcessingStats{
			TotalProcessingTime: 2 * time.Second,
			ValidationTime:      100 * time.Millisecond,
			MatchingTime:        1200 * time.Millisecond,
		},
		ProcessedAt: now,
	}
}

func TestEmptyResultHandling(t *testing.T) {
	now := time.Now()
	emptyResult := &reconciler.Result{
		Core: &models.ReconciliationResult{
			Matches:         []*models.MatchGroup{},
			UnmatchedBank:   []*models.Transaction{},
			UnmatchedLedger: []*models.Transaction{},
			Stats:           models.Stats{},
		},
		Summary:         reconciler.ResultSummary{},
		ProcessingStats: reconciler.ProcessingStats{},
		ProcessedAt:     now,
	}

	for _, format := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			config := DefaultReportConfig()
			config.Format = format

			generator, err := NewReportGenerator(config)
			if err != nil {
				t.Fatalf("failed to create report generator: %v", err)
			}

			var buffer bytes.Buffer
			if err := generator.GenerateReport(emptyResult, &buffer); err != nil {
				t.Errorf("should handle empty result without error: %v", err)
			}
			if buffer.Len() == 0 {
				t.Errorf("should produce some output even for empty results")
			}
		})
	}
}

func BenchmarkGenerateConsoleReport(b *testing.B) {
	result := sampleResult()
	generator, _ := NewReportGenerator(DefaultReportConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buffer bytes.Buffer
		_ = generator.GenerateReport(result, &buffer)
	}
}

func BenchmarkGenerateJSONReport(b *testing.B) {
	result := sampleResult()
	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, _ := NewReportGenerator(config)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buffer bytes.Buffer
		_ = generator.GenerateReport(result, &buffer)
	}
}

func BenchmarkGenerateCSVReport(b *testing.B) {
	result := sampleResult()
	config := DefaultReportConfig()
	config.Format = FormatCSV
	generator, _ := NewReportGenerator(config)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buffer bytes.Buffer
		_ = generator.GenerateReport(result, &buffer)
	}
}
