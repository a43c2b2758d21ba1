package parsers

import (
	"fmt"
	"strings"
)

// TransactionParserConfig holds configuration for parsing a CSV file of transactions,
// used symmetrically for both bank-side and ledger-side files since both sides share
// the same models.Transaction shape.
type TransactionParserConfig struct {
	Name              string            `json:"name"`
	IDColumn          string            `json:"id_column"`
	AmountColumn      string            `json:"amount_column"`
	DateColumn        string            `json:"date_column"`
	DescriptionColumn string            `json:"description_column"`
	TypeColumn        string            `json:"type_column,omitempty"`
	DateFormat        string            `json:"date_format,omitempty"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
	Description       string            `json:"description,omitempty"`
}

// Validate checks if the parser configuration is valid
func (tpc *TransactionParserConfig) Validate() error {
	if strings.TrimSpace(tpc.IDColumn) == "" {
		return fmt.Errorf("id column cannot be empty")
	}

	if strings.TrimSpace(tpc.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}

	if strings.TrimSpace(tpc.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name for a standard field, checking aliases first
func (tpc *TransactionParserConfig) GetColumnName(standardName string) string {
	if alias, exists := tpc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "id":
		return tpc.IDColumn
	case "amount":
		return tpc.AmountColumn
	case "date":
		return tpc.DateColumn
	case "description":
		return tpc.DescriptionColumn
	case "type":
		return tpc.TypeColumn
	default:
		return standardName
	}
}

// HasTypeColumn reports whether this format carries an explicit debit/credit column.
// When it doesn't, the parser infers transaction type from the sign of the amount.
func (tpc *TransactionParserConfig) HasTypeColumn() bool {
	return strings.TrimSpace(tpc.TypeColumn) != ""
}

// DefaultTransactionParserConfig returns a configuration with standard defaults
func DefaultTransactionParserConfig() *TransactionParserConfig {
	return &TransactionParserConfig{
		Name:              "Standard",
		IDColumn:          "id",
		AmountColumn:      "amount",
		DateColumn:        "date",
		DescriptionColumn: "description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// Predefined configurations for common bank export formats. Ledger exports almost
// always arrive in the Standard shape; these exist to tolerate bank statement
// formats that differ in column naming, date format, or delimiter.
var (
	// StandardBankConfig is a generic bank statement / ledger export format
	StandardBankConfig = &TransactionParserConfig{
		Name:              "Standard",
		IDColumn:          "unique_identifier",
		AmountColumn:      "amount",
		DateColumn:        "date",
		DescriptionColumn: "description",
		DateFormat:        "2006-01-02",
		HasHeader:         true,
		Delimiter:         ',',
		Description:       "Standard bank statement format",
	}

	// SampleBank1Config represents Bank1's specific format
	SampleBank1Config = &TransactionParserConfig{
		Name:              "Bank1",
		IDColumn:          "transaction_id",
		AmountColumn:      "transaction_amount",
		DateColumn:        "posting_date",
		DescriptionColumn: "transaction_description",
		DateFormat:        "01/02/2006",
		HasHeader:         true,
		Delimiter:         ',',
		Description:       "Bank1 statement format with MM/DD/YYYY dates",
	}

	// SampleBank2Config represents Bank2's specific format
	SampleBank2Config = &TransactionParserConfig{
		Name:              "Bank2",
		IDColumn:          "ref_number",
		AmountColumn:      "debit_credit_amount",
		DateColumn:        "value_date",
		DescriptionColumn: "transaction_details",
		TypeColumn:        "debit_credit_indicator",
		DateFormat:        "2006-01-02",
		HasHeader:         true,
		Delimiter:         ';',
		Description:       "Bank2 statement format with semicolon delimiter",
	}
)

// GetBankConfig returns a predefined parser configuration by name
func GetBankConfig(name string) *TransactionParserConfig {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard":
		return StandardBankConfig
	case "bank1":
		return SampleBank1Config
	case "bank2":
		return SampleBank2Config
	default:
		return nil
	}
}

// ListAvailableBankConfigs returns all available predefined configurations
func ListAvailableBankConfigs() []*TransactionParserConfig {
	return []*TransactionParserConfig{
		StandardBankConfig,
		SampleBank1Config,
		SampleBank2Config,
	}
}

// AutoDetectBankConfig attempts to detect the source format from CSV headers
func AutoDetectBankConfig(headers []string) *TransactionParserConfig {
	headerMap := make(map[string]bool)
	for _, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = true
	}

	configs := ListAvailableBankConfigs()

	for _, config := range configs {
		score := 0
		totalFields := 3 // id, amount, date

		if headerMap[strings.ToLower(config.IDColumn)] {
			score++
		}
		if headerMap[strings.ToLower(config.AmountColumn)] {
			score++
		}
		if headerMap[strings.ToLower(config.DateColumn)] {
			score++
		}

		if score == totalFields {
			return config
		}
	}

	return StandardBankConfig
}

// StreamingConfig holds configuration for streaming operations
type StreamingConfig struct {
	BatchSize        int  `json:"batch_size"`
	MaxConcurrency   int  `json:"max_concurrency"`
	BufferSize       int  `json:"buffer_size"`
	ContinueOnError  bool `json:"continue_on_error"`
	MaxErrors        int  `json:"max_errors"`
	ReportProgress   bool `json:"report_progress"`
	ProgressInterval int  `json:"progress_interval"`
}

// DefaultStreamingConfig returns a configuration with sensible defaults for streaming
func DefaultStreamingConfig() *StreamingConfig {
	return &StreamingConfig{
		BatchSize:        1000,
		MaxConcurrency:   4,
		BufferSize:       8192,
		ContinueOnError:  true,
		MaxErrors:        100,
		ReportProgress:   false,
		ProgressInterval: 10000,
	}
}

// Validate checks if the streaming configuration is valid
func (sc *StreamingConfig) Validate() error {
	if sc.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", sc.BatchSize)
	}

	if sc.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", sc.MaxConcurrency)
	}

	if sc.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", sc.BufferSize)
	}

	if sc.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative, got %d", sc.MaxErrors)
	}

	if sc.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %d", sc.ProgressInterval)
	}

	return nil
}
