package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"golang-reconciliation-service/internal/models"
	rerrors "golang-reconciliation-service/pkg/errors"
)

// TransactionParser parses CSV files into models.Transaction records. It is used for
// both the bank-side and the ledger-side file since both sides share the same shape;
// the only difference between sides is which TransactionParserConfig is supplied.
type TransactionParser struct {
	*BaseParser
	config *TransactionParserConfig
}

// NewTransactionParser creates a new TransactionParser with the given configuration
func NewTransactionParser(config *TransactionParserConfig) (*TransactionParser, error) {
	if config == nil {
		config = DefaultTransactionParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}

	parseConfig := &ParseConfig{
		HasHeader:        config.HasHeader,
		Delimiter:        config.Delimiter,
		Comment:          0,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     1000000,
		ValidateEncoding: true,
	}

	return &TransactionParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
	}, nil
}

// ParseTransactions parses a CSV file into a slice of transactions
func (tp *TransactionParser) ParseTransactions(filePath string) ([]*models.Transaction, *ParseStats, error) {
	return tp.ParseTransactionsWithContext(context.Background(), filePath)
}

// ParseTransactionsWithContext parses transactions with cancellation support
func (tp *TransactionParser) ParseTransactionsWithContext(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	parseCtx.FilePath = filePath
	stats := NewParseStats()

	requiredHeaders := tp.getRequiredHeaders()
	if err := tp.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return nil, stats, fmt.Errorf("failed to read headers: %w", err)
	}

	var transactions []*models.Transaction

	for {
		if parseCtx.IsCancelled() {
			return transactions, stats, fmt.Errorf("parsing cancelled")
		}

		record, err := tp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		txn, parseErr := tp.parseTransactionFromRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := txn.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "transaction validation failed",
				Err:     err,
			})
			continue
		}

		transactions = append(transactions, txn)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	return transactions, stats, nil
}

// getRequiredHeaders returns the list of required header names for the configured format
func (tp *TransactionParser) getRequiredHeaders() []string {
	headers := []string{
		tp.config.GetColumnName("id"),
		tp.config.GetColumnName("amount"),
		tp.config.GetColumnName("date"),
	}
	if tp.config.HasTypeColumn() {
		headers = append(headers, tp.config.GetColumnName("type"))
	}
	return headers
}

// parseTransactionFromRecord builds a Transaction from a single CSV record
func (tp *TransactionParser) parseTransactionFromRecord(record []string, parseCtx *ParseContext) (*models.Transaction, *ParseError) {
	idField := tp.config.GetColumnName("id")
	id, err := tp.GetFieldValue(record, parseCtx, idField)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: idField, Message: "failed to get id", Err: err}
	}

	amountField := tp.config.GetColumnName("amount")
	amountStr, err := tp.GetFieldValue(record, parseCtx, amountField)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: amountField, Message: "failed to get amount", Err: err}
	}

	dateField := tp.config.GetColumnName("date")
	dateStr, err := tp.GetFieldValue(record, parseCtx, dateField)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: dateField, Message: "failed to get date", Err: err}
	}

	descField := tp.config.GetColumnName("description")
	description, _ := tp.GetFieldValue(record, parseCtx, descField)

	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil {
		enhanced := rerrors.InvalidAmountError(parseCtx.FilePath, parseCtx.LineNumber, amountField, amountStr)
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: amountField, Message: "invalid amount", Err: enhanced}
	}

	date, err := models.ParseDateOnly(strings.TrimSpace(dateStr))
	if err != nil {
		enhanced := rerrors.InvalidDateError(parseCtx.FilePath, parseCtx.LineNumber, dateField, dateStr)
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: dateField, Message: "invalid date", Err: enhanced}
	}

	txType, err := tp.resolveType(record, parseCtx, amount)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: tp.config.GetColumnName("type"), Message: "invalid type", Err: err}
	}

	return &models.Transaction{
		ID:          strings.TrimSpace(id),
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      amount.Abs(),
		Type:        txType,
	}, nil
}

// resolveType determines the transaction type either from an explicit column or,
// for formats that don't carry one, from the sign of the amount.
func (tp *TransactionParser) resolveType(record []string, parseCtx *ParseContext, amount decimal.Decimal) (models.TransactionType, error) {
	if tp.config.HasTypeColumn() {
		typeField := tp.config.GetColumnName("type")
		raw, err := tp.GetFieldValue(record, parseCtx, typeField)
		if err != nil {
			return "", err
		}
		txType, err := normalizeTypeValue(raw)
		if err != nil {
			return "", rerrors.InvalidTransactionTypeError(parseCtx.FilePath, parseCtx.LineNumber, typeField, raw)
		}
		return txType, nil
	}

	if amount.IsNegative() {
		return models.Debit, nil
	}
	return models.Credit, nil
}

// normalizeTypeValue maps common debit/credit spellings onto the canonical type values
func normalizeTypeValue(raw string) (models.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debit", "dr", "d", "-":
		return models.Debit, nil
	case "credit", "cr", "c", "+":
		return models.Credit, nil
	default:
		return "", fmt.Errorf("unrecognized transaction type %q", raw)
	}
}

// ParseTransactionsCallback defines a callback function for streaming transaction parsing
type ParseTransactionsCallback func([]*models.Transaction) error

// ParseTransactionsStream parses transactions in streaming mode with batching
func (tp *TransactionParser) ParseTransactionsStream(
	filePath string,
	batchSize int,
	callback ParseTransactionsCallback,
) (*ParseStats, error) {
	return tp.ParseTransactionsStreamWithContext(context.Background(), filePath, batchSize, callback)
}

// ParseTransactionsStreamWithContext parses transactions in streaming mode with context support
func (tp *TransactionParser) ParseTransactionsStreamWithContext(
	ctx context.Context,
	filePath string,
	batchSize int,
	callback ParseTransactionsCallback,
) (*ParseStats, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	parseCtx.FilePath = filePath
	stats := NewParseStats()

	requiredHeaders := tp.getRequiredHeaders()
	if err := tp.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return stats, fmt.Errorf("failed to read headers: %w", err)
	}

	batch := make([]*models.Transaction, 0, batchSize)

	for {
		if parseCtx.IsCancelled() {
			return stats, fmt.Errorf("parsing cancelled")
		}

		record, err := tp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				if len(batch) > 0 {
					if callbackErr := callback(batch); callbackErr != nil {
						return stats, fmt.Errorf("callback error: %w", callbackErr)
					}
				}
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		txn, parseErr := tp.parseTransactionFromRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := txn.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "transaction validation failed",
				Err:     err,
			})
			continue
		}

		batch = append(batch, txn)
		stats.RecordsValid++

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return stats, fmt.Errorf("callback error: %w", err)
			}
			batch = batch[:0]
		}
	}

	stats.TotalLines = parseCtx.LineNumber

	return stats, nil
}

// DetectFormat attempts to detect the source format from the CSV file's headers
func (tp *TransactionParser) DetectFormat(filePath string) (*TransactionParserConfig, error) {
	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers for format detection: %w", err)
	}

	return AutoDetectBankConfig(headers), nil
}

// ValidateTransactionFile validates that a CSV file matches the configured format
func (tp *TransactionParser) ValidateTransactionFile(filePath string) error {
	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	parseCtx := NewParseContext(context.Background())
	parseCtx.FilePath = filePath

	requiredHeaders := tp.getRequiredHeaders()
	if err := tp.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return fmt.Errorf("header validation failed: %w", err)
	}

	recordCount := 0
	maxValidation := 10

	for recordCount < maxValidation {
		record, err := tp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read record %d: %w", recordCount+1, err)
		}

		recordCount++

		if _, parseErr := tp.parseTransactionFromRecord(record, parseCtx); parseErr != nil {
			return fmt.Errorf("failed to parse record %d: %w", recordCount, parseErr)
		}
	}

	if recordCount == 0 {
		return fmt.Errorf("file contains no data records")
	}

	return nil
}

// GetConfig returns the parser's configuration
func (tp *TransactionParser) GetConfig() *TransactionParserConfig {
	return tp.config
}

// SetConfig updates the parser configuration and reinitializes the underlying reader settings
func (tp *TransactionParser) SetConfig(config *TransactionParserConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid parser configuration: %w", err)
	}

	tp.config = config

	parseConfig := &ParseConfig{
		HasHeader:        config.HasHeader,
		Delimiter:        config.Delimiter,
		Comment:          0,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     1000000,
		ValidateEncoding: true,
	}

	tp.BaseParser = NewBaseParser(parseConfig)

	return nil
}

// NewTransactionParserWithAutoDetect creates a parser by auto-detecting the file format
func NewTransactionParserWithAutoDetect(filePath string) (*TransactionParser, error) {
	tempParser, err := NewTransactionParser(StandardBankConfig)
	if err != nil {
		return nil, err
	}

	config, err := tempParser.DetectFormat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file format: %w", err)
	}

	return NewTransactionParser(config)
}

// ParseMultipleFiles parses multiple transaction files, each potentially in a different format
func ParseMultipleFiles(files map[string]string) (map[string][]*models.Transaction, map[string]*ParseStats, error) {
	results := make(map[string][]*models.Transaction)
	stats := make(map[string]*ParseStats)

	for name, filePath := range files {
		config := GetBankConfig(name)
		if config == nil {
			return nil, nil, fmt.Errorf("unsupported format: %s", name)
		}

		parser, err := NewTransactionParser(config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create parser for %s: %w", name, err)
		}

		transactions, parseStats, err := parser.ParseTransactions(filePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse file for %s: %w", name, err)
		}

		results[name] = transactions
		stats[name] = parseStats
	}

	return results, stats, nil
}
