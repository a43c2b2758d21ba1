package parsers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-reconciliation-service/internal/models"
)

// ProgressReport contains information about parsing progress for long-running operations.
// Progress reports are generated at configurable intervals during streaming operations.
type ProgressReport struct {
	ProcessedRecords int
	ValidRecords     int
	ErrorCount       int
	ElapsedTime      time.Duration
	EstimatedTotal   int
	PercentComplete  float64
}

// ProgressCallback is called periodically to report parsing progress
type ProgressCallback func(*ProgressReport)

// StreamingTransactionParser provides memory-efficient streaming capabilities for transaction
// parsing. Use it for either side when a file is too large to load into memory in one pass.
type StreamingTransactionParser struct {
	*TransactionParser
	config *StreamingConfig
}

// NewStreamingTransactionParser creates a new streaming transaction parser
func NewStreamingTransactionParser(config *TransactionParserConfig, streamConfig *StreamingConfig) (*StreamingTransactionParser, error) {
	if streamConfig == nil {
		streamConfig = DefaultStreamingConfig()
	}

	if err := streamConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid streaming configuration: %w", err)
	}

	transactionParser, err := NewTransactionParser(config)
	if err != nil {
		return nil, err
	}

	return &StreamingTransactionParser{
		TransactionParser: transactionParser,
		config:            streamConfig,
	}, nil
}

// ParseTransactionsStreamAdvanced parses transactions with advanced streaming features
func (stp *StreamingTransactionParser) ParseTransactionsStreamAdvanced(
	ctx context.Context,
	filePath string,
	callback ParseTransactionsCallback,
	progressCallback ProgressCallback,
) (*ParseStats, error) {
	startTime := time.Now()
	stats := NewParseStats()

	var estimatedTotal int
	if stp.config.ReportProgress && progressCallback != nil {
		total, err := stp.estimateRecordCount(filePath)
		if err != nil {
			estimatedTotal = 0
		} else {
			estimatedTotal = total
		}
	}

	batchCallback := func(transactions []*models.Transaction) error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("processing cancelled")
		default:
			if err := callback(transactions); err != nil {
				return fmt.Errorf("user callback error: %w", err)
			}

			stats.RecordsValid += len(transactions)

			if stp.config.ReportProgress && progressCallback != nil &&
				stats.RecordsValid%stp.config.ProgressInterval == 0 {

				elapsed := time.Since(startTime)
				var percentComplete float64
				if estimatedTotal > 0 {
					percentComplete = float64(stats.RecordsValid) / float64(estimatedTotal) * 100
				}

				progressCallback(&ProgressReport{
					ProcessedRecords: stats.RecordsParsed,
					ValidRecords:     stats.RecordsValid,
					ErrorCount:       stats.ErrorCount,
					ElapsedTime:      elapsed,
					EstimatedTotal:   estimatedTotal,
					PercentComplete:  percentComplete,
				})
			}

			return nil
		}
	}

	parseStats, err := stp.ParseTransactionsStreamWithContext(
		ctx, filePath, stp.config.BatchSize, batchCallback)

	stats.TotalLines = parseStats.TotalLines
	stats.RecordsParsed = parseStats.RecordsParsed
	stats.ErrorCount = parseStats.ErrorCount
	stats.Errors = parseStats.Errors

	if stp.config.ReportProgress && progressCallback != nil {
		elapsed := time.Since(startTime)
		progressCallback(&ProgressReport{
			ProcessedRecords: stats.RecordsParsed,
			ValidRecords:     stats.RecordsValid,
			ErrorCount:       stats.ErrorCount,
			ElapsedTime:      elapsed,
			EstimatedTotal:   estimatedTotal,
			PercentComplete:  100.0,
		})
	}

	return stats, err
}

// estimateRecordCount attempts to estimate the total number of records in the file
func (stp *StreamingTransactionParser) estimateRecordCount(filePath string) (int, error) {
	file, reader, err := stp.OpenFile(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	parseCtx := NewParseContext(context.Background())

	if stp.TransactionParser.config.HasHeader {
		if err := stp.ReadHeaders(reader, parseCtx, nil); err != nil {
			return 0, err
		}
	}

	count := 0
	for {
		_, err := stp.ReadRecord(reader, parseCtx)
		if err != nil {
			break
		}
		count++
	}

	return count, nil
}

// ConcurrentParser provides concurrent parsing capabilities for multiple files
type ConcurrentParser struct {
	maxConcurrency int
	semaphore      chan struct{}
}

// NewConcurrentParser creates a new concurrent parser
func NewConcurrentParser(maxConcurrency int) *ConcurrentParser {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	return &ConcurrentParser{
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
	}
}

// ConcurrentParseResult holds the result of a concurrent parsing operation
type ConcurrentParseResult struct {
	FilePath     string
	Transactions []*models.Transaction
	Stats        *ParseStats
	Error        error
}

// ParseTransactionsConcurrently parses multiple transaction files concurrently, each
// potentially using a different column configuration (e.g. the bank file and the
// ledger file arriving in different export formats).
func (cp *ConcurrentParser) ParseTransactionsConcurrently(
	ctx context.Context,
	files map[string]*TransactionParserConfig,
) <-chan *ConcurrentParseResult {
	results := make(chan *ConcurrentParseResult, len(files))

	var wg sync.WaitGroup

	for filePath, config := range files {
		wg.Add(1)

		go func(path string, cfg *TransactionParserConfig) {
			defer wg.Done()

			cp.semaphore <- struct{}{}
			defer func() { <-cp.semaphore }()

			result := &ConcurrentParseResult{FilePath: path}

			parser, err := NewTransactionParser(cfg)
			if err != nil {
				result.Error = fmt.Errorf("failed to create parser: %w", err)
				results <- result
				return
			}

			transactions, stats, err := parser.ParseTransactionsWithContext(ctx, path)
			result.Transactions = transactions
			result.Stats = stats
			result.Error = err

			results <- result
		}(filePath, config)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
