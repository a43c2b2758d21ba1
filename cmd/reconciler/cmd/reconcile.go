package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang-reconciliation-service/cmd/reconciler/config"
	"golang-reconciliation-service/internal/matcher"
	"golang-reconciliation-service/internal/parsers"
	"golang-reconciliation-service/internal/reconciler"
	"golang-reconciliation-service/internal/reporter"
	"golang-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	bankFile         string
	ledgerFile       string
	bankProfile      string
	ledgerProfile    string
	mode             string
	outputFormat     string
	outputFile       string
	showProgress     bool
	dateWindowStrict int
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile ledger transactions with a bank statement",
	Long: `Reconcile compares a ledger transaction file with a bank statement file
to identify matched, partially matched, and unmatched transactions.

This command requires:
- A bank statement file (CSV format)
- A ledger transaction file (CSV format)

Examples:
  # Basic reconciliation
  reconciler reconcile --bank-file statements.csv --ledger-file ledger.csv

  # Speed mode with JSON output to a file
  reconciler reconcile --bank-file statements.csv --ledger-file ledger.csv \
    --mode speed --format json --output-file report.json

  # Force a known bank export profile instead of auto-detection
  reconciler reconcile --bank-file statements.csv --ledger-file ledger.csv \
    --bank-profile bank2

  # With progress indicators
  reconciler reconcile --bank-file statements.csv --ledger-file ledger.csv --progress

  # Override the strict date window on top of the accuracy profile
  reconciler reconcile --bank-file statements.csv --ledger-file ledger.csv \
    --mode accuracy --date-window-strict 5`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&bankFile, "bank-file", "", "path to bank statement CSV file (required)")
	reconcileCmd.Flags().StringVar(&ledgerFile, "ledger-file", "", "path to ledger transaction CSV file (required)")
	reconcileCmd.Flags().StringVar(&bankProfile, "bank-profile", "", "named bank format profile (standard, bank1, bank2); auto-detected if omitted")
	reconcileCmd.Flags().StringVar(&ledgerProfile, "ledger-profile", "", "named ledger format profile; auto-detected if omitted")
	reconcileCmd.Flags().StringVarP(&mode, "mode", "m", string(matcher.ModeAccuracy), "matching mode: speed, accuracy")
	reconcileCmd.Flags().StringVarP(&outputFormat, "format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")
	reconcileCmd.Flags().IntVar(&dateWindowStrict, "date-window-strict", -1, "override the strict date window (in days) on top of --mode's profile")

	reconcileCmd.MarkFlagRequired("bank-file")
	reconcileCmd.MarkFlagRequired("ledger-file")

	viper.BindPFlag("bank-file", reconcileCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("bank-profile", reconcileCmd.Flags().Lookup("bank-profile"))
	viper.BindPFlag("ledger-profile", reconcileCmd.Flags().Lookup("ledger-profile"))
	viper.BindPFlag("mode", reconcileCmd.Flags().Lookup("mode"))
	viper.BindPFlag("format", reconcileCmd.Flags().Lookup("format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("progress", reconcileCmd.Flags().Lookup("progress"))
	viper.BindPFlag("date-window-strict", reconcileCmd.Flags().Lookup("date-window-strict"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	bankFile = viper.GetString("bank-file")
	ledgerFile = viper.GetString("ledger-file")
	bankProfile = viper.GetString("bank-profile")
	ledgerProfile = viper.GetString("ledger-profile")
	mode = viper.GetString("mode")
	outputFormat = viper.GetString("format")
	outputFile = viper.GetString("output-file")
	showProgress = viper.GetBool("progress")
	dateWindowStrict = viper.GetInt("date-window-strict")

	if bankFile == "" {
		return fmt.Errorf("bank-file is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}

	if err := validateFileExists(bankFile, "bank statement file"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "ledger transaction file"); err != nil {
		return err
	}

	if mode != string(matcher.ModeSpeed) && mode != string(matcher.ModeAccuracy) {
		return fmt.Errorf("invalid mode '%s'. Valid modes: %s, %s", mode, matcher.ModeSpeed, matcher.ModeAccuracy)
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	return logger.TimedOperation("reconcile", logger.GetGlobalLogger().WithComponent("cli"), func() error {
		return doReconcile()
	})
}

func doReconcile() error {
	ctx := context.Background()
	verbose := viper.GetBool("verbose")

	if verbose {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Bank file: %s\n", bankFile)
		fmt.Fprintf(os.Stderr, "Ledger file: %s\n", ledgerFile)
		fmt.Fprintf(os.Stderr, "Mode: %s\n", mode)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	bankParserConfig, err := config.ResolveParserConfig(bankProfile, bankFile)
	if err != nil {
		return fmt.Errorf("failed to resolve bank file format: %w", err)
	}
	ledgerParserConfig, err := config.ResolveParserConfig(ledgerProfile, ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to resolve ledger file format: %w", err)
	}

	matchConfig, err := config.CreateMatchConfig(mode, dateWindowStrict)
	if err != nil {
		return fmt.Errorf("failed to resolve matching mode: %w", err)
	}

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return fmt.Errorf("failed to create report config: %w", err)
	}

	if err := config.ValidateConfig(bankParserConfig, ledgerParserConfig, matchConfig, reportConfig); err != nil {
		return err
	}

	bankParser, err := parsers.NewTransactionParser(bankParserConfig)
	if err != nil {
		return fmt.Errorf("failed to create bank parser: %w", err)
	}
	bankTxns, bankStats, err := bankParser.ParseTransactionsWithContext(ctx, bankFile)
	if err != nil {
		return fmt.Errorf("failed to parse bank file: %w", err)
	}
	if verbose && bankStats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Bank file parse warnings:\n%s\n", bankStats.String())
	}

	ledgerParser, err := parsers.NewTransactionParser(ledgerParserConfig)
	if err != nil {
		return fmt.Errorf("failed to create ledger parser: %w", err)
	}
	ledgerTxns, ledgerStats, err := ledgerParser.ParseTransactionsWithContext(ctx, ledgerFile)
	if err != nil {
		return fmt.Errorf("failed to parse ledger file: %w", err)
	}
	if verbose && ledgerStats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Ledger file parse warnings:\n%s\n", ledgerStats.String())
	}

	reconcilerConfig := config.CreateReconcilerConfig(matcher.Mode(mode))
	driver := reconciler.NewDriver(reconcilerConfig).WithMatchConfig(matchConfig)

	if showProgress {
		driver.OnProgress(func(percent int, stage string) {
			fmt.Fprintf(os.Stderr, "\rReconciling... %s", stage)
			if percent >= 100 {
				fmt.Fprintf(os.Stderr, "\n")
			}
		})
	}

	result, err := driver.Reconcile(ctx, &reconciler.Request{Bank: bankTxns, Ledger: ledgerTxns})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	reportGenerator, err := reporter.NewSafeReportGenerator(reportConfig, logger.GetGlobalLogger())
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReportSafely(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d bank transactions and %d ledger transactions.\n",
			result.Summary.TotalBank, result.Summary.TotalLedger)
		fmt.Fprintf(os.Stderr, "Match rate: %.1f%%\n", result.Summary.MatchRate)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Summary.ProcessingDuration)
	}

	return nil
}
