package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		description string
		expectError bool
	}{
		{"valid file", validFile, "test file", false},
		{"empty path", "", "test file", true},
		{"non-existent file", "/non/existent/file.csv", "test file", true},
		{"directory instead of file", tmpDir, "test file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, tt.description)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	ledgerFile := filepath.Join(tmpDir, "ledger.csv")
	bankFile := filepath.Join(tmpDir, "statements.csv")

	if err := os.WriteFile(ledgerFile, []byte("id,amount,date,description\nTX001,100.50,2024-01-15,test\n"), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}
	if err := os.WriteFile(bankFile, []byte("unique_identifier,amount,date,description\nBS001,100.50,2024-01-15,test\n"), 0644); err != nil {
		t.Fatalf("failed to create bank file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("bank-file", bankFile)
				viper.Set("ledger-file", ledgerFile)
				viper.Set("mode", "accuracy")
				viper.Set("format", "console")
			},
			expectError: false,
		},
		{
			name: "missing bank file",
			setupFlags: func() {
				viper.Set("bank-file", "")
				viper.Set("ledger-file", ledgerFile)
			},
			expectError:   true,
			errorContains: "bank-file is required",
		},
		{
			name: "missing ledger file",
			setupFlags: func() {
				viper.Set("bank-file", bankFile)
				viper.Set("ledger-file", "")
			},
			expectError:   true,
			errorContains: "ledger-file is required",
		},
		{
			name: "invalid mode",
			setupFlags: func() {
				viper.Set("bank-file", bankFile)
				viper.Set("ledger-file", ledgerFile)
				viper.Set("mode", "bogus")
			},
			expectError:   true,
			errorContains: "invalid mode",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("bank-file", bankFile)
				viper.Set("ledger-file", ledgerFile)
				viper.Set("mode", "accuracy")
				viper.Set("format", "invalid")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateReconcileFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReconcileCommandHelp(t *testing.T) {
	cmd := reconcileCmd

	for _, name := range []string{"bank-file", "ledger-file", "mode", "format", "output-file", "progress", "date-window-strict"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("%s flag not found", name)
		}
	}

	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	cmd.Help()

	helpText := helpOutput.String()

	expectedSections := []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--bank-file",
		"--ledger-file",
		"--mode",
		"--format",
	}

	for _, section := range expectedSections {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestOutputFormatValidation(t *testing.T) {
	validFormats := []string{"console", "json", "csv"}
	invalidFormats := []string{"xml", "yaml", "invalid", ""}

	validFormatsMap := map[string]bool{"console": true, "json": true, "csv": true}

	for _, format := range validFormats {
		t.Run(fmt.Sprintf("valid_%s", format), func(t *testing.T) {
			if !validFormatsMap[format] {
				t.Errorf("format '%s' should be valid", format)
			}
		})
	}

	for _, format := range invalidFormats {
		t.Run(fmt.Sprintf("invalid_%s", format), func(t *testing.T) {
			if validFormatsMap[format] {
				t.Errorf("format '%s' should be invalid", format)
			}
		})
	}
}

func TestFlagBinding(t *testing.T) {
	cmd := reconcileCmd

	flagNames := []string{
		"bank-file", "ledger-file", "bank-profile", "ledger-profile",
		"mode", "format", "output-file", "progress", "date-window-strict",
	}

	for _, name := range flagNames {
		t.Run(name, func(t *testing.T) {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("flag '%s' not found", name)
			}
		})
	}
}
