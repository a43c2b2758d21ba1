package matcher

import "testing"

func TestExtractNumericTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"reference with letters and digits", "TRF INV-99821 ACME", []string{"99821"}},
		{"all digit reference", "Payment ref 883221 for services", []string{"883221"}},
		{"calendar year rejected", "Salary 2024 payment", nil},
		{"short digit run rejected", "Item 42", nil},
		{"two separate tokens", "INV001 REF5577", []string{"001", "5577"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractNumericTokens(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("extractNumericTokens(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for _, w := range tt.want {
				if !got[w] {
					t.Errorf("extractNumericTokens(%q) missing expected token %q, got %v", tt.input, w, got)
				}
			}
		})
	}
}

func TestSharesNumericToken(t *testing.T) {
	if !sharesNumericToken("TRF INV-99821 ACME", "Invoice 99821 payment") {
		t.Error("expected shared numeric token between descriptions referencing 99821")
	}
	if sharesNumericToken("Salary June payment", "K. Mensah salary payment") {
		t.Error("expected no shared numeric token when neither description carries one")
	}
}
