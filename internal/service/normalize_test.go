package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeTransactions_CollapsesWhitespace(t *testing.T) {
	parsed := []ParsedTransaction{
		{Date: "2024-03-14", Description: "  COFFEE   SHOP \t DOWNTOWN ", Amount: decimal.NewFromFloat(-4.5)},
	}

	normalized := NormalizeTransactions(parsed)
	if len(normalized) != 1 {
		t.Fatalf("NormalizeTransactions() returned %d, want 1", len(normalized))
	}
	if got, want := normalized[0].Description, "COFFEE SHOP DOWNTOWN"; got != want {
		t.Errorf("description = %q, want %q", got, want)
	}
	if normalized[0].Fingerprint == "" {
		t.Error("fingerprint is empty")
	}
}

func TestNormalizeTransactions_PreservesOrder(t *testing.T) {
	parsed := []ParsedTransaction{
		{Date: "2024-01-01", Description: "A", Amount: decimal.NewFromInt(1)},
		{Date: "2024-01-02", Description: "B", Amount: decimal.NewFromInt(2)},
		{Date: "2024-01-03", Description: "C", Amount: decimal.NewFromInt(3)},
	}

	normalized := NormalizeTransactions(parsed)
	for i, tx := range normalized {
		if tx.Description != parsed[i].Description {
			t.Errorf("position %d description = %q, want %q", i, tx.Description, parsed[i].Description)
		}
	}
}

func TestTransactionFingerprint_Stability(t *testing.T) {
	amount1, _ := decimal.NewFromString("4.50")
	amount2, _ := decimal.NewFromString("4.5")

	a := TransactionFingerprint("2024-03-14", "Coffee  Shop", amount1)
	b := TransactionFingerprint("2024-03-14", "coffee shop", amount2)
	if a != b {
		t.Errorf("fingerprints differ for equivalent transactions: %s vs %s", a, b)
	}
}

func TestTransactionFingerprint_SignInsensitive(t *testing.T) {
	debit, _ := decimal.NewFromString("-4.50")
	credit, _ := decimal.NewFromString("4.50")

	a := TransactionFingerprint("2024-03-14", "coffee shop", debit)
	b := TransactionFingerprint("2024-03-14", "coffee shop", credit)
	if a != b {
		t.Error("fingerprint should use the absolute amount")
	}
}

func TestTransactionFingerprint_Distinguishes(t *testing.T) {
	amount := decimal.NewFromFloat(4.50)

	tests := []struct {
		name        string
		date        string
		description string
		amount      decimal.Decimal
	}{
		{"different date", "2024-03-15", "coffee shop", amount},
		{"different description", "2024-03-14", "tea shop", amount},
		{"different amount", "2024-03-14", "coffee shop", decimal.NewFromFloat(5.50)},
	}

	base := TransactionFingerprint("2024-03-14", "coffee shop", amount)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransactionFingerprint(tt.date, tt.description, tt.amount); got == base {
				t.Error("fingerprint collision for distinct transactions")
			}
		})
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	data := []byte("statement bytes")
	if ContentHash(data) != ContentHash(append([]byte(nil), data...)) {
		t.Error("ContentHash is not deterministic for identical bytes")
	}
	if ContentHash(data) == ContentHash([]byte("other bytes")) {
		t.Error("ContentHash collision for different bytes")
	}
	if got := len(ContentHash(data)); got != 64 {
		t.Errorf("ContentHash length = %d, want 64 hex chars", got)
	}
}
