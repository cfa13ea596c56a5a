package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeFingerprintLookup struct {
	existing map[string]struct{}
	err      error
	queried  []string
}

func (f *fakeFingerprintLookup) ExistingFingerprints(ctx context.Context, fingerprints []string) (map[string]struct{}, error) {
	f.queried = append(f.queried, fingerprints...)
	return f.existing, f.err
}

func normalizedFixture(descriptions ...string) []NormalizedTransaction {
	parsed := make([]ParsedTransaction, len(descriptions))
	for i, description := range descriptions {
		parsed[i] = ParsedTransaction{
			Date:        "2024-03-14",
			Description: description,
			Amount:      decimal.NewFromInt(int64(i + 1)),
		}
	}
	return NormalizeTransactions(parsed)
}

func TestDeduplicate_FiltersKnownFingerprints(t *testing.T) {
	transactions := normalizedFixture("alpha", "beta", "gamma")
	lookup := &fakeFingerprintLookup{
		existing: map[string]struct{}{transactions[1].Fingerprint: {}},
	}

	unique, err := Deduplicate(context.Background(), lookup, transactions)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(unique) != 2 {
		t.Fatalf("Deduplicate() returned %d transactions, want 2", len(unique))
	}
	if unique[0].Description != "alpha" || unique[1].Description != "gamma" {
		t.Errorf("Deduplicate() did not preserve relative order: %q, %q", unique[0].Description, unique[1].Description)
	}
}

func TestDeduplicate_CollapsesRepeatedLines(t *testing.T) {
	transactions := normalizedFixture("coffee", "coffee", "groceries")
	// Identical amounts so the repeated lines share a fingerprint.
	transactions[1].Amount = transactions[0].Amount
	transactions[1].Fingerprint = transactions[0].Fingerprint
	lookup := &fakeFingerprintLookup{existing: map[string]struct{}{}}

	unique, err := Deduplicate(context.Background(), lookup, transactions)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(unique) != 2 {
		t.Fatalf("Deduplicate() returned %d transactions, want 2", len(unique))
	}
	if unique[0].Description != "coffee" || unique[1].Description != "groceries" {
		t.Errorf("kept %q and %q, want first occurrence then groceries", unique[0].Description, unique[1].Description)
	}
}

func TestDeduplicate_SingleLookupForAllFingerprints(t *testing.T) {
	transactions := normalizedFixture("a", "b", "c", "d")
	lookup := &fakeFingerprintLookup{existing: map[string]struct{}{}}

	if _, err := Deduplicate(context.Background(), lookup, transactions); err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(lookup.queried) != len(transactions) {
		t.Errorf("lookup saw %d fingerprints, want %d", len(lookup.queried), len(transactions))
	}
}

func TestDeduplicate_EmptyInputSkipsLookup(t *testing.T) {
	lookup := &fakeFingerprintLookup{err: errors.New("should not be called")}

	unique, err := Deduplicate(context.Background(), lookup, nil)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(unique) != 0 {
		t.Errorf("Deduplicate() returned %d transactions, want 0", len(unique))
	}
	if len(lookup.queried) != 0 {
		t.Error("lookup was called for empty input")
	}
}

func TestDeduplicate_LookupErrorPropagates(t *testing.T) {
	transactions := normalizedFixture("alpha")
	lookup := &fakeFingerprintLookup{err: errors.New("db down")}

	if _, err := Deduplicate(context.Background(), lookup, transactions); err == nil {
		t.Fatal("Deduplicate() error = nil, want lookup failure")
	}
}
