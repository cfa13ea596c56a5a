package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// scriptedGenerator returns one canned response per call, in order.
type scriptedGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	call := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if call < len(g.errs) && g.errs[call] != nil {
		return "", g.errs[call]
	}
	if call < len(g.responses) {
		return g.responses[call], nil
	}
	return "", errors.New("no scripted response")
}

func batchResponse(categories ...string) string {
	entries := make([]string, len(categories))
	for i, category := range categories {
		entries[i] = fmt.Sprintf(`{"category": %q, "is_anomaly": false, "anomaly_reason": ""}`, category)
	}
	return fmt.Sprintf(`{"transactions": [%s]}`, strings.Join(entries, ","))
}

func TestEnrich_OrderAndLengthPreserved(t *testing.T) {
	transactions := normalizedFixture("one", "two", "three")
	generator := &scriptedGenerator{responses: []string{batchResponse("Dining", "Groceries", "Travel")}}
	svc := newEnrichService(generator, 10, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	if len(enriched) != len(transactions) {
		t.Fatalf("Enrich() returned %d, want %d", len(enriched), len(transactions))
	}
	wantCategories := []string{"Dining", "Groceries", "Travel"}
	for i, tx := range enriched {
		if tx.Description != transactions[i].Description {
			t.Errorf("position %d holds %q, want %q", i, tx.Description, transactions[i].Description)
		}
		if tx.Category != wantCategories[i] {
			t.Errorf("position %d category = %q, want %q", i, tx.Category, wantCategories[i])
		}
	}
}

func TestEnrich_ChunksByBatchSize(t *testing.T) {
	transactions := normalizedFixture("a", "b", "c", "d", "e")
	generator := &scriptedGenerator{responses: []string{
		batchResponse("Dining", "Dining"),
		batchResponse("Travel", "Travel"),
		batchResponse("Other"),
	}}
	svc := newEnrichService(generator, 2, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	if len(generator.prompts) != 3 {
		t.Fatalf("classifier called %d times, want 3", len(generator.prompts))
	}
	if len(enriched) != 5 {
		t.Fatalf("Enrich() returned %d, want 5", len(enriched))
	}
	if enriched[4].Category != "Other" {
		t.Errorf("last category = %q, want %q", enriched[4].Category, "Other")
	}
}

func TestEnrich_FailedBatchDegradesAlone(t *testing.T) {
	transactions := normalizedFixture("a", "b", "c", "d")
	generator := &scriptedGenerator{
		responses: []string{"", batchResponse("Travel", "Travel")},
		errs:      []error{errors.New("classifier unavailable"), nil},
	}
	svc := newEnrichService(generator, 2, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	if len(enriched) != 4 {
		t.Fatalf("Enrich() returned %d, want 4", len(enriched))
	}
	for i := 0; i < 2; i++ {
		if enriched[i].Category != defaultCategory {
			t.Errorf("failed batch position %d category = %q, want %q", i, enriched[i].Category, defaultCategory)
		}
		if enriched[i].IsAnomaly {
			t.Errorf("failed batch position %d flagged anomalous", i)
		}
	}
	for i := 2; i < 4; i++ {
		if enriched[i].Category != "Travel" {
			t.Errorf("healthy batch position %d category = %q, want Travel", i, enriched[i].Category)
		}
	}
}

func TestEnrich_MalformedResponseDegrades(t *testing.T) {
	transactions := normalizedFixture("a", "b")
	generator := &scriptedGenerator{responses: []string{"I cannot classify these transactions."}}
	svc := newEnrichService(generator, 10, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	for i, tx := range enriched {
		if tx.Category != defaultCategory {
			t.Errorf("position %d category = %q, want %q", i, tx.Category, defaultCategory)
		}
	}
}

func TestEnrich_MissingEntriesDefaultIndividually(t *testing.T) {
	transactions := normalizedFixture("a", "b", "c")
	generator := &scriptedGenerator{responses: []string{batchResponse("Dining")}}
	svc := newEnrichService(generator, 10, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	if enriched[0].Category != "Dining" {
		t.Errorf("position 0 category = %q, want Dining", enriched[0].Category)
	}
	for i := 1; i < 3; i++ {
		if enriched[i].Category != defaultCategory {
			t.Errorf("position %d category = %q, want %q", i, enriched[i].Category, defaultCategory)
		}
	}
}

func TestEnrich_AnomalyCarriesReason(t *testing.T) {
	transactions := normalizedFixture("wire transfer")
	generator := &scriptedGenerator{responses: []string{
		"```json\n{\"transactions\": [{\"category\": \"Transfers\", \"is_anomaly\": true, \"anomaly_reason\": \"Unusually large transfer\"}]}\n```",
	}}
	svc := newEnrichService(generator, 10, zap.NewNop())

	enriched := svc.Enrich(context.Background(), transactions)
	if !enriched[0].IsAnomaly {
		t.Fatal("anomaly flag not set")
	}
	if enriched[0].AnomalyReason != "Unusually large transfer" {
		t.Errorf("anomaly reason = %q", enriched[0].AnomalyReason)
	}
}

func TestEnrich_EmptyInput(t *testing.T) {
	generator := &scriptedGenerator{}
	svc := newEnrichService(generator, 10, zap.NewNop())

	if got := svc.Enrich(context.Background(), nil); len(got) != 0 {
		t.Errorf("Enrich(nil) returned %d entries, want 0", len(got))
	}
	if len(generator.prompts) != 0 {
		t.Error("classifier called for empty input")
	}
}

func TestBuildEnrichmentPrompt_ListsEveryTransaction(t *testing.T) {
	transactions := normalizedFixture("COFFEE SHOP", "GROCERY MART")
	prompt := buildEnrichmentPrompt(transactions)

	for _, tx := range transactions {
		if !strings.Contains(prompt, tx.Description) {
			t.Errorf("prompt missing transaction %q", tx.Description)
		}
	}
	if !strings.Contains(prompt, "same order as the input") {
		t.Error("prompt does not pin positional alignment")
	}
}
