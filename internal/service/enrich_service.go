package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finsight-etl/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const defaultCategory = "Uncategorized"

// textGenerator is the slice of the LLM client the enrichment pipeline
// needs. Narrowed to an interface so tests can substitute a fake.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type gigaGenerator struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
}

func (g *gigaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from classifier")
	}
	return resp.Choices[0].Message.Content, nil
}

// EnrichService classifies transactions through the external LLM in
// fixed-size batches. A failed or malformed batch degrades to default
// enrichment for that batch only; enrichment never fails a document.
type EnrichService struct {
	generator textGenerator
	batchSize int
	logger    *zap.Logger
}

// NewEnrichService builds an EnrichService backed by GigaChat.
func NewEnrichService(cfg *config.GigaChatConfig, batchSize int, logger *zap.Logger) (*EnrichService, func(), error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(context.Background(), cfg.APIKey, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.Temperature = 0.2

	svc := newEnrichService(&gigaGenerator{client: client, model: model}, batchSize, logger)
	return svc, func() { client.Close() }, nil
}

func newEnrichService(generator textGenerator, batchSize int, logger *zap.Logger) *EnrichService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EnrichService{
		generator: generator,
		batchSize: batchSize,
		logger:    logger,
	}
}

// batchResult is the classifier's answer for one batch: one entry per
// input transaction, positionally aligned with the request.
type batchResult struct {
	Transactions []struct {
		Category      string `json:"category"`
		IsAnomaly     bool   `json:"is_anomaly"`
		AnomalyReason string `json:"anomaly_reason"`
	} `json:"transactions"`
}

// Enrich returns the input transactions augmented with category and
// anomaly verdicts, same length and order as the input. It is total:
// every failure mode degrades locally instead of propagating.
func (s *EnrichService) Enrich(ctx context.Context, transactions []NormalizedTransaction) []EnrichedTransaction {
	enriched := make([]EnrichedTransaction, 0, len(transactions))
	for start := 0; start < len(transactions); start += s.batchSize {
		end := start + s.batchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		enriched = append(enriched, s.enrichBatch(ctx, transactions[start:end])...)
	}
	return enriched
}

func (s *EnrichService) enrichBatch(ctx context.Context, batch []NormalizedTransaction) []EnrichedTransaction {
	content, err := s.generator.Generate(ctx, buildEnrichmentPrompt(batch))
	if err != nil {
		s.logger.Warn("Classifier call failed, using default enrichment for batch",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		return defaultEnrichment(batch)
	}

	result, err := parseBatchResult(content)
	if err != nil {
		s.logger.Warn("Classifier returned malformed output, using default enrichment for batch",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		return defaultEnrichment(batch)
	}

	enriched := make([]EnrichedTransaction, len(batch))
	for i, tx := range batch {
		enriched[i] = EnrichedTransaction{
			NormalizedTransaction: tx,
			Category:              defaultCategory,
		}
		if i >= len(result.Transactions) {
			// Missing entries degrade individually.
			continue
		}
		verdict := result.Transactions[i]
		if verdict.Category != "" {
			enriched[i].Category = sanitizeUTF8(verdict.Category)
		}
		enriched[i].IsAnomaly = verdict.IsAnomaly
		enriched[i].AnomalyReason = sanitizeUTF8(verdict.AnomalyReason)
	}
	return enriched
}

func defaultEnrichment(batch []NormalizedTransaction) []EnrichedTransaction {
	enriched := make([]EnrichedTransaction, len(batch))
	for i, tx := range batch {
		enriched[i] = EnrichedTransaction{
			NormalizedTransaction: tx,
			Category:              defaultCategory,
		}
	}
	return enriched
}

// parseBatchResult extracts the result object from the model output,
// tolerating markdown fences and surrounding prose.
func parseBatchResult(content string) (*batchResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in response: %s", content)
	}

	var result batchResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &result, nil
}

func buildEnrichmentPrompt(batch []NormalizedTransaction) string {
	var list strings.Builder
	for _, tx := range batch {
		fmt.Fprintf(&list, "- Date: %s, Description: %q, Amount: %s\n", tx.Date, tx.Description, tx.Amount.StringFixed(2))
	}

	return fmt.Sprintf(`Analyze the following financial transactions. For each transaction, provide a category and determine if it's an anomaly.
Categories: Dining, Groceries, Travel, Shopping, Utilities, Rent/Mortgage, Income, Transfers, Health, Entertainment, Other.
An anomaly is a transaction that is unusually large, occurs at an odd time, or has a suspicious description.
Respond with ONLY a JSON object containing a single key "transactions": an array with one object per input transaction, in the same order as the input. Each object must have these keys:
- "category": (string) The assigned category.
- "is_anomaly": (boolean) True if it's an anomaly, otherwise false.
- "anomaly_reason": (string or empty) A brief explanation if it is an anomaly.
Transactions:
%s`, list.String())
}
