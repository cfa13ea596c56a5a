package service

import (
	"context"
	"fmt"
)

// FingerprintLookup reports which of the given fingerprints are already
// persisted. Implementations must answer in batched round trips, not
// one query per fingerprint.
type FingerprintLookup interface {
	ExistingFingerprints(ctx context.Context, fingerprints []string) (map[string]struct{}, error)
}

// Deduplicate filters out transactions whose fingerprint is already in
// storage or earlier in the same document, preserving relative order.
// Re-ingesting an already-processed or overlapping statement therefore
// becomes a no-op for previously seen transactions, and repeated lines
// within one document keep their first occurrence only.
func Deduplicate(ctx context.Context, lookup FingerprintLookup, transactions []NormalizedTransaction) ([]NormalizedTransaction, error) {
	if len(transactions) == 0 {
		return nil, nil
	}

	fingerprints := make([]string, len(transactions))
	for i, tx := range transactions {
		fingerprints[i] = tx.Fingerprint
	}

	existing, err := lookup.ExistingFingerprints(ctx, fingerprints)
	if err != nil {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if existing == nil {
		existing = make(map[string]struct{}, len(transactions))
	}

	unique := make([]NormalizedTransaction, 0, len(transactions))
	for _, tx := range transactions {
		if _, seen := existing[tx.Fingerprint]; seen {
			continue
		}
		existing[tx.Fingerprint] = struct{}{}
		unique = append(unique, tx)
	}

	return unique, nil
}
