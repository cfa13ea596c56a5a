package service

import "github.com/shopspring/decimal"

// ParsedTransaction is a line item extracted from a document. It lives
// only inside the pipeline; persisted rows are built from the enriched
// form.
type ParsedTransaction struct {
	Date        string // YYYY-MM-DD
	Description string
	Amount      decimal.Decimal
}

// NormalizedTransaction is a ParsedTransaction with a canonicalized
// description and its deduplication fingerprint.
type NormalizedTransaction struct {
	ParsedTransaction
	Fingerprint string
}

// EnrichedTransaction carries the classifier's verdict for a
// normalized transaction.
type EnrichedTransaction struct {
	NormalizedTransaction
	Category      string
	IsAnomaly     bool
	AnomalyReason string
}
