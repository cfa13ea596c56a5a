package service

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTransactions canonicalizes parsed transactions and attaches
// their fingerprints. Pure and order preserving; it never fails.
func NormalizeTransactions(parsed []ParsedTransaction) []NormalizedTransaction {
	normalized := make([]NormalizedTransaction, len(parsed))
	for i, tx := range parsed {
		tx.Description = strings.TrimSpace(whitespaceRun.ReplaceAllString(tx.Description, " "))
		normalized[i] = NormalizedTransaction{
			ParsedTransaction: tx,
			Fingerprint:       TransactionFingerprint(tx.Date, tx.Description, tx.Amount),
		}
	}
	return normalized
}
