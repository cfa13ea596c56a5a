package service

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// ContentHash returns the SHA-256 digest of a raw document, hex
// encoded. It is the natural key that prevents reprocessing the same
// physical file: same bytes, same hash, across restarts.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TransactionFingerprint derives the deduplication key for a
// transaction from its date, description and absolute amount. The
// description is lowercased and stripped to alphanumerics and the
// amount is fixed to two decimals, so formatting and case differences
// in source documents do not defeat deduplication. Legitimately
// repeated charges with identical date, description and amount
// collapse to one fingerprint; that loss is accepted.
func TransactionFingerprint(date, description string, amount decimal.Decimal) string {
	clean := nonAlphanumeric.ReplaceAllString(strings.ToLower(description), "")
	payload := date + "|" + clean + "|" + amount.Abs().StringFixed(2)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
