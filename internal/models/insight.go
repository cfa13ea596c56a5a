package models

import (
	"time"

	"github.com/google/uuid"
)

type InsightType string

const (
	InsightTypeAnomaly InsightType = "Anomaly"
)

// Insight is a user-facing record derived from an anomalous
// transaction. It references exactly one transaction and is queryable
// independently of the statement it came from.
type Insight struct {
	ID            uuid.UUID   `db:"id"`
	UserID        uuid.UUID   `db:"user_id"`
	Type          InsightType `db:"type"`
	Content       string      `db:"content"`
	TransactionID uuid.UUID   `db:"related_transaction_id"`
	Date          time.Time   `db:"date"`
	CreatedAt     time.Time   `db:"created_at"`
}
