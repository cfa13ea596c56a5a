package models

import (
	"time"

	"github.com/google/uuid"
)

// StatementStatus is the lifecycle state of one processing attempt over
// one uploaded document. A statement moves from processing to exactly
// one of completed or error and is never deleted.
type StatementStatus string

const (
	StatementStatusProcessing StatementStatus = "processing"
	StatementStatusCompleted  StatementStatus = "completed"
	StatementStatusError      StatementStatus = "error"
)

type Statement struct {
	ID            uuid.UUID       `db:"id"`
	AccountID     string          `db:"account_id"`
	UserID        uuid.UUID       `db:"user_id"`
	SourceFileKey string          `db:"source_file_key"`
	ContentHash   string          `db:"content_hash"`
	Status        StatementStatus `db:"status"`
	StatementDate time.Time       `db:"statement_date"`
	StartDate     time.Time       `db:"start_date"`
	EndDate       time.Time       `db:"end_date"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
