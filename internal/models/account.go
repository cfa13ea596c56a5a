package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the logical ledger container for a user's transactions.
// It is created lazily on the first statement processed for that user;
// the id is derived from the user id so the upsert is an idempotent
// no-op on conflict.
type Account struct {
	ID          string    `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Name        string    `db:"name"`
	Institution string    `db:"institution"`
	Type        string    `db:"type"`
	CreatedAt   time.Time `db:"created_at"`
}

// DeriveAccountID builds the deterministic account id for a user.
func DeriveAccountID(userID uuid.UUID) string {
	return "acc_" + userID.String()[:8]
}
