package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	StatementID uuid.UUID       `db:"statement_id"`
	AccountID   string          `db:"account_id"`
	UserID      uuid.UUID       `db:"user_id"`
	Date        time.Time       `db:"date"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Fingerprint string          `db:"fingerprint"`
	Category    string          `db:"category"`
	CreatedAt   time.Time       `db:"created_at"`
}
