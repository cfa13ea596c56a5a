package repository

import (
	"context"

	"finsight-etl/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the account if absent. The account id is derived from
// the user id, so a repeat insert is an idempotent no-op on conflict.
func (r *AccountRepository) Upsert(ctx context.Context, account *models.Account) error {
	query := squirrel.Insert("accounts").
		Columns("id", "user_id", "name", "institution", "type", "created_at").
		Values(account.ID, account.UserID, account.Name, account.Institution, account.Type, account.CreatedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
