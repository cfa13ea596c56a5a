package repository

import (
	"context"

	"finsight-etl/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type InsightRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewInsightRepository(db *pgxpool.Pool, logger *zap.Logger) *InsightRepository {
	return &InsightRepository{
		db:     db,
		logger: logger,
	}
}

func (r *InsightRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Insight, error) {
	query := squirrel.Select("id", "user_id", "type", "content", "related_transaction_id", "date", "created_at").
		From("insights").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		var insight models.Insight
		if err := rows.Scan(
			&insight.ID, &insight.UserID, &insight.Type, &insight.Content,
			&insight.TransactionID, &insight.Date, &insight.CreatedAt,
		); err != nil {
			return nil, err
		}
		insights = append(insights, &insight)
	}

	return insights, rows.Err()
}
