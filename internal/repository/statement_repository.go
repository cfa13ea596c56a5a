package repository

import (
	"context"
	"errors"

	"finsight-etl/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var statementColumns = []string{
	"id", "account_id", "user_id", "source_file_key", "content_hash",
	"status", "statement_date", "start_date", "end_date", "created_at", "updated_at",
}

type StatementRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStatementRepository(db *pgxpool.Pool, logger *zap.Logger) *StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the statement row. The unique key on content_hash is
// the storage-layer guard against two concurrent attempts at the same
// document content; the loser of that race fails here cleanly.
func (r *StatementRepository) Create(ctx context.Context, statement *models.Statement) error {
	query := squirrel.Insert("statements").
		Columns(statementColumns...).
		Values(
			statement.ID, statement.AccountID, statement.UserID, statement.SourceFileKey,
			statement.ContentHash, statement.Status, statement.StatementDate,
			statement.StartDate, statement.EndDate, statement.CreatedAt, statement.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByContentHash returns the statement for a content hash, or nil
// when the hash has never been seen.
func (r *StatementRepository) GetByContentHash(ctx context.Context, hash string) (*models.Statement, error) {
	query := squirrel.Select(statementColumns...).
		From("statements").
		Where(squirrel.Eq{"content_hash": hash}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	statement, err := r.scanStatement(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return statement, err
}

func (r *StatementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Statement, error) {
	query := squirrel.Select(statementColumns...).
		From("statements").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanStatement(r.db.QueryRow(ctx, sql, args...))
}

func (r *StatementRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Statement, error) {
	query := squirrel.Select(statementColumns...).
		From("statements").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
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

	var statements []*models.Statement
	for rows.Next() {
		statement, err := r.scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}

	return statements, rows.Err()
}

// UpdateStatus is the single mutation a statement supports after
// creation.
func (r *StatementRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.StatementStatus) error {
	query := squirrel.Update("statements").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *StatementRepository) scanStatement(row pgx.Row) (*models.Statement, error) {
	var statement models.Statement
	err := row.Scan(
		&statement.ID, &statement.AccountID, &statement.UserID, &statement.SourceFileKey,
		&statement.ContentHash, &statement.Status, &statement.StatementDate,
		&statement.StartDate, &statement.EndDate, &statement.CreatedAt, &statement.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &statement, nil
}
