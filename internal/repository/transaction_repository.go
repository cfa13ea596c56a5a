package repository

import (
	"context"
	"fmt"

	"finsight-etl/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// fingerprintChunkSize bounds the parameter count of one existence
// query; Postgres caps bind parameters at 65535 and large statements
// can carry thousands of rows.
const fingerprintChunkSize = 1000

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// ExistingFingerprints returns the subset of the given fingerprints
// that are already persisted, queried in chunked batches rather than
// one round trip per fingerprint.
func (r *TransactionRepository) ExistingFingerprints(ctx context.Context, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})

	for _, chunk := range chunkStrings(fingerprints, fingerprintChunkSize) {
		query := squirrel.Select("fingerprint").
			From("transactions").
			Where(squirrel.Eq{"fingerprint": chunk}).
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := query.ToSql()
		if err != nil {
			return nil, err
		}

		rows, err := r.db.Query(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("query fingerprints: %w", err)
		}

		for rows.Next() {
			var fingerprint string
			if err := rows.Scan(&fingerprint); err != nil {
				rows.Close()
				return nil, err
			}
			existing[fingerprint] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return existing, nil
}

// CreateBatch writes a document's transactions and derived insights in
// one database transaction; the write is all-or-nothing for the set.
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction, insights []*models.Insight) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txInsert := squirrel.Insert("transactions").
		Columns("id", "statement_id", "account_id", "user_id", "date", "description", "amount", "fingerprint", "category", "created_at").
		PlaceholderFormat(squirrel.Dollar)
	for _, row := range transactions {
		txInsert = txInsert.Values(
			row.ID, row.StatementID, row.AccountID, row.UserID, row.Date,
			row.Description, row.Amount, row.Fingerprint, row.Category, row.CreatedAt,
		)
	}

	sql, args, err := txInsert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}

	if len(insights) > 0 {
		insightInsert := squirrel.Insert("insights").
			Columns("id", "user_id", "type", "content", "related_transaction_id", "date", "created_at").
			PlaceholderFormat(squirrel.Dollar)
		for _, insight := range insights {
			insightInsert = insightInsert.Values(
				insight.ID, insight.UserID, insight.Type, insight.Content,
				insight.TransactionID, insight.Date, insight.CreatedAt,
			)
		}

		sql, args, err := insightInsert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert insights: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *TransactionRepository) ListByStatementID(ctx context.Context, statementID uuid.UUID) ([]*models.Transaction, error) {
	query := squirrel.Select("id", "statement_id", "account_id", "user_id", "date", "description", "amount", "fingerprint", "category", "created_at").
		From("transactions").
		Where(squirrel.Eq{"statement_id": statementID}).
		OrderBy("date DESC").
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

	var transactions []*models.Transaction
	for rows.Next() {
		var row models.Transaction
		if err := rows.Scan(
			&row.ID, &row.StatementID, &row.AccountID, &row.UserID, &row.Date,
			&row.Description, &row.Amount, &row.Fingerprint, &row.Category, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &row)
	}

	return transactions, rows.Err()
}

// chunkStrings splits values into consecutive chunks of at most size.
func chunkStrings(values []string, size int) [][]string {
	if size <= 0 || len(values) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
