package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finsight-etl/internal/jobs"
	"finsight-etl/internal/models"
	"finsight-etl/pkg/objectstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome is the terminal state of one document's pipeline run.
type Outcome string

const (
	// OutcomeSkipped means the document's content hash already has a
	// completed statement; the run was an idempotent no-op.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeCompleted means the statement reached completed status.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means the statement was finalized as error and the
	// failure was surfaced to the caller.
	OutcomeFailed Outcome = "failed"
)

// ObjectFetcher pulls a document and its owner metadata from the
// object store.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) (*objectstore.Object, error)
}

// DocumentParser extracts line-item transactions from raw bytes.
type DocumentParser interface {
	Parse(data []byte) ([]ParsedTransaction, error)
}

// Enricher classifies transactions; it is total and order preserving.
type Enricher interface {
	Enrich(ctx context.Context, transactions []NormalizedTransaction) []EnrichedTransaction
}

// StatementStore persists statement lifecycle records.
type StatementStore interface {
	GetByContentHash(ctx context.Context, hash string) (*models.Statement, error)
	Create(ctx context.Context, statement *models.Statement) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.StatementStatus) error
}

// AccountStore lazily creates the per-user ledger container.
type AccountStore interface {
	Upsert(ctx context.Context, account *models.Account) error
}

// LedgerStore answers fingerprint existence checks and writes a
// document's transactions and insights atomically.
type LedgerStore interface {
	FingerprintLookup
	CreateBatch(ctx context.Context, transactions []*models.Transaction, insights []*models.Insight) error
}

// ETLService drives the statement pipeline for uploaded documents:
// fetch, hash, replay guard, parse, normalize, deduplicate, enrich,
// persist, finalize.
type ETLService struct {
	store       ObjectFetcher
	statements  StatementStore
	accounts    AccountStore
	ledger      LedgerStore
	parser      DocumentParser
	enricher    Enricher
	parallelism int
	logger      *zap.Logger
}

func NewETLService(
	store ObjectFetcher,
	statements StatementStore,
	accounts AccountStore,
	ledger LedgerStore,
	parser DocumentParser,
	enricher Enricher,
	parallelism int,
	logger *zap.Logger,
) *ETLService {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &ETLService{
		store:       store,
		statements:  statements,
		accounts:    accounts,
		ledger:      ledger,
		parser:      parser,
		enricher:    enricher,
		parallelism: parallelism,
		logger:      logger,
	}
}

// ProcessBatch runs the pipeline for every document in an event.
// Documents are independent units of work: one document's failure never
// aborts its siblings. The joined error is returned so the transport
// can decide whether to redeliver; redelivery is safe because completed
// documents skip on replay.
func (s *ETLService) ProcessBatch(ctx context.Context, event *jobs.StatementEvent) error {
	var group errgroup.Group
	group.SetLimit(s.parallelism)

	for _, ref := range event.Objects {
		key := ref.Key
		group.Go(func() error {
			outcome, err := s.ProcessDocument(ctx, key)
			if err != nil {
				s.logger.Error("Document processing failed",
					zap.String("key", key),
					zap.Error(err),
				)
				return fmt.Errorf("process %s: %w", key, err)
			}
			s.logger.Info("Document processed",
				zap.String("key", key),
				zap.String("outcome", string(outcome)),
			)
			return nil
		})
	}

	return group.Wait()
}

// ProcessDocument runs the full pipeline for one object key. After the
// statement record exists, every failure path finalizes the statement
// as error before the failure is returned; no statement is left in
// processing when this returns.
func (s *ETLService) ProcessDocument(ctx context.Context, key string) (Outcome, error) {
	obj, err := s.store.Fetch(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return OutcomeFailed, fmt.Errorf("%w: %s", ErrDocumentNotFound, key)
		}
		return OutcomeFailed, fmt.Errorf("fetch %s: %w", key, err)
	}
	if obj.UserID == "" {
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrMissingOwner, key)
	}

	userID, err := uuid.Parse(obj.UserID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %s: invalid user id %q", ErrMissingOwner, key, obj.UserID)
	}

	contentHash := ContentHash(obj.Data)

	existing, err := s.statements.GetByContentHash(ctx, contentHash)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("look up statement by content hash: %w", err)
	}
	if existing != nil && existing.Status == models.StatementStatusCompleted {
		s.logger.Info("Document already processed, skipping",
			zap.String("key", key),
			zap.String("content_hash", contentHash),
		)
		return OutcomeSkipped, nil
	}

	statement, err := s.openStatement(ctx, existing, key, contentHash, userID)
	if err != nil {
		return OutcomeFailed, err
	}

	if err := s.run(ctx, obj, statement); err != nil {
		if statusErr := s.statements.UpdateStatus(ctx, statement.ID, models.StatementStatusError); statusErr != nil {
			s.logger.Error("Failed to mark statement as error",
				zap.String("statement_id", statement.ID.String()),
				zap.Error(statusErr),
			)
		}
		return OutcomeFailed, err
	}

	if err := s.statements.UpdateStatus(ctx, statement.ID, models.StatementStatusCompleted); err != nil {
		return OutcomeFailed, fmt.Errorf("mark statement completed: %w", err)
	}
	return OutcomeCompleted, nil
}

// openStatement upserts the owning account and establishes the
// processing-state statement row. A prior non-completed statement for
// the same content hash is reused so a retried document does not race
// the unique key on content hash.
func (s *ETLService) openStatement(ctx context.Context, existing *models.Statement, key, contentHash string, userID uuid.UUID) (*models.Statement, error) {
	account := &models.Account{
		ID:          models.DeriveAccountID(userID),
		UserID:      userID,
		Name:        "Primary Checking",
		Institution: "First National Bank",
		Type:        "checking",
		CreatedAt:   time.Now(),
	}
	if err := s.accounts.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}

	if existing != nil {
		if err := s.statements.UpdateStatus(ctx, existing.ID, models.StatementStatusProcessing); err != nil {
			return nil, fmt.Errorf("reopen statement: %w", err)
		}
		existing.Status = models.StatementStatusProcessing
		return existing, nil
	}

	now := time.Now()
	statement := &models.Statement{
		ID:            uuid.New(),
		AccountID:     account.ID,
		UserID:        userID,
		SourceFileKey: key,
		ContentHash:   contentHash,
		Status:        models.StatementStatusProcessing,
		StatementDate: now,
		StartDate:     now,
		EndDate:       now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.statements.Create(ctx, statement); err != nil {
		return nil, fmt.Errorf("create statement: %w", err)
	}
	return statement, nil
}

// run executes the stages that happen inside an open statement. Any
// error here is converted to a finalized(error) transition by the
// caller.
func (s *ETLService) run(ctx context.Context, obj *objectstore.Object, statement *models.Statement) error {
	parsed, err := s.parser.Parse(obj.Data)
	if err != nil {
		return err
	}

	normalized := NormalizeTransactions(parsed)

	unique, err := Deduplicate(ctx, s.ledger, normalized)
	if err != nil {
		return err
	}
	if len(unique) == 0 {
		// Zero extracted or zero new transactions is a valid result.
		return nil
	}

	enriched := s.enricher.Enrich(ctx, unique)

	transactions, insights, err := buildLedgerRows(enriched, statement)
	if err != nil {
		return err
	}
	if err := s.ledger.CreateBatch(ctx, transactions, insights); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}

	s.logger.Info("Ledger rows written",
		zap.String("statement_id", statement.ID.String()),
		zap.Int("transactions", len(transactions)),
		zap.Int("insights", len(insights)),
	)
	return nil
}

// buildLedgerRows materializes persisted rows from enriched
// transactions: one transaction row each, plus one insight per
// transaction flagged anomalous with a non-empty reason.
func buildLedgerRows(enriched []EnrichedTransaction, statement *models.Statement) ([]*models.Transaction, []*models.Insight, error) {
	now := time.Now()
	transactions := make([]*models.Transaction, 0, len(enriched))
	var insights []*models.Insight

	for _, tx := range enriched {
		date, err := time.Parse("2006-01-02", tx.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid transaction date %q: %w", tx.Date, err)
		}

		row := &models.Transaction{
			ID:          uuid.New(),
			StatementID: statement.ID,
			AccountID:   statement.AccountID,
			UserID:      statement.UserID,
			Date:        date,
			Description: sanitizeUTF8(tx.Description),
			Amount:      tx.Amount,
			Fingerprint: tx.Fingerprint,
			Category:    tx.Category,
			CreatedAt:   now,
		}
		transactions = append(transactions, row)

		if tx.IsAnomaly && tx.AnomalyReason != "" {
			insights = append(insights, &models.Insight{
				ID:            uuid.New(),
				UserID:        statement.UserID,
				Type:          models.InsightTypeAnomaly,
				Content:       tx.AnomalyReason,
				TransactionID: row.ID,
				Date:          date,
				CreatedAt:     now,
			})
		}
	}

	return transactions, insights, nil
}
