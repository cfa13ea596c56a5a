package handlers

import (
	"fmt"
	"time"

	"finsight-etl/internal/dto"
	"finsight-etl/internal/jobs"
	"finsight-etl/internal/models"
	"finsight-etl/internal/repository"
	"finsight-etl/pkg/objectstore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPageSize = 50

// StatementHandler serves the upload surface and the read surfaces
// over persisted pipeline output. The upload path only streams bytes
// to the object store and publishes an event; all processing happens
// in the ETL worker.
type StatementHandler struct {
	store         *objectstore.Client
	publisher     jobs.Publisher
	statementRepo *repository.StatementRepository
	txRepo        *repository.TransactionRepository
	insightRepo   *repository.InsightRepository
	logger        *zap.Logger
}

func NewStatementHandler(
	store *objectstore.Client,
	publisher jobs.Publisher,
	statementRepo *repository.StatementRepository,
	txRepo *repository.TransactionRepository,
	insightRepo *repository.InsightRepository,
	logger *zap.Logger,
) *StatementHandler {
	return &StatementHandler{
		store:         store,
		publisher:     publisher,
		statementRepo: statementRepo,
		txRepo:        txRepo,
		insightRepo:   insightRepo,
		logger:        logger,
	}
}

// Upload accepts a multipart document, writes it to the object store
// with the owner recorded in metadata, and enqueues it for processing.
func (h *StatementHandler) Upload(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	key := uuid.New().String() + "-" + file.Filename
	contentType := file.Header.Get("Content-Type")

	if err := h.store.Upload(c.Context(), key, src, contentType, userID.String()); err != nil {
		h.logger.Error("Upload to object store failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}

	event := &jobs.StatementEvent{
		Objects:    []jobs.ObjectRef{{Key: key}},
		EnqueuedAt: time.Now(),
	}
	if err := h.publisher.Publish(c.Context(), event); err != nil {
		h.logger.Error("Failed to enqueue statement event",
			zap.String("key", key),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enqueue processing",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.UploadResponse{
		Success: true,
		Message: fmt.Sprintf("File %q uploaded successfully.", file.Filename),
		Key:     key,
	})
}

// GetStatement returns one statement's status plus its transactions.
// Transactions are only exposed once the statement is completed.
func (h *StatementHandler) GetStatement(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	statementID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid statement id",
		})
	}

	statement, err := h.statementRepo.GetByID(c.Context(), statementID)
	if err != nil || statement.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Statement not found",
		})
	}

	resp := dto.StatementDetailResponse{
		Statement: toStatementResponse(statement),
	}

	if statement.Status == models.StatementStatusCompleted {
		transactions, err := h.txRepo.ListByStatementID(c.Context(), statementID)
		if err != nil {
			h.logger.Error("Failed to list transactions", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load transactions",
			})
		}
		resp.Transactions = make([]dto.TransactionResponse, len(transactions))
		for i, tx := range transactions {
			resp.Transactions[i] = dto.TransactionResponse{
				ID:          tx.ID.String(),
				Date:        tx.Date.Format("2006-01-02"),
				Description: tx.Description,
				Amount:      tx.Amount.StringFixed(2),
				Category:    tx.Category,
				CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
			}
		}
	}

	return c.JSON(resp)
}

// ListStatements returns the caller's statements, newest first.
func (h *StatementHandler) ListStatements(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", defaultPageSize)
	offset := c.QueryInt("offset", 0)

	statements, err := h.statementRepo.ListByUserID(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list statements", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load statements",
		})
	}

	resp := make([]dto.StatementResponse, len(statements))
	for i, statement := range statements {
		resp[i] = toStatementResponse(statement)
	}
	return c.JSON(resp)
}

// ListInsights returns the caller's derived insights, newest first.
func (h *StatementHandler) ListInsights(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", defaultPageSize)
	offset := c.QueryInt("offset", 0)

	insights, err := h.insightRepo.ListByUserID(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list insights", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load insights",
		})
	}

	resp := make([]dto.InsightResponse, len(insights))
	for i, insight := range insights {
		resp[i] = dto.InsightResponse{
			ID:            insight.ID.String(),
			Type:          string(insight.Type),
			Content:       insight.Content,
			TransactionID: insight.TransactionID.String(),
			Date:          insight.Date.Format("2006-01-02"),
			CreatedAt:     insight.CreatedAt.Format(time.RFC3339),
		}
	}
	return c.JSON(resp)
}

func toStatementResponse(statement *models.Statement) dto.StatementResponse {
	return dto.StatementResponse{
		ID:            statement.ID.String(),
		AccountID:     statement.AccountID,
		SourceFileKey: statement.SourceFileKey,
		Status:        string(statement.Status),
		StatementDate: statement.StatementDate.Format("2006-01-02"),
		CreatedAt:     statement.CreatedAt.Format(time.RFC3339),
	}
}

// getUserID pulls the authenticated user id stored by the auth
// middleware.
func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing user id in context")
	}
	return uuid.Parse(raw)
}
