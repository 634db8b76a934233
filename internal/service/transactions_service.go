package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/cache"
	"github.com/veladigital/libro-api/internal/infra/observability"
	"github.com/veladigital/libro-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionsService handles the transaction ledger: creation with
// server-side VAT breakdown, listing, edits, deletes and dashboard stats.
type TransactionsService struct {
	store        port.TransactionStore
	storage      port.ReceiptStorage
	listCache    *cache.InMemory[[]domain.Transaction]
	signedURLTTL time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewTransactionsService creates a new transactions service.
func NewTransactionsService(store port.TransactionStore, storage port.ReceiptStorage, listCache *cache.InMemory[[]domain.Transaction], signedURLTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *TransactionsService {
	return &TransactionsService{
		store:        store,
		storage:      storage,
		listCache:    listCache,
		signedURLTTL: signedURLTTL,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *TransactionsService) validateNew(req *domain.NewTransactionRequest) error {
	switch req.Type {
	case domain.TypeIncome, domain.TypeExpense, domain.TypeTransfer:
	default:
		return &domain.ErrValidation{Field: "type", Message: "type must be income, expense or transfer"}
	}
	switch req.Method {
	case domain.MethodBank, domain.MethodCash:
	default:
		return &domain.ErrValidation{Field: "method", Message: "method must be bank or cash"}
	}
	switch req.Status {
	case domain.StatusDraft, domain.StatusPosted:
	default:
		return &domain.ErrValidation{Field: "status", Message: "status must be draft or posted"}
	}
	if req.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if req.Concept == "" {
		return &domain.ErrValidation{Field: "concept", Message: "concept is required"}
	}
	if req.Category == "" {
		return &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if req.VATRate < 0 {
		return &domain.ErrValidation{Field: "vat_rate", Message: "vat rate cannot be negative"}
	}
	return nil
}

// Create records a transaction. The VAT breakdown is always recomputed here;
// client-supplied subtotals are ignored. Posted bank expenses must carry a
// receipt file.
func (s *TransactionsService) Create(ctx context.Context, userID string, req *domain.NewTransactionRequest, receipt *domain.FileUpload) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Create")
	defer span.End()

	if err := s.validateNew(req); err != nil {
		return nil, err
	}

	postedBankExpense := req.Status == domain.StatusPosted &&
		req.Method == domain.MethodBank &&
		req.Type == domain.TypeExpense
	if postedBankExpense && receipt == nil {
		return nil, &domain.ErrValidation{Field: "receipt", Message: "posted bank expenses require a receipt"}
	}

	date := s.now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD"}
		}
		date = parsed
	}

	breakdown := domain.ComputeVAT(req.Amount, req.VATRate, req.VATIncluded)
	tx := &domain.Transaction{
		Type:        req.Type,
		Date:        date,
		Method:      req.Method,
		Amount:      req.Amount,
		Concept:     req.Concept,
		Category:    req.Category,
		Subtotal:    breakdown.Subtotal,
		VATRate:     req.VATRate,
		VATIncluded: req.VATIncluded,
		VATAmount:   breakdown.VAT,
		Total:       breakdown.Total,
		Status:      req.Status,
		CreatedBy:   userID,
	}
	if req.Notes != "" {
		tx.Notes = &req.Notes
	}

	if receipt != nil {
		url, err := s.uploadReceipt(ctx, userID, receipt)
		if err != nil {
			return nil, err
		}
		tx.ReceiptURL = &url
		receiptType := req.ReceiptType
		if receiptType == "" {
			receiptType = domain.ReceiptTicket
		}
		tx.ReceiptType = &receiptType
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	s.listCache.Delete(listCacheKey(userID))
	s.logger.Info("transactions: created",
		zap.String("id", created.ID),
		zap.String("type", created.Type),
		zap.Float64("total", created.Total),
	)
	return created, nil
}

func (s *TransactionsService) uploadReceipt(ctx context.Context, userID string, file *domain.FileUpload) (string, error) {
	path := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), filepath.Ext(file.Name))
	if err := s.storage.Upload(ctx, path, file); err != nil {
		return "", err
	}
	return s.storage.SignedURL(ctx, path, s.signedURLTTL)
}

func listCacheKey(userID string) string {
	return "transactions:" + userID
}

// List returns the user's transactions. Unfiltered listings are cached.
func (s *TransactionsService) List(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.List")
	defer span.End()

	unfiltered := filter == domain.TransactionFilter{}
	if unfiltered {
		if cached, ok := s.listCache.Get(listCacheKey(userID)); ok {
			s.metrics.IncrCacheHit("transactions")
			return cached, nil
		}
		s.metrics.IncrCacheMiss("transactions")
	}

	transactions, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	if unfiltered {
		s.listCache.Set(listCacheKey(userID), transactions)
	}
	return transactions, nil
}

// Get returns one transaction by id.
func (s *TransactionsService) Get(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	return s.store.GetTransaction(ctx, userID, txID)
}

// updatableFields whitelists the columns an edit may touch.
var updatableFields = map[string]bool{
	"concept":      true,
	"category":     true,
	"notes":        true,
	"status":       true,
	"date":         true,
	"method":       true,
	"receipt_url":  true,
	"receipt_type": true,
	"uuid_cfdi":    true,
	"reconciled":   true,
}

// Update edits a transaction. Reconciled rows are immutable. Amount and VAT
// fields cannot be edited; delete and recreate instead.
func (s *TransactionsService) Update(ctx context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	existing, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}
	if existing.Reconciled {
		return nil, &domain.ErrImmutable{Resource: "transaction", ID: txID, Reason: "row is reconciled"}
	}
	if existing.IsDeleted() {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}

	for field := range fields {
		if !updatableFields[field] {
			return nil, &domain.ErrValidation{Field: field, Message: "field cannot be updated"}
		}
	}
	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.store.UpdateTransaction(ctx, userID, txID, fields)
	if err != nil {
		return nil, err
	}

	s.listCache.Delete(listCacheKey(userID))
	return updated, nil
}

// Delete removes a transaction. Drafts are hard deleted; posted and pending
// rows are soft deleted so history and exports stay consistent.
func (s *TransactionsService) Delete(ctx context.Context, userID, txID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	existing, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return err
	}
	if existing.Reconciled {
		return &domain.ErrImmutable{Resource: "transaction", ID: txID, Reason: "row is reconciled"}
	}
	if existing.IsDeleted() {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}

	if existing.Status == domain.StatusDraft {
		err = s.store.DeleteTransaction(ctx, userID, txID)
	} else {
		_, err = s.store.UpdateTransaction(ctx, userID, txID, map[string]any{
			"deleted_at": s.now().UTC().Format(time.RFC3339),
		})
	}
	if err != nil {
		return err
	}

	s.listCache.Delete(listCacheKey(userID))
	s.logger.Info("transactions: deleted",
		zap.String("id", txID),
		zap.Bool("hard", existing.Status == domain.StatusDraft),
	)
	return nil
}

// Duplicate copies a transaction as a fresh draft dated today. Receipts and
// reconciliation state do not carry over.
func (s *TransactionsService) Duplicate(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Duplicate")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", txID))

	existing, err := s.store.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	dup := &domain.Transaction{
		Type:        existing.Type,
		Date:        s.now(),
		Method:      existing.Method,
		Amount:      existing.Amount,
		Concept:     existing.Concept,
		Category:    existing.Category,
		Subtotal:    existing.Subtotal,
		VATRate:     existing.VATRate,
		VATIncluded: existing.VATIncluded,
		VATAmount:   existing.VATAmount,
		Total:       existing.Total,
		Status:      domain.StatusDraft,
		Notes:       existing.Notes,
		CreatedBy:   userID,
	}

	created, err := s.store.CreateTransaction(ctx, dup)
	if err != nil {
		return nil, err
	}

	s.listCache.Delete(listCacheKey(userID))
	return created, nil
}

// DashboardStats computes the landing page counters from posted rows.
func (s *TransactionsService) DashboardStats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.DashboardStats")
	defer span.End()

	transactions, err := s.List(ctx, userID, domain.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &domain.DashboardStats{}
	for i := range transactions {
		tx := &transactions[i]
		if tx.Status != domain.StatusPosted {
			continue
		}
		stats.TotalTransactions++

		signed := tx.Total
		switch tx.Type {
		case domain.TypeExpense:
			signed = -tx.Total
		case domain.TypeTransfer:
			continue
		}
		stats.Balance += signed
		if !tx.Date.Before(monthStart) {
			stats.ThisMonth += signed
		}
	}

	stats.Balance = domain.Round2(stats.Balance)
	stats.ThisMonth = domain.Round2(stats.ThisMonth)
	return stats, nil
}
