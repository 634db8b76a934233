package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/observability"
	"github.com/veladigital/libro-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var recurringTracer = otel.Tracer("service/recurring")

// RecurringService runs the monthly billing engine: client registry, pending
// charge seeding, payment cycles and invoice attachments.
type RecurringService struct {
	clients      port.RecurringClientStore
	transactions port.TransactionStore
	storage      port.ReceiptStorage
	signedURLTTL time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewRecurringService creates a new recurring billing service.
func NewRecurringService(clients port.RecurringClientStore, transactions port.TransactionStore, storage port.ReceiptStorage, signedURLTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *RecurringService {
	return &RecurringService{
		clients:      clients,
		transactions: transactions,
		storage:      storage,
		signedURLTTL: signedURLTTL,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// AddClient registers a recurring client and seeds its first pending charge.
func (s *RecurringService) AddClient(ctx context.Context, userID string, req *domain.NewRecurringClientRequest) (*domain.RecurringClientWithPending, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.AddClient")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}
	if req.BillingDay < 1 || req.BillingDay > 31 {
		return nil, &domain.ErrValidation{Field: "billing_day", Message: "billing day must be between 1 and 31"}
	}

	client := &domain.RecurringClient{
		Name:       req.Name,
		Amount:     req.Amount,
		DueDate:    InitialDueDate(s.now(), req.BillingDay),
		BillingDay: req.BillingDay,
		UserID:     userID,
	}
	if req.Notes != "" {
		client.Notes = &req.Notes
	}

	created, err := s.clients.CreateRecurringClient(ctx, client)
	if err != nil {
		return nil, err
	}

	pending, err := s.seedPendingCharge(ctx, userID, created)
	if err != nil {
		// The client row exists; the next payment cycle reseeds the charge.
		s.logger.Warn("recurring: seeding pending charge failed",
			zap.String("client_id", created.ID),
			zap.Error(err),
		)
		return &domain.RecurringClientWithPending{RecurringClient: *created}, nil
	}

	s.logger.Info("recurring: client added",
		zap.String("client_id", created.ID),
		zap.String("due_date", created.DueDate.Format("2006-01-02")),
	)
	return &domain.RecurringClientWithPending{RecurringClient: *created, PendingCharge: pending}, nil
}

// seedPendingCharge creates the pending income row for the client's current
// due date. VAT is not broken out on memberships; the amount goes in as-is.
func (s *RecurringService) seedPendingCharge(ctx context.Context, userID string, client *domain.RecurringClient) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		Type:              domain.TypeIncome,
		Date:              client.DueDate,
		Method:            domain.MethodBank,
		Amount:            client.Amount,
		Concept:           fmt.Sprintf("Membresía %s", client.Name),
		Category:          domain.CategoryRecurringCharge,
		Subtotal:          client.Amount,
		VATRate:           0,
		VATIncluded:       true,
		VATAmount:         0,
		Total:             client.Amount,
		Status:            domain.StatusPending,
		RecurringClientID: &client.ID,
		CreatedBy:         userID,
	}
	return s.transactions.CreateTransaction(ctx, tx)
}

// ListClients returns all clients paired with their pending charges. The two
// loads are independent and run concurrently.
func (s *RecurringService) ListClients(ctx context.Context, userID string) ([]domain.RecurringClientWithPending, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.ListClients")
	defer span.End()

	var (
		clients []domain.RecurringClient
		pending map[string]domain.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.ListRecurringClients(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.transactions.ListPendingByClient(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.RecurringClientWithPending, 0, len(clients))
	for i := range clients {
		item := domain.RecurringClientWithPending{RecurringClient: clients[i]}
		if charge, ok := pending[clients[i].ID]; ok {
			c := charge
			item.PendingCharge = &c
		}
		out = append(out, item)
	}
	return out, nil
}

// CompletePaymentCycle records a payment for the client: it settles the
// pending charge (or inserts a posted transaction directly when none exists),
// advances the due date one month and seeds the next pending charge. A
// non-nil receiptURL lands on the settled row as an INVOICE_PDF voucher.
// The writes are not atomic; a failure mid-cycle leaves the client without a
// pending charge until the next cycle or a manual reseed.
func (s *RecurringService) CompletePaymentCycle(ctx context.Context, userID, clientID string, receiptURL *string) (*domain.RecurringClientWithPending, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.CompletePaymentCycle")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	client, err := s.clients.GetRecurringClient(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	pending, err := s.transactions.ListPendingByClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now().Format("2006-01-02")
	if charge, ok := pending[clientID]; ok {
		fields := map[string]any{
			"status": domain.StatusPosted,
			"date":   today,
		}
		if receiptURL != nil {
			fields["receipt_url"] = *receiptURL
			fields["receipt_type"] = domain.ReceiptInvoicePDF
		}
		_, err = s.transactions.UpdateTransaction(ctx, userID, charge.ID, fields)
		if err != nil {
			return nil, err
		}
	} else {
		// Nothing to settle; the payment still has to hit the ledger.
		if _, err := s.recordDirectPayment(ctx, userID, client, receiptURL); err != nil {
			return nil, err
		}
		s.logger.Info("recurring: no pending charge, payment recorded directly",
			zap.String("client_id", clientID),
		)
	}

	next := NextDueDate(client.DueDate, client.BillingDay)
	updated, err := s.clients.UpdateRecurringClient(ctx, userID, clientID, map[string]any{
		"due_date": next.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	charge, err := s.seedPendingCharge(ctx, userID, updated)
	if err != nil {
		s.logger.Warn("recurring: reseeding pending charge failed",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
		return &domain.RecurringClientWithPending{RecurringClient: *updated}, nil
	}

	s.metrics.IncrBillingCycle()
	s.logger.Info("recurring: payment cycle completed",
		zap.String("client_id", clientID),
		zap.String("next_due", next.Format("2006-01-02")),
	)
	return &domain.RecurringClientWithPending{RecurringClient: *updated, PendingCharge: charge}, nil
}

// recordDirectPayment inserts a posted income transaction for a payment that
// arrives while the client has no pending charge on the books.
func (s *RecurringService) recordDirectPayment(ctx context.Context, userID string, client *domain.RecurringClient, receiptURL *string) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		Type:              domain.TypeIncome,
		Date:              s.now(),
		Method:            domain.MethodBank,
		Amount:            client.Amount,
		Concept:           fmt.Sprintf("Membresía %s", client.Name),
		Category:          domain.CategoryRecurringCharge,
		Subtotal:          client.Amount,
		VATRate:           0,
		VATIncluded:       true,
		VATAmount:         0,
		Total:             client.Amount,
		Status:            domain.StatusPosted,
		RecurringClientID: &client.ID,
		CreatedBy:         userID,
	}
	if receiptURL != nil {
		tx.ReceiptURL = receiptURL
		receiptType := domain.ReceiptInvoicePDF
		tx.ReceiptType = &receiptType
	}
	return s.transactions.CreateTransaction(ctx, tx)
}

// AttachInvoice uploads an invoice PDF, then runs the payment cycle with the
// signed URL so the settled charge carries the voucher.
func (s *RecurringService) AttachInvoice(ctx context.Context, userID, clientID string, file *domain.FileUpload) (string, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.AttachInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	if file == nil || len(file.Data) == 0 {
		return "", &domain.ErrValidation{Field: "file", Message: "invoice file is required"}
	}

	// Confirm the client exists before shipping bytes to storage.
	if _, err := s.clients.GetRecurringClient(ctx, userID, clientID); err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/recurring/%s/%s%s", userID, clientID, uuid.NewString(), filepath.Ext(file.Name))
	if err := s.storage.Upload(ctx, path, file); err != nil {
		return "", err
	}

	url, err := s.storage.SignedURL(ctx, path, s.signedURLTTL)
	if err != nil {
		return "", err
	}

	if _, err := s.CompletePaymentCycle(ctx, userID, clientID, &url); err != nil {
		return "", err
	}

	return url, nil
}

// RemoveClient deletes the client and its unresolved pending charge.
// Settled transactions keep their recurring_client_id for history.
func (s *RecurringService) RemoveClient(ctx context.Context, userID, clientID string) error {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.RemoveClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	pending, err := s.transactions.ListPendingByClient(ctx, userID)
	if err != nil {
		return err
	}
	if charge, ok := pending[clientID]; ok {
		if err := s.transactions.DeleteTransaction(ctx, userID, charge.ID); err != nil {
			return err
		}
	}

	return s.clients.DeleteRecurringClient(ctx, userID, clientID)
}

// DueSoon lists clients whose due date falls within the next days.
func (s *RecurringService) DueSoon(ctx context.Context, userID string, days int) ([]domain.RecurringClient, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.DueSoon")
	defer span.End()

	clients, err := s.clients.ListRecurringClients(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, days)

	due := make([]domain.RecurringClient, 0)
	for _, c := range clients {
		if !c.DueDate.Before(today) && !c.DueDate.After(cutoff) {
			due = append(due, c)
		}
	}
	return due, nil
}
