package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/cache"
	"github.com/veladigital/libro-api/internal/infra/observability"

	"go.uber.org/zap"
)

func newTxFixture(now time.Time) (*TransactionsService, *mockTransactionStore, *mockStorage) {
	store := newMockTransactionStore()
	storage := newMockStorage()
	svc := NewTransactionsService(store, storage, cache.New[[]domain.Transaction](5*time.Minute), 30*24*time.Hour, observability.NewMetrics(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, store, storage
}

func validRequest() *domain.NewTransactionRequest {
	return &domain.NewTransactionRequest{
		Type:        domain.TypeIncome,
		Method:      domain.MethodCash,
		Amount:      1160,
		Concept:     "Taller CRM",
		Category:    "Talleres o capacitaciones",
		VATRate:     0.16,
		VATIncluded: true,
		Status:      domain.StatusPosted,
	}
}

func TestCreate_ComputesVATServerSide(t *testing.T) {
	svc, _, _ := newTxFixture(date(2024, time.March, 10))

	created, err := svc.Create(context.Background(), "user-1", validRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Subtotal != 1000 || created.VATAmount != 160 || created.Total != 1160 {
		t.Errorf("unexpected breakdown: subtotal=%.2f vat=%.2f total=%.2f",
			created.Subtotal, created.VATAmount, created.Total)
	}
	if !created.Date.Equal(date(2024, time.March, 10)) {
		t.Errorf("expected default date today, got %s", created.Date.Format("2006-01-02"))
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTxFixture(date(2024, time.March, 10))

	cases := []func(*domain.NewTransactionRequest){
		func(r *domain.NewTransactionRequest) { r.Type = "loan" },
		func(r *domain.NewTransactionRequest) { r.Method = "crypto" },
		func(r *domain.NewTransactionRequest) { r.Status = domain.StatusPending },
		func(r *domain.NewTransactionRequest) { r.Amount = -5 },
		func(r *domain.NewTransactionRequest) { r.Concept = "" },
		func(r *domain.NewTransactionRequest) { r.Category = "" },
		func(r *domain.NewTransactionRequest) { r.VATRate = -0.1 },
		func(r *domain.NewTransactionRequest) { r.Date = "10/03/2024" },
	}
	for i, mutate := range cases {
		req := validRequest()
		mutate(req)
		_, err := svc.Create(context.Background(), "user-1", req, nil)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreate_PostedBankExpenseRequiresReceipt(t *testing.T) {
	svc, _, storage := newTxFixture(date(2024, time.March, 10))

	req := validRequest()
	req.Type = domain.TypeExpense
	req.Method = domain.MethodBank

	_, err := svc.Create(context.Background(), "user-1", req, nil)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error without receipt, got %v", err)
	}

	created, err := svc.Create(context.Background(), "user-1", req, &domain.FileUpload{
		Name:        "ticket.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-"),
	})
	if err != nil {
		t.Fatalf("create with receipt: %v", err)
	}
	if created.ReceiptURL == nil {
		t.Error("expected receipt url set")
	}
	if len(storage.uploads) != 1 {
		t.Errorf("expected 1 upload, got %d", len(storage.uploads))
	}

	// Drafts skip the receipt requirement.
	req.Status = domain.StatusDraft
	if _, err := svc.Create(context.Background(), "user-1", req, nil); err != nil {
		t.Errorf("draft bank expense without receipt: %v", err)
	}
}

func TestCreate_UploadFailureAbortsInsert(t *testing.T) {
	svc, store, storage := newTxFixture(date(2024, time.March, 10))
	storage.failUp = &domain.ErrUpload{Bucket: "receipts", Path: "x", Err: errors.New("boom")}

	req := validRequest()
	req.Type = domain.TypeExpense
	req.Method = domain.MethodBank

	_, err := svc.Create(context.Background(), "user-1", req, &domain.FileUpload{Name: "t.pdf", Data: []byte("x")})
	var upload *domain.ErrUpload
	if !errors.As(err, &upload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Error("expected no row inserted after failed upload")
	}
}

func TestDelete_DraftHardPostedSoft(t *testing.T) {
	svc, store, _ := newTxFixture(date(2024, time.March, 10))

	draftReq := validRequest()
	draftReq.Status = domain.StatusDraft
	draft, _ := svc.Create(context.Background(), "user-1", draftReq, nil)
	posted, _ := svc.Create(context.Background(), "user-1", validRequest(), nil)

	if err := svc.Delete(context.Background(), "user-1", draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, ok := store.rows[draft.ID]; ok {
		t.Error("expected draft hard deleted")
	}

	if err := svc.Delete(context.Background(), "user-1", posted.ID); err != nil {
		t.Fatalf("delete posted: %v", err)
	}
	row, ok := store.rows[posted.ID]
	if !ok {
		t.Fatal("expected posted row kept")
	}
	if row.DeletedAt == nil {
		t.Error("expected posted row soft deleted")
	}

	// Deleting twice reports not found.
	err := svc.Delete(context.Background(), "user-1", posted.ID)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestUpdate_ReconciledIsImmutable(t *testing.T) {
	svc, store, _ := newTxFixture(date(2024, time.March, 10))

	created, _ := svc.Create(context.Background(), "user-1", validRequest(), nil)
	store.rows[created.ID].Reconciled = true

	_, err := svc.Update(context.Background(), "user-1", created.ID, map[string]any{"concept": "edited"})
	var immutable *domain.ErrImmutable
	if !errors.As(err, &immutable) {
		t.Errorf("expected immutable error on update, got %v", err)
	}

	err = svc.Delete(context.Background(), "user-1", created.ID)
	if !errors.As(err, &immutable) {
		t.Errorf("expected immutable error on delete, got %v", err)
	}
}

func TestUpdate_RejectsAmountEdits(t *testing.T) {
	svc, _, _ := newTxFixture(date(2024, time.March, 10))

	created, _ := svc.Create(context.Background(), "user-1", validRequest(), nil)

	_, err := svc.Update(context.Background(), "user-1", created.ID, map[string]any{"amount": 999.0})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("expected validation error for amount edit, got %v", err)
	}

	updated, err := svc.Update(context.Background(), "user-1", created.ID, map[string]any{"concept": "edited"})
	if err != nil {
		t.Fatalf("update concept: %v", err)
	}
	if updated.Concept != "edited" {
		t.Errorf("expected concept edited, got %q", updated.Concept)
	}
}

func TestDuplicate_ResetsStateAndDate(t *testing.T) {
	svc, store, _ := newTxFixture(date(2024, time.March, 10))

	created, _ := svc.Create(context.Background(), "user-1", validRequest(), nil)
	url := "https://storage.example/sign/x"
	store.rows[created.ID].ReceiptURL = &url
	store.rows[created.ID].Reconciled = true

	svc.now = func() time.Time { return date(2024, time.April, 1) }
	dup, err := svc.Duplicate(context.Background(), "user-1", created.ID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if dup.ID == created.ID {
		t.Error("expected a new row")
	}
	if dup.Status != domain.StatusDraft {
		t.Errorf("expected draft, got %s", dup.Status)
	}
	if !dup.Date.Equal(date(2024, time.April, 1)) {
		t.Errorf("expected today's date, got %s", dup.Date.Format("2006-01-02"))
	}
	if dup.ReceiptURL != nil || dup.Reconciled {
		t.Error("expected receipt and reconciliation state dropped")
	}
	if dup.Total != created.Total {
		t.Errorf("expected amounts carried over")
	}
}

func TestDashboardStats(t *testing.T) {
	svc, _, _ := newTxFixture(date(2024, time.March, 10))

	income := validRequest() // 1160 posted income, dated today
	_, _ = svc.Create(context.Background(), "user-1", income, nil)

	expense := validRequest()
	expense.Type = domain.TypeExpense
	expense.Amount = 160
	expense.Date = "2024-02-01" // previous month
	_, _ = svc.Create(context.Background(), "user-1", expense, nil)

	draft := validRequest()
	draft.Status = domain.StatusDraft
	_, _ = svc.Create(context.Background(), "user-1", draft, nil)

	stats, err := svc.DashboardStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTransactions != 2 {
		t.Errorf("expected 2 posted transactions, got %d", stats.TotalTransactions)
	}
	if stats.Balance != 1000 {
		t.Errorf("expected balance 1000, got %.2f", stats.Balance)
	}
	if stats.ThisMonth != 1160 {
		t.Errorf("expected this month 1160, got %.2f", stats.ThisMonth)
	}
}

func TestList_CachesUnfiltered(t *testing.T) {
	svc, store, _ := newTxFixture(date(2024, time.March, 10))
	_, _ = svc.Create(context.Background(), "user-1", validRequest(), nil)

	first, err := svc.List(context.Background(), "user-1", domain.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 row, got %d", len(first))
	}

	// Store failures are invisible while the cache is warm.
	store.failAll = errors.New("down")
	cached, err := svc.List(context.Background(), "user-1", domain.TransactionFilter{})
	if err != nil {
		t.Fatalf("cached list: %v", err)
	}
	if len(cached) != 1 {
		t.Errorf("expected cached row, got %d", len(cached))
	}

	// Filtered listings bypass the cache.
	if _, err := svc.List(context.Background(), "user-1", domain.TransactionFilter{Type: domain.TypeIncome}); err == nil {
		t.Error("expected filtered list to hit the failing store")
	}
}
