package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/observability"

	"go.uber.org/zap"
)

func newExportFixture(now time.Time) (*ExportService, *mockTransactionStore) {
	store := newMockTransactionStore()
	banks := &mockBankStore{accounts: []domain.BankAccount{{ID: "acct-1", Name: "Banregio"}}}
	cashflow := NewCashFlowService(store, zap.NewNop())
	svc := NewExportService(store, banks, cashflow, observability.NewMetrics(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestTransactionsWorkbook_SheetContents(t *testing.T) {
	svc, store := newExportFixture(date(2024, time.March, 10))
	acct := "acct-1"

	// Bank rows in every state (posted, pending, draft), one cash row,
	// one deleted bank row.
	url := "https://storage.example/sign/r1"
	sigURL := "https://storage.example/sign/s1"
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.March, 1), Method: domain.MethodBank,
		BankAccountID: &acct, Amount: 1160, Concept: "Instalación", Category: "Instalaciones completas",
		Subtotal: 1000, VATAmount: 160, Total: 1160, Status: domain.StatusPosted,
		ReceiptURL: &url, SignatureURL: &sigURL, CreatedBy: "user-1",
	})
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeExpense, Date: date(2024, time.March, 2), Method: domain.MethodBank,
		BankAccountID: &acct, Amount: 580, Concept: "Hosting", Category: "Hosting, dominios, licencias de software",
		Subtotal: 500, VATAmount: 80, Total: 580, Status: domain.StatusPosted, CreatedBy: "user-1",
	})
	clientID := "client-1"
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.April, 5), Method: domain.MethodBank,
		Amount: 100, Concept: "Membresía Acme", Category: "Mensualidades del sistema",
		Subtotal: 100, Total: 100, Status: domain.StatusPending,
		RecurringClientID: &clientID, CreatedBy: "user-1",
	})
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeExpense, Date: date(2024, time.March, 3), Method: domain.MethodCash,
		Amount: 100, Concept: "Papelería", Category: "Papelería, mantenimiento o compras menores",
		Subtotal: 100, Total: 100, Status: domain.StatusPosted, CreatedBy: "user-1",
	})
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.March, 4), Method: domain.MethodBank,
		Amount: 200, Concept: "Borrador", Category: "Instalaciones completas",
		Subtotal: 200, Total: 200, Status: domain.StatusDraft, CreatedBy: "user-1",
	})
	deletedAt := date(2024, time.March, 5)
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.March, 5), Method: domain.MethodBank,
		Amount: 300, Concept: "Borrado", Category: "Instalaciones completas",
		Subtotal: 300, Total: 300, Status: domain.StatusPosted, DeletedAt: &deletedAt, CreatedBy: "user-1",
	})

	f, filename, err := svc.TransactionsWorkbook(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	if filename != "export_2024-03-10.xlsx" {
		t.Errorf("unexpected filename %q", filename)
	}

	// The accountant sheet carries every non-deleted bank row regardless of
	// status; the data-row count must match the store.
	bankRows := 0
	for _, tx := range store.rows {
		if tx.Method == domain.MethodBank && !tx.IsDeleted() {
			bankRows++
		}
	}

	accountant, err := f.GetRows(SheetAccountant)
	if err != nil {
		t.Fatalf("read accountant sheet: %v", err)
	}
	if len(accountant) != bankRows+1 {
		t.Fatalf("expected %d accountant rows, got %d", bankRows+1, len(accountant))
	}
	if accountant[0][0] != "Fecha" {
		t.Errorf("unexpected header %q", accountant[0][0])
	}

	all, err := f.GetRows(SheetAll)
	if err != nil {
		t.Fatalf("read full sheet: %v", err)
	}
	// Header + all five non-deleted rows (pending, drafts and cash included).
	if len(all) != 6 {
		t.Fatalf("expected 6 rows on the full sheet, got %d", len(all))
	}

	// Bank account label resolved on the accountant sheet.
	foundAccount := false
	for _, row := range accountant[1:] {
		if len(row) > 2 && row[2] == "Banregio" {
			foundAccount = true
		}
	}
	if !foundAccount {
		t.Error("expected bank account name on accountant sheet")
	}

	// Receipt and signature hyperlinks carry their own labels.
	foundReceipt := false
	for _, row := range accountant[1:] {
		for _, cell := range row {
			if cell == "Ver comprobante" {
				foundReceipt = true
			}
		}
	}
	if !foundReceipt {
		t.Error("expected receipt link label on accountant sheet")
	}
	foundSignature := false
	for _, row := range all[1:] {
		for _, cell := range row {
			if cell == "Ver firma" {
				foundSignature = true
			}
		}
	}
	if !foundSignature {
		t.Error("expected signature link label on the full sheet")
	}
}

func TestCashFlowWorkbook(t *testing.T) {
	svc, store := newExportFixture(date(2024, time.March, 10))

	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.February, 15), Method: domain.MethodBank,
		Amount: 1000, Concept: "x", Category: "Instalaciones completas",
		Subtotal: 1000, Total: 1000, Status: domain.StatusPosted, CreatedBy: "user-1",
	})
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeExpense, Date: date(2024, time.March, 2), Method: domain.MethodBank,
		Amount: 400, Concept: "x", Category: "Campañas pagadas",
		Subtotal: 400, Total: 400, Status: domain.StatusPosted, CreatedBy: "user-1",
	})

	from := date(2024, time.February, 1)
	to := date(2024, time.March, 31)
	f, filename, err := svc.CashFlowWorkbook(context.Background(), "user-1", from, to)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	if filename != "flujo_por_rubros_20240201_a_20240331.xls" {
		t.Errorf("unexpected filename %q", filename)
	}

	rows, err := f.GetRows(SheetCashFlow)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	// Header + two month buckets, then the summary block.
	if len(rows) < 3 {
		t.Fatalf("expected at least 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "2024-02" || rows[2][0] != "2024-03" {
		t.Errorf("unexpected bucket labels %q %q", rows[1][0], rows[2][0])
	}

	var hasEBITDA bool
	for _, row := range rows {
		if len(row) > 0 && strings.HasPrefix(row[0], "EBITDA") {
			hasEBITDA = true
		}
	}
	if !hasEBITDA {
		t.Error("expected EBITDA line in summary block")
	}
}

func TestCashFlowWorkbook_OpenEndedFilename(t *testing.T) {
	svc, _ := newExportFixture(date(2024, time.March, 10))

	_, filename, err := svc.CashFlowWorkbook(context.Background(), "user-1", date(2024, time.January, 1), time.Time{})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	if filename != "flujo_por_rubros_20240101.xls" {
		t.Errorf("unexpected filename %q", filename)
	}
}
