package service

import (
	"context"
	"testing"
	"time"

	"github.com/veladigital/libro-api/internal/domain"

	"go.uber.org/zap"
)

func seedFlowRow(store *mockTransactionStore, txType, category string, total float64, day time.Time) {
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type:      txType,
		Date:      day,
		Method:    domain.MethodBank,
		Amount:    total,
		Concept:   "seed",
		Category:  category,
		Subtotal:  total,
		Total:     total,
		Status:    domain.StatusPosted,
		CreatedBy: "user-1",
	})
}

func TestAggregate_DayBuckets(t *testing.T) {
	store := newMockTransactionStore()
	svc := NewCashFlowService(store, zap.NewNop())

	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 1000, date(2024, time.March, 1))
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 500, date(2024, time.March, 1))
	seedFlowRow(store, domain.TypeExpense, "Campañas pagadas", 300, date(2024, time.March, 2))
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 200, date(2024, time.March, 5))

	// Drafts, transfers and deleted rows never count.
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeIncome, Date: date(2024, time.March, 1), Total: 9999,
		Status: domain.StatusDraft, CreatedBy: "user-1",
	})
	_, _ = store.CreateTransaction(context.Background(), &domain.Transaction{
		Type: domain.TypeTransfer, Date: date(2024, time.March, 1), Total: 9999,
		Status: domain.StatusPosted, CreatedBy: "user-1",
	})

	buckets, err := svc.Aggregate(context.Background(), "user-1", domain.GranularityDay, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Income != 1500 || buckets[0].Net != 1500 {
		t.Errorf("bucket 0: income=%.2f net=%.2f", buckets[0].Income, buckets[0].Net)
	}
	if buckets[1].Expense != 300 || buckets[1].Net != -300 {
		t.Errorf("bucket 1: expense=%.2f net=%.2f", buckets[1].Expense, buckets[1].Net)
	}
	if !buckets[2].Period.Equal(date(2024, time.March, 5)) {
		t.Errorf("bucket 2 period %s", buckets[2].Period.Format("2006-01-02"))
	}
}

func TestAggregate_WeekFloorsToMonday(t *testing.T) {
	store := newMockTransactionStore()
	svc := NewCashFlowService(store, zap.NewNop())

	// 2024-03-06 is a Wednesday; 2024-03-10 a Sunday. Same ISO week.
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 100, date(2024, time.March, 6))
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 50, date(2024, time.March, 10))
	// Monday the 11th starts the next week.
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 25, date(2024, time.March, 11))

	buckets, err := svc.Aggregate(context.Background(), "user-1", domain.GranularityWeek, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if !buckets[0].Period.Equal(date(2024, time.March, 4)) {
		t.Errorf("expected week start 2024-03-04, got %s", buckets[0].Period.Format("2006-01-02"))
	}
	if buckets[0].Income != 150 {
		t.Errorf("expected 150 in first week, got %.2f", buckets[0].Income)
	}
	if !buckets[1].Period.Equal(date(2024, time.March, 11)) {
		t.Errorf("expected week start 2024-03-11, got %s", buckets[1].Period.Format("2006-01-02"))
	}
}

func TestAggregate_InvalidGranularity(t *testing.T) {
	svc := NewCashFlowService(newMockTransactionStore(), zap.NewNop())

	if _, err := svc.Aggregate(context.Background(), "user-1", "quarter", time.Time{}, time.Time{}); err == nil {
		t.Error("expected validation error")
	}
}

func TestSummary_EBITDAAndEBIT(t *testing.T) {
	store := newMockTransactionStore()
	svc := NewCashFlowService(store, zap.NewNop())

	// 100000 income, 60000 expenses of which 5000 is depreciation.
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 100000, date(2024, time.March, 1))
	seedFlowRow(store, domain.TypeExpense, "Sueldos o comisiones del equipo", 55000, date(2024, time.March, 2))
	seedFlowRow(store, domain.TypeExpense, "Depreciaciones y amortizaciones", 5000, date(2024, time.March, 3))

	summary, err := svc.Summary(context.Background(), "user-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.TotalIncome != 100000 || summary.TotalExpense != 60000 {
		t.Errorf("totals: income=%.2f expense=%.2f", summary.TotalIncome, summary.TotalExpense)
	}
	if summary.Depreciation != 5000 {
		t.Errorf("depreciation: %.2f", summary.Depreciation)
	}
	if summary.EBITDA != 45000 {
		t.Errorf("expected EBITDA 45000, got %.2f", summary.EBITDA)
	}
	if summary.EBIT != 40000 {
		t.Errorf("expected EBIT 40000, got %.2f", summary.EBIT)
	}
	// Net flow is cash-based: depreciation is not added back.
	if summary.NetFlow != 40000 {
		t.Errorf("expected net flow 40000 with no financing or capex, got %.2f", summary.NetFlow)
	}
}

func TestSummary_FinancingAndCapex(t *testing.T) {
	store := newMockTransactionStore()
	svc := NewCashFlowService(store, zap.NewNop())

	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 10000, date(2024, time.March, 1))
	seedFlowRow(store, domain.TypeIncome, "Préstamos recibidos", 5000, date(2024, time.March, 2))
	seedFlowRow(store, domain.TypeExpense, "Pagos de préstamos e intereses", 2000, date(2024, time.March, 3))
	seedFlowRow(store, domain.TypeExpense, "Equipo de cómputo y oficina", 3000, date(2024, time.March, 4))
	seedFlowRow(store, domain.TypeExpense, "Depreciaciones y amortizaciones", 1000, date(2024, time.March, 5))

	summary, err := svc.Summary(context.Background(), "user-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.FinancingTotal != 3000 {
		t.Errorf("expected financing +3000, got %.2f", summary.FinancingTotal)
	}
	if summary.CapexTotal != 3000 {
		t.Errorf("expected capex 3000, got %.2f", summary.CapexTotal)
	}
	// EBITDA = 15000 - (6000 - 1000) = 10000, but the net flow stays
	// cash-based: 15000 - 6000 + 3000 - 3000 = 9000.
	if summary.EBITDA != 10000 {
		t.Errorf("expected EBITDA 10000, got %.2f", summary.EBITDA)
	}
	if summary.NetFlow != 9000 {
		t.Errorf("expected net flow 9000, got %.2f", summary.NetFlow)
	}
}

func TestSummary_PeriodBounds(t *testing.T) {
	store := newMockTransactionStore()
	svc := NewCashFlowService(store, zap.NewNop())

	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 100, date(2024, time.February, 15))
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 200, date(2024, time.March, 15))
	seedFlowRow(store, domain.TypeIncome, "Instalaciones completas", 400, date(2024, time.April, 15))

	summary, err := svc.Summary(context.Background(), "user-1",
		date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalIncome != 200 {
		t.Errorf("expected only the March row, got %.2f", summary.TotalIncome)
	}
}
