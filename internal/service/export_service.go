package service

import (
	"context"
	"fmt"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/observability"
	"github.com/veladigital/libro-api/internal/port"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var exportTracer = otel.Tracer("service/export")

// Spreadsheet sheet names. The accountant sheet carries bank movements only;
// the full sheet carries everything including cash and drafts.
const (
	SheetAccountant = "Banregio_Contador"
	SheetAll        = "Vela_Todos"
	SheetCashFlow   = "Flujo_Por_Rubros"
)

const currencyFormat = "#,##0.00"

// ExportService builds xlsx workbooks for the accountant and the cash-flow
// report.
type ExportService struct {
	transactions port.TransactionStore
	banks        port.BankAccountStore
	cashflow     *CashFlowService
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(transactions port.TransactionStore, banks port.BankAccountStore, cashflow *CashFlowService, metrics *observability.Metrics, logger *zap.Logger) *ExportService {
	return &ExportService{
		transactions: transactions,
		banks:        banks,
		cashflow:     cashflow,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// TransactionsWorkbook builds the two-sheet export and its download name.
func (s *ExportService) TransactionsWorkbook(ctx context.Context, userID string) (*excelize.File, string, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.TransactionsWorkbook")
	defer span.End()

	var (
		transactions []domain.Transaction
		accounts     []domain.BankAccount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.ListTransactions(gctx, userID, domain.TransactionFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.banks.ListBankAccounts(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}

	f, err := buildTransactionsWorkbook(transactions, accountNames)
	if err != nil {
		return nil, "", err
	}

	s.metrics.IncrExport("transactions")
	filename := fmt.Sprintf("export_%s.xlsx", s.now().Format("2006-01-02"))
	s.logger.Info("export: transactions workbook built",
		zap.Int("rows", len(transactions)),
		zap.String("filename", filename),
	)
	return f, filename, nil
}

func buildTransactionsWorkbook(transactions []domain.Transaction, accountNames map[string]string) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetAccountant)
	if _, err := f.NewSheet(SheetAll); err != nil {
		return nil, err
	}

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(currencyFormat)})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	accountantHeaders := []string{
		"Fecha", "Tipo", "Cuenta", "Concepto", "Categoría",
		"Subtotal", "IVA", "Total", "UUID CFDI", "Tipo comprobante",
		"Comprobante", "Notas",
	}
	allHeaders := []string{
		"Fecha", "Tipo", "Método", "Estado", "Cuenta", "Concepto", "Categoría",
		"Subtotal", "IVA", "Total", "UUID CFDI", "Tipo comprobante",
		"Comprobante", "Firma", "Notas",
	}

	if err := writeHeaderRow(f, SheetAccountant, accountantHeaders, header); err != nil {
		return nil, err
	}
	if err := writeHeaderRow(f, SheetAll, allHeaders, header); err != nil {
		return nil, err
	}

	accountantRow := 2
	allRow := 2
	for i := range transactions {
		tx := &transactions[i]
		if tx.IsDeleted() {
			continue
		}

		// Persisted rows predating the VAT columns carry zeros; recompute.
		subtotal, vat, total := tx.Subtotal, tx.VATAmount, tx.Total
		if total == 0 && tx.Amount != 0 {
			b := domain.ComputeVAT(tx.Amount, tx.VATRate, tx.VATIncluded)
			subtotal, vat, total = b.Subtotal, b.VAT, b.Total
		}

		account := ""
		if tx.BankAccountID != nil {
			account = accountNames[*tx.BankAccountID]
		}

		if tx.Method == domain.MethodBank {
			if err := writeTransactionRow(f, SheetAccountant, accountantRow, currency, []any{
				tx.Date.Format("2006-01-02"), tx.Type, account, tx.Concept, tx.Category,
				subtotal, vat, total, deref(tx.UUIDCFDI), deref(tx.ReceiptType),
			}, []int{6, 7, 8}, tx.ReceiptURL, 11, nil, 0, deref(tx.Notes), 12); err != nil {
				return nil, err
			}
			accountantRow++
		}

		if err := writeTransactionRow(f, SheetAll, allRow, currency, []any{
			tx.Date.Format("2006-01-02"), tx.Type, tx.Method, tx.Status, account, tx.Concept, tx.Category,
			subtotal, vat, total, deref(tx.UUIDCFDI), deref(tx.ReceiptType),
		}, []int{8, 9, 10}, tx.ReceiptURL, 13, tx.SignatureURL, 14, deref(tx.Notes), 15); err != nil {
			return nil, err
		}
		allRow++
	}

	if err := finishSheet(f, SheetAccountant, len(accountantHeaders), accountantRow-1); err != nil {
		return nil, err
	}
	if err := finishSheet(f, SheetAll, len(allHeaders), allRow-1); err != nil {
		return nil, err
	}
	return f, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// writeTransactionRow writes the leading values, applies the currency style
// to the given 1-based columns, then the optional receipt and signature
// hyperlinks and the trailing notes column.
func writeTransactionRow(f *excelize.File, sheet string, row, currencyStyle int, values []any, currencyCols []int, receiptURL *string, receiptCol int, signatureURL *string, signatureCol int, notes string, notesCol int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	for _, col := range currencyCols {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, currencyStyle); err != nil {
			return err
		}
	}
	if err := setHyperlink(f, sheet, receiptCol, row, receiptURL, "Ver comprobante"); err != nil {
		return err
	}
	if signatureCol > 0 {
		if err := setHyperlink(f, sheet, signatureCol, row, signatureURL, "Ver firma"); err != nil {
			return err
		}
	}
	if notes != "" {
		cell, err := excelize.CoordinatesToCellName(notesCol, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, notes); err != nil {
			return err
		}
	}
	return nil
}

func setHyperlink(f *excelize.File, sheet string, col, row int, url *string, label string) error {
	if url == nil || *url == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, label); err != nil {
		return err
	}
	return f.SetCellHyperLink(sheet, cell, *url, "External")
}

// finishSheet applies the auto-filter and fixed column widths.
func finishSheet(f *excelize.File, sheet string, cols, lastRow int) error {
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if lastRow < 1 {
		lastRow = 1
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 18); err != nil {
		return err
	}
	return nil
}

// CashFlowWorkbook builds the single-sheet category flow report.
func (s *ExportService) CashFlowWorkbook(ctx context.Context, userID string, from, to time.Time) (*excelize.File, string, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.CashFlowWorkbook")
	defer span.End()

	series, err := s.cashflow.Aggregate(ctx, userID, domain.GranularityMonth, from, to)
	if err != nil {
		return nil, "", err
	}
	summary, err := s.cashflow.Summary(ctx, userID, from, to)
	if err != nil {
		return nil, "", err
	}

	f, err := buildCashFlowWorkbook(series, summary)
	if err != nil {
		return nil, "", err
	}

	s.metrics.IncrExport("cashflow")
	// The download keeps the legacy .xls name; the payload is xlsx.
	filename := fmt.Sprintf("flujo_por_rubros_%s", from.Format("20060102"))
	if !to.IsZero() {
		filename += fmt.Sprintf("_a_%s", to.Format("20060102"))
	}
	filename += ".xls"
	return f, filename, nil
}

func buildCashFlowWorkbook(series []domain.CashFlowBucket, summary *domain.CashFlowSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetCashFlow)

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(currencyFormat)})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeHeaderRow(f, SheetCashFlow, []string{"Periodo", "Ingresos", "Egresos", "Neto"}, header); err != nil {
		return nil, err
	}

	row := 2
	for _, b := range series {
		values := []any{b.Period.Format("2006-01"), b.Income, b.Expense, b.Net}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetCashFlow, cell, v); err != nil {
				return nil, err
			}
			if i > 0 {
				if err := f.SetCellStyle(SheetCashFlow, cell, cell, currency); err != nil {
					return nil, err
				}
			}
		}
		row++
	}

	row++ // blank separator
	lines := []struct {
		label string
		value float64
	}{
		{"Ingresos totales", summary.TotalIncome},
		{"Egresos totales", summary.TotalExpense},
		{"Ingresos operativos", summary.OperatingIncome},
		{"Gastos operativos", summary.OperatingExpense},
		{"Depreciaciones y amortizaciones", summary.Depreciation},
		{"EBITDA", summary.EBITDA},
		{"EBIT", summary.EBIT},
		{"Financiamiento", summary.FinancingTotal},
		{"Inversiones (CAPEX)", summary.CapexTotal},
		{"Flujo neto", summary.NetFlow},
	}
	for _, line := range lines {
		labelCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetCashFlow, labelCell, line.label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetCashFlow, valueCell, line.value); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetCashFlow, valueCell, valueCell, currency); err != nil {
			return nil, err
		}
		row++
	}

	if err := f.SetColWidth(SheetCashFlow, "A", "A", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetCashFlow, "B", "D", 16); err != nil {
		return nil, err
	}
	return f, nil
}

func stringPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
