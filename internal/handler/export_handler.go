package handler

import (
	"fmt"
	"net/http"

	"github.com/veladigital/libro-api/internal/service"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ============================================================
// Exports — /v1/export
// ============================================================

func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string, logger *zap.Logger) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		// Headers are gone; all we can do is log.
		logger.Error("export: writing workbook to response failed", zap.Error(err))
	}
	f.Close()
}

func exportTransactionsHandler(svc *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/export/transactions")
		defer span.End()

		f, filename, err := svc.TransactionsWorkbook(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeWorkbook(w, f, filename, logger)
	}
}

func exportCashFlowHandler(svc *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/export/cashflow")
		defer span.End()

		from, err := parseDateParam(r, "from")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		to, err := parseDateParam(r, "to")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		f, filename, err := svc.CashFlowWorkbook(ctx, UserIDFromContext(ctx), from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeWorkbook(w, f, filename, logger)
	}
}
