package handler

import (
	"net/http"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cash flow — /v1/cashflow
// ============================================================

func cashFlowHandler(svc *service.CashFlowService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashflow")
		defer span.End()

		granularity := r.URL.Query().Get("granularity")
		if granularity == "" {
			granularity = domain.GranularityMonth
		}
		span.SetAttributes(attribute.String("granularity", granularity))

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

		series, err := svc.Aggregate(ctx, UserIDFromContext(ctx), granularity, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, series)
	}
}

func cashFlowSummaryHandler(svc *service.CashFlowService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cashflow/summary")
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

		summary, err := svc.Summary(ctx, UserIDFromContext(ctx), from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
