package handler

import (
	"net/http"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/observability"
	"github.com/veladigital/libro-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(txSvc *service.TransactionsService, recurringSvc *service.RecurringService, cashflowSvc *service.CashFlowService, exportSvc *service.ExportService, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(txSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 (all routes require a Supabase JWT) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		// Transactions
		r.Get("/transactions", listTransactionsHandler(txSvc, logger))
		r.Post("/transactions", createTransactionHandler(txSvc, logger))
		r.Get("/transactions/{txId}", getTransactionHandler(txSvc, logger))
		r.Put("/transactions/{txId}", updateTransactionHandler(txSvc, logger))
		r.Delete("/transactions/{txId}", deleteTransactionHandler(txSvc, logger))
		r.Post("/transactions/{txId}/duplicate", duplicateTransactionHandler(txSvc, logger))
		r.Get("/dashboard/stats", dashboardStatsHandler(txSvc, logger))

		// Recurring clients
		r.Get("/recurring-clients", listRecurringClientsHandler(recurringSvc, logger))
		r.Post("/recurring-clients", addRecurringClientHandler(recurringSvc, logger))
		r.Delete("/recurring-clients/{clientId}", removeRecurringClientHandler(recurringSvc, logger))
		r.Post("/recurring-clients/{clientId}/mark-paid", markPaidHandler(recurringSvc, logger))
		r.Post("/recurring-clients/{clientId}/invoice", attachInvoiceHandler(recurringSvc, logger))
		r.Get("/recurring-clients/due-soon", dueSoonHandler(recurringSvc, logger))

		// Cash flow
		r.Get("/cashflow", cashFlowHandler(cashflowSvc, logger))
		r.Get("/cashflow/summary", cashFlowSummaryHandler(cashflowSvc, logger))

		// Exports
		r.Get("/export/transactions", exportTransactionsHandler(exportSvc, logger))
		r.Get("/export/cashflow", exportCashFlowHandler(exportSvc, logger))

		// Themes
		r.Get("/themes", listThemesHandler())
		r.Get("/themes/{themeId}", getThemeHandler())

		// Usage metrics
		r.Get("/metrics/usage", usageMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health & probes
// ============================================================

func healthzHandler(txSvc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "libro-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if txSvc != nil {
			start := time.Now()
			_, err := txSvc.List(ctx, "health-check", domain.TransactionFilter{})
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func usageMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.UsageSnapshot())
	}
}
