package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Recurring clients — /v1/recurring-clients
// ============================================================

func listRecurringClientsHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/recurring-clients")
		defer span.End()

		clients, err := svc.ListClients(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}

func addRecurringClientHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recurring-clients")
		defer span.End()

		var req domain.NewRecurringClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.AddClient(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func removeRecurringClientHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/recurring-clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		if err := svc.RemoveClient(ctx, UserIDFromContext(ctx), clientID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func markPaidHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recurring-clients/{clientId}/mark-paid")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		updated, err := svc.CompletePaymentCycle(ctx, UserIDFromContext(ctx), clientID, nil)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func attachInvoiceHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recurring-clients/{clientId}/invoice")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("invoice")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invoice file is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read invoice file")
			return
		}

		url, err := svc.AttachInvoice(ctx, UserIDFromContext(ctx), clientID, &domain.FileUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"receipt_url": url})
	}
}

func dueSoonHandler(svc *service.RecurringService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/recurring-clients/due-soon")
		defer span.End()

		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			if d, err := strconv.Atoi(v); err == nil && d > 0 {
				days = d
			}
		}

		clients, err := svc.DueSoon(ctx, UserIDFromContext(ctx), days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}
