package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxReceiptSize caps multipart uploads at 10 MiB.
const maxReceiptSize = 10 << 20

// ============================================================
// Transactions — /v1/transactions
// ============================================================

func listTransactionsHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		filter := domain.TransactionFilter{
			Type:           r.URL.Query().Get("type"),
			IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
		}
		since, err := parseDateParam(r, "since")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		filter.Since = since

		transactions, err := svc.List(ctx, UserIDFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, transactions)
	}
}

// decodeTransactionRequest reads the create payload from either a plain JSON
// body or a multipart form with a "payload" JSON field and a "receipt" file.
func decodeTransactionRequest(r *http.Request) (*domain.NewTransactionRequest, *domain.FileUpload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req domain.NewTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, &domain.ErrValidation{Field: "body", Message: "invalid request body"}
		}
		return &req, nil, nil
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		return nil, nil, &domain.ErrValidation{Field: "body", Message: "invalid multipart form"}
	}

	var req domain.NewTransactionRequest
	payload := r.FormValue("payload")
	if payload == "" {
		return nil, nil, &domain.ErrValidation{Field: "payload", Message: "payload field is required"}
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, nil, &domain.ErrValidation{Field: "payload", Message: "invalid payload JSON"}
	}

	file, header, err := r.FormFile("receipt")
	if err == http.ErrMissingFile {
		return &req, nil, nil
	}
	if err != nil {
		return nil, nil, &domain.ErrValidation{Field: "receipt", Message: "invalid receipt file"}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
	if err != nil {
		return nil, nil, &domain.ErrValidation{Field: "receipt", Message: "could not read receipt file"}
	}

	return &req, &domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func createTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		req, receipt, err := decodeTransactionRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.Create(ctx, UserIDFromContext(ctx), req, receipt)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{txId}")
		defer span.End()

		txID := chi.URLParam(r, "txId")
		span.SetAttributes(attribute.String("transaction.id", txID))

		tx, err := svc.Get(ctx, UserIDFromContext(ctx), txID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func updateTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{txId}")
		defer span.End()

		txID := chi.URLParam(r, "txId")
		span.SetAttributes(attribute.String("transaction.id", txID))

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := svc.Update(ctx, UserIDFromContext(ctx), txID, fields)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{txId}")
		defer span.End()

		txID := chi.URLParam(r, "txId")
		span.SetAttributes(attribute.String("transaction.id", txID))

		if err := svc.Delete(ctx, UserIDFromContext(ctx), txID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func duplicateTransactionHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{txId}/duplicate")
		defer span.End()

		txID := chi.URLParam(r, "txId")
		span.SetAttributes(attribute.String("transaction.id", txID))

		created, err := svc.Duplicate(ctx, UserIDFromContext(ctx), txID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func dashboardStatsHandler(svc *service.TransactionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/stats")
		defer span.End()

		stats, err := svc.DashboardStats(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
