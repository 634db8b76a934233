package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/resilience"
)

// ============================================================
// Transactions — CRUD via PostgREST
// ============================================================

const dateLayout = "2006-01-02"

// transactionRow maps the transactions table columns. Dates travel as
// strings on the wire; conversion to time.Time happens here and nowhere else.
type transactionRow struct {
	ID                string   `json:"id,omitempty"`
	Type              string   `json:"type"`
	Date              string   `json:"date"`
	Method            string   `json:"method"`
	BankAccountID     *string  `json:"bank_account_id,omitempty"`
	Amount            float64  `json:"amount"`
	Concept           string   `json:"concept"`
	Category          string   `json:"category"`
	Subtotal          float64  `json:"subtotal"`
	VATRate           float64  `json:"vat_rate"`
	VATIncluded       bool     `json:"vat_included"`
	VATAmount         float64  `json:"vat_amount"`
	Total             float64  `json:"total"`
	Status            string   `json:"status"`
	ReceiptURL        *string  `json:"receipt_url,omitempty"`
	ReceiptType       *string  `json:"receipt_type,omitempty"`
	SignatureURL      *string  `json:"signature_url,omitempty"`
	UUIDCFDI          *string  `json:"uuid_cfdi,omitempty"`
	RecurringClientID *string  `json:"recurring_client_id,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	Reconciled        bool     `json:"reconciled"`
	DeletedAt         *string  `json:"deleted_at,omitempty"`
	CreatedBy         string   `json:"created_by"`
}

func parseWireDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse(dateLayout, s)
	}
	return t
}

func (r *transactionRow) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:                r.ID,
		Type:              r.Type,
		Date:              parseWireDate(r.Date),
		Method:            r.Method,
		BankAccountID:     r.BankAccountID,
		Amount:            r.Amount,
		Concept:           r.Concept,
		Category:          r.Category,
		Subtotal:          r.Subtotal,
		VATRate:           r.VATRate,
		VATIncluded:       r.VATIncluded,
		VATAmount:         r.VATAmount,
		Total:             r.Total,
		Status:            r.Status,
		ReceiptURL:        r.ReceiptURL,
		ReceiptType:       r.ReceiptType,
		SignatureURL:      r.SignatureURL,
		UUIDCFDI:          r.UUIDCFDI,
		RecurringClientID: r.RecurringClientID,
		Notes:             r.Notes,
		Reconciled:        r.Reconciled,
		CreatedBy:         r.CreatedBy,
	}
	if r.DeletedAt != nil {
		t := parseWireDate(*r.DeletedAt)
		tx.DeletedAt = &t
	}
	return tx
}

func transactionInsert(tx *domain.Transaction) map[string]any {
	data := map[string]any{
		"type":         tx.Type,
		"date":         tx.Date.Format(dateLayout),
		"method":       tx.Method,
		"amount":       tx.Amount,
		"concept":      tx.Concept,
		"category":     tx.Category,
		"subtotal":     tx.Subtotal,
		"vat_rate":     tx.VATRate,
		"vat_included": tx.VATIncluded,
		"vat_amount":   tx.VATAmount,
		"total":        tx.Total,
		"status":       tx.Status,
		"reconciled":   tx.Reconciled,
		"created_by":   tx.CreatedBy,
	}
	if tx.BankAccountID != nil {
		data["bank_account_id"] = *tx.BankAccountID
	}
	if tx.ReceiptURL != nil {
		data["receipt_url"] = *tx.ReceiptURL
	}
	if tx.ReceiptType != nil {
		data["receipt_type"] = *tx.ReceiptType
	}
	if tx.SignatureURL != nil {
		data["signature_url"] = *tx.SignatureURL
	}
	if tx.UUIDCFDI != nil {
		data["uuid_cfdi"] = *tx.UUIDCFDI
	}
	if tx.RecurringClientID != nil {
		data["recurring_client_id"] = *tx.RecurringClientID
	}
	if tx.Notes != nil {
		data["notes"] = *tx.Notes
	}
	return data
}

// CreateTransaction inserts a row and returns the stored representation.
func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	body, err := c.doPost(ctx, "transactions", transactionInsert(tx))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase returned empty representation for transaction insert")
	}
	created := rows[0].toDomain()
	return &created, nil
}

// ListTransactions fetches the user's transactions, newest first.
func (c *Client) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("transactions?created_by=eq.%s&order=date.desc", userID)
			if filter.Type != "" {
				path += fmt.Sprintf("&type=eq.%s", filter.Type)
			}
			if !filter.Since.IsZero() {
				path += fmt.Sprintf("&date=gte.%s", filter.Since.Format(dateLayout))
			}
			if !filter.IncludeDeleted {
				path += "&deleted_at=is.null"
			}

			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []transactionRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode transactions: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for i := range rows {
				transactions = append(transactions, rows[i].toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// GetTransaction fetches one transaction by id, soft-deleted rows included.
func (c *Client) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&created_by=eq.%s&limit=1", txID, userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var rows []transactionRow
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	tx := rows[0].toDomain()
	return &tx, nil
}

// UpdateTransaction patches the given columns and returns the fresh row.
func (c *Client) UpdateTransaction(ctx context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&created_by=eq.%s", txID, userID)
	if err := c.doPatch(ctx, path, fields); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	// Re-fetch to confirm the update actually persisted
	updated, err := c.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch after transaction update: %w", err)
	}
	return updated, nil
}

// DeleteTransaction removes the row permanently. Soft deletes go through
// UpdateTransaction with a deleted_at timestamp instead.
func (c *Client) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&created_by=eq.%s", txID, userID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}

// ListPendingByClient returns the user's unresolved pending charges keyed by
// recurring client id. When duplicates exist the first row returned wins.
func (c *Client) ListPendingByClient(ctx context.Context, userID string) (map[string]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPendingByClient")
	defer span.End()

	pending := make(map[string]domain.Transaction)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("transactions?created_by=eq.%s&status=eq.pending&recurring_client_id=not.is.null&deleted_at=is.null&order=date.asc", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return nil
			}

			var rows []transactionRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode pending charges: %w", err)
			}

			for i := range rows {
				tx := rows[i].toDomain()
				if tx.RecurringClientID == nil {
					continue
				}
				if _, ok := pending[*tx.RecurringClientID]; !ok {
					pending[*tx.RecurringClientID] = tx
				}
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return pending, nil
}
