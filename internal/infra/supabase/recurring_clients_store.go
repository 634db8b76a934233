package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veladigital/libro-api/internal/domain"
	"github.com/veladigital/libro-api/internal/infra/resilience"
)

// ============================================================
// Recurring clients — CRUD via PostgREST
// ============================================================

type recurringClientRow struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	DueDate    string  `json:"due_date"`
	BillingDay int     `json:"billing_day"`
	Notes      *string `json:"notes,omitempty"`
	UserID     string  `json:"user_id"`
}

func (r *recurringClientRow) toDomain() domain.RecurringClient {
	return domain.RecurringClient{
		ID:         r.ID,
		Name:       r.Name,
		Amount:     r.Amount,
		DueDate:    parseWireDate(r.DueDate),
		BillingDay: r.BillingDay,
		Notes:      r.Notes,
		UserID:     r.UserID,
	}
}

// CreateRecurringClient inserts a client and returns the stored row.
func (c *Client) CreateRecurringClient(ctx context.Context, client *domain.RecurringClient) (*domain.RecurringClient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateRecurringClient")
	defer span.End()

	data := map[string]any{
		"name":        client.Name,
		"amount":      client.Amount,
		"due_date":    client.DueDate.Format(dateLayout),
		"billing_day": client.BillingDay,
		"user_id":     client.UserID,
	}
	if client.Notes != nil {
		data["notes"] = *client.Notes
	}

	body, err := c.doPost(ctx, "recurring_clients", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/recurring_clients", Err: err}
	}

	var rows []recurringClientRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode created recurring client: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase returned empty representation for recurring client insert")
	}
	created := rows[0].toDomain()
	return &created, nil
}

// ListRecurringClients fetches the user's clients ordered by due date.
func (c *Client) ListRecurringClients(ctx context.Context, userID string) ([]domain.RecurringClient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecurringClients")
	defer span.End()

	var clients []domain.RecurringClient

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("recurring_clients?user_id=eq.%s&order=due_date.asc", userID)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				clients = []domain.RecurringClient{}
				return nil
			}

			var rows []recurringClientRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode recurring clients: %w", err)
			}

			clients = make([]domain.RecurringClient, 0, len(rows))
			for i := range rows {
				clients = append(clients, rows[i].toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/recurring_clients", Err: err}
	}

	return clients, nil
}

// GetRecurringClient fetches one client by id.
func (c *Client) GetRecurringClient(ctx context.Context, userID, clientID string) (*domain.RecurringClient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRecurringClient")
	defer span.End()

	path := fmt.Sprintf("recurring_clients?id=eq.%s&user_id=eq.%s&limit=1", clientID, userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/recurring_clients", Err: err}
	}

	var rows []recurringClientRow
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode recurring client: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "recurring client", ID: clientID}
	}
	client := rows[0].toDomain()
	return &client, nil
}

// UpdateRecurringClient patches the given columns and returns the fresh row.
func (c *Client) UpdateRecurringClient(ctx context.Context, userID, clientID string, fields map[string]any) (*domain.RecurringClient, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateRecurringClient")
	defer span.End()

	path := fmt.Sprintf("recurring_clients?id=eq.%s&user_id=eq.%s", clientID, userID)
	if err := c.doPatch(ctx, path, fields); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/recurring_clients", Err: err}
	}

	updated, err := c.GetRecurringClient(ctx, userID, clientID)
	if err != nil {
		return nil, fmt.Errorf("re-fetch after recurring client update: %w", err)
	}
	return updated, nil
}

// DeleteRecurringClient removes the client row. Historical transactions keep
// their recurring_client_id and are untouched.
func (c *Client) DeleteRecurringClient(ctx context.Context, userID, clientID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteRecurringClient")
	defer span.End()

	path := fmt.Sprintf("recurring_clients?id=eq.%s&user_id=eq.%s", clientID, userID)
	if err := c.doDelete(ctx, path); err != nil {
		return &domain.ErrExternalService{Service: "supabase/recurring_clients", Err: err}
	}
	return nil
}
