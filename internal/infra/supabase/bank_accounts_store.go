package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veladigital/libro-api/internal/domain"
)

// ListBankAccounts fetches the user's bank accounts for export labeling.
func (c *Client) ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBankAccounts")
	defer span.End()

	path := fmt.Sprintf("bank_accounts?user_id=eq.%s&order=name.asc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bank_accounts", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.BankAccount{}, nil
	}

	var rows []domain.BankAccount
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode bank accounts: %w", err)
	}
	return rows, nil
}
