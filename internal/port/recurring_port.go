package port

import (
	"context"

	"github.com/veladigital/libro-api/internal/domain"
)

// RecurringClientStore handles recurring client data operations.
type RecurringClientStore interface {
	CreateRecurringClient(ctx context.Context, client *domain.RecurringClient) (*domain.RecurringClient, error)
	ListRecurringClients(ctx context.Context, userID string) ([]domain.RecurringClient, error)
	GetRecurringClient(ctx context.Context, userID, clientID string) (*domain.RecurringClient, error)
	UpdateRecurringClient(ctx context.Context, userID, clientID string, fields map[string]any) (*domain.RecurringClient, error)
	DeleteRecurringClient(ctx context.Context, userID, clientID string) error
}
