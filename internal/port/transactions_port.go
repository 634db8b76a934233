package port

import (
	"context"

	"github.com/veladigital/libro-api/internal/domain"
)

// TransactionStore handles transaction data operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error
	ListPendingByClient(ctx context.Context, userID string) (map[string]domain.Transaction, error)
}

// BankAccountStore handles bank account lookups for the accountant export.
type BankAccountStore interface {
	ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error)
}
