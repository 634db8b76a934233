package service

import (
	"context"
	"fmt"
	"time"

	"github.com/veladigital/libro-api/internal/domain"
)

// --- Mocks ---

type mockTransactionStore struct {
	rows    map[string]*domain.Transaction
	nextID  int
	failAll error
}

func newMockTransactionStore() *mockTransactionStore {
	return &mockTransactionStore{rows: make(map[string]*domain.Transaction)}
}

func (m *mockTransactionStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	m.nextID++
	stored := *tx
	stored.ID = fmt.Sprintf("tx-%d", m.nextID)
	m.rows[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *mockTransactionStore) ListTransactions(_ context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := make([]domain.Transaction, 0)
	for _, tx := range m.rows {
		if tx.CreatedBy != userID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if !filter.Since.IsZero() && tx.Date.Before(filter.Since) {
			continue
		}
		if !filter.IncludeDeleted && tx.IsDeleted() {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (m *mockTransactionStore) GetTransaction(_ context.Context, userID, txID string) (*domain.Transaction, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	tx, ok := m.rows[txID]
	if !ok || tx.CreatedBy != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	out := *tx
	return &out, nil
}

func (m *mockTransactionStore) UpdateTransaction(_ context.Context, userID, txID string, fields map[string]any) (*domain.Transaction, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	tx, ok := m.rows[txID]
	if !ok || tx.CreatedBy != userID {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	for k, v := range fields {
		switch k {
		case "status":
			tx.Status = v.(string)
		case "date":
			t, _ := time.Parse("2006-01-02", v.(string))
			tx.Date = t
		case "deleted_at":
			t, _ := time.Parse(time.RFC3339, v.(string))
			tx.DeletedAt = &t
		case "concept":
			tx.Concept = v.(string)
		case "category":
			tx.Category = v.(string)
		case "method":
			tx.Method = v.(string)
		case "notes":
			s := v.(string)
			tx.Notes = &s
		case "receipt_url":
			s := v.(string)
			tx.ReceiptURL = &s
		case "receipt_type":
			s := v.(string)
			tx.ReceiptType = &s
		case "uuid_cfdi":
			s := v.(string)
			tx.UUIDCFDI = &s
		case "reconciled":
			tx.Reconciled = v.(bool)
		}
	}
	out := *tx
	return &out, nil
}

func (m *mockTransactionStore) DeleteTransaction(_ context.Context, userID, txID string) error {
	if m.failAll != nil {
		return m.failAll
	}
	tx, ok := m.rows[txID]
	if !ok || tx.CreatedBy != userID {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	delete(m.rows, txID)
	return nil
}

func (m *mockTransactionStore) ListPendingByClient(_ context.Context, userID string) (map[string]domain.Transaction, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := make(map[string]domain.Transaction)
	for _, tx := range m.rows {
		if tx.CreatedBy != userID || tx.Status != domain.StatusPending || tx.RecurringClientID == nil || tx.IsDeleted() {
			continue
		}
		if _, ok := out[*tx.RecurringClientID]; !ok {
			out[*tx.RecurringClientID] = *tx
		}
	}
	return out, nil
}

type mockClientStore struct {
	rows   map[string]*domain.RecurringClient
	nextID int
}

func newMockClientStore() *mockClientStore {
	return &mockClientStore{rows: make(map[string]*domain.RecurringClient)}
}

func (m *mockClientStore) CreateRecurringClient(_ context.Context, client *domain.RecurringClient) (*domain.RecurringClient, error) {
	m.nextID++
	stored := *client
	stored.ID = fmt.Sprintf("client-%d", m.nextID)
	m.rows[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *mockClientStore) ListRecurringClients(_ context.Context, userID string) ([]domain.RecurringClient, error) {
	out := make([]domain.RecurringClient, 0)
	for _, c := range m.rows {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClientStore) GetRecurringClient(_ context.Context, userID, clientID string) (*domain.RecurringClient, error) {
	c, ok := m.rows[clientID]
	if !ok || c.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "recurring client", ID: clientID}
	}
	out := *c
	return &out, nil
}

func (m *mockClientStore) UpdateRecurringClient(_ context.Context, userID, clientID string, fields map[string]any) (*domain.RecurringClient, error) {
	c, ok := m.rows[clientID]
	if !ok || c.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "recurring client", ID: clientID}
	}
	for k, v := range fields {
		switch k {
		case "due_date":
			t, _ := time.Parse("2006-01-02", v.(string))
			c.DueDate = t
		case "name":
			c.Name = v.(string)
		case "amount":
			c.Amount = v.(float64)
		}
	}
	out := *c
	return &out, nil
}

func (m *mockClientStore) DeleteRecurringClient(_ context.Context, userID, clientID string) error {
	c, ok := m.rows[clientID]
	if !ok || c.UserID != userID {
		return &domain.ErrNotFound{Resource: "recurring client", ID: clientID}
	}
	delete(m.rows, clientID)
	return nil
}

type mockStorage struct {
	uploads map[string][]byte
	failUp  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{uploads: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, path string, file *domain.FileUpload) error {
	if m.failUp != nil {
		return m.failUp
	}
	m.uploads[path] = file.Data
	return nil
}

func (m *mockStorage) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://storage.example/sign/" + path, nil
}

type mockBankStore struct {
	accounts []domain.BankAccount
}

func (m *mockBankStore) ListBankAccounts(_ context.Context, _ string) ([]domain.BankAccount, error) {
	return m.accounts, nil
}
