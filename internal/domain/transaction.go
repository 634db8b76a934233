// Package domain holds the core bookkeeping types and pure business rules.
// Structs mirror the Supabase table rows; services never touch raw JSON maps.
package domain

import "time"

// Transaction types.
const (
	TypeIncome   = "income"
	TypeExpense  = "expense"
	TypeTransfer = "transfer"
)

// Payment methods.
const (
	MethodBank = "bank"
	MethodCash = "cash"
)

// Transaction lifecycle states.
const (
	StatusDraft   = "draft"
	StatusPosted  = "posted"
	StatusPending = "pending"
)

// Receipt types accepted for attached vouchers.
const (
	ReceiptCFDI       = "CFDI"
	ReceiptInvoicePDF = "INVOICE_PDF"
	ReceiptTicket     = "TICKET"
)

// Transaction is one row of the transactions table.
//
// Invariants: Subtotal + VATAmount == Total within 0.01; if VATIncluded the
// Total equals Amount, otherwise the Subtotal does. Drafts may be hard
// deleted; posted and pending rows only get DeletedAt set. A reconciled row
// is immutable.
type Transaction struct {
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	Date              time.Time  `json:"date"`
	Method            string     `json:"method"`
	BankAccountID     *string    `json:"bank_account_id,omitempty"`
	Amount            float64    `json:"amount"`
	Concept           string     `json:"concept"`
	Category          string     `json:"category"`
	Subtotal          float64    `json:"subtotal"`
	VATRate           float64    `json:"vat_rate"`
	VATIncluded       bool       `json:"vat_included"`
	VATAmount         float64    `json:"vat_amount"`
	Total             float64    `json:"total"`
	Status            string     `json:"status"`
	ReceiptURL        *string    `json:"receipt_url,omitempty"`
	ReceiptType       *string    `json:"receipt_type,omitempty"`
	SignatureURL      *string    `json:"signature_url,omitempty"`
	UUIDCFDI          *string    `json:"uuid_cfdi,omitempty"`
	RecurringClientID *string    `json:"recurring_client_id,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Reconciled        bool       `json:"reconciled"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	CreatedBy         string     `json:"created_by"`
}

// IsDeleted reports whether the row has been soft deleted.
func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// TransactionFilter narrows a transactions listing.
type TransactionFilter struct {
	Type           string    // income | expense | transfer, empty = all
	Since          time.Time // zero = no lower bound on date
	IncludeDeleted bool
}

// FileUpload carries the bytes of a voucher dropped or selected in the UI.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewTransactionRequest is the payload for creating a transaction.
// VAT breakdown is computed server side from Amount, VATRate and VATIncluded.
type NewTransactionRequest struct {
	Type        string  `json:"type"`
	Date        string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Method      string  `json:"method"`
	Amount      float64 `json:"amount"`
	Concept     string  `json:"concept"`
	Category    string  `json:"category"`
	VATRate     float64 `json:"vat_rate"`
	VATIncluded bool    `json:"vat_included"`
	ReceiptType string  `json:"receipt_type,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Status      string  `json:"status"` // draft | posted
}

// DashboardStats feeds the landing page cards.
type DashboardStats struct {
	TotalTransactions int     `json:"total_transactions"`
	Balance           float64 `json:"balance"`    // all-time income - expense
	ThisMonth         float64 `json:"this_month"` // current month income - expense
}

// BankAccount labels bank movements in the accountant export.
type BankAccount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"user_id"`
}
