package domain

import "time"

// RecurringClient is a monthly membership-style client with a billing
// reminder. DueDate always falls on BillingDay clamped to the month's last
// day; it advances one calendar month per completed billing cycle.
type RecurringClient struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Amount     float64   `json:"amount"`
	DueDate    time.Time `json:"due_date"`
	BillingDay int       `json:"billing_day"` // 1..31
	Notes      *string   `json:"notes,omitempty"`
	UserID     string    `json:"user_id"`
}

// RecurringClientWithPending pairs a client with its unresolved pending
// charge, if one exists. At most one pending charge per client is kept
// unresolved at any time; the pairing is done in application code, there is
// no database constraint.
type RecurringClientWithPending struct {
	RecurringClient
	PendingCharge *Transaction `json:"pending_charge,omitempty"`
}

// NewRecurringClientRequest is the payload for registering a client.
type NewRecurringClientRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	BillingDay int     `json:"billing_day"`
	Notes      string  `json:"notes,omitempty"`
}
