package model

import "time"

// Transaction types.
const (
	TxPurchase = "purchase"
	TxUsage    = "usage"
	TxBonus    = "bonus"
	TxRefund   = "refund"
)

// Transaction is one ledger entry; amount is positive for credit, negative
// for debit.
type Transaction struct {
	ID            int64     `json:"id"`
	Amount        float64   `json:"amount"`
	Type          string    `json:"transaction_type"`
	Description   string    `json:"description,omitempty"`
	AIModel       string    `json:"ai_model,omitempty"`
	MessageID     *int64    `json:"message_id,omitempty"`
	PaymentID     string    `json:"payment_id,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	UserID        int64     `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}
