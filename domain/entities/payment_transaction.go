package entities

import (
	"time"
)

// TransactionStatus is our view of an external payment
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// PaymentStatus is the provider's view of a checkout session
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// IsTerminalFailure returns true if the session can never be paid
func (s PaymentStatus) IsTerminalFailure() bool {
	return s == PaymentStatusFailed || s == PaymentStatusExpired
}

// PaymentTransaction tracks one external checkout session for an order
type PaymentTransaction struct {
	ID            string            `db:"id" json:"id"`
	SessionID     string            `db:"session_id" json:"session_id"`
	OrderID       string            `db:"order_id" json:"order_id"`
	UserID        string            `db:"user_id" json:"user_id"`
	Amount        int64             `db:"amount" json:"amount"`
	Currency      string            `db:"currency" json:"currency"`
	Status        TransactionStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus     `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// IsPending returns true if the transaction has not been settled either way
func (t *PaymentTransaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}
