package entities

import (
	"time"
)

// TransactionType labels a balance movement
type TransactionType string

const (
	TransactionTypeAdminCredit  TransactionType = "admin_credit"
	TransactionTypeOrderDebit   TransactionType = "order_debit"
	TransactionTypeRefundCredit TransactionType = "refund_credit"
)

// BalanceHistory records one balance change
type BalanceHistory struct {
	ID              int64           `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	BalanceBefore   int64           `db:"balance_before" json:"balance_before"`
	BalanceAfter    int64           `db:"balance_after" json:"balance_after"`
	ChangeAmount    int64           `db:"change_amount" json:"change_amount"`
	TransactionType TransactionType `db:"transaction_type" json:"transaction_type"`
	ReferenceID     string          `db:"reference_id" json:"reference_id"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
