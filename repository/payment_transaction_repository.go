package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const paymentTransactionColumns = `
	id, session_id, order_id, user_id, amount, currency, status, payment_status, created_at, updated_at`

// PaymentTransactionRepository implements payment transaction data access
type PaymentTransactionRepository struct {
	q Queryable
}

// NewPaymentTransactionRepository creates a payment transaction repository on the pool
func NewPaymentTransactionRepository(db *database.DB) interfaces.PaymentTransactionRepository {
	return &PaymentTransactionRepository{q: db.Pool}
}

func newPaymentTransactionRepository(q Queryable) *PaymentTransactionRepository {
	return &PaymentTransactionRepository{q: q}
}

func scanPaymentTransaction(row pgx.Row) (*entities.PaymentTransaction, error) {
	var t entities.PaymentTransaction
	err := row.Scan(
		&t.ID,
		&t.SessionID,
		&t.OrderID,
		&t.UserID,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.PaymentStatus,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new transaction
func (r *PaymentTransactionRepository) Create(ctx context.Context, txn *entities.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (id, session_id, order_id, user_id, amount, currency, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.ID, txn.SessionID, txn.OrderID, txn.UserID, txn.Amount, txn.Currency, txn.Status, txn.PaymentStatus,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment transaction for session %s: %w", txn.SessionID, err)
	}
	return nil
}

// GetBySessionID retrieves a transaction by provider session, nil if unknown
func (r *PaymentTransactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*entities.PaymentTransaction, error) {
	query := `SELECT ` + paymentTransactionColumns + ` FROM payment_transactions WHERE session_id = $1`

	t, err := scanPaymentTransaction(r.q.QueryRow(ctx, query, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment transaction for session %s: %w", sessionID, err)
	}
	return t, nil
}

// UpdateStatus stores our status and the provider's payment status
func (r *PaymentTransactionRepository) UpdateStatus(ctx context.Context, sessionID string, status entities.TransactionStatus, paymentStatus entities.PaymentStatus) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE session_id = $1
	`

	result, err := r.q.Exec(ctx, query, sessionID, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction for session %s: %w", sessionID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment transaction for session %s not found", sessionID)
	}
	return nil
}

// ListPendingOlderThan returns stale pending transactions, oldest first
func (r *PaymentTransactionRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PaymentTransaction, error) {
	query := `SELECT ` + paymentTransactionColumns + `
		FROM payment_transactions
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payment transactions: %w", err)
	}
	defer rows.Close()

	var txns []*entities.PaymentTransaction
	for rows.Next() {
		t, err := scanPaymentTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment transactions: %w", err)
	}
	return txns, nil
}
