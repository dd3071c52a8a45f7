package repository

import (
	"context"
	"errors"
	"fmt"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `
	id, competition_id, user_id, ticket_count, ticket_price, amount, balance_used,
	amount_charged, status, payment_session_id, ticket_ids, created_at, completed_at`

// OrderRepository implements order data access
type OrderRepository struct {
	q Queryable
}

// NewOrderRepository creates an order repository on the pool
func NewOrderRepository(db *database.DB) interfaces.OrderRepository {
	return &OrderRepository{q: db.Pool}
}

func newOrderRepository(q Queryable) *OrderRepository {
	return &OrderRepository{q: q}
}

func scanOrder(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID,
		&o.CompetitionID,
		&o.UserID,
		&o.TicketCount,
		&o.TicketPrice,
		&o.Amount,
		&o.BalanceUsed,
		&o.AmountCharged,
		&o.Status,
		&o.PaymentSessionID,
		&o.TicketIDs,
		&o.CreatedAt,
		&o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.TicketIDs == nil {
		o.TicketIDs = []string{}
	}
	return &o, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*entities.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entities.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, o *entities.Order) error {
	if o.TicketIDs == nil {
		o.TicketIDs = []string{}
	}

	query := `
		INSERT INTO orders (id, competition_id, user_id, ticket_count, ticket_price, amount,
		                    balance_used, amount_charged, status, payment_session_id, ticket_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		o.ID, o.CompetitionID, o.UserID, o.TicketCount, o.TicketPrice, o.Amount,
		o.BalanceUsed, o.AmountCharged, o.Status, o.PaymentSessionID, o.TicketIDs,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order %s: %w", o.ID, err)
	}
	return nil
}

// GetByID retrieves an order, nil if it does not exist
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entities.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return o, nil
}

// TransitionStatus is a compare-and-set on the order status. Concurrent callers racing
// on the same order block on the row lock and then see the winner's status, so exactly
// one of them gets true.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to entities.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3,
		    completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("failed to move order %s from %s to %s: %w", id, from, to, err)
	}
	return result.RowsAffected() == 1, nil
}

// SetTicketIDs records the issued ticket ids on the order
func (r *OrderRepository) SetTicketIDs(ctx context.Context, id string, ticketIDs []string) error {
	result, err := r.q.Exec(ctx, `UPDATE orders SET ticket_ids = $2 WHERE id = $1`, id, ticketIDs)
	if err != nil {
		return fmt.Errorf("failed to set tickets on order %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found", id)
	}
	return nil
}

// GetByUser returns the user's orders, newest first
func (r *OrderRepository) GetByUser(ctx context.Context, userID string) ([]*entities.Order, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// List returns the most recent orders
func (r *OrderRepository) List(ctx context.Context, limit int) ([]*entities.Order, error) {
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
