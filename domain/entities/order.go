package entities

import (
	"time"
)

// OrderStatus is the state of a purchase. The only transitions are
// pending -> completed, pending -> failed and pending -> refunded.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order is a purchase of TicketCount tickets, paid from balance, externally, or both
type Order struct {
	ID               string      `db:"id" json:"id"`
	CompetitionID    string      `db:"competition_id" json:"competition_id"`
	UserID           string      `db:"user_id" json:"user_id"`
	TicketCount      int         `db:"ticket_count" json:"ticket_count"`
	TicketPrice      int64       `db:"ticket_price" json:"ticket_price"`
	Amount           int64       `db:"amount" json:"amount"`
	BalanceUsed      int64       `db:"balance_used" json:"balance_used"`
	AmountCharged    int64       `db:"amount_charged" json:"amount_charged"`
	Status           OrderStatus `db:"status" json:"status"`
	PaymentSessionID *string     `db:"payment_session_id" json:"payment_session_id,omitempty"`
	TicketIDs        []string    `db:"ticket_ids" json:"ticket_ids"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
}

// NewOrder prices an order and splits it between balance and external payment
func NewOrder(competition *Competition, userID string, ticketCount int, availableBalance int64) *Order {
	amount := competition.TotalPrice(ticketCount)
	balanceUsed := min(max(availableBalance, 0), amount)

	return &Order{
		ID:            NewID(OrderIDPrefix),
		CompetitionID: competition.ID,
		UserID:        userID,
		TicketCount:   ticketCount,
		TicketPrice:   competition.TicketPrice,
		Amount:        amount,
		BalanceUsed:   balanceUsed,
		AmountCharged: amount - balanceUsed,
		Status:        OrderStatusPending,
		TicketIDs:     []string{},
	}
}

// RequiresExternalPayment returns true if the balance does not cover the order
func (o *Order) RequiresExternalPayment() bool {
	return o.AmountCharged > 0
}

// IsPending returns true if the order can still transition
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsCompleted returns true once tickets have been issued for the order
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}
