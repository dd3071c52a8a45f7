package events

import (
	"rafflehouse/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeOrderCreated       EventType = "order_created"
	EventTypeOrderCompleted     EventType = "order_completed"
	EventTypeOrderFailed        EventType = "order_failed"
	EventTypeOrderRefunded      EventType = "order_refunded"
	EventTypeTicketsIssued      EventType = "tickets_issued"
	EventTypeInstantWinAwarded  EventType = "instant_win_awarded"
	EventTypeCompetitionSoldOut EventType = "competition_sold_out"
	EventTypeCompetitionClosed  EventType = "competition_closed"
	EventTypeWinnerDrawn        EventType = "winner_drawn"
	EventTypeBalanceChanged     EventType = "balance_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// OrderCreatedEvent is published when an order awaits external payment
type OrderCreatedEvent struct {
	OrderID       string `json:"order_id"`
	CompetitionID string `json:"competition_id"`
	UserID        string `json:"user_id"`
	TicketCount   int    `json:"ticket_count"`
	Amount        int64  `json:"amount"`
	AmountCharged int64  `json:"amount_charged"`
	SessionID     string `json:"session_id"`
}

func (e OrderCreatedEvent) Type() EventType {
	return EventTypeOrderCreated
}

// OrderCompletedEvent is published once per order when its tickets are issued
type OrderCompletedEvent struct {
	OrderID       string `json:"order_id"`
	CompetitionID string `json:"competition_id"`
	UserID        string `json:"user_id"`
	TicketCount   int    `json:"ticket_count"`
	Amount        int64  `json:"amount"`
	BalanceUsed   int64  `json:"balance_used"`
}

func (e OrderCompletedEvent) Type() EventType {
	return EventTypeOrderCompleted
}

// OrderFailedEvent is published when the provider reports a failed or expired session
type OrderFailedEvent struct {
	OrderID   string                 `json:"order_id"`
	SessionID string                 `json:"session_id"`
	Status    entities.PaymentStatus `json:"payment_status"`
}

func (e OrderFailedEvent) Type() EventType {
	return EventTypeOrderFailed
}

// OrderRefundedEvent is published when a paid order could not be fulfilled
type OrderRefundedEvent struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	RefundedAmount int64  `json:"refunded_amount"`
	Reason         string `json:"reason"`
}

func (e OrderRefundedEvent) Type() EventType {
	return EventTypeOrderRefunded
}

// TicketsIssuedEvent is published after a batch is persisted
type TicketsIssuedEvent struct {
	CompetitionID string   `json:"competition_id"`
	OrderID       string   `json:"order_id"`
	UserID        string   `json:"user_id"`
	TicketNumbers []string `json:"ticket_numbers"`
	SoldTickets   int      `json:"sold_tickets"`
	TotalTickets  int      `json:"total_tickets"`
}

func (e TicketsIssuedEvent) Type() EventType {
	return EventTypeTicketsIssued
}

// InstantWinAwardedEvent is published for each ticket that won an instant prize
type InstantWinAwardedEvent struct {
	CompetitionID string `json:"competition_id"`
	TicketID      string `json:"ticket_id"`
	TicketNumber  string `json:"ticket_number"`
	UserID        string `json:"user_id"`
	PrizeID       int64  `json:"prize_id"`
	PrizeName     string `json:"prize_name"`
	PrizeValue    int64  `json:"prize_value"`
}

func (e InstantWinAwardedEvent) Type() EventType {
	return EventTypeInstantWinAwarded
}

// CompetitionSoldOutEvent is published when the last ticket is issued
type CompetitionSoldOutEvent struct {
	CompetitionID string `json:"competition_id"`
	TotalTickets  int    `json:"total_tickets"`
}

func (e CompetitionSoldOutEvent) Type() EventType {
	return EventTypeCompetitionSoldOut
}

// CompetitionClosedEvent is published when a competition passes its end date
type CompetitionClosedEvent struct {
	CompetitionID string `json:"competition_id"`
	SoldTickets   int    `json:"sold_tickets"`
}

func (e CompetitionClosedEvent) Type() EventType {
	return EventTypeCompetitionClosed
}

// WinnerDrawnEvent is published when the grand prize is drawn
type WinnerDrawnEvent struct {
	WinnerID         string `json:"winner_id"`
	CompetitionID    string `json:"competition_id"`
	CompetitionTitle string `json:"competition_title"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	TicketNumber     string `json:"ticket_number"`
	PrizeType        string `json:"prize_type"`
	PrizeValue       int64  `json:"prize_value"`
	TotalEntries     int64  `json:"total_entries"`
}

func (e WinnerDrawnEvent) Type() EventType {
	return EventTypeWinnerDrawn
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          string                   `json:"user_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ReferenceID     string                   `json:"reference_id"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChanged
}
