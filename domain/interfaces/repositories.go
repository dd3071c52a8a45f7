package interfaces

import (
	"context"
	"time"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
)

// CompetitionRepository defines the interface for competition data access
type CompetitionRepository interface {
	// Create inserts a competition and fills its timestamps
	Create(ctx context.Context, competition *entities.Competition) error

	// GetByID returns nil when the competition does not exist
	GetByID(ctx context.Context, id string) (*entities.Competition, error)

	// GetByIDForUpdate locks the competition row for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id string) (*entities.Competition, error)

	// List returns competitions matching the filter
	List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error)

	// Update persists descriptive fields, caps and status
	Update(ctx context.Context, competition *entities.Competition) error

	// Delete removes a competition that has no orders; returns false if it was kept
	Delete(ctx context.Context, id string) (bool, error)

	// SetStatus changes the status unconditionally
	SetStatus(ctx context.Context, id string, status entities.CompetitionStatus) error

	// ReserveTickets atomically adds count to sold_tickets while the competition is active
	// and the total is not exceeded, flipping the status to sold_out when full.
	// Returns nil when the bound check fails.
	ReserveTickets(ctx context.Context, id string, count int) (*entities.Competition, error)

	// RecordWinner sets the winner and ends the competition; fails if a winner is already set
	RecordWinner(ctx context.Context, id, winnerID string, drawDate time.Time) error

	// CloseExpired ends active competitions whose end date is not after now
	CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error)
}

// InstantWinPrizeRepository defines the interface for the instant-win prize pool
type InstantWinPrizeRepository interface {
	// CreateBatch inserts prizes and fills their IDs
	CreateBatch(ctx context.Context, prizes []*entities.InstantWinPrize) error

	// ListByCompetition returns the pool in insertion order
	ListByCompetition(ctx context.Context, competitionID string) ([]*entities.InstantWinPrize, error)

	// ReplaceForCompetition deletes the pool and inserts prizes in its place
	ReplaceForCompetition(ctx context.Context, competitionID string, prizes []*entities.InstantWinPrize) error

	// ClaimOne decrements remaining if it is positive; false means the prize is exhausted
	ClaimOne(ctx context.Context, prizeID int64) (bool, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// CreateBatch inserts tickets, skipping any whose number already exists in the
	// competition, and returns the tickets that were persisted
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) ([]*entities.Ticket, error)

	// FindExistingNumbers returns which of numbers are already taken in the competition
	FindExistingNumbers(ctx context.Context, competitionID string, numbers []string) ([]string, error)

	// CountByCompetition returns the number of tickets sold for a competition
	CountByCompetition(ctx context.Context, competitionID string) (int64, error)

	// CountByUserForCompetition returns how many tickets a user holds in a competition
	CountByUserForCompetition(ctx context.Context, competitionID, userID string) (int, error)

	// GetByOffset returns the ticket at position offset in a stable ordering of the competition's tickets
	GetByOffset(ctx context.Context, competitionID string, offset int64) (*entities.Ticket, error)

	// GetByIDs returns tickets in the order of ids that exist
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Ticket, error)

	// GetByCompetition returns every ticket of a competition
	GetByCompetition(ctx context.Context, competitionID string) ([]*entities.Ticket, error)

	// GetByUser returns a user's most recent tickets
	GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Ticket, error)

	// GetInstantWinsByUser returns a user's winning instant-win tickets
	GetInstantWinsByUser(ctx context.Context, userID string) ([]*entities.Ticket, error)

	// GetEntriesByUser returns per-competition ticket counts for a user
	GetEntriesByUser(ctx context.Context, userID string) ([]*entities.UserEntry, error)
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create inserts an order and fills its creation time
	Create(ctx context.Context, order *entities.Order) error

	// GetByID returns nil when the order does not exist
	GetByID(ctx context.Context, id string) (*entities.Order, error)

	// TransitionStatus moves the order from one status to another only if it is
	// currently in from. Returns false when another caller already moved it.
	TransitionStatus(ctx context.Context, id string, from, to entities.OrderStatus) (bool, error)

	// SetTicketIDs records the issued tickets on the order
	SetTicketIDs(ctx context.Context, id string, ticketIDs []string) error

	// GetByUser returns a user's orders, newest first
	GetByUser(ctx context.Context, userID string) ([]*entities.Order, error)

	// List returns the most recent orders across all users
	List(ctx context.Context, limit int) ([]*entities.Order, error)
}

// PaymentTransactionRepository defines the interface for external payment tracking
type PaymentTransactionRepository interface {
	// Create inserts a pending transaction
	Create(ctx context.Context, txn *entities.PaymentTransaction) error

	// GetBySessionID returns nil when no transaction has the session
	GetBySessionID(ctx context.Context, sessionID string) (*entities.PaymentTransaction, error)

	// UpdateStatus stores our status together with the provider's last reported status
	UpdateStatus(ctx context.Context, sessionID string, status entities.TransactionStatus, paymentStatus entities.PaymentStatus) error

	// ListPendingOlderThan returns pending transactions created before cutoff, oldest first
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PaymentTransaction, error)
}

// WinnerRepository defines the interface for grand-prize winners
type WinnerRepository interface {
	// Create inserts a winner; the database rejects a second winner for a competition
	Create(ctx context.Context, winner *entities.Winner) error

	// GetByCompetition returns nil if the competition has not been drawn
	GetByCompetition(ctx context.Context, competitionID string) (*entities.Winner, error)

	// GetByUser returns every grand prize a user has won
	GetByUser(ctx context.Context, userID string) ([]*entities.Winner, error)

	// List returns the most recent winners
	List(ctx context.Context, limit int) ([]*entities.Winner, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Upsert creates the user on first sight and refreshes email and name afterwards
	Upsert(ctx context.Context, identity entities.Identity) (*entities.User, error)

	// GetByID returns nil when the user does not exist
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// Debit subtracts amount if the balance covers it and returns the new balance.
	// ok is false when the balance was insufficient.
	Debit(ctx context.Context, id string, amount int64) (newBalance int64, ok bool, err error)

	// Credit adds amount and returns the new balance
	Credit(ctx context.Context, id string, amount int64) (int64, error)

	// List returns users ordered by creation time
	List(ctx context.Context, limit int) ([]*entities.User, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*entities.BalanceHistory, error)
}

// AnalyticsRepository aggregates platform totals
type AnalyticsRepository interface {
	GetAnalytics(ctx context.Context) (*entities.Analytics, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops buffered events; called on rollback
	Discard()
}
