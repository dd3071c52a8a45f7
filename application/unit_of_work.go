package application

import (
	"context"

	"rafflehouse/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and publishes buffered events
	Commit() error

	// Rollback rolls back the transaction and drops buffered events
	Rollback() error

	// Repository getters
	CompetitionRepository() interfaces.CompetitionRepository
	InstantWinPrizeRepository() interfaces.InstantWinPrizeRepository
	TicketRepository() interfaces.TicketRepository
	OrderRepository() interfaces.OrderRepository
	PaymentTransactionRepository() interfaces.PaymentTransactionRepository
	WinnerRepository() interfaces.WinnerRepository
	UserRepository() interfaces.UserRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	AnalyticsRepository() interfaces.AnalyticsRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
