package repository

import (
	"context"
	"errors"
	"fmt"

	"rafflehouse/application"
	"rafflehouse/database"
	"rafflehouse/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	publisher              interfaces.TransactionalEventPublisher
	competitionRepo        interfaces.CompetitionRepository
	prizeRepo              interfaces.InstantWinPrizeRepository
	ticketRepo             interfaces.TicketRepository
	orderRepo              interfaces.OrderRepository
	paymentTransactionRepo interfaces.PaymentTransactionRepository
	winnerRepo             interfaces.WinnerRepository
	userRepo               interfaces.UserRepository
	balanceHistoryRepo     interfaces.BalanceHistoryRepository
	analyticsRepo          interfaces.AnalyticsRepository
}

// UnitOfWorkFactory creates units of work over one pool
type UnitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a unit of work whose events go through publisher.
// The publisher must buffer until Flush so that nothing escapes a rolled back transaction.
func (f *UnitOfWorkFactory) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:        f.db,
		publisher: publisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.competitionRepo = newCompetitionRepository(tx)
	u.prizeRepo = newInstantWinPrizeRepository(tx)
	u.ticketRepo = newTicketRepository(tx)
	u.orderRepo = newOrderRepository(tx)
	u.paymentTransactionRepo = newPaymentTransactionRepository(tx)
	u.winnerRepo = newWinnerRepository(tx)
	u.userRepo = newUserRepository(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepository(tx)
	u.analyticsRepo = newAnalyticsRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit. The data is already durable,
	// so a delivery failure is not reported as a commit failure.
	if u.publisher != nil {
		_ = u.publisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.publisher != nil {
		u.publisher.Discard()
	}

	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// CompetitionRepository returns the competition repository for this unit of work
func (u *unitOfWork) CompetitionRepository() interfaces.CompetitionRepository {
	if u.competitionRepo == nil {
		notStarted()
	}
	return u.competitionRepo
}

// InstantWinPrizeRepository returns the prize pool repository for this unit of work
func (u *unitOfWork) InstantWinPrizeRepository() interfaces.InstantWinPrizeRepository {
	if u.prizeRepo == nil {
		notStarted()
	}
	return u.prizeRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	if u.ticketRepo == nil {
		notStarted()
	}
	return u.ticketRepo
}

// OrderRepository returns the order repository for this unit of work
func (u *unitOfWork) OrderRepository() interfaces.OrderRepository {
	if u.orderRepo == nil {
		notStarted()
	}
	return u.orderRepo
}

// PaymentTransactionRepository returns the payment transaction repository for this unit of work
func (u *unitOfWork) PaymentTransactionRepository() interfaces.PaymentTransactionRepository {
	if u.paymentTransactionRepo == nil {
		notStarted()
	}
	return u.paymentTransactionRepo
}

// WinnerRepository returns the winner repository for this unit of work
func (u *unitOfWork) WinnerRepository() interfaces.WinnerRepository {
	if u.winnerRepo == nil {
		notStarted()
	}
	return u.winnerRepo
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		notStarted()
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		notStarted()
	}
	return u.balanceHistoryRepo
}

// AnalyticsRepository returns the analytics repository for this unit of work
func (u *unitOfWork) AnalyticsRepository() interfaces.AnalyticsRepository {
	if u.analyticsRepo == nil {
		notStarted()
	}
	return u.analyticsRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.tx == nil || u.publisher == nil {
		notStarted()
	}
	return u.publisher
}
