package testhelpers

import (
	"context"
	"time"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockCompetitionRepository is a mock implementation of CompetitionRepository
type MockCompetitionRepository struct {
	mock.Mock
}

func (m *MockCompetitionRepository) Create(ctx context.Context, competition *entities.Competition) error {
	args := m.Called(ctx, competition)
	return args.Error(0)
}

func (m *MockCompetitionRepository) GetByID(ctx context.Context, id string) (*entities.Competition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Competition), args.Error(1)
}

func (m *MockCompetitionRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Competition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Competition), args.Error(1)
}

func (m *MockCompetitionRepository) List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Competition), args.Error(1)
}

func (m *MockCompetitionRepository) Update(ctx context.Context, competition *entities.Competition) error {
	args := m.Called(ctx, competition)
	return args.Error(0)
}

func (m *MockCompetitionRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompetitionRepository) SetStatus(ctx context.Context, id string, status entities.CompetitionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCompetitionRepository) ReserveTickets(ctx context.Context, id string, count int) (*entities.Competition, error) {
	args := m.Called(ctx, id, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Competition), args.Error(1)
}

func (m *MockCompetitionRepository) RecordWinner(ctx context.Context, id, winnerID string, drawDate time.Time) error {
	args := m.Called(ctx, id, winnerID, drawDate)
	return args.Error(0)
}

func (m *MockCompetitionRepository) CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Competition), args.Error(1)
}

// MockInstantWinPrizeRepository is a mock implementation of InstantWinPrizeRepository
type MockInstantWinPrizeRepository struct {
	mock.Mock
}

func (m *MockInstantWinPrizeRepository) CreateBatch(ctx context.Context, prizes []*entities.InstantWinPrize) error {
	args := m.Called(ctx, prizes)
	return args.Error(0)
}

func (m *MockInstantWinPrizeRepository) ListByCompetition(ctx context.Context, competitionID string) ([]*entities.InstantWinPrize, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.InstantWinPrize), args.Error(1)
}

func (m *MockInstantWinPrizeRepository) ReplaceForCompetition(ctx context.Context, competitionID string, prizes []*entities.InstantWinPrize) error {
	args := m.Called(ctx, competitionID, prizes)
	return args.Error(0)
}

func (m *MockInstantWinPrizeRepository) ClaimOne(ctx context.Context, prizeID int64) (bool, error) {
	args := m.Called(ctx, prizeID)
	return args.Bool(0), args.Error(1)
}

// InsertAll makes a mocked CreateBatch report every ticket as persisted
func InsertAll(tickets []*entities.Ticket) []*entities.Ticket {
	return tickets
}

// MockTicketRepository is a mock implementation of TicketRepository.
// CreateBatch accepts a func([]*entities.Ticket) []*entities.Ticket as its return value.
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) ([]*entities.Ticket, error) {
	args := m.Called(ctx, tickets)
	switch ret := args.Get(0).(type) {
	case nil:
		return nil, args.Error(1)
	case func([]*entities.Ticket) []*entities.Ticket:
		return ret(tickets), args.Error(1)
	default:
		return args.Get(0).([]*entities.Ticket), args.Error(1)
	}
}

func (m *MockTicketRepository) FindExistingNumbers(ctx context.Context, competitionID string, numbers []string) ([]string, error) {
	args := m.Called(ctx, competitionID, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTicketRepository) CountByCompetition(ctx context.Context, competitionID string) (int64, error) {
	args := m.Called(ctx, competitionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketRepository) CountByUserForCompetition(ctx context.Context, competitionID, userID string) (int, error) {
	args := m.Called(ctx, competitionID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) GetByOffset(ctx context.Context, competitionID string, offset int64) (*entities.Ticket, error) {
	args := m.Called(ctx, competitionID, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByCompetition(ctx context.Context, competitionID string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Ticket, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetInstantWinsByUser(ctx context.Context, userID string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetEntriesByUser(ctx context.Context, userID string) ([]*entities.UserEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.UserEntry), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entities.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*entities.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id string, from, to entities.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetTicketIDs(ctx context.Context, id string, ticketIDs []string) error {
	args := m.Called(ctx, id, ticketIDs)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByUser(ctx context.Context, userID string) ([]*entities.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, limit int) ([]*entities.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Order), args.Error(1)
}

// MockPaymentTransactionRepository is a mock implementation of PaymentTransactionRepository
type MockPaymentTransactionRepository struct {
	mock.Mock
}

func (m *MockPaymentTransactionRepository) Create(ctx context.Context, txn *entities.PaymentTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*entities.PaymentTransaction, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentTransactionRepository) UpdateStatus(ctx context.Context, sessionID string, status entities.TransactionStatus, paymentStatus entities.PaymentStatus) error {
	args := m.Called(ctx, sessionID, status, paymentStatus)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*entities.PaymentTransaction, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PaymentTransaction), args.Error(1)
}

// MockWinnerRepository is a mock implementation of WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Create(ctx context.Context, winner *entities.Winner) error {
	args := m.Called(ctx, winner)
	return args.Error(0)
}

func (m *MockWinnerRepository) GetByCompetition(ctx context.Context, competitionID string) (*entities.Winner, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Winner), args.Error(1)
}

func (m *MockWinnerRepository) GetByUser(ctx context.Context, userID string) ([]*entities.Winner, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Winner), args.Error(1)
}

func (m *MockWinnerRepository) List(ctx context.Context, limit int) ([]*entities.Winner, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Winner), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, identity entities.Identity) (*entities.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Debit(ctx context.Context, id string, amount int64) (int64, bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit int) ([]*entities.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) GetAnalytics(ctx context.Context) (*entities.Analytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Analytics), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
