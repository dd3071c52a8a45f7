package application

import (
	"context"
	"sync"
	"time"

	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/testhelpers"
)

// fakeUnitOfWork hands out the same mock repositories to every transaction
type fakeUnitOfWork struct {
	competitionRepo *testhelpers.MockCompetitionRepository
	prizeRepo       *testhelpers.MockInstantWinPrizeRepository
	ticketRepo      *testhelpers.MockTicketRepository
	orderRepo       *testhelpers.MockOrderRepository
	paymentTxnRepo  *testhelpers.MockPaymentTransactionRepository
	winnerRepo      *testhelpers.MockWinnerRepository
	userRepo        *testhelpers.MockUserRepository
	historyRepo     *testhelpers.MockBalanceHistoryRepository
	analyticsRepo   *testhelpers.MockAnalyticsRepository
	eventBus        *testhelpers.MockEventPublisher

	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		competitionRepo: new(testhelpers.MockCompetitionRepository),
		prizeRepo:       new(testhelpers.MockInstantWinPrizeRepository),
		ticketRepo:      new(testhelpers.MockTicketRepository),
		orderRepo:       new(testhelpers.MockOrderRepository),
		paymentTxnRepo:  new(testhelpers.MockPaymentTransactionRepository),
		winnerRepo:      new(testhelpers.MockWinnerRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		historyRepo:     new(testhelpers.MockBalanceHistoryRepository),
		analyticsRepo:   new(testhelpers.MockAnalyticsRepository),
		eventBus:        new(testhelpers.MockEventPublisher),
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.begins++
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) CompetitionRepository() interfaces.CompetitionRepository {
	return u.competitionRepo
}

func (u *fakeUnitOfWork) InstantWinPrizeRepository() interfaces.InstantWinPrizeRepository {
	return u.prizeRepo
}

func (u *fakeUnitOfWork) TicketRepository() interfaces.TicketRepository { return u.ticketRepo }
func (u *fakeUnitOfWork) OrderRepository() interfaces.OrderRepository   { return u.orderRepo }

func (u *fakeUnitOfWork) PaymentTransactionRepository() interfaces.PaymentTransactionRepository {
	return u.paymentTxnRepo
}

func (u *fakeUnitOfWork) WinnerRepository() interfaces.WinnerRepository { return u.winnerRepo }
func (u *fakeUnitOfWork) UserRepository() interfaces.UserRepository     { return u.userRepo }

func (u *fakeUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return u.historyRepo
}

func (u *fakeUnitOfWork) AnalyticsRepository() interfaces.AnalyticsRepository {
	return u.analyticsRepo
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher { return u.eventBus }

// fakeUnitOfWorkFactory always returns the same fake
type fakeUnitOfWorkFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	return f.uow
}

func testServiceSettings() ServiceSettings {
	return ServiceSettings{
		Random:                   testhelpers.NewSeededRandom(7),
		InstantWinOdds:           50,
		TicketNumberMaxRounds:    1000,
		DefaultMaxTicketsPerUser: 10,
	}
}

type jobRun struct {
	job string
	err error
}

// recordingMetrics captures everything reported to Metrics
type recordingMetrics struct {
	mu      sync.Mutex
	orders  []string
	tickets int
	jobRuns []jobRun
}

func (m *recordingMetrics) RecordOrder(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, outcome)
}

func (m *recordingMetrics) RecordTicketsIssued(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets += count
}

func (m *recordingMetrics) RecordJobRun(job string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobRuns = append(m.jobRuns, jobRun{job: job, err: err})
}
