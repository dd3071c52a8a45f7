package services

import (
	"context"
	"testing"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type accountMocks struct {
	userRepo           *testhelpers.MockUserRepository
	ticketRepo         *testhelpers.MockTicketRepository
	orderRepo          *testhelpers.MockOrderRepository
	winnerRepo         *testhelpers.MockWinnerRepository
	balanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	analyticsRepo      *testhelpers.MockAnalyticsRepository
	publisher          *testhelpers.MockEventPublisher
}

func setupAccountService() (*accountMocks, interfaces.AccountService) {
	m := &accountMocks{
		userRepo:           new(testhelpers.MockUserRepository),
		ticketRepo:         new(testhelpers.MockTicketRepository),
		orderRepo:          new(testhelpers.MockOrderRepository),
		winnerRepo:         new(testhelpers.MockWinnerRepository),
		balanceHistoryRepo: new(testhelpers.MockBalanceHistoryRepository),
		analyticsRepo:      new(testhelpers.MockAnalyticsRepository),
		publisher:          new(testhelpers.MockEventPublisher),
	}
	service := NewAccountService(m.userRepo, m.ticketRepo, m.orderRepo, m.winnerRepo,
		m.balanceHistoryRepo, m.analyticsRepo, m.publisher)
	return m, service
}

func TestAccountService_EnsureUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupAccountService()

	identity := entities.Identity{UserID: testUserID, Email: "player@example.com", Name: "Player One"}
	m.userRepo.On("Upsert", ctx, identity).Return(createTestUser(0), nil)

	user, err := service.EnsureUser(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, testUserID, user.ID)
}

func TestAccountService_EnsureUser_NoSubject(t *testing.T) {
	t.Parallel()
	_, service := setupAccountService()

	_, err := service.EnsureUser(context.Background(), entities.Identity{Email: "x@example.com"})
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
}

func TestAccountService_AddBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupAccountService()

	m.userRepo.On("GetByID", ctx, testUserID).Return(createTestUser(250), nil)
	m.userRepo.On("Credit", ctx, testUserID, int64(1000)).Return(int64(1250), nil)
	m.balanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.BalanceBefore == 250 && h.BalanceAfter == 1250 && h.ChangeAmount == 1000 &&
			h.TransactionType == entities.TransactionTypeAdminCredit
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)

	user, err := service.AddBalance(ctx, testUserID, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), user.Balance)
	m.balanceHistoryRepo.AssertExpectations(t)
}

func TestAccountService_AddBalance_Invalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("non-positive amount", func(t *testing.T) {
		_, service := setupAccountService()
		_, err := service.AddBalance(ctx, testUserID, 0)
		assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		m, service := setupAccountService()
		m.userRepo.On("GetByID", ctx, "nobody").Return(nil, nil)

		_, err := service.AddBalance(ctx, "nobody", 100)
		assert.Equal(t, common.KindNotFound, common.KindOf(err))
		m.userRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAccountService_GetWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupAccountService()

	prizeName := "£10 Cash"
	m.winnerRepo.On("GetByUser", ctx, testUserID).Return([]*entities.Winner{{ID: "winner_1", UserID: testUserID}}, nil)
	m.ticketRepo.On("GetInstantWinsByUser", ctx, testUserID).Return([]*entities.Ticket{
		{ID: "ticket_1", IsInstantWin: true, InstantWinPrizeName: &prizeName},
	}, nil)

	wins, err := service.GetWins(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, wins.Winners, 1)
	assert.Len(t, wins.InstantWins, 1)
}

func TestAccountService_ListWinners_DefaultLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupAccountService()

	m.winnerRepo.On("List", ctx, 20).Return([]*entities.Winner{}, nil)

	_, err := service.ListWinners(ctx, 0)
	require.NoError(t, err)
	m.winnerRepo.AssertExpectations(t)
}

func TestAccountService_Analytics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupAccountService()

	m.analyticsRepo.On("GetAnalytics", ctx).Return(&entities.Analytics{TotalUsers: 3, TotalRevenue: 8970}, nil)

	analytics, err := service.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), analytics.TotalUsers)
	assert.Equal(t, int64(8970), analytics.TotalRevenue)
}
