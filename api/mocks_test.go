package api

import (
	"context"

	"rafflehouse/application"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

type mockCatalogue struct{ mock.Mock }

func (m *mockCatalogue) Create(ctx context.Context, input interfaces.CompetitionInput) (*entities.Competition, error) {
	args := m.Called(ctx, input)
	comp, _ := args.Get(0).(*entities.Competition)
	return comp, args.Error(1)
}

func (m *mockCatalogue) Update(ctx context.Context, id string, patch interfaces.CompetitionPatch) (*entities.Competition, error) {
	args := m.Called(ctx, id, patch)
	comp, _ := args.Get(0).(*entities.Competition)
	return comp, args.Error(1)
}

func (m *mockCatalogue) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCatalogue) Get(ctx context.Context, id string) (*entities.Competition, error) {
	args := m.Called(ctx, id)
	comp, _ := args.Get(0).(*entities.Competition)
	return comp, args.Error(1)
}

func (m *mockCatalogue) List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error) {
	args := m.Called(ctx, filter)
	comps, _ := args.Get(0).([]*entities.Competition)
	return comps, args.Error(1)
}

func (m *mockCatalogue) Featured(ctx context.Context) ([]*entities.Competition, error) {
	args := m.Called(ctx)
	comps, _ := args.Get(0).([]*entities.Competition)
	return comps, args.Error(1)
}

func (m *mockCatalogue) Entrants(ctx context.Context, id string) ([]*entities.Entrant, error) {
	args := m.Called(ctx, id)
	entrants, _ := args.Get(0).([]*entities.Entrant)
	return entrants, args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) EnsureUser(ctx context.Context, identity entities.Identity) (*entities.User, error) {
	args := m.Called(ctx, identity)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockAccounts) AddBalance(ctx context.Context, userID string, amount int64) (*entities.User, error) {
	args := m.Called(ctx, userID, amount)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockAccounts) GetEntries(ctx context.Context, userID string) ([]*entities.UserEntry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]*entities.UserEntry)
	return entries, args.Error(1)
}

func (m *mockAccounts) GetTickets(ctx context.Context, userID string) ([]*entities.Ticket, error) {
	args := m.Called(ctx, userID)
	tickets, _ := args.Get(0).([]*entities.Ticket)
	return tickets, args.Error(1)
}

func (m *mockAccounts) GetWins(ctx context.Context, userID string) (*interfaces.UserWins, error) {
	args := m.Called(ctx, userID)
	wins, _ := args.Get(0).(*interfaces.UserWins)
	return wins, args.Error(1)
}

func (m *mockAccounts) GetOrders(ctx context.Context, userID string) ([]*entities.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]*entities.Order)
	return orders, args.Error(1)
}

func (m *mockAccounts) ListWinners(ctx context.Context, limit int) ([]*entities.Winner, error) {
	args := m.Called(ctx, limit)
	winners, _ := args.Get(0).([]*entities.Winner)
	return winners, args.Error(1)
}

func (m *mockAccounts) ListUsers(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*entities.User)
	return users, args.Error(1)
}

func (m *mockAccounts) ListOrders(ctx context.Context) ([]*entities.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]*entities.Order)
	return orders, args.Error(1)
}

func (m *mockAccounts) Analytics(ctx context.Context) (*entities.Analytics, error) {
	args := m.Called(ctx)
	analytics, _ := args.Get(0).(*entities.Analytics)
	return analytics, args.Error(1)
}

type mockPurchases struct{ mock.Mock }

func (m *mockPurchases) CheckEligibility(ctx context.Context, req interfaces.EligibilityRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockPurchases) Purchase(ctx context.Context, identity entities.Identity, competitionID string, ticketCount int) (*application.PurchaseResult, error) {
	args := m.Called(ctx, identity, competitionID, ticketCount)
	result, _ := args.Get(0).(*application.PurchaseResult)
	return result, args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) CheckStatus(ctx context.Context, userID, sessionID string) (*interfaces.ConfirmationResult, error) {
	args := m.Called(ctx, userID, sessionID)
	result, _ := args.Get(0).(*interfaces.ConfirmationResult)
	return result, args.Error(1)
}

func (m *mockPayments) ApplyStatus(ctx context.Context, sessionID string, status entities.PaymentStatus) (*interfaces.ConfirmationResult, error) {
	args := m.Called(ctx, sessionID, status)
	result, _ := args.Get(0).(*interfaces.ConfirmationResult)
	return result, args.Error(1)
}

type mockDraws struct{ mock.Mock }

func (m *mockDraws) Draw(ctx context.Context, competitionID string) (*entities.Winner, error) {
	args := m.Called(ctx, competitionID)
	winner, _ := args.Get(0).(*entities.Winner)
	return winner, args.Error(1)
}

type stubLimiter struct {
	decision Decision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}
