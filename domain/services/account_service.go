package services

import (
	"context"
	"fmt"
	"strings"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/utils"

	log "github.com/sirupsen/logrus"
)

const (
	recentTicketsLimit  = 100
	balanceHistoryLimit = 50
	defaultWinnersLimit = 20
	adminListLimit      = 500
)

type accountService struct {
	userRepo           interfaces.UserRepository
	ticketRepo         interfaces.TicketRepository
	orderRepo          interfaces.OrderRepository
	winnerRepo         interfaces.WinnerRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	analyticsRepo      interfaces.AnalyticsRepository
	eventPublisher     interfaces.EventPublisher
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo interfaces.UserRepository,
	ticketRepo interfaces.TicketRepository,
	orderRepo interfaces.OrderRepository,
	winnerRepo interfaces.WinnerRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	analyticsRepo interfaces.AnalyticsRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.AccountService {
	return &accountService{
		userRepo:           userRepo,
		ticketRepo:         ticketRepo,
		orderRepo:          orderRepo,
		winnerRepo:         winnerRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		analyticsRepo:      analyticsRepo,
		eventPublisher:     eventPublisher,
	}
}

// EnsureUser creates the user on first authenticated request
func (s *accountService) EnsureUser(ctx context.Context, identity entities.Identity) (*entities.User, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return nil, common.InvalidInput("Identity has no subject")
	}
	user, err := s.userRepo.Upsert(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// AddBalance credits site balance on behalf of an admin
func (s *accountService) AddBalance(ctx context.Context, userID string, amount int64) (*entities.User, error) {
	if amount <= 0 {
		return nil, common.InvalidInput("Amount must be positive")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, common.NotFound("User not found")
	}

	newBalance, err := utils.CreditBalance(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
		userID, amount, entities.TransactionTypeAdminCredit, "")
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"amount":     amount,
		"newBalance": newBalance,
	}).Info("Admin credited balance")

	user.Balance = newBalance
	return user, nil
}

func (s *accountService) GetEntries(ctx context.Context, userID string) ([]*entities.UserEntry, error) {
	entries, err := s.ticketRepo.GetEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	return entries, nil
}

func (s *accountService) GetTickets(ctx context.Context, userID string) ([]*entities.Ticket, error) {
	tickets, err := s.ticketRepo.GetByUser(ctx, userID, recentTicketsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	return tickets, nil
}

// GetWins returns grand prizes and instant wins together
func (s *accountService) GetWins(ctx context.Context, userID string) (*interfaces.UserWins, error) {
	winners, err := s.winnerRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners: %w", err)
	}
	instantWins, err := s.ticketRepo.GetInstantWinsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instant wins: %w", err)
	}
	return &interfaces.UserWins{Winners: winners, InstantWins: instantWins}, nil
}

func (s *accountService) GetOrders(ctx context.Context, userID string) ([]*entities.Order, error) {
	orders, err := s.orderRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (s *accountService) GetBalanceHistory(ctx context.Context, userID string) ([]*entities.BalanceHistory, error) {
	history, err := s.balanceHistoryRepo.GetByUser(ctx, userID, balanceHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func (s *accountService) ListWinners(ctx context.Context, limit int) ([]*entities.Winner, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultWinnersLimit
	}
	winners, err := s.winnerRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	return winners, nil
}

func (s *accountService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *accountService) ListOrders(ctx context.Context) ([]*entities.Order, error) {
	orders, err := s.orderRepo.List(ctx, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *accountService) Analytics(ctx context.Context) (*entities.Analytics, error) {
	analytics, err := s.analyticsRepo.GetAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return analytics, nil
}
