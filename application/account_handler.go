package application

import (
	"context"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
)

// AccountHandler runs account operations in their own transactions
type AccountHandler struct {
	uowFactory UnitOfWorkFactory
	settings   ServiceSettings
}

// NewAccountHandler creates an account handler
func NewAccountHandler(uowFactory UnitOfWorkFactory, settings ServiceSettings) *AccountHandler {
	return &AccountHandler{
		uowFactory: uowFactory,
		settings:   settings,
	}
}

// run executes fn against a fresh account service
func run[T any](ctx context.Context, h *AccountHandler, fn func(svc interfaces.AccountService) (T, error)) (T, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (T, error) {
		return fn(h.settings.AccountService(uow))
	})
}

// EnsureUser records the caller on first sight and keeps their profile current
func (h *AccountHandler) EnsureUser(ctx context.Context, identity entities.Identity) (*entities.User, error) {
	return run(ctx, h, func(svc interfaces.AccountService) (*entities.User, error) {
		return svc.EnsureUser(ctx, identity)
	})
}

// AddBalance credits a user's balance
func (h *AccountHandler) AddBalance(ctx context.Context, userID string, amount int64) (*entities.User, error) {
	return run(ctx, h, func(svc interfaces.AccountService) (*entities.User, error) {
		return svc.AddBalance(ctx, userID, amount)
	})
}

func (h *AccountHandler) GetEntries(ctx context.Context, userID string) ([]*entities.UserEntry, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.UserEntry, error) {
		return svc.GetEntries(ctx, userID)
	})
}

func (h *AccountHandler) GetTickets(ctx context.Context, userID string) ([]*entities.Ticket, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.Ticket, error) {
		return svc.GetTickets(ctx, userID)
	})
}

func (h *AccountHandler) GetWins(ctx context.Context, userID string) (*interfaces.UserWins, error) {
	return run(ctx, h, func(svc interfaces.AccountService) (*interfaces.UserWins, error) {
		return svc.GetWins(ctx, userID)
	})
}

func (h *AccountHandler) GetOrders(ctx context.Context, userID string) ([]*entities.Order, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.Order, error) {
		return svc.GetOrders(ctx, userID)
	})
}

func (h *AccountHandler) GetBalanceHistory(ctx context.Context, userID string) ([]*entities.BalanceHistory, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.BalanceHistory, error) {
		return svc.GetBalanceHistory(ctx, userID)
	})
}

func (h *AccountHandler) ListWinners(ctx context.Context, limit int) ([]*entities.Winner, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.Winner, error) {
		return svc.ListWinners(ctx, limit)
	})
}

func (h *AccountHandler) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.User, error) {
		return svc.ListUsers(ctx)
	})
}

func (h *AccountHandler) ListOrders(ctx context.Context) ([]*entities.Order, error) {
	return run(ctx, h, func(svc interfaces.AccountService) ([]*entities.Order, error) {
		return svc.ListOrders(ctx)
	})
}

func (h *AccountHandler) Analytics(ctx context.Context) (*entities.Analytics, error) {
	return run(ctx, h, func(svc interfaces.AccountService) (*entities.Analytics, error) {
		return svc.Analytics(ctx)
	})
}
