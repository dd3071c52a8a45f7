package application

import (
	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/services"
)

// ServiceSettings carries the tunables every transaction-scoped service is built with
type ServiceSettings struct {
	Random                   interfaces.RandomSource
	InstantWinOdds           int64
	TicketNumberMaxRounds    int
	DefaultMaxTicketsPerUser int
}

// OrderService builds the order service on the unit of work's repositories
func (s ServiceSettings) OrderService(uow UnitOfWork) interfaces.OrderService {
	guard := services.NewEligibilityGuard(uow.CompetitionRepository(), uow.TicketRepository())
	return services.NewOrderService(
		uow.CompetitionRepository(),
		uow.OrderRepository(),
		uow.PaymentTransactionRepository(),
		uow.TicketRepository(),
		uow.UserRepository(),
		uow.BalanceHistoryRepository(),
		guard,
		s.issuanceService(uow),
		uow.EventBus(),
	)
}

func (s ServiceSettings) issuanceService(uow UnitOfWork) interfaces.TicketIssuanceService {
	numbers := services.NewTicketNumberGenerator(uow.TicketRepository(), s.Random, s.TicketNumberMaxRounds)
	evaluator := services.NewInstantWinEvaluator(uow.InstantWinPrizeRepository(), s.Random, s.InstantWinOdds)
	return services.NewTicketIssuanceService(
		uow.CompetitionRepository(),
		uow.InstantWinPrizeRepository(),
		uow.TicketRepository(),
		numbers,
		evaluator,
		uow.EventBus(),
	)
}

// EligibilityGuard builds the purchase pre-check
func (s ServiceSettings) EligibilityGuard(uow UnitOfWork) interfaces.EligibilityGuard {
	return services.NewEligibilityGuard(uow.CompetitionRepository(), uow.TicketRepository())
}

// WinnerDrawService builds the draw service
func (s ServiceSettings) WinnerDrawService(uow UnitOfWork) interfaces.WinnerDrawService {
	return services.NewWinnerDrawService(
		uow.CompetitionRepository(),
		uow.TicketRepository(),
		uow.WinnerRepository(),
		uow.UserRepository(),
		uow.EventBus(),
		s.Random,
	)
}

// CompetitionService builds the catalogue service
func (s ServiceSettings) CompetitionService(uow UnitOfWork) interfaces.CompetitionService {
	return services.NewCompetitionService(
		uow.CompetitionRepository(),
		uow.InstantWinPrizeRepository(),
		uow.TicketRepository(),
		uow.UserRepository(),
		uow.EventBus(),
		s.DefaultMaxTicketsPerUser,
	)
}

// AccountService builds the account service
func (s ServiceSettings) AccountService(uow UnitOfWork) interfaces.AccountService {
	return services.NewAccountService(
		uow.UserRepository(),
		uow.TicketRepository(),
		uow.OrderRepository(),
		uow.WinnerRepository(),
		uow.BalanceHistoryRepository(),
		uow.AnalyticsRepository(),
		uow.EventBus(),
	)
}
