package services

import (
	"context"
	"fmt"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
)

type eligibilityGuard struct {
	competitionRepo interfaces.CompetitionRepository
	ticketRepo      interfaces.TicketRepository
	now             func() time.Time
}

// NewEligibilityGuard creates the advisory purchase pre-check
func NewEligibilityGuard(competitionRepo interfaces.CompetitionRepository, ticketRepo interfaces.TicketRepository) interfaces.EligibilityGuard {
	return &eligibilityGuard{
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		now:             time.Now,
	}
}

// CheckEligibility loads the competition and the user's holding and applies EvaluateEligibility
func (g *eligibilityGuard) CheckEligibility(ctx context.Context, req interfaces.EligibilityRequest) error {
	if req.TicketCount <= 0 {
		return common.InvalidInput("Ticket count must be positive")
	}

	competition, err := g.competitionRepo.GetByID(ctx, req.CompetitionID)
	if err != nil {
		return fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return common.NotFound("Competition not found")
	}

	existing, err := g.ticketRepo.CountByUserForCompetition(ctx, competition.ID, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to count user tickets: %w", err)
	}

	if err := EvaluateEligibility(competition, existing, req.TicketCount); err != nil {
		return err
	}

	if competition.IsExpired(g.now()) {
		return common.InvalidState("Competition has ended")
	}
	return nil
}

// EvaluateEligibility applies the purchase rules to an already loaded competition
func EvaluateEligibility(competition *entities.Competition, existing, requested int) error {
	if !competition.IsActive() {
		return common.InvalidState("Competition is not active")
	}
	if competition.HasWinner() {
		return common.InvalidState("Winner already drawn")
	}
	if remaining := competition.RemainingTickets(); requested > remaining {
		return common.CapacityExceeded("Only %d tickets available", remaining)
	}
	return checkUserCap(competition, existing, requested)
}

func checkUserCap(competition *entities.Competition, existing, requested int) error {
	limit := competition.MaxTicketsPerUser
	if requested > limit {
		return common.CapacityExceeded("Maximum %d tickets per user", limit)
	}
	if existing+requested > limit {
		return common.CapacityExceeded("You already have %d tickets. Maximum %d allowed.", existing, limit)
	}
	return nil
}
