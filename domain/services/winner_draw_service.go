package services

import (
	"context"
	"fmt"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type winnerDrawService struct {
	competitionRepo interfaces.CompetitionRepository
	ticketRepo      interfaces.TicketRepository
	winnerRepo      interfaces.WinnerRepository
	userRepo        interfaces.UserRepository
	eventPublisher  interfaces.EventPublisher
	rng             interfaces.RandomSource
}

// NewWinnerDrawService creates a new winner draw service
func NewWinnerDrawService(
	competitionRepo interfaces.CompetitionRepository,
	ticketRepo interfaces.TicketRepository,
	winnerRepo interfaces.WinnerRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
	rng interfaces.RandomSource,
) interfaces.WinnerDrawService {
	return &winnerDrawService{
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		winnerRepo:      winnerRepo,
		userRepo:        userRepo,
		eventPublisher:  eventPublisher,
		rng:             rng,
	}
}

// DrawWinner picks one sold ticket with equal probability and records its holder as winner.
// The competition row stays locked until commit, so a concurrent draw waits and then sees
// the winner already set.
func (s *winnerDrawService) DrawWinner(ctx context.Context, competitionID string) (*entities.Winner, error) {
	competition, err := s.competitionRepo.GetByIDForUpdate(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return nil, common.NotFound("Competition not found")
	}
	if competition.HasWinner() {
		return nil, common.InvalidState("Winner already drawn")
	}
	if competition.Status == entities.CompetitionStatusCancelled {
		return nil, common.InvalidState("Competition is cancelled")
	}

	total, err := s.ticketRepo.CountByCompetition(ctx, competition.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	if total == 0 {
		return nil, common.InvalidState("No tickets sold")
	}

	offset, err := s.rng.Int63n(total)
	if err != nil {
		return nil, fmt.Errorf("failed to draw ticket: %w", err)
	}

	ticket, err := s.ticketRepo.GetByOffset(ctx, competition.ID, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning ticket: %w", err)
	}
	if ticket == nil {
		return nil, common.Conflict("Tickets changed during the draw")
	}

	user, err := s.userRepo.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning user: %w", err)
	}
	if user == nil {
		return nil, common.NotFound("Winning user not found")
	}

	now := time.Now()
	winner := &entities.Winner{
		ID:               entities.NewID(entities.WinnerIDPrefix),
		CompetitionID:    competition.ID,
		UserID:           user.ID,
		TicketID:         ticket.ID,
		TicketNumber:     ticket.TicketNumber,
		UserEmail:        user.Email,
		UserName:         user.Name,
		CompetitionTitle: competition.Title,
		PrizeType:        competition.PrizeType,
		PrizeValue:       competition.PrizeValue,
		AnnouncedAt:      now,
	}
	if err := s.winnerRepo.Create(ctx, winner); err != nil {
		return nil, fmt.Errorf("failed to create winner: %w", err)
	}
	if err := s.competitionRepo.RecordWinner(ctx, competition.ID, winner.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record winner on competition: %w", err)
	}

	log.WithFields(log.Fields{
		"competitionID": competition.ID,
		"winnerID":      winner.ID,
		"userID":        user.ID,
		"ticketNumber":  ticket.TicketNumber,
		"totalEntries":  total,
	}).Info("Winner drawn")

	if err := s.eventPublisher.Publish(events.WinnerDrawnEvent{
		WinnerID:         winner.ID,
		CompetitionID:    competition.ID,
		CompetitionTitle: competition.Title,
		UserID:           user.ID,
		UserName:         user.Name,
		TicketNumber:     ticket.TicketNumber,
		PrizeType:        competition.PrizeType,
		PrizeValue:       competition.PrizeValue,
		TotalEntries:     total,
	}); err != nil {
		log.WithError(err).Error("Failed to publish winner drawn event")
	}

	return winner, nil
}
