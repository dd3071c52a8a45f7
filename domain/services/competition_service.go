package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	featuredLimit    = 6
)

type competitionService struct {
	competitionRepo          interfaces.CompetitionRepository
	prizeRepo                interfaces.InstantWinPrizeRepository
	ticketRepo               interfaces.TicketRepository
	userRepo                 interfaces.UserRepository
	eventPublisher           interfaces.EventPublisher
	defaultMaxTicketsPerUser int
}

// NewCompetitionService creates a new competition service
func NewCompetitionService(
	competitionRepo interfaces.CompetitionRepository,
	prizeRepo interfaces.InstantWinPrizeRepository,
	ticketRepo interfaces.TicketRepository,
	userRepo interfaces.UserRepository,
	eventPublisher interfaces.EventPublisher,
	defaultMaxTicketsPerUser int,
) interfaces.CompetitionService {
	if defaultMaxTicketsPerUser <= 0 {
		defaultMaxTicketsPerUser = entities.DefaultMaxTicketsPerUser
	}
	return &competitionService{
		competitionRepo:          competitionRepo,
		prizeRepo:                prizeRepo,
		ticketRepo:               ticketRepo,
		userRepo:                 userRepo,
		eventPublisher:           eventPublisher,
		defaultMaxTicketsPerUser: defaultMaxTicketsPerUser,
	}
}

// Create validates the input and stores the competition with its instant-win pool
func (s *competitionService) Create(ctx context.Context, input interfaces.CompetitionInput) (*entities.Competition, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, common.InvalidInput("Title is required")
	}
	if input.TicketPrice < 0 {
		return nil, common.InvalidInput("Ticket price cannot be negative")
	}
	if input.TotalTickets <= 0 {
		return nil, common.InvalidInput("Total tickets must be positive")
	}
	if input.MaxTicketsPerUser < 0 {
		return nil, common.InvalidInput("Max tickets per user cannot be negative")
	}
	if input.EndDate.IsZero() {
		return nil, common.InvalidInput("End date is required")
	}
	if err := validatePrizes(input.InstantWinPrizes); err != nil {
		return nil, err
	}

	maxPerUser := input.MaxTicketsPerUser
	if maxPerUser == 0 {
		maxPerUser = s.defaultMaxTicketsPerUser
	}

	competition := &entities.Competition{
		ID:                entities.NewID(entities.CompetitionIDPrefix),
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		PrizeType:         input.PrizeType,
		PrizeValue:        input.PrizeValue,
		PrizeImageURL:     input.PrizeImageURL,
		TicketPrice:       input.TicketPrice,
		TotalTickets:      input.TotalTickets,
		MaxTicketsPerUser: maxPerUser,
		EndDate:           input.EndDate,
		Status:            entities.CompetitionStatusActive,
		IsInstantWin:      input.IsInstantWin,
		LiveStreamURL:     input.LiveStreamURL,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}

	prizes := buildPrizes(competition.ID, input.InstantWinPrizes)
	if len(prizes) > 0 {
		if err := s.prizeRepo.CreateBatch(ctx, prizes); err != nil {
			return nil, fmt.Errorf("failed to create instant win prizes: %w", err)
		}
	}
	competition.InstantWinPrizes = prizes

	log.WithFields(log.Fields{
		"competitionID": competition.ID,
		"totalTickets":  competition.TotalTickets,
		"ticketPrice":   competition.TicketPrice,
		"prizes":        len(prizes),
	}).Info("Competition created")

	return competition, nil
}

// checkStatusChange allows the manual transitions: close or cancel a live competition,
// reopen an ended one. A drawn or cancelled competition is final.
func checkStatusChange(competition *entities.Competition, to entities.CompetitionStatus) error {
	if !to.IsValid() {
		return common.InvalidInput("Unknown status %q", to)
	}
	if competition.HasWinner() {
		return common.InvalidState("Status cannot change after the winner is drawn")
	}
	if competition.Status == entities.CompetitionStatusCancelled {
		return common.InvalidState("Cancelled competitions cannot be reopened")
	}

	switch to {
	case entities.CompetitionStatusSoldOut:
		return common.InvalidInput("Sold out is set automatically")
	case entities.CompetitionStatusActive:
		if competition.Status != entities.CompetitionStatusEnded {
			return common.InvalidState("Only ended competitions can be reopened")
		}
	}
	return nil
}

// Update applies the non-nil fields of patch
func (s *competitionService) Update(ctx context.Context, id string, patch interfaces.CompetitionPatch) (*entities.Competition, error) {
	competition, err := s.competitionRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return nil, common.NotFound("Competition not found")
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, common.InvalidInput("Title is required")
		}
		competition.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		competition.Description = *patch.Description
	}
	if patch.PrizeType != nil {
		competition.PrizeType = *patch.PrizeType
	}
	if patch.PrizeValue != nil {
		competition.PrizeValue = *patch.PrizeValue
	}
	if patch.PrizeImageURL != nil {
		competition.PrizeImageURL = *patch.PrizeImageURL
	}
	if patch.TicketPrice != nil {
		if *patch.TicketPrice < 0 {
			return nil, common.InvalidInput("Ticket price cannot be negative")
		}
		competition.TicketPrice = *patch.TicketPrice
	}
	if patch.TotalTickets != nil {
		if *patch.TotalTickets < competition.SoldTickets || *patch.TotalTickets <= 0 {
			return nil, common.InvalidInput("Total tickets cannot be below the %d already sold", competition.SoldTickets)
		}
		competition.TotalTickets = *patch.TotalTickets
	}
	if patch.MaxTicketsPerUser != nil {
		if *patch.MaxTicketsPerUser <= 0 {
			return nil, common.InvalidInput("Max tickets per user must be positive")
		}
		competition.MaxTicketsPerUser = *patch.MaxTicketsPerUser
	}
	if patch.EndDate != nil {
		competition.EndDate = *patch.EndDate
	}
	if patch.Status != nil && *patch.Status != competition.Status {
		if err := checkStatusChange(competition, *patch.Status); err != nil {
			return nil, err
		}
		competition.Status = *patch.Status
	}
	if patch.IsInstantWin != nil {
		competition.IsInstantWin = *patch.IsInstantWin
	}
	if patch.LiveStreamURL != nil {
		competition.LiveStreamURL = *patch.LiveStreamURL
	}

	// sold_out follows supply
	switch {
	case competition.Status == entities.CompetitionStatusSoldOut && competition.SoldTickets < competition.TotalTickets:
		competition.Status = entities.CompetitionStatusActive
	case competition.Status == entities.CompetitionStatusActive && competition.SoldTickets >= competition.TotalTickets:
		competition.Status = entities.CompetitionStatusSoldOut
	}

	if patch.InstantWinPrizes != nil {
		// sold tickets may reference the current pool
		if competition.SoldTickets > 0 {
			return nil, common.InvalidState("Instant win prizes cannot be replaced after tickets are sold")
		}
		if err := validatePrizes(patch.InstantWinPrizes); err != nil {
			return nil, err
		}
	}

	if err := s.competitionRepo.Update(ctx, competition); err != nil {
		return nil, fmt.Errorf("failed to update competition: %w", err)
	}

	if patch.InstantWinPrizes != nil {
		prizes := buildPrizes(competition.ID, patch.InstantWinPrizes)
		if err := s.prizeRepo.ReplaceForCompetition(ctx, competition.ID, prizes); err != nil {
			return nil, fmt.Errorf("failed to replace instant win prizes: %w", err)
		}
	}

	if err := s.attachPrizes(ctx, competition); err != nil {
		return nil, err
	}
	return competition, nil
}

// Delete removes a competition nobody has ordered from, otherwise cancels it
func (s *competitionService) Delete(ctx context.Context, id string) (bool, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return false, common.NotFound("Competition not found")
	}

	removed, err := s.competitionRepo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete competition: %w", err)
	}
	if removed {
		log.WithField("competitionID", id).Info("Competition deleted")
		return true, nil
	}

	if err := s.competitionRepo.SetStatus(ctx, id, entities.CompetitionStatusCancelled); err != nil {
		return false, fmt.Errorf("failed to cancel competition: %w", err)
	}
	log.WithField("competitionID", id).Info("Competition has orders, cancelled instead of deleted")
	return false, nil
}

// Get returns a competition with its instant-win pool
func (s *competitionService) Get(ctx context.Context, id string) (*entities.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return nil, common.NotFound("Competition not found")
	}
	if err := s.attachPrizes(ctx, competition); err != nil {
		return nil, err
	}
	return competition, nil
}

func (s *competitionService) List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, common.InvalidInput("Unknown status %q", *filter.Status)
	}

	competitions, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return competitions, nil
}

// Featured returns the active competitions with the biggest prizes
func (s *competitionService) Featured(ctx context.Context) ([]*entities.Competition, error) {
	active := entities.CompetitionStatusActive
	return s.List(ctx, entities.CompetitionFilter{
		Status: &active,
		Sort:   entities.SortPrizeValue,
		Limit:  featuredLimit,
	})
}

// CloseExpired ends every active competition past its end date. Ended competitions
// can still be drawn.
func (s *competitionService) CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error) {
	closed, err := s.competitionRepo.CloseExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close expired competitions: %w", err)
	}

	for _, competition := range closed {
		log.WithFields(log.Fields{
			"competitionID": competition.ID,
			"soldTickets":   competition.SoldTickets,
		}).Info("Competition closed at end date")

		if err := s.eventPublisher.Publish(events.CompetitionClosedEvent{
			CompetitionID: competition.ID,
			SoldTickets:   competition.SoldTickets,
		}); err != nil {
			log.WithError(err).Error("Failed to publish competition closed event")
		}
	}
	return closed, nil
}

// Entrants groups a competition's ticket numbers by holder, in order of first ticket
func (s *competitionService) Entrants(ctx context.Context, id string) ([]*entities.Entrant, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return nil, common.NotFound("Competition not found")
	}

	tickets, err := s.ticketRepo.GetByCompetition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	byUser := make(map[string]*entities.Entrant)
	var entrants []*entities.Entrant
	for _, ticket := range tickets {
		entrant, ok := byUser[ticket.UserID]
		if !ok {
			user, err := s.userRepo.GetByID(ctx, ticket.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to get user %s: %w", ticket.UserID, err)
			}
			if user == nil {
				user = &entities.User{ID: ticket.UserID}
			}
			entrant = &entities.Entrant{User: user}
			byUser[ticket.UserID] = entrant
			entrants = append(entrants, entrant)
		}
		entrant.TicketNumbers = append(entrant.TicketNumbers, ticket.TicketNumber)
	}
	return entrants, nil
}

func (s *competitionService) attachPrizes(ctx context.Context, competition *entities.Competition) error {
	if !competition.IsInstantWin {
		return nil
	}
	prizes, err := s.prizeRepo.ListByCompetition(ctx, competition.ID)
	if err != nil {
		return fmt.Errorf("failed to get instant win prizes: %w", err)
	}
	competition.InstantWinPrizes = prizes
	return nil
}

func validatePrizes(inputs []interfaces.PrizeInput) error {
	for _, p := range inputs {
		if strings.TrimSpace(p.Name) == "" {
			return common.InvalidInput("Instant win prize name is required")
		}
		if p.Quantity <= 0 {
			return common.InvalidInput("Instant win prize quantity must be positive")
		}
		if p.Value < 0 {
			return common.InvalidInput("Instant win prize value cannot be negative")
		}
	}
	return nil
}

func buildPrizes(competitionID string, inputs []interfaces.PrizeInput) []*entities.InstantWinPrize {
	prizes := make([]*entities.InstantWinPrize, 0, len(inputs))
	for _, p := range inputs {
		prizes = append(prizes, &entities.InstantWinPrize{
			CompetitionID: competitionID,
			Name:          strings.TrimSpace(p.Name),
			Value:         p.Value,
			Total:         p.Quantity,
			Remaining:     p.Quantity,
		})
	}
	return prizes
}
