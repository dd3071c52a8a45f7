package services

import (
	"context"
	"fmt"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// maxPersistRounds bounds how often tickets that lost a number race are renumbered and retried
const maxPersistRounds = 10

// ticketIssuanceService implements issuance inside the caller's transaction
type ticketIssuanceService struct {
	competitionRepo interfaces.CompetitionRepository
	prizeRepo       interfaces.InstantWinPrizeRepository
	ticketRepo      interfaces.TicketRepository
	numbers         *TicketNumberGenerator
	evaluator       interfaces.InstantWinEvaluator
	eventPublisher  interfaces.EventPublisher
}

// NewTicketIssuanceService creates a new ticket issuance service
func NewTicketIssuanceService(
	competitionRepo interfaces.CompetitionRepository,
	prizeRepo interfaces.InstantWinPrizeRepository,
	ticketRepo interfaces.TicketRepository,
	numbers *TicketNumberGenerator,
	evaluator interfaces.InstantWinEvaluator,
	eventPublisher interfaces.EventPublisher,
) interfaces.TicketIssuanceService {
	return &ticketIssuanceService{
		competitionRepo: competitionRepo,
		prizeRepo:       prizeRepo,
		ticketRepo:      ticketRepo,
		numbers:         numbers,
		evaluator:       evaluator,
		eventPublisher:  eventPublisher,
	}
}

// IssueTickets reserves supply, numbers the tickets, runs the instant-win trial per ticket
// and persists the batch. Any error leaves the transaction to be rolled back, so either all
// order.TicketCount tickets exist afterwards or none do.
func (s *ticketIssuanceService) IssueTickets(ctx context.Context, order *entities.Order) ([]*entities.Ticket, error) {
	if order == nil || order.TicketCount <= 0 {
		return nil, common.InvalidInput("Ticket count must be positive")
	}

	// The conditional update both checks and claims supply, and holds the competition
	// row lock until commit so concurrent issuances for it run one after another.
	competition, err := s.competitionRepo.ReserveTickets(ctx, order.CompetitionID, order.TicketCount)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve tickets: %w", err)
	}
	if competition == nil {
		return nil, s.rejectReservation(ctx, order)
	}

	existing, err := s.ticketRepo.CountByUserForCompetition(ctx, competition.ID, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count user tickets: %w", err)
	}
	if err := checkUserCap(competition, existing, order.TicketCount); err != nil {
		return nil, err
	}

	var prizes []*entities.InstantWinPrize
	if competition.IsInstantWin {
		prizes, err = s.prizeRepo.ListByCompetition(ctx, competition.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load instant win prizes: %w", err)
		}
	}

	taken := make(map[string]struct{}, order.TicketCount)
	numbers, err := s.numbers.GenerateUnique(ctx, competition.ID, order.TicketCount, taken)
	if err != nil {
		return nil, err
	}

	tickets := make([]*entities.Ticket, 0, order.TicketCount)
	for _, number := range numbers {
		ticket := &entities.Ticket{
			ID:            entities.NewID(entities.TicketIDPrefix),
			CompetitionID: competition.ID,
			UserID:        order.UserID,
			OrderID:       order.ID,
			TicketNumber:  number,
		}

		prize, err := s.evaluator.Evaluate(ctx, competition, prizes)
		if err != nil {
			return nil, err
		}
		if prize != nil {
			ticket.AwardInstantWin(prize)
		}
		tickets = append(tickets, ticket)
	}

	if err := s.persist(ctx, competition.ID, tickets, taken); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"competitionID": competition.ID,
		"orderID":       order.ID,
		"userID":        order.UserID,
		"count":         len(tickets),
		"soldTickets":   competition.SoldTickets,
	}).Info("Issued tickets")

	s.publishIssued(competition, order, tickets)
	return tickets, nil
}

// persist inserts the batch; tickets whose number was taken in the meantime get a fresh
// number and are inserted again. Instant-win outcomes stay with the ticket.
func (s *ticketIssuanceService) persist(ctx context.Context, competitionID string, tickets []*entities.Ticket, taken map[string]struct{}) error {
	pending := tickets
	for round := 0; len(pending) > 0; round++ {
		if round >= maxPersistRounds {
			return common.Conflict("Could not allocate unique ticket numbers")
		}

		inserted, err := s.ticketRepo.CreateBatch(ctx, pending)
		if err != nil {
			return fmt.Errorf("failed to create tickets: %w", err)
		}
		if len(inserted) == len(pending) {
			return nil
		}

		persisted := make(map[string]struct{}, len(inserted))
		for _, t := range inserted {
			persisted[t.ID] = struct{}{}
		}
		var skipped []*entities.Ticket
		for _, t := range pending {
			if _, ok := persisted[t.ID]; !ok {
				skipped = append(skipped, t)
			}
		}

		log.WithFields(log.Fields{
			"competitionID": competitionID,
			"skipped":       len(skipped),
		}).Warn("Ticket numbers taken concurrently, renumbering")

		fresh, err := s.numbers.GenerateUnique(ctx, competitionID, len(skipped), taken)
		if err != nil {
			return err
		}
		for i, t := range skipped {
			t.TicketNumber = fresh[i]
		}
		pending = skipped
	}
	return nil
}

// rejectReservation explains why the conditional reservation matched no row
func (s *ticketIssuanceService) rejectReservation(ctx context.Context, order *entities.Order) error {
	competition, err := s.competitionRepo.GetByID(ctx, order.CompetitionID)
	if err != nil {
		return fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return common.NotFound("Competition not found")
	}
	if !competition.IsActive() {
		return common.InvalidState("Competition is not active")
	}
	return common.CapacityExceeded("Only %d tickets available", competition.RemainingTickets())
}

func (s *ticketIssuanceService) publishIssued(competition *entities.Competition, order *entities.Order, tickets []*entities.Ticket) {
	numbers := make([]string, len(tickets))
	for i, t := range tickets {
		numbers[i] = t.TicketNumber
	}

	toPublish := []events.Event{events.TicketsIssuedEvent{
		CompetitionID: competition.ID,
		OrderID:       order.ID,
		UserID:        order.UserID,
		TicketNumbers: numbers,
		SoldTickets:   competition.SoldTickets,
		TotalTickets:  competition.TotalTickets,
	}}

	for _, t := range tickets {
		if !t.IsInstantWin {
			continue
		}
		toPublish = append(toPublish, events.InstantWinAwardedEvent{
			CompetitionID: competition.ID,
			TicketID:      t.ID,
			TicketNumber:  t.TicketNumber,
			UserID:        t.UserID,
			PrizeID:       *t.InstantWinPrizeID,
			PrizeName:     *t.InstantWinPrizeName,
			PrizeValue:    *t.InstantWinPrizeValue,
		})
	}

	if competition.Status == entities.CompetitionStatusSoldOut {
		toPublish = append(toPublish, events.CompetitionSoldOutEvent{
			CompetitionID: competition.ID,
			TotalTickets:  competition.TotalTickets,
		})
	}

	for _, event := range toPublish {
		if err := s.eventPublisher.Publish(event); err != nil {
			log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish issuance event")
		}
	}
}
