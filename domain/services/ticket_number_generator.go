package services

import (
	"context"
	"fmt"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DefaultTicketNumberMaxRounds bounds the regenerate-on-collision loop. With 36^8 codes a
// second round is already rare, so hitting the bound means something else is wrong.
const DefaultTicketNumberMaxRounds = 1000

// TicketNumberGenerator produces ticket numbers that are unique within a competition
type TicketNumberGenerator struct {
	ticketRepo interfaces.TicketRepository
	rng        interfaces.RandomSource
	maxRounds  int
}

// NewTicketNumberGenerator creates a generator checking candidates against ticketRepo
func NewTicketNumberGenerator(ticketRepo interfaces.TicketRepository, rng interfaces.RandomSource, maxRounds int) *TicketNumberGenerator {
	if maxRounds <= 0 {
		maxRounds = DefaultTicketNumberMaxRounds
	}
	return &TicketNumberGenerator{
		ticketRepo: ticketRepo,
		rng:        rng,
		maxRounds:  maxRounds,
	}
}

// Generate returns one random candidate without checking storage
func (g *TicketNumberGenerator) Generate() (string, error) {
	alphabetSize := int64(len(entities.TicketNumberAlphabet))
	buf := make([]byte, entities.TicketNumberLength)
	for i := range buf {
		idx, err := g.rng.Int63n(alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate ticket number: %w", err)
		}
		buf[i] = entities.TicketNumberAlphabet[idx]
	}
	return string(buf), nil
}

// GenerateUnique returns count distinct numbers that are neither persisted for the
// competition nor present in exclude. Numbers returned are added to exclude when it is non-nil.
// The check is repeated at insert time, so a number can still lose a race and need regenerating.
func (g *TicketNumberGenerator) GenerateUnique(ctx context.Context, competitionID string, count int, exclude map[string]struct{}) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	if exclude == nil {
		exclude = make(map[string]struct{}, count)
	}

	numbers := make([]string, 0, count)
	for round := 0; len(numbers) < count; round++ {
		if round >= g.maxRounds {
			return nil, common.Conflict("Could not allocate unique ticket numbers")
		}

		candidates := make([]string, 0, count-len(numbers))
		batch := make(map[string]struct{}, count-len(numbers))
		for attempts := 0; len(candidates) < count-len(numbers); attempts++ {
			if attempts >= count*g.maxRounds {
				return nil, common.Conflict("Could not allocate unique ticket numbers")
			}
			candidate, err := g.Generate()
			if err != nil {
				return nil, err
			}
			if _, taken := exclude[candidate]; taken {
				continue
			}
			if _, dup := batch[candidate]; dup {
				continue
			}
			batch[candidate] = struct{}{}
			candidates = append(candidates, candidate)
		}

		existing, err := g.ticketRepo.FindExistingNumbers(ctx, competitionID, candidates)
		if err != nil {
			return nil, fmt.Errorf("failed to check ticket numbers: %w", err)
		}
		if len(existing) > 0 {
			log.WithFields(log.Fields{
				"competitionID": competitionID,
				"collisions":    len(existing),
				"round":         round,
			}).Debug("Ticket number collisions, regenerating")
		}

		collided := make(map[string]struct{}, len(existing))
		for _, n := range existing {
			collided[n] = struct{}{}
			exclude[n] = struct{}{}
		}
		for _, candidate := range candidates {
			if _, bad := collided[candidate]; bad {
				continue
			}
			exclude[candidate] = struct{}{}
			numbers = append(numbers, candidate)
		}
	}

	return numbers, nil
}
