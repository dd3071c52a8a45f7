package services

import (
	"context"
	"fmt"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DefaultInstantWinOdds is N in the 1-in-N instant-win trial
const DefaultInstantWinOdds int64 = 50

type instantWinEvaluator struct {
	prizeRepo interfaces.InstantWinPrizeRepository
	rng       interfaces.RandomSource
	odds      int64
}

// NewInstantWinEvaluator creates an evaluator with a 1-in-odds win chance per ticket
func NewInstantWinEvaluator(prizeRepo interfaces.InstantWinPrizeRepository, rng interfaces.RandomSource, odds int64) interfaces.InstantWinEvaluator {
	if odds < 1 {
		odds = DefaultInstantWinOdds
	}
	return &instantWinEvaluator{
		prizeRepo: prizeRepo,
		rng:       rng,
		odds:      odds,
	}
}

// Evaluate runs the trial for one ticket. On a hit one prize is chosen uniformly from the
// whole pool. If that prize is exhausted the ticket loses: there is no second pick among the
// prizes that still have stock. The pool entry passed in is decremented locally on a win so
// later tickets of the same batch see the new count.
func (e *instantWinEvaluator) Evaluate(ctx context.Context, competition *entities.Competition, prizes []*entities.InstantWinPrize) (*entities.InstantWinPrize, error) {
	if !competition.IsInstantWin || len(prizes) == 0 {
		return nil, nil
	}

	roll, err := e.rng.Int63n(e.odds)
	if err != nil {
		return nil, fmt.Errorf("failed to roll instant win: %w", err)
	}
	if roll != 0 {
		return nil, nil
	}

	idx, err := e.rng.Int63n(int64(len(prizes)))
	if err != nil {
		return nil, fmt.Errorf("failed to pick instant win prize: %w", err)
	}
	prize := prizes[idx]

	// remaining only ever decreases, so a local zero is authoritative
	if prize.IsExhausted() {
		log.WithFields(log.Fields{
			"competitionID": competition.ID,
			"prizeID":       prize.ID,
		}).Debug("Instant win hit an exhausted prize")
		return nil, nil
	}

	claimed, err := e.prizeRepo.ClaimOne(ctx, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim instant win prize %d: %w", prize.ID, err)
	}
	if !claimed {
		prize.Remaining = 0
		log.WithFields(log.Fields{
			"competitionID": competition.ID,
			"prizeID":       prize.ID,
		}).Debug("Instant win prize claimed concurrently")
		return nil, nil
	}

	prize.Remaining--
	return prize, nil
}
