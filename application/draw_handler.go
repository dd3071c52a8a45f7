package application

import (
	"context"

	"rafflehouse/domain/entities"

	log "github.com/sirupsen/logrus"
)

// DrawHandler runs grand-prize draws. Announcements hang off the winner_drawn
// event, so they only go out once the draw has committed.
type DrawHandler struct {
	uowFactory UnitOfWorkFactory
	settings   ServiceSettings
}

// NewDrawHandler creates a draw handler
func NewDrawHandler(uowFactory UnitOfWorkFactory, settings ServiceSettings) *DrawHandler {
	return &DrawHandler{
		uowFactory: uowFactory,
		settings:   settings,
	}
}

// Draw picks the winner of competitionID
func (h *DrawHandler) Draw(ctx context.Context, competitionID string) (*entities.Winner, error) {
	winner, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Winner, error) {
		return h.settings.WinnerDrawService(uow).DrawWinner(ctx, competitionID)
	})
	if err != nil {
		log.WithFields(log.Fields{
			"competitionID": competitionID,
			"error":         err,
		}).Warn("Draw failed")
		return nil, err
	}

	log.WithFields(log.Fields{
		"competitionID": competitionID,
		"winnerID":      winner.ID,
		"userID":        winner.UserID,
		"ticketNumber":  winner.TicketNumber,
	}).Info("Winner drawn")

	return winner, nil
}
