package application

import (
	"context"
	"time"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
)

// CatalogueHandler runs competition catalogue operations in their own transactions
type CatalogueHandler struct {
	uowFactory UnitOfWorkFactory
	settings   ServiceSettings
}

// NewCatalogueHandler creates a catalogue handler
func NewCatalogueHandler(uowFactory UnitOfWorkFactory, settings ServiceSettings) *CatalogueHandler {
	return &CatalogueHandler{
		uowFactory: uowFactory,
		settings:   settings,
	}
}

func (h *CatalogueHandler) Create(ctx context.Context, input interfaces.CompetitionInput) (*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Competition, error) {
		return h.settings.CompetitionService(uow).Create(ctx, input)
	})
}

func (h *CatalogueHandler) Update(ctx context.Context, id string, patch interfaces.CompetitionPatch) (*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Competition, error) {
		return h.settings.CompetitionService(uow).Update(ctx, id, patch)
	})
}

// Delete removes the competition, or cancels it once tickets exist. Reports whether it was removed.
func (h *CatalogueHandler) Delete(ctx context.Context, id string) (bool, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (bool, error) {
		return h.settings.CompetitionService(uow).Delete(ctx, id)
	})
}

func (h *CatalogueHandler) Get(ctx context.Context, id string) (*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Competition, error) {
		return h.settings.CompetitionService(uow).Get(ctx, id)
	})
}

func (h *CatalogueHandler) List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Competition, error) {
		return h.settings.CompetitionService(uow).List(ctx, filter)
	})
}

func (h *CatalogueHandler) Featured(ctx context.Context) ([]*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Competition, error) {
		return h.settings.CompetitionService(uow).Featured(ctx)
	})
}

// CloseExpired ends every active competition whose end date has passed
func (h *CatalogueHandler) CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Competition, error) {
		return h.settings.CompetitionService(uow).CloseExpired(ctx, now)
	})
}

func (h *CatalogueHandler) Entrants(ctx context.Context, id string) ([]*entities.Entrant, error) {
	return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.Entrant, error) {
		return h.settings.CompetitionService(uow).Entrants(ctx, id)
	})
}
