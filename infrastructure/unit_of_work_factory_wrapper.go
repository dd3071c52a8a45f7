package infrastructure

import (
	"rafflehouse/application"
	"rafflehouse/database"
	"rafflehouse/domain/interfaces"
	"rafflehouse/repository"
)

// UnitOfWorkFactoryWrapper gives every unit of work its own transactional publisher
type UnitOfWorkFactoryWrapper struct {
	repoFactory interface {
		CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) application.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactoryWrapper creates a new wrapper that implements application.UnitOfWorkFactory
func NewUnitOfWorkFactoryWrapper(db *database.DB, eventPublisher interfaces.EventPublisher) application.UnitOfWorkFactory {
	return &UnitOfWorkFactoryWrapper{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a transactional event publisher
func (w *UnitOfWorkFactoryWrapper) Create() application.UnitOfWork {
	return w.repoFactory.CreateWithPublisher(NewNATSTransactionalPublisher(w.eventPublisher))
}
