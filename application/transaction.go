package application

import (
	"context"
	"fmt"
)

// inTransaction runs fn inside a fresh unit of work and commits if it succeeds.
// Buffered events are published only after the commit.
func inTransaction[T any](ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) (T, error)) (T, error) {
	var zero T

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := fn(uow)
	if err != nil {
		return zero, err
	}

	if err := uow.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
