package infrastructure

import (
	"context"

	"rafflehouse/domain/events"
)

// NoopEventPublisher only runs local handlers; used when NATS is not configured
type NoopEventPublisher struct {
	*localHandlers
}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{localHandlers: newLocalHandlers()}
}

// Publish hands the event to local handlers and nothing else
func (n *NoopEventPublisher) Publish(event events.Event) error {
	n.dispatch(context.Background(), event)
	return nil
}
