package infrastructure

import (
	"context"
	"sync"

	"rafflehouse/domain/events"

	log "github.com/sirupsen/logrus"
)

// EventHandler reacts to a published event in-process
type EventHandler func(ctx context.Context, event events.Event) error

// localHandlers dispatches events to in-process subscribers
type localHandlers struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
}

func newLocalHandlers() *localHandlers {
	return &localHandlers{handlers: make(map[events.EventType][]EventHandler)}
}

// RegisterLocalHandler registers a handler invoked for every published event of the type
func (l *localHandlers) RegisterLocalHandler(eventType events.EventType, handler EventHandler) {
	l.mu.Lock()
	l.handlers[eventType] = append(l.handlers[eventType], handler)
	count := len(l.handlers[eventType])
	l.mu.Unlock()

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": count,
	}).Info("Registered local event handler")
}

// dispatch runs the handlers; a failing handler does not stop the others
func (l *localHandlers) dispatch(ctx context.Context, event events.Event) {
	l.mu.RLock()
	handlers := l.handlers[event.Type()]
	l.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}
