package infrastructure

import (
	"fmt"

	"rafflehouse/domain/events"
)

// DomainEventStream is the JetStream stream every raffle event lands in
const DomainEventStream = "raffle_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeOrderCreated:       "raffle.orders.created",
	events.EventTypeOrderCompleted:     "raffle.orders.completed",
	events.EventTypeOrderFailed:        "raffle.orders.failed",
	events.EventTypeOrderRefunded:      "raffle.orders.refunded",
	events.EventTypeTicketsIssued:      "raffle.tickets.issued",
	events.EventTypeInstantWinAwarded:  "raffle.tickets.instant_win",
	events.EventTypeCompetitionSoldOut: "raffle.competitions.sold_out",
	events.EventTypeCompetitionClosed:  "raffle.competitions.closed",
	events.EventTypeWinnerDrawn:        "raffle.competitions.winner_drawn",
	events.EventTypeBalanceChanged:     "raffle.users.balance_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	// Fallback for unknown event types
	return fmt.Sprintf("raffle.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns the stream's subject filter
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"raffle.>"}
}
