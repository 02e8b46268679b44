package infrastructure

import (
	"fmt"

	"fairbook/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePoolUpdate:
		return "pools.updated"
	case events.EventTypeOddsUpdated:
		return "pools.odds_updated"
	case events.EventTypeBetPlaced:
		return "betting.placed"
	case events.EventTypePoolResolved:
		return "pools.resolved"
	case events.EventTypeAlertCreated:
		return "alerts.created"
	case events.EventTypeRewardDistributed:
		return "rewards.distributed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "pools.updated":
		return events.EventTypePoolUpdate
	case "pools.odds_updated":
		return events.EventTypeOddsUpdated
	case "betting.placed":
		return events.EventTypeBetPlaced
	case "pools.resolved":
		return events.EventTypePoolResolved
	case "alerts.created":
		return events.EventTypeAlertCreated
	case "rewards.distributed":
		return events.EventTypeRewardDistributed
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"pools.updated",
		"pools.odds_updated",
		"betting.placed",
		"pools.resolved",
		"alerts.created",
		"rewards.distributed",
	}
}
