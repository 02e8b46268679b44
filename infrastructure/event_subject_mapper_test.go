package infrastructure

import (
	"testing"

	"fairbook/events"

	"github.com/stretchr/testify/assert"
)

func TestMapEventToSubject(t *testing.T) {
	mapper := NewEventSubjectMapper()

	cases := []struct {
		event   events.Event
		subject string
	}{
		{events.PoolUpdateEvent{}, "pools.updated"},
		{events.OddsUpdatedEvent{}, "pools.odds_updated"},
		{events.BetPlacedEvent{}, "betting.placed"},
		{events.PoolResolvedEvent{}, "pools.resolved"},
		{events.AlertCreatedEvent{}, "alerts.created"},
		{events.RewardDistributedEvent{}, "rewards.distributed"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.subject, mapper.MapEventToSubject(tc.event), "event type %s", tc.event.Type())
	}
}

func TestMapSubjectToEventType(t *testing.T) {
	mapper := NewEventSubjectMapper()

	// Every published subject maps back to the event type it came from
	for _, subject := range mapper.GetAllSubjects() {
		eventType := mapper.MapSubjectToEventType(subject)
		for _, tc := range []events.Event{
			events.PoolUpdateEvent{},
			events.OddsUpdatedEvent{},
			events.BetPlacedEvent{},
			events.PoolResolvedEvent{},
			events.AlertCreatedEvent{},
			events.RewardDistributedEvent{},
		} {
			if mapper.MapEventToSubject(tc) == subject {
				assert.Equal(t, tc.Type(), eventType, "subject %s", subject)
			}
		}
	}
}

func TestGetAllSubjects(t *testing.T) {
	subjects := NewEventSubjectMapper().GetAllSubjects()

	assert.Len(t, subjects, 6)
	seen := make(map[string]bool)
	for _, subject := range subjects {
		assert.False(t, seen[subject], "duplicate subject %s", subject)
		seen[subject] = true
	}
}
