package infrastructure

import (
	"sync"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
	"fairbook/events"
	"fairbook/infrastructure/observability"
)

// InstrumentedEventPublisher decorates an EventPublisher and records a metric
// for every domain event flowing through it, so the services stay free of
// instrumentation concerns.
type InstrumentedEventPublisher struct {
	inner   interfaces.EventPublisher
	metrics *observability.MetricsProvider

	mu          sync.Mutex
	activePools map[string]bool
}

// NewInstrumentedEventPublisher wraps a publisher with metric recording
func NewInstrumentedEventPublisher(inner interfaces.EventPublisher, metrics *observability.MetricsProvider) *InstrumentedEventPublisher {
	return &InstrumentedEventPublisher{
		inner:       inner,
		metrics:     metrics,
		activePools: make(map[string]bool),
	}
}

func (p *InstrumentedEventPublisher) Publish(event events.Event) error {
	p.record(event)
	return p.inner.Publish(event)
}

func (p *InstrumentedEventPublisher) record(event events.Event) {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		p.metrics.RecordBetPlaced(e.OutcomeID)
	case events.PoolUpdateEvent:
		p.trackPool(e.PoolID, e.Status == string(entities.PoolStatusActive))
	case events.PoolResolvedEvent:
		p.trackPool(e.PoolID, false)
		p.metrics.RecordPoolSettled(e.Selection)
	case events.AlertCreatedEvent:
		p.metrics.RecordAlertRaised(e.AlertType, e.Severity)
		// A critical alert is exactly what blocks a bet
		if e.Severity == string(entities.AlertSeverityCritical) {
			p.metrics.RecordBetBlocked()
		}
	case events.RewardDistributedEvent:
		p.metrics.RecordRewardDistribution(e.DistributionType)
		for i := 0; i < e.Successful; i++ {
			p.metrics.RecordTransfer(observability.TransferOutcomeConfirmed)
		}
		for i := 0; i < e.Failed; i++ {
			p.metrics.RecordTransfer(observability.TransferOutcomeFailed)
		}
	}
}

// trackPool keeps the active-pool gauge in step with pool status transitions
func (p *InstrumentedEventPublisher) trackPool(poolID string, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case active && !p.activePools[poolID]:
		p.activePools[poolID] = true
		p.metrics.UpdateActivePools(1)
	case !active && p.activePools[poolID]:
		delete(p.activePools, poolID)
		p.metrics.UpdateActivePools(-1)
	}
}
