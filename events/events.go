package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePoolUpdate        EventType = "pool_update"
	EventTypeOddsUpdated       EventType = "odds_updated"
	EventTypeBetPlaced         EventType = "bet_placed"
	EventTypePoolResolved      EventType = "poolResolved"
	EventTypeAlertCreated      EventType = "alert_created"
	EventTypeRewardDistributed EventType = "reward_distributed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PoolUpdateEvent carries a snapshot of a pool after any accepted mutation
type PoolUpdateEvent struct {
	PoolID    string          `json:"pool_id"`
	Status    string          `json:"status"`
	TotalPool decimal.Decimal `json:"total_pool"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e PoolUpdateEvent) Type() EventType {
	return EventTypePoolUpdate
}

// OddsUpdatedEvent carries the full odds map after a recalculation
type OddsUpdatedEvent struct {
	PoolID    string             `json:"pool_id"`
	Odds      map[string]float64 `json:"odds"`
	Timestamp time.Time          `json:"timestamp"`
}

func (e OddsUpdatedEvent) Type() EventType {
	return EventTypeOddsUpdated
}

// BetPlacedEvent represents a bet that was accepted into a pool
type BetPlacedEvent struct {
	BetID           string          `json:"bet_id"`
	UserID          string          `json:"user_id"`
	PoolID          string          `json:"pool_id"`
	OutcomeID       string          `json:"outcome_id"`
	Amount          decimal.Decimal `json:"amount"`
	OddsAtPlacement float64         `json:"odds_at_placement"`
	Timestamp       time.Time       `json:"timestamp"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// PoolResolvedEvent represents a pool that was settled
type PoolResolvedEvent struct {
	PoolID         string          `json:"pool_id"`
	WinningOutcome string          `json:"winning_outcome"`
	Selection      string          `json:"selection"` // how the winning outcome was chosen
	TotalPool      decimal.Decimal `json:"total_pool"`
	HouseTake      decimal.Decimal `json:"house_take"`
	PayoutPool     decimal.Decimal `json:"payout_pool"`
	WinnerCount    int             `json:"winner_count"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (e PoolResolvedEvent) Type() EventType {
	return EventTypePoolResolved
}

// AlertCreatedEvent represents a suspicious-activity alert that was stored
type AlertCreatedEvent struct {
	AlertID   string    `json:"alert_id"`
	UserID    string    `json:"user_id"`
	AlertType string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

func (e AlertCreatedEvent) Type() EventType {
	return EventTypeAlertCreated
}

// RewardDistributedEvent represents a completed reward distribution round
type RewardDistributedEvent struct {
	DistributionID   string          `json:"distribution_id"`
	RewardPoolID     string          `json:"reward_pool_id"`
	DistributionType string          `json:"distribution_type"`
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	Successful       int             `json:"successful"`
	Failed           int             `json:"failed"`
	Timestamp        time.Time       `json:"timestamp"`
}

func (e RewardDistributedEvent) Type() EventType {
	return EventTypeRewardDistributed
}
