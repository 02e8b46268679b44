package interfaces

import (
	"context"

	"fairbook/domain/entities"
	"fairbook/events"

	"github.com/shopspring/decimal"
)

// EntropySource supplies external chain entropy for VRF input material.
// Failures must surface as errors; randomness never falls back to defaults.
type EntropySource interface {
	// GetSlot returns the current chain slot
	GetSlot(ctx context.Context) (uint64, error)

	// GetRecentBlockHash returns a recent chain block hash
	GetRecentBlockHash(ctx context.Context) ([]byte, error)
}

// TransferStatus reports the outcome of one settlement transfer
type TransferStatus string

const (
	TransferStatusConfirmed TransferStatus = "confirmed"
	TransferStatusFailed    TransferStatus = "failed"
)

// TransferReceipt is the settlement collaborator's response to a transfer
type TransferReceipt struct {
	TransactionID string
	Status        TransferStatus
}

// SettlementExecutor executes fund transfers for settled bets and reward
// allocations. Any non-success is a per-unit failure, never fatal to a batch.
type SettlementExecutor interface {
	Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal, currency string) (*TransferReceipt, error)
}

// EventPublisher defines the interface for publishing events. Delivery is
// best-effort and must never block the core mutation path.
type EventPublisher interface {
	Publish(event events.Event) error
}

// AlertNotifier receives high and critical severity alerts out-of-band
type AlertNotifier interface {
	Notify(ctx context.Context, alert *entities.Alert) error
}

// EligibilityChecker is the pluggable predicate gating reward pool membership
type EligibilityChecker interface {
	IsEligible(participant *entities.Participant, criteria entities.EligibilityCriteria) bool
}
