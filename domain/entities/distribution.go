package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusType identifies the bonus layer that produced an extra allocation amount
type BonusType string

const (
	BonusTypeLoyalty  BonusType = "loyalty"
	BonusTypeStreak   BonusType = "streak"
	BonusTypeReferral BonusType = "referral"
)

// Allocation is one participant's share of a distribution round
type Allocation struct {
	ParticipantID string          `json:"participantId"`
	UserID        string          `json:"userId"`
	WalletAddress string          `json:"walletAddress"`
	Amount        decimal.Decimal `json:"amount"`
	Position      int             `json:"position,omitempty"` // draw position for lottery payouts
}

// Bonus is one additive bonus applied on top of a base allocation
type Bonus struct {
	Type          BonusType       `json:"type"`
	ParticipantID string          `json:"participantId"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransferFailure records a payout transfer that could not be executed.
// Failures are isolated per recipient and never abort the batch.
type TransferFailure struct {
	ParticipantID string `json:"participantId"`
	WalletAddress string `json:"walletAddress"`
	Reason        string `json:"reason"`
}

// Distribution groups one settlement event's base allocations and bonuses
// together with the execution outcome.
type Distribution struct {
	ID               string             `json:"id"`
	RewardPoolID     string             `json:"rewardPoolId"`
	Trigger          string             `json:"trigger"`
	Allocations      []*Allocation      `json:"allocations"`
	Bonuses          []*Bonus           `json:"bonuses"`
	Successful       int                `json:"successful"`
	Failed           int                `json:"failed"`
	Failures         []*TransferFailure `json:"failures,omitempty"`
	TotalDistributed decimal.Decimal    `json:"totalDistributed"`
	ProofRequestIDs  []string           `json:"proofRequestIds,omitempty"` // VRF request IDs backing random draws
	CreatedAt        time.Time          `json:"createdAt"`
}

// TotalAllocated sums base allocations and bonuses before execution
func (d *Distribution) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range d.Allocations {
		total = total.Add(a.Amount)
	}
	for _, b := range d.Bonuses {
		total = total.Add(b.Amount)
	}
	return total
}
