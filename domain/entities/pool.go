package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolStatus represents the lifecycle state of a betting pool
type PoolStatus string

const (
	PoolStatusActive  PoolStatus = "active"
	PoolStatusClosed  PoolStatus = "closed"
	PoolStatusSettled PoolStatus = "settled"
)

// WinnerSelectionMode determines how a pool's winning outcome is chosen
type WinnerSelectionMode string

const (
	// WinnerSelectionManual means an operator supplies the winning outcome
	WinnerSelectionManual WinnerSelectionMode = "manual"
	// WinnerSelectionRandom means the winning outcome is drawn through the VRF engine
	WinnerSelectionRandom WinnerSelectionMode = "random"
)

// OutcomeSpec describes one possible outcome of a pool
type OutcomeSpec struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	InitialOdds float64 `json:"initial_odds"` // 0 means "use the configured default"
}

// Pool represents a pari-mutuel betting pool over a fixed set of outcomes.
//
// Invariant: the sum of OutcomePools always equals TotalPool, and status
// transitions are monotonic (active -> closed -> settled).
type Pool struct {
	ID              string                     `json:"id"`
	Outcomes        []*OutcomeSpec             `json:"outcomes"`
	OutcomePools    map[string]decimal.Decimal `json:"outcomePools"`
	Odds            map[string]float64         `json:"odds"`
	Bets            map[string][]*Bet          `json:"bets"` // user ID -> bets
	TotalPool       decimal.Decimal            `json:"totalPool"`
	HouseEdge       float64                    `json:"houseEdge"`
	Status          PoolStatus                 `json:"status"`
	WinnerSelection WinnerSelectionMode        `json:"winnerSelection"`
	WinningOutcome  *string                    `json:"winningOutcome,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	ClosesAt        time.Time                  `json:"closesAt"`
	SettledAt       *time.Time                 `json:"settledAt,omitempty"`
}

// IsActive checks if the pool is accepting state changes
func (p *Pool) IsActive() bool {
	return p.Status == PoolStatusActive
}

// IsSettled checks if the pool has been settled
func (p *Pool) IsSettled() bool {
	return p.Status == PoolStatusSettled
}

// CanAcceptBets checks if the pool can still accept bets
func (p *Pool) CanAcceptBets() bool {
	return p.Status == PoolStatusActive && time.Now().Before(p.ClosesAt)
}

// IsExpired checks if an active pool has passed its closing time
func (p *Pool) IsExpired() bool {
	return p.Status == PoolStatusActive && time.Now().After(p.ClosesAt)
}

// HasOutcome checks whether the given outcome ID belongs to this pool
func (p *Pool) HasOutcome(outcomeID string) bool {
	for _, o := range p.Outcomes {
		if o.ID == outcomeID {
			return true
		}
	}
	return false
}

// OutcomeIDs returns the pool's outcome IDs in declaration order
func (p *Pool) OutcomeIDs() []string {
	ids := make([]string, 0, len(p.Outcomes))
	for _, o := range p.Outcomes {
		ids = append(ids, o.ID)
	}
	return ids
}

// ActiveStake returns the user's total active stake on the given outcome
func (p *Pool) ActiveStake(userID, outcomeID string) decimal.Decimal {
	total := decimal.Zero
	for _, bet := range p.Bets[userID] {
		if bet.OutcomeID == outcomeID && bet.Status == BetStatusActive {
			total = total.Add(bet.Amount)
		}
	}
	return total
}

// ActiveBets returns every active bet in the pool
func (p *Pool) ActiveBets() []*Bet {
	var bets []*Bet
	for _, userBets := range p.Bets {
		for _, bet := range userBets {
			if bet.Status == BetStatusActive {
				bets = append(bets, bet)
			}
		}
	}
	return bets
}
