package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus represents the settlement state of a bet
type BetStatus string

const (
	BetStatusActive BetStatus = "active"
	BetStatusWon    BetStatus = "won"
	BetStatusLost   BetStatus = "lost"
)

// Bet represents a single accepted stake on a pool outcome.
//
// OddsAtPlacement locks the quoted multiplier at acceptance time; the
// settlement payout itself is pari-mutuel and computed from the final pool.
// A bet is never mutated after settlement.
type Bet struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	UserWallet      string          `json:"userWallet"`
	PoolID          string          `json:"poolId"`
	OutcomeID       string          `json:"outcomeId"`
	Amount          decimal.Decimal `json:"amount"`
	OddsAtPlacement float64         `json:"oddsAtPlacement"`
	PotentialPayout decimal.Decimal `json:"potentialPayout"`
	Payout          decimal.Decimal `json:"payout"` // Zero until settled as won
	Timestamp       time.Time       `json:"timestamp"`
	Status          BetStatus       `json:"status"`
	SettledAt       *time.Time      `json:"settledAt,omitempty"`
}

// IsSettled returns true once the bet has been marked won or lost
func (b *Bet) IsSettled() bool {
	return b.Status == BetStatusWon || b.Status == BetStatusLost
}

// MarkWon settles the bet as a winner with its pari-mutuel payout
func (b *Bet) MarkWon(payout decimal.Decimal) {
	now := time.Now()
	b.Status = BetStatusWon
	b.Payout = payout
	b.SettledAt = &now
}

// MarkLost settles the bet as a loser
func (b *Bet) MarkLost() {
	now := time.Now()
	b.Status = BetStatusLost
	b.Payout = decimal.Zero
	b.SettledAt = &now
}
