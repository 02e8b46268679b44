package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// StreakData tracks a participant's consecutive-activity streak
type StreakData struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// ReferralData links a participant to the participant who referred them
type ReferralData struct {
	ReferrerID    string `json:"referrerId,omitempty"` // participant ID of the referrer
	ReferralCount int    `json:"referralCount"`
}

// Participant represents a member of a reward pool. Participants are only
// added while the pool is active.
type Participant struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	WalletAddress string             `json:"walletAddress"`
	Performance   float64            `json:"performance"` // aggregate score used by winner-takes-all
	Metrics       map[string]float64 `json:"metrics"`     // named metrics for the performance strategy
	Contribution  decimal.Decimal    `json:"contributions"`
	LoyaltyTier   string             `json:"loyaltyTier"`
	Streak        StreakData         `json:"streakData"`
	Referral      ReferralData       `json:"referralData"`
	JoinedAt      time.Time          `json:"joinedAt"`
}

// WeightedScore computes the participant's score under the given metric weights
func (p *Participant) WeightedScore(weights map[string]float64) float64 {
	score := 0.0
	for metric, weight := range weights {
		score += p.Metrics[metric] * weight
	}
	return score
}
