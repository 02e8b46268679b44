package entities

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DistributionType selects the payout-allocation strategy for a reward pool
type DistributionType string

const (
	DistributionTypeWinnerTakesAll DistributionType = "winner_takes_all"
	DistributionTypeProportional   DistributionType = "proportional"
	DistributionTypeTiered         DistributionType = "tiered"
	DistributionTypeParticipation  DistributionType = "participation"
	DistributionTypePerformance    DistributionType = "performance"
	DistributionTypeLottery        DistributionType = "lottery"
)

// RewardPoolStatus represents the lifecycle state of a reward pool
type RewardPoolStatus string

const (
	RewardPoolStatusActive       RewardPoolStatus = "active"
	RewardPoolStatusDistributing RewardPoolStatus = "distributing"
	RewardPoolStatusCompleted    RewardPoolStatus = "completed"
	RewardPoolStatusCancelled    RewardPoolStatus = "cancelled"
)

// WinnerCriterion chooses how the winner-takes-all strategy picks its winner
type WinnerCriterion string

const (
	WinnerCriterionPerformance  WinnerCriterion = "performance"
	WinnerCriterionRandom       WinnerCriterion = "random"
	WinnerCriterionContribution WinnerCriterion = "contribution"
)

// EligibilityCriteria gates which participants may join a reward pool
type EligibilityCriteria struct {
	MinContribution     decimal.Decimal `json:"minContribution"`
	MinPerformanceScore float64         `json:"minPerformanceScore"`
	MinLoyaltyTier      string          `json:"minLoyaltyTier,omitempty"`
}

// BonusConfig configures the additive bonus layers applied after base allocation
type BonusConfig struct {
	LoyaltyTierMultipliers map[string]float64 `json:"loyaltyTierMultipliers,omitempty"` // tier -> multiplier, 1.0 = no bonus
	StreakThreshold        int                `json:"streakThreshold"`
	StreakMultiplier       float64            `json:"streakMultiplier"`
	ReferralRate           float64            `json:"referralRate"`
}

// TierSpec describes one ranked tier for the tiered strategy
type TierSpec struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"` // fraction of remainingAmount paid to this tier
}

// StrategyConfig carries the per-strategy knobs of a reward pool
type StrategyConfig struct {
	WinnerCriterion   WinnerCriterion    `json:"winnerCriterion,omitempty"`
	Tiers             []TierSpec         `json:"tiers,omitempty"`
	MetricWeights     map[string]float64 `json:"metricWeights,omitempty"`
	WinnerCount       int                `json:"winnerCount,omitempty"`
	PrizeDistribution []float64          `json:"prizeDistribution,omitempty"` // fraction per draw position
}

// RewardPool represents a pool of value distributed to participants through
// one of the configured allocation strategies. RemainingAmount only decreases,
// by exactly the amount of each completed distribution.
type RewardPool struct {
	ID             string                  `json:"id"`
	Type           DistributionType        `json:"distributionType"`
	TotalAmount    decimal.Decimal         `json:"totalAmount"`
	Remaining      decimal.Decimal         `json:"remainingAmount"`
	Participants   map[string]*Participant `json:"participants"`
	Eligibility    EligibilityCriteria     `json:"eligibilityCriteria"`
	Bonuses        BonusConfig             `json:"bonusConfigs"`
	StrategyConfig StrategyConfig          `json:"strategyConfig"`
	Status         RewardPoolStatus        `json:"status"`
	Distributions  []*Distribution         `json:"distributions"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// IsActive checks if the reward pool accepts participants and distributions
func (p *RewardPool) IsActive() bool {
	return p.Status == RewardPoolStatusActive
}

// ParticipantList returns participants in a stable order (by participant ID)
func (p *RewardPool) ParticipantList() []*Participant {
	list := make([]*Participant, 0, len(p.Participants))
	for _, participant := range p.Participants {
		list = append(list, participant)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
