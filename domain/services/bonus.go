package services

import (
	"fairbook/domain/entities"

	"github.com/shopspring/decimal"
)

// computeBonuses applies the three additive bonus layers to a round's base
// allocations. Order matters for the remaining-amount cap: loyalty first,
// then streak, then referral.
//
// Each bonus is computed from the base allocation amount, never from other
// bonuses, so the layers stack additively. A referral bonus is credited to
// the referrer, who may have no base allocation of their own this round.
func computeBonuses(pool *entities.RewardPool, allocations []*entities.Allocation) []*entities.Bonus {
	var bonuses []*entities.Bonus
	cfg := pool.Bonuses

	for _, allocation := range allocations {
		participant, ok := pool.Participants[allocation.ParticipantID]
		if !ok {
			continue
		}

		if multiplier, ok := cfg.LoyaltyTierMultipliers[participant.LoyaltyTier]; ok && multiplier > 1 {
			bonuses = append(bonuses, &entities.Bonus{
				Type:          entities.BonusTypeLoyalty,
				ParticipantID: participant.ID,
				Amount:        allocation.Amount.Mul(decimal.NewFromFloat(multiplier - 1)),
			})
		}

		if cfg.StreakThreshold > 0 && participant.Streak.Current >= cfg.StreakThreshold && cfg.StreakMultiplier > 1 {
			bonuses = append(bonuses, &entities.Bonus{
				Type:          entities.BonusTypeStreak,
				ParticipantID: participant.ID,
				Amount:        allocation.Amount.Mul(decimal.NewFromFloat(cfg.StreakMultiplier - 1)),
			})
		}

		if cfg.ReferralRate > 0 && participant.Referral.ReferrerID != "" {
			if referrer, ok := pool.Participants[participant.Referral.ReferrerID]; ok {
				bonuses = append(bonuses, &entities.Bonus{
					Type:          entities.BonusTypeReferral,
					ParticipantID: referrer.ID,
					Amount:        allocation.Amount.Mul(decimal.NewFromFloat(cfg.ReferralRate)),
				})
			}
		}
	}
	return bonuses
}

// capBonuses drops bonuses that would push the round total past the budget,
// keeping earlier layers intact. Returns the kept bonuses and how many were
// dropped.
func capBonuses(bonuses []*entities.Bonus, budget decimal.Decimal) ([]*entities.Bonus, int) {
	var kept []*entities.Bonus
	dropped := 0
	for _, bonus := range bonuses {
		if bonus.Amount.LessThanOrEqual(budget) {
			kept = append(kept, bonus)
			budget = budget.Sub(bonus.Amount)
		} else {
			dropped++
		}
	}
	return kept, dropped
}
