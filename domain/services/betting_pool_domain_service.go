package services

import (
	"fairbook/config"
	"fairbook/domain/entities"

	"github.com/shopspring/decimal"
)

// BettingPoolDomainService contains the pure pari-mutuel math: odds
// recalculation and settlement payout computation. It holds no state and
// performs no I/O.
type BettingPoolDomainService struct {
	minOdds float64
	maxOdds float64
}

// NewBettingPoolDomainService creates the domain service with configured
// odds bounds
func NewBettingPoolDomainService() *BettingPoolDomainService {
	cfg := config.Get()
	return &BettingPoolDomainService{
		minOdds: cfg.MinOdds,
		maxOdds: cfg.MaxOdds,
	}
}

// CalculateOdds recomputes decimal odds for every outcome from current pool
// proportions. An outcome with no stake quotes maximum odds. The implied
// probability is inflated by the house edge before inversion, then the
// result is clamped to the configured bounds.
func (s *BettingPoolDomainService) CalculateOdds(pool *entities.Pool) map[string]float64 {
	odds := make(map[string]float64, len(pool.Outcomes))
	for _, outcome := range pool.Outcomes {
		stake := pool.OutcomePools[outcome.ID]
		if stake.IsZero() || pool.TotalPool.IsZero() {
			odds[outcome.ID] = s.maxOdds
			continue
		}

		implied, _ := stake.Div(pool.TotalPool).Float64()
		adjusted := implied * (1 + pool.HouseEdge)
		odds[outcome.ID] = clamp(1/adjusted, s.minOdds, s.maxOdds)
	}
	return odds
}

// CalculatePayouts computes the house take, the payout pool and the
// pari-mutuel payout for every active bet on the winning outcome:
//
//	payout = (bet amount / winning outcome stake) * (total pool - house take)
//
// When nobody backed the winning outcome the payout map is empty and the
// house retains the entire pool.
func (s *BettingPoolDomainService) CalculatePayouts(pool *entities.Pool, winningOutcomeID string) (houseTake, payoutPool decimal.Decimal, payouts map[string]decimal.Decimal) {
	houseTake = pool.TotalPool.Mul(decimal.NewFromFloat(pool.HouseEdge))
	payoutPool = pool.TotalPool.Sub(houseTake)
	payouts = make(map[string]decimal.Decimal)

	winningStake := pool.OutcomePools[winningOutcomeID]
	if winningStake.IsZero() {
		return houseTake, payoutPool, payouts
	}

	for _, bet := range pool.ActiveBets() {
		if bet.OutcomeID == winningOutcomeID {
			payouts[bet.ID] = bet.Amount.Div(winningStake).Mul(payoutPool)
		}
	}
	return houseTake, payoutPool, payouts
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
