package services

import (
	"testing"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(outcomeStakes map[string]int64, houseEdge float64) *entities.Pool {
	pool := &entities.Pool{
		ID:           "pool-1",
		OutcomePools: make(map[string]decimal.Decimal),
		Odds:         make(map[string]float64),
		Bets:         make(map[string][]*entities.Bet),
		TotalPool:    decimal.Zero,
		HouseEdge:    houseEdge,
		Status:       entities.PoolStatusActive,
		CreatedAt:    time.Now(),
		ClosesAt:     time.Now().Add(time.Hour),
	}
	for outcomeID, stake := range outcomeStakes {
		pool.Outcomes = append(pool.Outcomes, &entities.OutcomeSpec{ID: outcomeID, Label: outcomeID})
		pool.OutcomePools[outcomeID] = decimal.NewFromInt(stake)
		pool.TotalPool = pool.TotalPool.Add(decimal.NewFromInt(stake))
	}
	return pool
}

func TestCalculateOdds(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	svc := NewBettingPoolDomainService()

	t.Run("empty outcome quotes maximum odds", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 100, "no": 0}, 0.05)

		odds := svc.CalculateOdds(pool)
		assert.Equal(t, 50.0, odds["no"])
	})

	t.Run("odds shorten as an outcome attracts stake", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 700, "no": 300}, 0.05)

		odds := svc.CalculateOdds(pool)

		// implied 0.7 * 1.05 = 0.735 -> 1.36; implied 0.3 * 1.05 = 0.315 -> 3.17
		assert.InDelta(t, 1.3605, odds["yes"], 0.001)
		assert.InDelta(t, 3.1746, odds["no"], 0.001)
	})

	t.Run("odds clamp at the floor", func(t *testing.T) {
		// 999 of 1000 on one side gives implied ~1.05, raw odds < 1.01
		pool := testPool(map[string]int64{"yes": 999, "no": 1}, 0.05)

		odds := svc.CalculateOdds(pool)
		assert.Equal(t, 1.01, odds["yes"])
	})

	t.Run("empty pool quotes maximum everywhere", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 0, "no": 0}, 0.05)

		odds := svc.CalculateOdds(pool)
		assert.Equal(t, 50.0, odds["yes"])
		assert.Equal(t, 50.0, odds["no"])
	})
}

func TestCalculatePayouts(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	svc := NewBettingPoolDomainService()

	t.Run("house take and payout pool", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 700, "no": 300}, 0.05)
		pool.Bets["u1"] = []*entities.Bet{
			{ID: "b1", UserID: "u1", OutcomeID: "yes", Amount: decimal.NewFromInt(700), Status: entities.BetStatusActive},
		}
		pool.Bets["u2"] = []*entities.Bet{
			{ID: "b2", UserID: "u2", OutcomeID: "no", Amount: decimal.NewFromInt(300), Status: entities.BetStatusActive},
		}

		houseTake, payoutPool, payouts := svc.CalculatePayouts(pool, "yes")

		assert.True(t, houseTake.Equal(decimal.NewFromInt(50)), "houseTake = %s", houseTake)
		assert.True(t, payoutPool.Equal(decimal.NewFromInt(950)), "payoutPool = %s", payoutPool)
		require.Len(t, payouts, 1)
		assert.True(t, payouts["b1"].Equal(decimal.NewFromInt(950)))
	})

	t.Run("winners split proportionally to stake", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 400, "no": 600}, 0.1)
		pool.Bets["u1"] = []*entities.Bet{
			{ID: "b1", UserID: "u1", OutcomeID: "yes", Amount: decimal.NewFromInt(300), Status: entities.BetStatusActive},
		}
		pool.Bets["u2"] = []*entities.Bet{
			{ID: "b2", UserID: "u2", OutcomeID: "yes", Amount: decimal.NewFromInt(100), Status: entities.BetStatusActive},
			{ID: "b3", UserID: "u2", OutcomeID: "no", Amount: decimal.NewFromInt(600), Status: entities.BetStatusActive},
		}

		houseTake, payoutPool, payouts := svc.CalculatePayouts(pool, "yes")

		assert.True(t, houseTake.Equal(decimal.NewFromInt(100)))
		assert.True(t, payoutPool.Equal(decimal.NewFromInt(900)))
		require.Len(t, payouts, 2)
		assert.True(t, payouts["b1"].Equal(decimal.NewFromInt(675)), "b1 = %s", payouts["b1"])
		assert.True(t, payouts["b2"].Equal(decimal.NewFromInt(225)), "b2 = %s", payouts["b2"])

		// Payouts never exceed the payout pool
		total := payouts["b1"].Add(payouts["b2"])
		assert.True(t, total.Equal(payoutPool))
	})

	t.Run("nobody backed the winner", func(t *testing.T) {
		pool := testPool(map[string]int64{"yes": 0, "no": 500}, 0.05)
		pool.Bets["u1"] = []*entities.Bet{
			{ID: "b1", UserID: "u1", OutcomeID: "no", Amount: decimal.NewFromInt(500), Status: entities.BetStatusActive},
		}

		houseTake, payoutPool, payouts := svc.CalculatePayouts(pool, "yes")

		assert.True(t, houseTake.Equal(decimal.NewFromInt(25)))
		assert.True(t, payoutPool.Equal(decimal.NewFromInt(475)))
		assert.Empty(t, payouts)
	})
}
