package services

import (
	"context"
	"testing"

	"fairbook/domain/entities"
	"fairbook/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRewardPool(remaining int64, participants ...*entities.Participant) *entities.RewardPool {
	pool := &entities.RewardPool{
		ID:           "rp-1",
		TotalAmount:  decimal.NewFromInt(remaining),
		Remaining:    decimal.NewFromInt(remaining),
		Participants: make(map[string]*entities.Participant),
		Status:       entities.RewardPoolStatusActive,
	}
	for _, p := range participants {
		pool.Participants[p.ID] = p
	}
	return pool
}

func allocationByParticipant(allocations []*entities.Allocation) map[string]decimal.Decimal {
	byID := make(map[string]decimal.Decimal, len(allocations))
	for _, a := range allocations {
		byID[a.ParticipantID] = byID[a.ParticipantID].Add(a.Amount)
	}
	return byID
}

func TestWinnerTakesAllStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("performance criterion picks the top score", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Performance: 40},
			&entities.Participant{ID: "p2", Performance: 90},
			&entities.Participant{ID: "p3", Performance: 70},
		)
		pool.StrategyConfig.WinnerCriterion = entities.WinnerCriterionPerformance

		strategy := &winnerTakesAllStrategy{}
		allocations, proofIDs, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		require.Len(t, allocations, 1)
		assert.Equal(t, "p2", allocations[0].ParticipantID)
		assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(1000)))
		assert.Empty(t, proofIDs)
	})

	t.Run("empty criterion defaults to performance", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Performance: 10},
			&entities.Participant{ID: "p2", Performance: 20},
		)

		strategy := &winnerTakesAllStrategy{}
		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)
		assert.Equal(t, "p2", allocations[0].ParticipantID)
	})

	t.Run("contribution criterion picks the biggest contributor", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Contribution: decimal.NewFromInt(500)},
			&entities.Participant{ID: "p2", Contribution: decimal.NewFromInt(200)},
		)
		pool.StrategyConfig.WinnerCriterion = entities.WinnerCriterionContribution

		strategy := &winnerTakesAllStrategy{}
		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)
		assert.Equal(t, "p1", allocations[0].ParticipantID)
	})

	t.Run("random criterion draws through the VRF engine", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1"},
			&entities.Participant{ID: "p2"},
		)
		pool.StrategyConfig.WinnerCriterion = entities.WinnerCriterionRandom

		vrf := new(testhelpers.MockVRFEngine)
		vrf.On("SelectWinner", mock.Anything, []string{"p1", "p2"}, "reward:rp-1:round-1").
			Return(&entities.WinnerDraw{Winner: "p2", Index: 1, Proof: &entities.VRFResult{RequestID: "req-9", Verified: true}}, nil)

		strategy := &winnerTakesAllStrategy{vrfEngine: vrf}
		allocations, proofIDs, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		assert.Equal(t, "p2", allocations[0].ParticipantID)
		assert.Equal(t, []string{"req-9"}, proofIDs)
		vrf.AssertExpectations(t)
	})
}

func TestProportionalStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := &proportionalStrategy{}

	t.Run("splits by contribution and skips zero contributors", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Contribution: decimal.NewFromInt(300)},
			&entities.Participant{ID: "p2", Contribution: decimal.NewFromInt(100)},
			&entities.Participant{ID: "p3", Contribution: decimal.Zero},
		)

		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		byID := allocationByParticipant(allocations)
		require.Len(t, byID, 2)
		assert.True(t, byID["p1"].Equal(decimal.NewFromInt(750)), "p1 = %s", byID["p1"])
		assert.True(t, byID["p2"].Equal(decimal.NewFromInt(250)), "p2 = %s", byID["p2"])
	})

	t.Run("all-zero contributions rejected", func(t *testing.T) {
		pool := testRewardPool(1000, &entities.Participant{ID: "p1"})

		_, _, err := strategy.Allocate(ctx, pool, "round-1")
		assert.Error(t, err)
	})
}

func TestTieredStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := &tieredStrategy{}

	t.Run("ranked tiers then equal split of the leftover", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Performance: 90},
			&entities.Participant{ID: "p2", Performance: 70},
			&entities.Participant{ID: "p3", Performance: 50},
			&entities.Participant{ID: "p4", Performance: 30},
		)
		pool.StrategyConfig.Tiers = []entities.TierSpec{
			{Name: "gold", Percentage: 0.5},
			{Name: "silver", Percentage: 0.3},
		}

		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		byID := allocationByParticipant(allocations)
		assert.True(t, byID["p1"].Equal(decimal.NewFromInt(500)))
		assert.True(t, byID["p2"].Equal(decimal.NewFromInt(300)))
		assert.True(t, byID["p3"].Equal(decimal.NewFromInt(100)))
		assert.True(t, byID["p4"].Equal(decimal.NewFromInt(100)))
	})

	t.Run("fewer participants than tiers", func(t *testing.T) {
		pool := testRewardPool(1000, &entities.Participant{ID: "p1", Performance: 90})
		pool.StrategyConfig.Tiers = []entities.TierSpec{
			{Name: "gold", Percentage: 0.5},
			{Name: "silver", Percentage: 0.3},
		}

		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(500)))
	})

	t.Run("missing tiers rejected", func(t *testing.T) {
		pool := testRewardPool(1000, &entities.Participant{ID: "p1"})

		_, _, err := strategy.Allocate(ctx, pool, "round-1")
		assert.Error(t, err)
	})
}

func TestParticipationStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := &participationStrategy{}

	pool := testRewardPool(1000,
		&entities.Participant{ID: "p1"},
		&entities.Participant{ID: "p2"},
		&entities.Participant{ID: "p3"},
		&entities.Participant{ID: "p4"},
	)

	allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
	require.NoError(t, err)
	require.Len(t, allocations, 4)
	for _, a := range allocations {
		assert.True(t, a.Amount.Equal(decimal.NewFromInt(250)))
	}
}

func TestPerformanceStrategy(t *testing.T) {
	ctx := context.Background()
	strategy := &performanceStrategy{}

	t.Run("splits by weighted score and skips zero scores", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1", Metrics: map[string]float64{"wins": 6, "roi": 2}},
			&entities.Participant{ID: "p2", Metrics: map[string]float64{"wins": 2, "roi": 4}},
			&entities.Participant{ID: "p3", Metrics: map[string]float64{}},
		)
		pool.StrategyConfig.MetricWeights = map[string]float64{"wins": 1, "roi": 2}

		// scores: p1 = 6 + 4 = 10, p2 = 2 + 8 = 10, p3 = 0
		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		byID := allocationByParticipant(allocations)
		require.Len(t, byID, 2)
		assert.True(t, byID["p1"].Equal(decimal.NewFromInt(500)), "p1 = %s", byID["p1"])
		assert.True(t, byID["p2"].Equal(decimal.NewFromInt(500)), "p2 = %s", byID["p2"])
	})

	t.Run("missing weights rejected", func(t *testing.T) {
		pool := testRewardPool(1000, &entities.Participant{ID: "p1"})

		_, _, err := strategy.Allocate(ctx, pool, "round-1")
		assert.Error(t, err)
	})
}

func TestLotteryStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("draws without replacement", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1"},
			&entities.Participant{ID: "p2"},
			&entities.Participant{ID: "p3"},
		)
		pool.StrategyConfig.WinnerCount = 2
		pool.StrategyConfig.PrizeDistribution = []float64{0.5, 0.3}

		vrf := new(testhelpers.MockVRFEngine)
		vrf.On("SelectWinner", mock.Anything, []string{"p1", "p2", "p3"}, "lottery:rp-1:round-1:0").
			Return(&entities.WinnerDraw{Winner: "p2", Index: 1, Proof: &entities.VRFResult{RequestID: "req-1", Verified: true}}, nil).Once()
		// The first winner is removed from the candidate list
		vrf.On("SelectWinner", mock.Anything, []string{"p1", "p3"}, "lottery:rp-1:round-1:1").
			Return(&entities.WinnerDraw{Winner: "p1", Index: 0, Proof: &entities.VRFResult{RequestID: "req-2", Verified: true}}, nil).Once()

		strategy := &lotteryStrategy{vrfEngine: vrf}
		allocations, proofIDs, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)

		require.Len(t, allocations, 2)
		assert.Equal(t, "p2", allocations[0].ParticipantID)
		assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 1, allocations[0].Position)
		assert.Equal(t, "p1", allocations[1].ParticipantID)
		assert.True(t, allocations[1].Amount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, 2, allocations[1].Position)
		assert.Equal(t, []string{"req-1", "req-2"}, proofIDs)
		vrf.AssertExpectations(t)
	})

	t.Run("winner count capped at the participant count", func(t *testing.T) {
		pool := testRewardPool(1000, &entities.Participant{ID: "p1"})
		pool.StrategyConfig.WinnerCount = 5
		pool.StrategyConfig.PrizeDistribution = []float64{0.5}

		vrf := new(testhelpers.MockVRFEngine)
		vrf.On("SelectWinner", mock.Anything, mock.Anything, mock.Anything).
			Return(&entities.WinnerDraw{Winner: "p1", Index: 0, Proof: &entities.VRFResult{RequestID: "req-1"}}, nil).Once()

		strategy := &lotteryStrategy{vrfEngine: vrf}
		allocations, _, err := strategy.Allocate(ctx, pool, "round-1")
		require.NoError(t, err)
		require.Len(t, allocations, 1)
	})

	t.Run("prize distribution must cover every draw position", func(t *testing.T) {
		pool := testRewardPool(1000,
			&entities.Participant{ID: "p1"},
			&entities.Participant{ID: "p2"},
		)
		pool.StrategyConfig.WinnerCount = 2
		pool.StrategyConfig.PrizeDistribution = []float64{0.5}

		strategy := &lotteryStrategy{vrfEngine: new(testhelpers.MockVRFEngine)}
		_, _, err := strategy.Allocate(ctx, pool, "round-1")
		assert.Error(t, err)
	})
}

func TestComputeBonuses(t *testing.T) {
	pool := testRewardPool(1000,
		&entities.Participant{ID: "p1", LoyaltyTier: "gold", Streak: entities.StreakData{Current: 5}, Referral: entities.ReferralData{ReferrerID: "p2"}},
		&entities.Participant{ID: "p2", LoyaltyTier: "bronze"},
	)
	pool.Bonuses = entities.BonusConfig{
		LoyaltyTierMultipliers: map[string]float64{"gold": 1.5},
		StreakThreshold:        3,
		StreakMultiplier:       1.25,
		ReferralRate:           0.05,
	}

	allocations := []*entities.Allocation{
		{ParticipantID: "p1", Amount: decimal.NewFromInt(500)},
	}

	bonuses := computeBonuses(pool, allocations)
	require.Len(t, bonuses, 3)

	byType := make(map[entities.BonusType]*entities.Bonus)
	for _, b := range bonuses {
		byType[b.Type] = b
	}

	// Each layer stacks on the base allocation, never on other bonuses
	assert.True(t, byType[entities.BonusTypeLoyalty].Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "p1", byType[entities.BonusTypeLoyalty].ParticipantID)
	assert.True(t, byType[entities.BonusTypeStreak].Amount.Equal(decimal.NewFromInt(125)))
	assert.True(t, byType[entities.BonusTypeReferral].Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "p2", byType[entities.BonusTypeReferral].ParticipantID, "referral bonus goes to the referrer")
}

func TestComputeBonuses_NoQualifyingLayers(t *testing.T) {
	pool := testRewardPool(1000,
		&entities.Participant{ID: "p1", LoyaltyTier: "bronze", Streak: entities.StreakData{Current: 1}},
	)
	pool.Bonuses = entities.BonusConfig{
		LoyaltyTierMultipliers: map[string]float64{"gold": 1.5},
		StreakThreshold:        3,
		StreakMultiplier:       1.25,
		ReferralRate:           0.05,
	}

	bonuses := computeBonuses(pool, []*entities.Allocation{{ParticipantID: "p1", Amount: decimal.NewFromInt(500)}})
	assert.Empty(t, bonuses)
}

func TestCapBonuses(t *testing.T) {
	bonuses := []*entities.Bonus{
		{Type: entities.BonusTypeLoyalty, ParticipantID: "p1", Amount: decimal.NewFromInt(60)},
		{Type: entities.BonusTypeStreak, ParticipantID: "p1", Amount: decimal.NewFromInt(50)},
		{Type: entities.BonusTypeReferral, ParticipantID: "p2", Amount: decimal.NewFromInt(30)},
	}

	t.Run("all bonuses fit", func(t *testing.T) {
		kept, dropped := capBonuses(bonuses, decimal.NewFromInt(200))
		assert.Len(t, kept, 3)
		assert.Zero(t, dropped)
	})

	t.Run("overflowing bonus dropped, later smaller one kept", func(t *testing.T) {
		kept, dropped := capBonuses(bonuses, decimal.NewFromInt(95))
		require.Len(t, kept, 2)
		assert.Equal(t, entities.BonusTypeLoyalty, kept[0].Type)
		assert.Equal(t, entities.BonusTypeReferral, kept[1].Type)
		assert.Equal(t, 1, dropped)
	})

	t.Run("zero budget drops everything", func(t *testing.T) {
		kept, dropped := capBonuses(bonuses, decimal.Zero)
		assert.Empty(t, kept)
		assert.Equal(t, 3, dropped)
	})
}
