package services

import (
	"testing"
	"time"

	"fairbook/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID, wallet, poolID, outcomeID string, amount int64, ts time.Time) *entities.BetRecord {
	return &entities.BetRecord{
		UserID:    userID,
		Wallet:    wallet,
		PoolID:    poolID,
		OutcomeID: outcomeID,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: ts,
	}
}

func TestRapidBettingDetector(t *testing.T) {
	now := time.Now()
	d := &rapidBettingDetector{threshold: 10, window: 60 * time.Second, severity: entities.AlertSeverityMedium}

	history := func(count int) []*entities.BetRecord {
		bets := make([]*entities.BetRecord, 0, count)
		for i := 0; i < count; i++ {
			bets = append(bets, record("u1", "w1", "pool-1", "yes", int64(10+i), now.Add(-time.Duration(55-i*5)*time.Second)))
		}
		return bets
	}

	t.Run("burst at the threshold trips", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 10, now),
			userBets:  history(9),
			now:       now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeRapidBetting, alert.Type)
		assert.Equal(t, entities.AlertSeverityMedium, alert.Severity)
		assert.Equal(t, 10, alert.Evidence["count"])
	})

	t.Run("below the threshold stays quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 10, now),
			userBets:  history(8),
			now:       now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("old bets fall out of the window", func(t *testing.T) {
		bets := make([]*entities.BetRecord, 0, 9)
		for i := 0; i < 9; i++ {
			bets = append(bets, record("u1", "w1", "pool-1", "yes", 10, now.Add(-time.Duration(i+2)*time.Minute)))
		}
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 10, now),
			userBets:  bets,
			now:       now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestCoordinationDetector(t *testing.T) {
	now := time.Now()
	d := &coordinationDetector{minWallets: 3, window: 5 * time.Minute, threshold: 0.7, severity: entities.AlertSeverityHigh}

	t.Run("identical stakes from distinct wallets in a tight burst", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u3", "w3", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-5*time.Second)),
				record("u2", "w2", "pool-1", "yes", 100, now.Add(-3*time.Second)),
			},
			now: now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeCoordinatedBetting, alert.Type)
		assert.Equal(t, entities.AlertSeverityHigh, alert.Severity)
		assert.Equal(t, 3, alert.Evidence["wallets"])
	})

	t.Run("diverse stakes spread over the window stay quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u3", "w3", "pool-1", "yes", 1000, now),
			poolBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 10, now.Add(-4*time.Minute)),
				record("u2", "w2", "pool-1", "yes", 500, now.Add(-2*time.Minute)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("too few wallets stay quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u2", "w2", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-time.Second)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("other outcomes do not count", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u4", "w4", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "no", 100, now.Add(-time.Second)),
				record("u2", "w2", "pool-1", "no", 100, now.Add(-time.Second)),
				record("u3", "w3", "pool-1", "no", 100, now.Add(-time.Second)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestWashTradingDetector(t *testing.T) {
	now := time.Now()
	d := &washTradingDetector{threshold: 0.8, severity: entities.AlertSeverityCritical}

	t.Run("near-equal opposing stakes trip critically", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "no", 95, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-time.Minute)),
			},
			now: now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeWashTrading, alert.Type)
		assert.Equal(t, entities.AlertSeverityCritical, alert.Severity)
	})

	t.Run("lopsided stakes stay quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "no", 10, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 500, now.Add(-time.Minute)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("single-sided position stays quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-time.Minute)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("opposing stakes in another pool do not count", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "no", 95, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-2", "yes", 100, now.Add(-time.Minute)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestInsiderTradingDetector(t *testing.T) {
	now := time.Now()
	d := &insiderTradingDetector{threshold: 0.75, eventWindow: 2 * time.Minute, severity: entities.AlertSeverityHigh}

	t.Run("bets consistently ahead of events trip", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-31*time.Minute)),
				record("u1", "w1", "pool-2", "yes", 100, now.Add(-21*time.Minute)),
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-11*time.Minute)),
			},
			events: []*entities.MarketEvent{
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-30 * time.Minute)},
				{PoolID: "pool-2", Kind: "outcome_news", Timestamp: now.Add(-20 * time.Minute)},
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-10 * time.Minute)},
			},
			now: now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeInsiderTrading, alert.Type)
		assert.Equal(t, entities.AlertSeverityHigh, alert.Severity)
	})

	t.Run("oversized candidate stake amplifies borderline suspicion", func(t *testing.T) {
		snap := &historySnapshot{
			// 3 of 4 bets land ahead of events, right at the threshold
			candidate: record("u1", "w1", "pool-1", "yes", 250, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-31*time.Minute)),
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-21*time.Minute)),
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-11*time.Minute)),
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-5*time.Minute)),
			},
			events: []*entities.MarketEvent{
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-30 * time.Minute)},
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-20 * time.Minute)},
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-10 * time.Minute)},
			},
			now: now,
		}

		require.NotNil(t, d.Detect(snap), "0.75 suspicion times 1.25 clears the threshold")

		// The same history with a normal-sized stake stays quiet
		snap.candidate = record("u1", "w1", "pool-1", "yes", 100, now)
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("bets after events stay quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-29*time.Minute)),
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-19*time.Minute)),
			},
			events: []*entities.MarketEvent{
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-30 * time.Minute)},
				{PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(-20 * time.Minute)},
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("no events means nothing to correlate", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 100, now.Add(-time.Minute)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestAccountFarmingDetector(t *testing.T) {
	now := time.Now()
	d := &accountFarmingDetector{minAccountAge: 24 * time.Hour, minSimilar: 3, threshold: 0.8, severity: entities.AlertSeverityHigh}

	youngAccounts := map[string]accountInfo{
		"u1": {wallet: "w1", createdAt: now.Add(-time.Hour)},
		"u2": {wallet: "w2", createdAt: now.Add(-2 * time.Hour)},
		"u3": {wallet: "w3", createdAt: now.Add(-3 * time.Hour)},
		"u4": {wallet: "w4", createdAt: now.Add(-90 * time.Minute)},
	}

	t.Run("cluster of young accounts with near-identical stakes", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u2", "w2", "pool-1", "yes", 95, now.Add(-time.Minute)),
				record("u3", "w3", "pool-1", "yes", 100, now.Add(-time.Minute)),
				record("u4", "w4", "pool-1", "yes", 105, now.Add(-time.Minute)),
			},
			accounts: youngAccounts,
			now:      now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeAccountFarming, alert.Type)
		assert.Equal(t, entities.AlertSeverityHigh, alert.Severity)
		assert.Equal(t, 3, alert.Evidence["similarAccounts"])
	})

	t.Run("aged candidate account stays quiet", func(t *testing.T) {
		accounts := map[string]accountInfo{
			"u1": {wallet: "w1", createdAt: now.Add(-48 * time.Hour)},
		}
		for id, info := range youngAccounts {
			if id != "u1" {
				accounts[id] = info
			}
		}

		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u2", "w2", "pool-1", "yes", 100, now.Add(-time.Minute)),
				record("u3", "w3", "pool-1", "yes", 100, now.Add(-time.Minute)),
				record("u4", "w4", "pool-1", "yes", 100, now.Add(-time.Minute)),
			},
			accounts: accounts,
			now:      now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("dissimilar stakes stay quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 100, now),
			poolBets: []*entities.BetRecord{
				record("u2", "w2", "pool-1", "yes", 10, now.Add(-time.Minute)),
				record("u3", "w3", "pool-1", "yes", 900, now.Add(-time.Minute)),
				record("u4", "w4", "pool-1", "yes", 5000, now.Add(-time.Minute)),
			},
			accounts: youngAccounts,
			now:      now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestBotActivityDetector(t *testing.T) {
	now := time.Now()
	d := &botActivityDetector{cvThreshold: 0.1, scoreThreshold: 0.7, severity: entities.AlertSeverityMedium}

	t.Run("metronomic identical bets trip", func(t *testing.T) {
		bets := make([]*entities.BetRecord, 0, 9)
		for i := 0; i < 9; i++ {
			bets = append(bets, record("u1", "w1", "pool-1", "yes", 50, now.Add(time.Duration(i-9)*10*time.Second)))
		}
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 50, now),
			userBets:  bets,
			now:       now,
		}

		alert := d.Detect(snap)
		require.NotNil(t, alert)
		assert.Equal(t, entities.AlertTypeBotActivity, alert.Type)
		assert.Equal(t, entities.AlertSeverityMedium, alert.Severity)
	})

	t.Run("human-like irregular betting stays quiet", func(t *testing.T) {
		offsets := []time.Duration{-55 * time.Minute, -49 * time.Minute, -30 * time.Minute, -29 * time.Minute, -10 * time.Minute, -2 * time.Minute}
		bets := make([]*entities.BetRecord, 0, len(offsets))
		for i, offset := range offsets {
			bets = append(bets, record("u1", "w1", "pool-1", "yes", int64(20+i*17), now.Add(offset)))
		}
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 333, now),
			userBets:  bets,
			now:       now,
		}
		assert.Nil(t, d.Detect(snap))
	})

	t.Run("too little history stays quiet", func(t *testing.T) {
		snap := &historySnapshot{
			candidate: record("u1", "w1", "pool-1", "yes", 50, now),
			userBets: []*entities.BetRecord{
				record("u1", "w1", "pool-1", "yes", 50, now.Add(-10*time.Second)),
				record("u1", "w1", "pool-1", "yes", 50, now.Add(-20*time.Second)),
				record("u1", "w1", "pool-1", "yes", 50, now.Add(-30*time.Second)),
			},
			now: now,
		}
		assert.Nil(t, d.Detect(snap))
	})
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Zero(t, coefficientOfVariation(nil))
	assert.Zero(t, coefficientOfVariation([]float64{5}))
	assert.Zero(t, coefficientOfVariation([]float64{10, 10, 10}))
	assert.InDelta(t, 0.4082, coefficientOfVariation([]float64{1, 2, 3}), 0.001)
}

func TestRelativeSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, relativeSimilarity(100, 100))
	assert.Equal(t, 1.0, relativeSimilarity(0, 0))
	assert.InDelta(t, 0.95, relativeSimilarity(95, 100), 0.0001)
	assert.InDelta(t, 0.1, relativeSimilarity(10, 100), 0.0001)
}
