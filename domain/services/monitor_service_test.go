package services

import (
	"context"
	"testing"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
	"fairbook/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type monitorFixture struct {
	monitor   interfaces.AntiManipulationMonitor
	alertRepo *testhelpers.MockAlertRepository
	notifier  *testhelpers.MockAlertNotifier
	publisher *testhelpers.MockEventPublisher
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	f := &monitorFixture{
		alertRepo: new(testhelpers.MockAlertRepository),
		notifier:  new(testhelpers.MockAlertNotifier),
		publisher: new(testhelpers.MockEventPublisher),
	}
	f.alertRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.publisher.On("Publish", mock.Anything).Return(nil).Maybe()

	f.monitor = NewAntiManipulationMonitor(f.alertRepo, f.notifier, f.publisher)
	return f
}

// irregularBurst records count bets inside the rapid-betting window with
// human-like irregular spacing and varied stakes, so only the burst count
// itself is suspicious.
func (f *monitorFixture) irregularBurst(ctx context.Context, userID, poolID, outcomeID string, count int) {
	now := time.Now()
	offsets := []time.Duration{-55, -47, -44, -36, -31, -23, -20, -12, -7, -3}
	for i := 0; i < count; i++ {
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID:    userID,
			Wallet:    "wallet-" + userID,
			PoolID:    poolID,
			OutcomeID: outcomeID,
			Amount:    decimal.NewFromInt(int64(10 + i*13)),
			Timestamp: now.Add(offsets[i%len(offsets)] * time.Second),
		})
	}
}

func TestMonitorEvaluate(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("clean bet passes with zero risk", func(t *testing.T) {
		f := newMonitorFixture(t)

		result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(100), Timestamp: time.Now(),
		})
		require.NoError(t, err)

		assert.True(t, result.Allowed)
		assert.Empty(t, result.Alerts)
		assert.Zero(t, result.RiskScore)
	})

	t.Run("rapid betting burst raises a medium alert but allows the bet", func(t *testing.T) {
		f := newMonitorFixture(t)
		f.irregularBurst(ctx, "u1", "pool-1", "yes", 9)

		result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "wallet-u1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(777), Timestamp: time.Now(),
		})
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, entities.AlertTypeRapidBetting, result.Alerts[0].Type)
		assert.Equal(t, entities.AlertActionRateLimit, result.Alerts[0].ActionTaken)
		assert.Equal(t, 0.5, result.RiskScore)
		assert.True(t, result.Allowed, "medium severity does not block")
	})

	t.Run("wash trading suspends the user and blocks the bet", func(t *testing.T) {
		f := newMonitorFixture(t)
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(100), Timestamp: time.Now().Add(-time.Minute),
		})

		result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "no",
			Amount: decimal.NewFromInt(95), Timestamp: time.Now(),
		})
		require.NoError(t, err)

		assert.False(t, result.Allowed)
		require.Len(t, result.Alerts, 1)
		assert.Equal(t, entities.AlertTypeWashTrading, result.Alerts[0].Type)
		assert.Equal(t, entities.AlertActionSuspend, result.Alerts[0].ActionTaken)
		assert.Equal(t, 1.0, result.RiskScore)
		assert.True(t, f.monitor.IsSuspended("u1"))

		f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.Anything)
		f.alertRepo.AssertCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("suspended user short-circuits", func(t *testing.T) {
		f := newMonitorFixture(t)
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(100), Timestamp: time.Now().Add(-time.Minute),
		})
		_, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "no",
			Amount: decimal.NewFromInt(95), Timestamp: time.Now(),
		})
		require.NoError(t, err)
		require.True(t, f.monitor.IsSuspended("u1"))

		result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-2", OutcomeID: "yes",
			Amount: decimal.NewFromInt(10), Timestamp: time.Now(),
		})
		require.NoError(t, err)

		assert.False(t, result.Allowed)
		assert.Equal(t, 1.0, result.RiskScore)
		assert.Empty(t, result.Alerts, "detectors never run for a suspended user")
	})

	t.Run("repeat alert suppressed within the cooldown", func(t *testing.T) {
		f := newMonitorFixture(t)
		f.irregularBurst(ctx, "u1", "pool-1", "yes", 9)

		bet := &entities.BetRecord{
			UserID: "u1", Wallet: "wallet-u1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(777), Timestamp: time.Now(),
		}
		first, err := f.monitor.Evaluate(ctx, "u1", bet)
		require.NoError(t, err)
		require.Len(t, first.Alerts, 1)

		second, err := f.monitor.Evaluate(ctx, "u1", bet)
		require.NoError(t, err)

		assert.Empty(t, second.Alerts)
		assert.Zero(t, second.RiskScore)
		assert.True(t, second.Allowed)
	})

	t.Run("risk score averages the accepted alerts", func(t *testing.T) {
		f := newMonitorFixture(t)

		// Burst on the candidate's pool, with one opposing stake so both the
		// rapid-betting and wash-trading detectors fire
		f.irregularBurst(ctx, "u1", "pool-1", "yes", 8)
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: "u1", Wallet: "wallet-u1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(9), Timestamp: time.Now().Add(-40 * time.Second),
		})

		sameSide := decimal.Zero
		for i := 0; i < 8; i++ {
			sameSide = sameSide.Add(decimal.NewFromInt(int64(10 + i*13)))
		}
		// Opposing candidate stake close to the accumulated same-side total
		result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "wallet-u1", PoolID: "pool-1", OutcomeID: "no",
			Amount: sameSide.Add(decimal.NewFromInt(9)).Mul(decimal.RequireFromString("0.95")).Round(0),
			Timestamp: time.Now(),
		})
		require.NoError(t, err)

		require.Len(t, result.Alerts, 2)
		assert.Equal(t, entities.AlertTypeRapidBetting, result.Alerts[0].Type)
		assert.Equal(t, entities.AlertTypeWashTrading, result.Alerts[1].Type)
		assert.Equal(t, 0.75, result.RiskScore, "mean of 0.5 and 1.0")
		assert.False(t, result.Allowed)
	})
}

func TestMonitorRecordMarketEvent(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newMonitorFixture(t)

	now := time.Now()
	for i := 0; i < 3; i++ {
		offset := time.Duration(-31+i*10) * time.Minute
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(int64(100 + i*7)), Timestamp: now.Add(offset),
		})
		f.monitor.RecordMarketEvent(&entities.MarketEvent{
			PoolID: "pool-1", Kind: "odds_shift", Timestamp: now.Add(offset + time.Minute),
		})
	}

	result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
		UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
		Amount: decimal.NewFromInt(110), Timestamp: now,
	})
	require.NoError(t, err)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, entities.AlertTypeInsiderTrading, result.Alerts[0].Type)
	assert.Equal(t, entities.AlertActionRestrict, result.Alerts[0].ActionTaken)
	assert.False(t, f.monitor.IsSuspended("u1"), "high severity restricts, not suspends")
}

func TestMonitorRecordAccountCreated(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newMonitorFixture(t)

	now := time.Now()
	users := []string{"u1", "u2", "u3", "u4"}
	for i, userID := range users {
		f.monitor.RecordAccountCreated(userID, "wallet-"+userID, now.Add(-time.Duration(i+1)*time.Hour))
	}
	for _, userID := range users[1:] {
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: userID, Wallet: "wallet-" + userID, PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(100), Timestamp: now.Add(-time.Minute),
		})
	}

	result, err := f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
		UserID: "u1", Wallet: "wallet-u1", PoolID: "pool-1", OutcomeID: "yes",
		Amount: decimal.NewFromInt(100), Timestamp: now,
	})
	require.NoError(t, err)

	var farming *entities.Alert
	for _, alert := range result.Alerts {
		if alert.Type == entities.AlertTypeAccountFarming {
			farming = alert
		}
	}
	require.NotNil(t, farming)
	assert.Equal(t, entities.AlertSeverityHigh, farming.Severity)
}

func TestMonitoringRules(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	washCandidate := func(f *monitorFixture) (*entities.EvaluationResult, error) {
		f.monitor.RecordBet(ctx, &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "yes",
			Amount: decimal.NewFromInt(100), Timestamp: time.Now().Add(-time.Minute),
		})
		return f.monitor.Evaluate(ctx, "u1", &entities.BetRecord{
			UserID: "u1", Wallet: "w1", PoolID: "pool-1", OutcomeID: "no",
			Amount: decimal.NewFromInt(95), Timestamp: time.Now(),
		})
	}

	t.Run("disabling a rule removes its detector", func(t *testing.T) {
		f := newMonitorFixture(t)
		rules := defaultMonitoringRules(config.Get())
		for i := range rules {
			if rules[i].Type == entities.AlertTypeWashTrading {
				rules[i].Enabled = false
			}
		}
		f.monitor = NewAntiManipulationMonitorWithRules(rules, f.alertRepo, f.notifier, f.publisher)

		result, err := washCandidate(f)
		require.NoError(t, err)

		assert.True(t, result.Allowed)
		assert.Empty(t, result.Alerts)
		assert.False(t, f.monitor.IsSuspended("u1"))
	})

	t.Run("rule severity and action govern the alert", func(t *testing.T) {
		f := newMonitorFixture(t)
		rules := []entities.MonitoringRule{{
			ID:        "rule-wash-trading",
			Type:      entities.AlertTypeWashTrading,
			Threshold: 0.8,
			Severity:  entities.AlertSeverityMedium,
			Action:    entities.AlertActionMonitor,
			Enabled:   true,
		}}
		f.monitor = NewAntiManipulationMonitorWithRules(rules, f.alertRepo, f.notifier, f.publisher)

		result, err := washCandidate(f)
		require.NoError(t, err)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, entities.AlertSeverityMedium, result.Alerts[0].Severity)
		assert.Equal(t, entities.AlertActionMonitor, result.Alerts[0].ActionTaken)
		assert.True(t, result.Allowed, "demoted rule no longer blocks")
		assert.False(t, f.monitor.IsSuspended("u1"))
	})

	t.Run("default rules cover every detector", func(t *testing.T) {
		rules := defaultMonitoringRules(config.Get())
		require.Len(t, rules, 6)

		seen := make(map[entities.AlertType]bool)
		for _, rule := range rules {
			assert.True(t, rule.Enabled, "rule %s", rule.ID)
			seen[rule.Type] = true
		}
		assert.Len(t, seen, 6)
	})
}
