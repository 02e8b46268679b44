package testhelpers

import (
	"context"
	"time"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
	"fairbook/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPoolRepository is a mock implementation of PoolRepository
type MockPoolRepository struct {
	mock.Mock
}

func (m *MockPoolRepository) Save(ctx context.Context, pool *entities.Pool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockPoolRepository) Get(ctx context.Context, id string) (*entities.Pool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pool), args.Error(1)
}

func (m *MockPoolRepository) AppendBetLog(ctx context.Context, bet *entities.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockPoolRepository) ListPoolIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPoolRepository) GetBetLog(ctx context.Context, poolID string) ([]*entities.Bet, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bet), args.Error(1)
}

// MockRewardPoolRepository is a mock implementation of RewardPoolRepository
type MockRewardPoolRepository struct {
	mock.Mock
}

func (m *MockRewardPoolRepository) Save(ctx context.Context, pool *entities.RewardPool) error {
	args := m.Called(ctx, pool)
	return args.Error(0)
}

func (m *MockRewardPoolRepository) Get(ctx context.Context, id string) (*entities.RewardPool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

func (m *MockRewardPoolRepository) AppendDistributionLog(ctx context.Context, dist *entities.Distribution) error {
	args := m.Called(ctx, dist)
	return args.Error(0)
}

// MockAlertRepository is a mock implementation of AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Append(ctx context.Context, alert *entities.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Alert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Alert), args.Error(1)
}

// MockEntropySource is a mock implementation of EntropySource
type MockEntropySource struct {
	mock.Mock
}

func (m *MockEntropySource) GetSlot(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockEntropySource) GetRecentBlockHash(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockSettlementExecutor is a mock implementation of SettlementExecutor
type MockSettlementExecutor struct {
	mock.Mock
}

func (m *MockSettlementExecutor) Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal, currency string) (*interfaces.TransferReceipt, error) {
	args := m.Called(ctx, walletAddress, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.TransferReceipt), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockAlertNotifier is a mock implementation of AlertNotifier
type MockAlertNotifier struct {
	mock.Mock
}

func (m *MockAlertNotifier) Notify(ctx context.Context, alert *entities.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockEligibilityChecker is a mock implementation of EligibilityChecker
type MockEligibilityChecker struct {
	mock.Mock
}

func (m *MockEligibilityChecker) IsEligible(participant *entities.Participant, criteria entities.EligibilityCriteria) bool {
	args := m.Called(participant, criteria)
	return args.Bool(0)
}

// MockVRFEngine is a mock implementation of VRFEngine
type MockVRFEngine struct {
	mock.Mock
}

func (m *MockVRFEngine) Generate(ctx context.Context, seed string, min, max int64) (*entities.VRFResult, error) {
	args := m.Called(ctx, seed, min, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VRFResult), args.Error(1)
}

func (m *MockVRFEngine) Verify(result *entities.VRFResult) bool {
	args := m.Called(result)
	return args.Bool(0)
}

func (m *MockVRFEngine) SelectWinner(ctx context.Context, participants []string, seed string) (*entities.WinnerDraw, error) {
	args := m.Called(ctx, participants, seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WinnerDraw), args.Error(1)
}

func (m *MockVRFEngine) SelectWeighted(ctx context.Context, options []string, weights []int64, seed string) (string, *entities.VRFResult, error) {
	args := m.Called(ctx, options, weights, seed)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*entities.VRFResult), args.Error(2)
}

func (m *MockVRFEngine) SelectBatch(ctx context.Context, requests []entities.RandomnessRequest) ([]*entities.VRFResult, error) {
	args := m.Called(ctx, requests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.VRFResult), args.Error(1)
}

func (m *MockVRFEngine) GetResult(requestID string) *entities.VRFResult {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*entities.VRFResult)
}

func (m *MockVRFEngine) PublicKey() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

// MockAntiManipulationMonitor is a mock implementation of AntiManipulationMonitor
type MockAntiManipulationMonitor struct {
	mock.Mock
}

func (m *MockAntiManipulationMonitor) Evaluate(ctx context.Context, userID string, bet *entities.BetRecord) (*entities.EvaluationResult, error) {
	args := m.Called(ctx, userID, bet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EvaluationResult), args.Error(1)
}

func (m *MockAntiManipulationMonitor) RecordBet(ctx context.Context, bet *entities.BetRecord) {
	m.Called(ctx, bet)
}

func (m *MockAntiManipulationMonitor) RecordAccountCreated(userID, wallet string, createdAt time.Time) {
	m.Called(userID, wallet, createdAt)
}

func (m *MockAntiManipulationMonitor) RecordMarketEvent(event *entities.MarketEvent) {
	m.Called(event)
}

func (m *MockAntiManipulationMonitor) IsSuspended(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

// MockBettingPoolService is a mock implementation of BettingPoolService
type MockBettingPoolService struct {
	mock.Mock
}

func (m *MockBettingPoolService) CreatePool(ctx context.Context, outcomes []*entities.OutcomeSpec, houseEdge float64, closesAt time.Time, selection entities.WinnerSelectionMode) (*entities.Pool, error) {
	args := m.Called(ctx, outcomes, houseEdge, closesAt, selection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pool), args.Error(1)
}

func (m *MockBettingPoolService) PlaceBet(ctx context.Context, userID, userWallet, poolID, outcomeID string, amount decimal.Decimal) (*entities.Bet, error) {
	args := m.Called(ctx, userID, userWallet, poolID, outcomeID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Bet), args.Error(1)
}

func (m *MockBettingPoolService) ClosePool(ctx context.Context, poolID string) error {
	args := m.Called(ctx, poolID)
	return args.Error(0)
}

func (m *MockBettingPoolService) SettlePool(ctx context.Context, poolID, winningOutcomeID string) (*interfaces.SettlementReport, error) {
	args := m.Called(ctx, poolID, winningOutcomeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SettlementReport), args.Error(1)
}

func (m *MockBettingPoolService) SettleRandom(ctx context.Context, poolID string) (*interfaces.SettlementReport, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SettlementReport), args.Error(1)
}

func (m *MockBettingPoolService) GetPool(ctx context.Context, poolID string) (*entities.Pool, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pool), args.Error(1)
}

func (m *MockBettingPoolService) CloseExpiredPools(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRewardDistributor is a mock implementation of RewardDistributor
type MockRewardDistributor struct {
	mock.Mock
}

func (m *MockRewardDistributor) CreateRewardPool(ctx context.Context, totalAmount decimal.Decimal, distType entities.DistributionType, eligibility entities.EligibilityCriteria, bonuses entities.BonusConfig, strategy entities.StrategyConfig) (*entities.RewardPool, error) {
	args := m.Called(ctx, totalAmount, distType, eligibility, bonuses, strategy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

func (m *MockRewardDistributor) AddParticipant(ctx context.Context, poolID string, participant *entities.Participant) (*entities.Participant, error) {
	args := m.Called(ctx, poolID, participant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participant), args.Error(1)
}

func (m *MockRewardDistributor) DistributeRewards(ctx context.Context, poolID, trigger string) (*entities.Distribution, error) {
	args := m.Called(ctx, poolID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Distribution), args.Error(1)
}

func (m *MockRewardDistributor) GetRewardPool(ctx context.Context, poolID string) (*entities.RewardPool, error) {
	args := m.Called(ctx, poolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}
