package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CommandListener translates command messages from the bus into service
// calls. Command processing is at-least-once; rejected commands are logged
// and acknowledged, only transport-level failures are redelivered.
type CommandListener struct {
	bettingPools interfaces.BettingPoolService
	rewards      interfaces.RewardDistributor
	monitor      interfaces.AntiManipulationMonitor
}

// NewCommandListener creates a command listener over the core services
func NewCommandListener(
	bettingPools interfaces.BettingPoolService,
	rewards interfaces.RewardDistributor,
	monitor interfaces.AntiManipulationMonitor,
) *CommandListener {
	return &CommandListener{
		bettingPools: bettingPools,
		rewards:      rewards,
		monitor:      monitor,
	}
}

// CreatePoolCommand requests a new betting pool
type CreatePoolCommand struct {
	Outcomes  []*entities.OutcomeSpec      `json:"outcomes"`
	HouseEdge float64                      `json:"houseEdge"`
	ClosesAt  time.Time                    `json:"closesAt"`
	Selection entities.WinnerSelectionMode `json:"winnerSelection,omitempty"`
}

// PlaceBetCommand requests one bet placement
type PlaceBetCommand struct {
	UserID     string          `json:"userId"`
	UserWallet string          `json:"userWallet"`
	PoolID     string          `json:"poolId"`
	OutcomeID  string          `json:"outcomeId"`
	Amount     decimal.Decimal `json:"amount"`
}

// SettlePoolCommand settles a pool. An empty winning outcome requests a
// random draw.
type SettlePoolCommand struct {
	PoolID         string `json:"poolId"`
	WinningOutcome string `json:"winningOutcome,omitempty"`
}

// CreateRewardPoolCommand requests a new reward pool
type CreateRewardPoolCommand struct {
	TotalAmount decimal.Decimal              `json:"totalAmount"`
	Type        entities.DistributionType    `json:"distributionType"`
	Eligibility entities.EligibilityCriteria `json:"eligibilityCriteria"`
	Bonuses     entities.BonusConfig         `json:"bonusConfigs"`
	Strategy    entities.StrategyConfig      `json:"strategyConfig"`
}

// AddParticipantCommand admits a participant to a reward pool
type AddParticipantCommand struct {
	RewardPoolID string                `json:"rewardPoolId"`
	Participant  *entities.Participant `json:"participant"`
}

// DistributeRewardsCommand runs one distribution round
type DistributeRewardsCommand struct {
	RewardPoolID string `json:"rewardPoolId"`
	Trigger      string `json:"trigger"`
}

func (l *CommandListener) HandleCreatePool(ctx context.Context, data []byte) error {
	var cmd CreatePoolCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal create pool command: %w", err)
	}

	pool, err := l.bettingPools.CreatePool(ctx, cmd.Outcomes, cmd.HouseEdge, cmd.ClosesAt, cmd.Selection)
	if err != nil {
		log.WithError(err).Warn("Create pool command rejected")
		return nil
	}
	log.WithField("poolId", pool.ID).Info("Created pool from command")
	return nil
}

func (l *CommandListener) HandlePlaceBet(ctx context.Context, data []byte) error {
	var cmd PlaceBetCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal place bet command: %w", err)
	}

	if _, err := l.bettingPools.PlaceBet(ctx, cmd.UserID, cmd.UserWallet, cmd.PoolID, cmd.OutcomeID, cmd.Amount); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"userId": cmd.UserID,
			"poolId": cmd.PoolID,
		}).Warn("Place bet command rejected")
	}
	return nil
}

func (l *CommandListener) HandleClosePool(ctx context.Context, data []byte) error {
	var cmd struct {
		PoolID string `json:"poolId"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal close pool command: %w", err)
	}

	if err := l.bettingPools.ClosePool(ctx, cmd.PoolID); err != nil {
		log.WithError(err).WithField("poolId", cmd.PoolID).Warn("Close pool command rejected")
	}
	return nil
}

func (l *CommandListener) HandleSettlePool(ctx context.Context, data []byte) error {
	var cmd SettlePoolCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal settle pool command: %w", err)
	}

	var err error
	if cmd.WinningOutcome == "" {
		_, err = l.bettingPools.SettleRandom(ctx, cmd.PoolID)
	} else {
		_, err = l.bettingPools.SettlePool(ctx, cmd.PoolID, cmd.WinningOutcome)
	}
	if err != nil {
		log.WithError(err).WithField("poolId", cmd.PoolID).Warn("Settle pool command rejected")
	}
	return nil
}

func (l *CommandListener) HandleCreateRewardPool(ctx context.Context, data []byte) error {
	var cmd CreateRewardPoolCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal create reward pool command: %w", err)
	}

	pool, err := l.rewards.CreateRewardPool(ctx, cmd.TotalAmount, cmd.Type, cmd.Eligibility, cmd.Bonuses, cmd.Strategy)
	if err != nil {
		log.WithError(err).Warn("Create reward pool command rejected")
		return nil
	}
	log.WithField("rewardPoolId", pool.ID).Info("Created reward pool from command")
	return nil
}

func (l *CommandListener) HandleAddParticipant(ctx context.Context, data []byte) error {
	var cmd AddParticipantCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal add participant command: %w", err)
	}

	if _, err := l.rewards.AddParticipant(ctx, cmd.RewardPoolID, cmd.Participant); err != nil {
		log.WithError(err).WithField("rewardPoolId", cmd.RewardPoolID).Warn("Add participant command rejected")
	}
	return nil
}

func (l *CommandListener) HandleDistributeRewards(ctx context.Context, data []byte) error {
	var cmd DistributeRewardsCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal distribute rewards command: %w", err)
	}

	if _, err := l.rewards.DistributeRewards(ctx, cmd.RewardPoolID, cmd.Trigger); err != nil {
		log.WithError(err).WithField("rewardPoolId", cmd.RewardPoolID).Warn("Distribute rewards command rejected")
	}
	return nil
}

func (l *CommandListener) HandleMarketEvent(ctx context.Context, data []byte) error {
	var event entities.MarketEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal market event: %w", err)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.monitor.RecordMarketEvent(&event)
	return nil
}

func (l *CommandListener) HandleAccountCreated(ctx context.Context, data []byte) error {
	var account struct {
		UserID    string    `json:"userId"`
		Wallet    string    `json:"wallet"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return fmt.Errorf("failed to unmarshal account created message: %w", err)
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	l.monitor.RecordAccountCreated(account.UserID, account.Wallet, account.CreatedAt)
	return nil
}
