package interfaces

import (
	"context"
	"time"

	"fairbook/domain/entities"

	"github.com/shopspring/decimal"
)

// VRFEngine produces and verifies provably-fair randomness
type VRFEngine interface {
	// Generate draws a verified random value in [min, max] from the caller
	// seed plus external chain entropy. The result is self-verified before
	// being returned and never returned unverified.
	Generate(ctx context.Context, seed string, min, max int64) (*entities.VRFResult, error)

	// Verify recomputes the proof chain for a result; any mismatch is false
	Verify(result *entities.VRFResult) bool

	// SelectWinner draws one winner index over the participant list
	SelectWinner(ctx context.Context, participants []string, seed string) (*entities.WinnerDraw, error)

	// SelectWeighted draws one option with probability proportional to weight
	SelectWeighted(ctx context.Context, options []string, weights []int64, seed string) (string, *entities.VRFResult, error)

	// SelectBatch performs independent sequential draws, one per request
	SelectBatch(ctx context.Context, requests []entities.RandomnessRequest) ([]*entities.VRFResult, error)

	// GetResult returns a cached result by request ID, nil if expired/unknown
	GetResult(requestID string) *entities.VRFResult

	// PublicKey returns the engine's long-lived verification key
	PublicKey() []byte
}

// SettlementReport summarizes the outcome of settling one betting pool
type SettlementReport struct {
	Pool           *entities.Pool
	WinningOutcome string
	HouseTake      decimal.Decimal
	PayoutPool     decimal.Decimal
	Winners        []*entities.Bet
	Successful     int
	Failed         int
	Failures       []*entities.TransferFailure
	Proof          *entities.VRFResult // set when the winner was drawn randomly
}

// BettingPoolService owns pool lifecycle, bet acceptance, odds recalculation
// and settlement payout computation
type BettingPoolService interface {
	// CreatePool initializes a pool over the given outcomes
	CreatePool(ctx context.Context, outcomes []*entities.OutcomeSpec, houseEdge float64, closesAt time.Time, selection entities.WinnerSelectionMode) (*entities.Pool, error)

	// PlaceBet validates, gates through the anti-manipulation monitor, and
	// accepts a bet at the current odds, then recalculates all odds
	PlaceBet(ctx context.Context, userID, userWallet, poolID, outcomeID string, amount decimal.Decimal) (*entities.Bet, error)

	// ClosePool transitions an active pool to closed; no bets after
	ClosePool(ctx context.Context, poolID string) error

	// SettlePool settles the pool on the given winning outcome, exactly once
	SettlePool(ctx context.Context, poolID, winningOutcomeID string) (*SettlementReport, error)

	// SettleRandom draws the winning outcome through the VRF engine and
	// settles on it; only valid for pools with random winner selection
	SettleRandom(ctx context.Context, poolID string) (*SettlementReport, error)

	// GetPool returns the current in-memory pool state
	GetPool(ctx context.Context, poolID string) (*entities.Pool, error)

	// CloseExpiredPools closes every active pool past its closing time and
	// returns how many were closed
	CloseExpiredPools(ctx context.Context) (int, error)
}

// RewardDistributor owns reward-pool lifecycle, participant eligibility and
// strategy-based payout allocation
type RewardDistributor interface {
	// CreateRewardPool creates a reward pool with the given strategy config
	CreateRewardPool(ctx context.Context, totalAmount decimal.Decimal, distType entities.DistributionType, eligibility entities.EligibilityCriteria, bonuses entities.BonusConfig, strategy entities.StrategyConfig) (*entities.RewardPool, error)

	// AddParticipant admits a participant to an active pool after the
	// eligibility check passes
	AddParticipant(ctx context.Context, poolID string, participant *entities.Participant) (*entities.Participant, error)

	// DistributeRewards runs one allocation round through the pool's
	// strategy, applies bonuses, and executes transfers
	DistributeRewards(ctx context.Context, poolID, trigger string) (*entities.Distribution, error)

	// GetRewardPool returns the current in-memory reward pool state
	GetRewardPool(ctx context.Context, poolID string) (*entities.RewardPool, error)
}

// AntiManipulationMonitor gates every bet through concurrent fraud detectors
type AntiManipulationMonitor interface {
	// Evaluate runs all detectors against the user's rolling history and
	// decides allow/flag/block for the candidate bet
	Evaluate(ctx context.Context, userID string, bet *entities.BetRecord) (*entities.EvaluationResult, error)

	// RecordBet appends an accepted bet to the rolling history
	RecordBet(ctx context.Context, bet *entities.BetRecord)

	// RecordAccountCreated feeds account ages to the farming detector
	RecordAccountCreated(userID, wallet string, createdAt time.Time)

	// RecordMarketEvent feeds odds-affecting events to the insider detector
	RecordMarketEvent(event *entities.MarketEvent)

	// IsSuspended reports whether automatic actions have suspended the user
	IsSuspended(userID string) bool
}
