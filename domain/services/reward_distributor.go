package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fairbook/config"
	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
	"fairbook/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type rewardEntry struct {
	mu   sync.Mutex
	pool *entities.RewardPool
}

type rewardDistributor struct {
	config      *config.Config
	strategies  map[entities.DistributionType]DistributionStrategy
	eligibility interfaces.EligibilityChecker
	settlement  interfaces.SettlementExecutor
	repo        interfaces.RewardPoolRepository
	publisher   interfaces.EventPublisher

	mu    sync.RWMutex
	pools map[string]*rewardEntry
}

// NewRewardDistributor creates a reward distributor with the full strategy
// registry
func NewRewardDistributor(
	vrfEngine interfaces.VRFEngine,
	eligibility interfaces.EligibilityChecker,
	settlement interfaces.SettlementExecutor,
	repo interfaces.RewardPoolRepository,
	publisher interfaces.EventPublisher,
) interfaces.RewardDistributor {
	return &rewardDistributor{
		config:      config.Get(),
		strategies:  newStrategyRegistry(vrfEngine),
		eligibility: eligibility,
		settlement:  settlement,
		repo:        repo,
		publisher:   publisher,
		pools:       make(map[string]*rewardEntry),
	}
}

func (d *rewardDistributor) CreateRewardPool(ctx context.Context, totalAmount decimal.Decimal, distType entities.DistributionType, eligibility entities.EligibilityCriteria, bonuses entities.BonusConfig, strategy entities.StrategyConfig) (*entities.RewardPool, error) {
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidRewardAmount
	}
	if totalAmount.GreaterThan(d.config.MaxRewardPoolSize) {
		return nil, ErrRewardPoolTooLarge
	}
	if _, ok := d.strategies[distType]; !ok {
		return nil, fmt.Errorf("unknown distribution type: %s", distType)
	}
	if err := validateStrategyConfig(strategy); err != nil {
		return nil, err
	}

	// Unset bonus knobs fall back to configured defaults
	if bonuses.StreakThreshold == 0 {
		bonuses.StreakThreshold = d.config.StreakThreshold
	}
	if bonuses.StreakMultiplier == 0 {
		bonuses.StreakMultiplier = d.config.StreakMultiplier
	}
	if bonuses.ReferralRate == 0 {
		bonuses.ReferralRate = d.config.ReferralRate
	}

	pool := &entities.RewardPool{
		ID:             uuid.New().String(),
		Type:           distType,
		TotalAmount:    totalAmount,
		Remaining:      totalAmount,
		Participants:   make(map[string]*entities.Participant),
		Eligibility:    eligibility,
		Bonuses:        bonuses,
		StrategyConfig: strategy,
		Status:         entities.RewardPoolStatusActive,
		CreatedAt:      time.Now(),
	}

	d.mu.Lock()
	d.pools[pool.ID] = &rewardEntry{pool: pool}
	d.mu.Unlock()

	d.persist(ctx, pool)

	log.WithFields(log.Fields{
		"rewardPoolId": pool.ID,
		"type":         distType,
		"totalAmount":  totalAmount,
	}).Info("Created reward pool")

	return pool, nil
}

// validateStrategyConfig rejects tier and prize schedules that could allocate
// more than the whole pool. Sums carry a small tolerance for float accumulation.
func validateStrategyConfig(strategy entities.StrategyConfig) error {
	const tolerance = 1e-9

	sum := 0.0
	for _, tier := range strategy.Tiers {
		if tier.Percentage <= 0 {
			return fmt.Errorf("%w: tier %q has percentage %v", ErrInvalidStrategyConfig, tier.Name, tier.Percentage)
		}
		sum += tier.Percentage
	}
	if sum > 1+tolerance {
		return fmt.Errorf("%w: tier percentages sum to %v", ErrInvalidStrategyConfig, sum)
	}

	sum = 0.0
	for position, prize := range strategy.PrizeDistribution {
		if prize <= 0 {
			return fmt.Errorf("%w: prize position %d has fraction %v", ErrInvalidStrategyConfig, position+1, prize)
		}
		sum += prize
	}
	if sum > 1+tolerance {
		return fmt.Errorf("%w: prize fractions sum to %v", ErrInvalidStrategyConfig, sum)
	}

	return nil
}

func (d *rewardDistributor) AddParticipant(ctx context.Context, poolID string, participant *entities.Participant) (*entities.Participant, error) {
	entry, err := d.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	pool := entry.pool

	if !pool.IsActive() {
		return nil, ErrRewardPoolNotActive
	}
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if _, exists := pool.Participants[participant.ID]; exists {
		return nil, ErrDuplicateParticipant
	}
	if !d.eligibility.IsEligible(participant, pool.Eligibility) {
		return nil, ErrIneligibleParticipant
	}

	participant.JoinedAt = time.Now()
	pool.Participants[participant.ID] = participant

	d.persist(ctx, pool)

	log.WithFields(log.Fields{
		"rewardPoolId":  poolID,
		"participantId": participant.ID,
		"userId":        participant.UserID,
	}).Info("Added reward pool participant")

	return participant, nil
}

func (d *rewardDistributor) DistributeRewards(ctx context.Context, poolID, trigger string) (*entities.Distribution, error) {
	entry, err := d.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	pool := entry.pool

	if !pool.IsActive() {
		return nil, ErrRewardPoolNotActive
	}
	if len(pool.Participants) == 0 {
		return nil, ErrNoParticipants
	}

	pool.Status = entities.RewardPoolStatusDistributing
	defer func() {
		// A pool drained to zero is complete; otherwise it reopens
		if pool.Status == entities.RewardPoolStatusDistributing {
			if pool.Remaining.LessThanOrEqual(decimal.Zero) {
				pool.Status = entities.RewardPoolStatusCompleted
			} else {
				pool.Status = entities.RewardPoolStatusActive
			}
		}
	}()

	strategy := d.strategies[pool.Type]
	allocations, proofIDs, err := strategy.Allocate(ctx, pool, trigger)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	baseTotal := decimal.Zero
	for _, a := range allocations {
		baseTotal = baseTotal.Add(a.Amount)
	}
	// Nothing is ever paid out past the pool's remaining amount
	if baseTotal.GreaterThan(pool.Remaining) {
		return nil, fmt.Errorf("%w: allocated %s of %s", ErrOverAllocation, baseTotal, pool.Remaining)
	}

	bonuses := computeBonuses(pool, allocations)
	bonuses, dropped := capBonuses(bonuses, pool.Remaining.Sub(baseTotal))
	if dropped > 0 {
		log.WithFields(log.Fields{
			"rewardPoolId": poolID,
			"dropped":      dropped,
		}).Warn("Dropped bonuses exceeding the remaining amount")
	}

	distribution := &entities.Distribution{
		ID:              uuid.New().String(),
		RewardPoolID:    poolID,
		Trigger:         trigger,
		Allocations:     allocations,
		Bonuses:         bonuses,
		ProofRequestIDs: proofIDs,
		CreatedAt:       time.Now(),
	}

	d.executeTransfers(ctx, pool, distribution)

	pool.Remaining = pool.Remaining.Sub(distribution.TotalDistributed)
	pool.Distributions = append(pool.Distributions, distribution)

	d.persist(ctx, pool)
	if err := d.repo.AppendDistributionLog(ctx, distribution); err != nil {
		log.WithError(err).WithField("distributionId", distribution.ID).Error("Failed to append distribution log")
	}

	if err := d.publisher.Publish(events.RewardDistributedEvent{
		DistributionID:   distribution.ID,
		RewardPoolID:     poolID,
		DistributionType: string(pool.Type),
		TotalDistributed: distribution.TotalDistributed,
		Successful:       distribution.Successful,
		Failed:           distribution.Failed,
		Timestamp:        distribution.CreatedAt,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish reward distributed event")
	}

	log.WithFields(log.Fields{
		"rewardPoolId":     poolID,
		"distributionId":   distribution.ID,
		"trigger":          trigger,
		"totalDistributed": distribution.TotalDistributed,
		"successful":       distribution.Successful,
		"failed":           distribution.Failed,
	}).Info("Distributed rewards")

	return distribution, nil
}

// executeTransfers merges base allocations and bonuses per participant and
// runs the resulting transfers concurrently. Only confirmed transfers count
// toward TotalDistributed; failed amounts stay in the pool for a later round.
func (d *rewardDistributor) executeTransfers(ctx context.Context, pool *entities.RewardPool, distribution *entities.Distribution) {
	totals := make(map[string]decimal.Decimal)
	for _, a := range distribution.Allocations {
		totals[a.ParticipantID] = totals[a.ParticipantID].Add(a.Amount)
	}
	for _, b := range distribution.Bonuses {
		totals[b.ParticipantID] = totals[b.ParticipantID].Add(b.Amount)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for participantID, amount := range totals {
		participant, ok := pool.Participants[participantID]
		if !ok || amount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		wg.Add(1)
		go func(participant *entities.Participant, amount decimal.Decimal) {
			defer wg.Done()

			transferCtx, cancel := context.WithTimeout(ctx, d.config.SettlementTimeout)
			defer cancel()

			receipt, err := d.settlement.Transfer(transferCtx, participant.WalletAddress, amount, d.config.SettlementCurrency)
			if err == nil && receipt.Status != interfaces.TransferStatusConfirmed {
				err = fmt.Errorf("transfer not confirmed: %s", receipt.Status)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				distribution.Failed++
				distribution.Failures = append(distribution.Failures, &entities.TransferFailure{
					ParticipantID: participant.ID,
					WalletAddress: participant.WalletAddress,
					Reason:        err.Error(),
				})
				log.WithError(err).WithFields(log.Fields{
					"participantId": participant.ID,
					"wallet":        participant.WalletAddress,
				}).Error("Reward transfer failed")
			} else {
				distribution.Successful++
				distribution.TotalDistributed = distribution.TotalDistributed.Add(amount)
			}
		}(participant, amount)
	}
	wg.Wait()
}

func (d *rewardDistributor) GetRewardPool(ctx context.Context, poolID string) (*entities.RewardPool, error) {
	entry, err := d.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.pool, nil
}

func (d *rewardDistributor) entry(ctx context.Context, poolID string) (*rewardEntry, error) {
	d.mu.RLock()
	entry, ok := d.pools[poolID]
	d.mu.RUnlock()
	if ok {
		return entry, nil
	}

	pool, err := d.repo.Get(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward pool %s: %w", poolID, err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %s", ErrRewardPoolNotFound, poolID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.pools[poolID]; ok {
		return existing, nil
	}
	entry = &rewardEntry{pool: pool}
	d.pools[poolID] = entry
	return entry, nil
}

func (d *rewardDistributor) persist(ctx context.Context, pool *entities.RewardPool) {
	if err := d.repo.Save(ctx, pool); err != nil {
		log.WithError(err).WithField("rewardPoolId", pool.ID).Error("Failed to persist reward pool snapshot")
	}
}

// defaultEligibilityChecker enforces the pool's eligibility criteria
type defaultEligibilityChecker struct{}

// NewEligibilityChecker returns the standard criteria-based checker
func NewEligibilityChecker() interfaces.EligibilityChecker {
	return &defaultEligibilityChecker{}
}

func (c *defaultEligibilityChecker) IsEligible(participant *entities.Participant, criteria entities.EligibilityCriteria) bool {
	if participant.Contribution.LessThan(criteria.MinContribution) {
		return false
	}
	if participant.Performance < criteria.MinPerformanceScore {
		return false
	}
	if criteria.MinLoyaltyTier != "" && !tierAtLeast(participant.LoyaltyTier, criteria.MinLoyaltyTier) {
		return false
	}
	return true
}

// tierOrder ranks the known loyalty tiers from lowest to highest
var tierOrder = map[string]int{
	"bronze":   1,
	"silver":   2,
	"gold":     3,
	"platinum": 4,
	"diamond":  5,
}

func tierAtLeast(tier, minimum string) bool {
	return tierOrder[tier] >= tierOrder[minimum]
}
