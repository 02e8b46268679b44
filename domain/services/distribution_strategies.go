package services

import (
	"context"
	"fmt"
	"sort"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"

	"github.com/shopspring/decimal"
)

// DistributionStrategy computes the base allocations of one distribution
// round over the pool's remaining amount. Strategies never mutate the pool
// and never execute transfers. Random strategies return the VRF request IDs
// backing their draws.
type DistributionStrategy interface {
	Type() entities.DistributionType
	Allocate(ctx context.Context, pool *entities.RewardPool, trigger string) ([]*entities.Allocation, []string, error)
}

func newStrategyRegistry(vrfEngine interfaces.VRFEngine) map[entities.DistributionType]DistributionStrategy {
	strategies := []DistributionStrategy{
		&winnerTakesAllStrategy{vrfEngine: vrfEngine},
		&proportionalStrategy{},
		&tieredStrategy{},
		&participationStrategy{},
		&performanceStrategy{},
		&lotteryStrategy{vrfEngine: vrfEngine},
	}
	registry := make(map[entities.DistributionType]DistributionStrategy, len(strategies))
	for _, s := range strategies {
		registry[s.Type()] = s
	}
	return registry
}

func allocationFor(p *entities.Participant, amount decimal.Decimal) *entities.Allocation {
	return &entities.Allocation{
		ParticipantID: p.ID,
		UserID:        p.UserID,
		WalletAddress: p.WalletAddress,
		Amount:        amount,
	}
}

// winnerTakesAllStrategy pays the entire remaining amount to one winner
// picked by the configured criterion.
type winnerTakesAllStrategy struct {
	vrfEngine interfaces.VRFEngine
}

func (s *winnerTakesAllStrategy) Type() entities.DistributionType {
	return entities.DistributionTypeWinnerTakesAll
}

func (s *winnerTakesAllStrategy) Allocate(ctx context.Context, pool *entities.RewardPool, trigger string) ([]*entities.Allocation, []string, error) {
	participants := pool.ParticipantList()
	criterion := pool.StrategyConfig.WinnerCriterion
	if criterion == "" {
		criterion = entities.WinnerCriterionPerformance
	}

	var winner *entities.Participant
	var proofIDs []string
	switch criterion {
	case entities.WinnerCriterionPerformance:
		winner = participants[0]
		for _, p := range participants[1:] {
			if p.Performance > winner.Performance {
				winner = p
			}
		}
	case entities.WinnerCriterionContribution:
		winner = participants[0]
		for _, p := range participants[1:] {
			if p.Contribution.GreaterThan(winner.Contribution) {
				winner = p
			}
		}
	case entities.WinnerCriterionRandom:
		ids := make([]string, len(participants))
		for i, p := range participants {
			ids[i] = p.ID
		}
		draw, err := s.vrfEngine.SelectWinner(ctx, ids, fmt.Sprintf("reward:%s:%s", pool.ID, trigger))
		if err != nil {
			return nil, nil, fmt.Errorf("random winner draw failed: %w", err)
		}
		winner = pool.Participants[draw.Winner]
		proofIDs = []string{draw.Proof.RequestID}
	default:
		return nil, nil, fmt.Errorf("unknown winner criterion: %s", criterion)
	}

	return []*entities.Allocation{allocationFor(winner, pool.Remaining)}, proofIDs, nil
}

// proportionalStrategy splits the remaining amount proportionally to each
// participant's contribution. Zero contributions receive nothing.
type proportionalStrategy struct{}

func (s *proportionalStrategy) Type() entities.DistributionType {
	return entities.DistributionTypeProportional
}

func (s *proportionalStrategy) Allocate(_ context.Context, pool *entities.RewardPool, _ string) ([]*entities.Allocation, []string, error) {
	totalContribution := decimal.Zero
	for _, p := range pool.ParticipantList() {
		totalContribution = totalContribution.Add(p.Contribution)
	}
	if totalContribution.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("no participants with positive contribution")
	}

	var allocations []*entities.Allocation
	for _, p := range pool.ParticipantList() {
		if p.Contribution.LessThanOrEqual(decimal.Zero) {
			continue
		}
		share := pool.Remaining.Mul(p.Contribution).Div(totalContribution)
		allocations = append(allocations, allocationFor(p, share))
	}
	return allocations, nil, nil
}

// tieredStrategy ranks participants by performance and pays each ranked tier
// its configured percentage of the remaining amount. Participants below the
// last tier split whatever the tiers left over.
type tieredStrategy struct{}

func (s *tieredStrategy) Type() entities.DistributionType {
	return entities.DistributionTypeTiered
}

func (s *tieredStrategy) Allocate(_ context.Context, pool *entities.RewardPool, _ string) ([]*entities.Allocation, []string, error) {
	tiers := pool.StrategyConfig.Tiers
	if len(tiers) == 0 {
		return nil, nil, fmt.Errorf("tiered distribution requires at least one tier")
	}

	ranked := pool.ParticipantList()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Performance > ranked[j].Performance })

	var allocations []*entities.Allocation
	paid := decimal.Zero
	for i, p := range ranked {
		if i >= len(tiers) {
			break
		}
		amount := pool.Remaining.Mul(decimal.NewFromFloat(tiers[i].Percentage))
		allocations = append(allocations, allocationFor(p, amount))
		paid = paid.Add(amount)
	}

	if len(ranked) > len(tiers) {
		leftover := pool.Remaining.Sub(paid)
		if leftover.GreaterThan(decimal.Zero) {
			unranked := ranked[len(tiers):]
			share := leftover.Div(decimal.NewFromInt(int64(len(unranked))))
			for _, p := range unranked {
				allocations = append(allocations, allocationFor(p, share))
			}
		}
	}
	return allocations, nil, nil
}

// participationStrategy splits the remaining amount equally.
type participationStrategy struct{}

func (s *participationStrategy) Type() entities.DistributionType {
	return entities.DistributionTypeParticipation
}

func (s *participationStrategy) Allocate(_ context.Context, pool *entities.RewardPool, _ string) ([]*entities.Allocation, []string, error) {
	participants := pool.ParticipantList()
	share := pool.Remaining.Div(decimal.NewFromInt(int64(len(participants))))

	allocations := make([]*entities.Allocation, 0, len(participants))
	for _, p := range participants {
		allocations = append(allocations, allocationFor(p, share))
	}
	return allocations, nil, nil
}

// performanceStrategy splits the remaining amount proportionally to each
// participant's weighted metric score.
type performanceStrategy struct{}

func (s *performanceStrategy) Type() entities.DistributionType {
	return entities.DistributionTypePerformance
}

func (s *performanceStrategy) Allocate(_ context.Context, pool *entities.RewardPool, _ string) ([]*entities.Allocation, []string, error) {
	weights := pool.StrategyConfig.MetricWeights
	if len(weights) == 0 {
		return nil, nil, fmt.Errorf("performance distribution requires metric weights")
	}

	totalScore := 0.0
	scores := make(map[string]float64)
	for _, p := range pool.ParticipantList() {
		score := p.WeightedScore(weights)
		if score > 0 {
			scores[p.ID] = score
			totalScore += score
		}
	}
	if totalScore <= 0 {
		return nil, nil, fmt.Errorf("no participants with positive performance score")
	}

	var allocations []*entities.Allocation
	for _, p := range pool.ParticipantList() {
		score, ok := scores[p.ID]
		if !ok {
			continue
		}
		share := pool.Remaining.Mul(decimal.NewFromFloat(score / totalScore))
		allocations = append(allocations, allocationFor(p, share))
	}
	return allocations, nil, nil
}

// lotteryStrategy draws winners without replacement through the VRF engine
// and pays each draw position its configured fraction of the remaining amount.
type lotteryStrategy struct {
	vrfEngine interfaces.VRFEngine
}

func (s *lotteryStrategy) Type() entities.DistributionType {
	return entities.DistributionTypeLottery
}

func (s *lotteryStrategy) Allocate(ctx context.Context, pool *entities.RewardPool, trigger string) ([]*entities.Allocation, []string, error) {
	winnerCount := pool.StrategyConfig.WinnerCount
	if winnerCount <= 0 {
		winnerCount = 1
	}
	if winnerCount > len(pool.Participants) {
		winnerCount = len(pool.Participants)
	}
	prizes := pool.StrategyConfig.PrizeDistribution
	if len(prizes) < winnerCount {
		return nil, nil, fmt.Errorf("prize distribution covers %d positions, need %d", len(prizes), winnerCount)
	}

	candidates := make([]string, 0, len(pool.Participants))
	for _, p := range pool.ParticipantList() {
		candidates = append(candidates, p.ID)
	}

	var allocations []*entities.Allocation
	var proofIDs []string
	for position := 0; position < winnerCount; position++ {
		draw, err := s.vrfEngine.SelectWinner(ctx, candidates, fmt.Sprintf("lottery:%s:%s:%d", pool.ID, trigger, position))
		if err != nil {
			return nil, nil, fmt.Errorf("lottery draw %d failed: %w", position, err)
		}

		winner := pool.Participants[draw.Winner]
		allocation := allocationFor(winner, pool.Remaining.Mul(decimal.NewFromFloat(prizes[position])))
		allocation.Position = position + 1
		allocations = append(allocations, allocation)
		proofIDs = append(proofIDs, draw.Proof.RequestID)

		// Draws are without replacement
		candidates = append(candidates[:draw.Index], candidates[draw.Index+1:]...)
	}
	return allocations, proofIDs, nil
}
