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

// poolEntry pairs a pool with the mutex that serializes every mutation on it.
// Different pools mutate concurrently; operations on one pool never interleave.
type poolEntry struct {
	mu   sync.Mutex
	pool *entities.Pool
}

type bettingPoolService struct {
	config     *config.Config
	domain     *BettingPoolDomainService
	monitor    interfaces.AntiManipulationMonitor
	vrfEngine  interfaces.VRFEngine
	settlement interfaces.SettlementExecutor
	repo       interfaces.PoolRepository
	publisher  interfaces.EventPublisher

	mu    sync.RWMutex
	pools map[string]*poolEntry
}

// NewBettingPoolService creates a betting pool service
func NewBettingPoolService(
	domain *BettingPoolDomainService,
	monitor interfaces.AntiManipulationMonitor,
	vrfEngine interfaces.VRFEngine,
	settlement interfaces.SettlementExecutor,
	repo interfaces.PoolRepository,
	publisher interfaces.EventPublisher,
) interfaces.BettingPoolService {
	return &bettingPoolService{
		config:     config.Get(),
		domain:     domain,
		monitor:    monitor,
		vrfEngine:  vrfEngine,
		settlement: settlement,
		repo:       repo,
		publisher:  publisher,
		pools:      make(map[string]*poolEntry),
	}
}

func (s *bettingPoolService) CreatePool(ctx context.Context, outcomes []*entities.OutcomeSpec, houseEdge float64, closesAt time.Time, selection entities.WinnerSelectionMode) (*entities.Pool, error) {
	if len(outcomes) == 0 {
		return nil, ErrNoOutcomes
	}
	seen := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		if o.ID == "" {
			return nil, fmt.Errorf("outcome ID cannot be empty")
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("duplicate outcome ID: %s", o.ID)
		}
		seen[o.ID] = true
	}
	if houseEdge < 0 || houseEdge >= 1 {
		return nil, fmt.Errorf("house edge must be in [0, 1), got %f", houseEdge)
	}
	if !closesAt.After(time.Now()) {
		return nil, fmt.Errorf("closing time must be in the future")
	}
	if selection == "" {
		selection = entities.WinnerSelectionManual
	}

	pool := &entities.Pool{
		ID:              uuid.New().String(),
		Outcomes:        outcomes,
		OutcomePools:    make(map[string]decimal.Decimal, len(outcomes)),
		Odds:            make(map[string]float64, len(outcomes)),
		Bets:            make(map[string][]*entities.Bet),
		TotalPool:       decimal.Zero,
		HouseEdge:       houseEdge,
		Status:          entities.PoolStatusActive,
		WinnerSelection: selection,
		CreatedAt:       time.Now(),
		ClosesAt:        closesAt,
	}
	for _, o := range outcomes {
		pool.OutcomePools[o.ID] = decimal.Zero
		if o.InitialOdds > 0 {
			pool.Odds[o.ID] = clamp(o.InitialOdds, s.config.MinOdds, s.config.MaxOdds)
		} else {
			pool.Odds[o.ID] = s.config.DefaultInitialOdds
		}
	}

	s.mu.Lock()
	s.pools[pool.ID] = &poolEntry{pool: pool}
	s.mu.Unlock()

	s.persist(ctx, pool)
	s.publishPoolUpdate(pool)

	log.WithFields(log.Fields{
		"poolId":   pool.ID,
		"outcomes": len(outcomes),
		"closesAt": closesAt,
	}).Info("Created betting pool")

	return pool, nil
}

func (s *bettingPoolService) PlaceBet(ctx context.Context, userID, userWallet, poolID, outcomeID string, amount decimal.Decimal) (*entities.Bet, error) {
	entry, err := s.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	pool := entry.pool

	if pool.Status != entities.PoolStatusActive {
		return nil, ErrPoolNotActive
	}
	if !time.Now().Before(pool.ClosesAt) {
		return nil, ErrPoolClosed
	}
	if !pool.HasOutcome(outcomeID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutcome, outcomeID)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidBetAmount
	}
	if amount.GreaterThan(s.config.MaxBetPerUser) {
		return nil, ErrBetLimitExceeded
	}
	if pool.TotalPool.Add(amount).GreaterThan(s.config.MaxPoolSize) {
		return nil, ErrPoolSizeExceeded
	}
	if pool.ActiveStake(userID, outcomeID).Add(amount).GreaterThan(s.config.MaxBetPerUser) {
		return nil, ErrBetLimitExceeded
	}

	record := &entities.BetRecord{
		UserID:    userID,
		Wallet:    userWallet,
		PoolID:    poolID,
		OutcomeID: outcomeID,
		Amount:    amount,
		Timestamp: time.Now(),
	}
	evaluation, err := s.monitor.Evaluate(ctx, userID, record)
	if err != nil {
		return nil, fmt.Errorf("manipulation evaluation failed: %w", err)
	}
	if !evaluation.Allowed {
		log.WithFields(log.Fields{
			"userId":    userID,
			"poolId":    poolID,
			"riskScore": evaluation.RiskScore,
			"alerts":    len(evaluation.Alerts),
		}).Warn("Bet blocked by anti-manipulation monitor")
		return nil, ErrBetBlocked
	}

	bet := &entities.Bet{
		ID:              uuid.New().String(),
		UserID:          userID,
		UserWallet:      userWallet,
		PoolID:          poolID,
		OutcomeID:       outcomeID,
		Amount:          amount,
		OddsAtPlacement: pool.Odds[outcomeID],
		Timestamp:       record.Timestamp,
		Status:          entities.BetStatusActive,
	}
	bet.PotentialPayout = amount.Mul(decimal.NewFromFloat(bet.OddsAtPlacement))

	pool.Bets[userID] = append(pool.Bets[userID], bet)
	pool.OutcomePools[outcomeID] = pool.OutcomePools[outcomeID].Add(amount)
	pool.TotalPool = pool.TotalPool.Add(amount)
	pool.Odds = s.domain.CalculateOdds(pool)

	s.monitor.RecordBet(ctx, record)
	s.persist(ctx, pool)
	if err := s.repo.AppendBetLog(ctx, bet); err != nil {
		log.WithError(err).WithField("betId", bet.ID).Error("Failed to append bet log")
	}

	s.publish(events.BetPlacedEvent{
		BetID:           bet.ID,
		UserID:          userID,
		PoolID:          poolID,
		OutcomeID:       outcomeID,
		Amount:          amount,
		OddsAtPlacement: bet.OddsAtPlacement,
		Timestamp:       bet.Timestamp,
	})
	s.publish(events.OddsUpdatedEvent{
		PoolID:    poolID,
		Odds:      pool.Odds,
		Timestamp: time.Now(),
	})
	s.publishPoolUpdate(pool)

	return bet, nil
}

func (s *bettingPoolService) ClosePool(ctx context.Context, poolID string) error {
	entry, err := s.entry(ctx, poolID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.pool.Status != entities.PoolStatusActive {
		return ErrPoolNotActive
	}
	entry.pool.Status = entities.PoolStatusClosed

	s.persist(ctx, entry.pool)
	s.publishPoolUpdate(entry.pool)

	log.WithField("poolId", poolID).Info("Closed betting pool")
	return nil
}

func (s *bettingPoolService) SettlePool(ctx context.Context, poolID, winningOutcomeID string) (*interfaces.SettlementReport, error) {
	entry, err := s.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.settle(ctx, entry.pool, winningOutcomeID, nil)
}

func (s *bettingPoolService) SettleRandom(ctx context.Context, poolID string) (*interfaces.SettlementReport, error) {
	entry, err := s.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	pool := entry.pool

	if pool.WinnerSelection != entities.WinnerSelectionRandom {
		return nil, ErrNotRandomPool
	}
	if pool.IsSettled() {
		return nil, ErrAlreadySettled
	}

	// Proof generation failure aborts settlement; the pool stays settleable.
	draw, err := s.vrfEngine.SelectWinner(ctx, pool.OutcomeIDs(), fmt.Sprintf("pool:%s", pool.ID))
	if err != nil {
		return nil, fmt.Errorf("random winner draw failed: %w", err)
	}

	return s.settle(ctx, pool, draw.Winner, draw.Proof)
}

// settle performs the one-shot settlement transition. Caller holds the pool
// entry mutex.
func (s *bettingPoolService) settle(ctx context.Context, pool *entities.Pool, winningOutcomeID string, proof *entities.VRFResult) (*interfaces.SettlementReport, error) {
	if pool.IsSettled() {
		return nil, ErrAlreadySettled
	}
	if pool.Status != entities.PoolStatusActive && pool.Status != entities.PoolStatusClosed {
		return nil, ErrPoolNotActive
	}
	if !pool.HasOutcome(winningOutcomeID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutcome, winningOutcomeID)
	}

	houseTake, payoutPool, payouts := s.domain.CalculatePayouts(pool, winningOutcomeID)

	var winners []*entities.Bet
	for _, bet := range pool.ActiveBets() {
		if payout, ok := payouts[bet.ID]; ok {
			bet.MarkWon(payout)
			winners = append(winners, bet)
		} else {
			bet.MarkLost()
		}
	}

	now := time.Now()
	pool.Status = entities.PoolStatusSettled
	pool.WinningOutcome = &winningOutcomeID
	pool.SettledAt = &now

	if len(winners) == 0 {
		log.WithFields(log.Fields{
			"poolId":         pool.ID,
			"winningOutcome": winningOutcomeID,
		}).Info("No winning bets, house retains the pool")
	}

	s.persist(ctx, pool)
	s.publish(events.PoolResolvedEvent{
		PoolID:         pool.ID,
		WinningOutcome: winningOutcomeID,
		Selection:      string(pool.WinnerSelection),
		TotalPool:      pool.TotalPool,
		HouseTake:      houseTake,
		PayoutPool:     payoutPool,
		WinnerCount:    len(winners),
		Timestamp:      now,
	})

	report := &interfaces.SettlementReport{
		Pool:           pool,
		WinningOutcome: winningOutcomeID,
		HouseTake:      houseTake,
		PayoutPool:     payoutPool,
		Winners:        winners,
		Proof:          proof,
	}
	s.executePayouts(ctx, report)

	log.WithFields(log.Fields{
		"poolId":         pool.ID,
		"winningOutcome": winningOutcomeID,
		"houseTake":      houseTake,
		"winners":        len(winners),
		"failed":         report.Failed,
	}).Info("Settled betting pool")

	return report, nil
}

// executePayouts runs winner transfers concurrently. A failed transfer is
// recorded and never aborts the remaining transfers.
func (s *bettingPoolService) executePayouts(ctx context.Context, report *interfaces.SettlementReport) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, bet := range report.Winners {
		wg.Add(1)
		go func(bet *entities.Bet) {
			defer wg.Done()

			transferCtx, cancel := context.WithTimeout(ctx, s.config.SettlementTimeout)
			defer cancel()

			receipt, err := s.settlement.Transfer(transferCtx, bet.UserWallet, bet.Payout, s.config.SettlementCurrency)
			if err == nil && receipt.Status != interfaces.TransferStatusConfirmed {
				err = fmt.Errorf("transfer not confirmed: %s", receipt.Status)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Failures = append(report.Failures, &entities.TransferFailure{
					ParticipantID: bet.ID,
					WalletAddress: bet.UserWallet,
					Reason:        err.Error(),
				})
				log.WithError(err).WithFields(log.Fields{
					"betId":  bet.ID,
					"wallet": bet.UserWallet,
				}).Error("Payout transfer failed")
			} else {
				report.Successful++
			}
		}(bet)
	}
	wg.Wait()
}

func (s *bettingPoolService) GetPool(ctx context.Context, poolID string) (*entities.Pool, error) {
	entry, err := s.entry(ctx, poolID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.pool, nil
}

func (s *bettingPoolService) CloseExpiredPools(ctx context.Context) (int, error) {
	s.mu.RLock()
	entries := make([]*poolEntry, 0, len(s.pools))
	for _, entry := range s.pools {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	closed := 0
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.pool.IsExpired() {
			entry.pool.Status = entities.PoolStatusClosed
			s.persist(ctx, entry.pool)
			s.publishPoolUpdate(entry.pool)
			closed++
			log.WithField("poolId", entry.pool.ID).Info("Closed expired pool")
		}
		entry.mu.Unlock()
	}
	return closed, nil
}

// entry returns the tracked pool entry, falling back to the repository for
// pools persisted by a previous process.
func (s *bettingPoolService) entry(ctx context.Context, poolID string) (*poolEntry, error) {
	s.mu.RLock()
	entry, ok := s.pools[poolID]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	pool, err := s.repo.Get(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool %s: %w", poolID, err)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.pools[poolID]; ok {
		return existing, nil
	}
	entry = &poolEntry{pool: pool}
	s.pools[poolID] = entry
	return entry, nil
}

// persist writes the pool snapshot. The in-memory state stays authoritative;
// a persistence failure is logged, not surfaced.
func (s *bettingPoolService) persist(ctx context.Context, pool *entities.Pool) {
	if err := s.repo.Save(ctx, pool); err != nil {
		log.WithError(err).WithField("poolId", pool.ID).Error("Failed to persist pool snapshot")
	}
}

func (s *bettingPoolService) publish(event events.Event) {
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Warn("Failed to publish event")
	}
}

func (s *bettingPoolService) publishPoolUpdate(pool *entities.Pool) {
	s.publish(events.PoolUpdateEvent{
		PoolID:    pool.ID,
		Status:    string(pool.Status),
		TotalPool: pool.TotalPool,
		Timestamp: time.Now(),
	})
}
