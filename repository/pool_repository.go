package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
)

const poolIndexKey = "pools"

func poolKey(id string) string       { return "pool:" + id }
func betLogKey(poolID string) string { return "pool:" + poolID + ":bets" }

// poolRepository persists pool snapshots and bet logs through a KVStore
type poolRepository struct {
	store interfaces.KVStore
}

// NewPoolRepository creates a pool repository over the given store
func NewPoolRepository(store interfaces.KVStore) interfaces.PoolRepository {
	return &poolRepository{store: store}
}

func (r *poolRepository) Save(ctx context.Context, pool *entities.Pool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to marshal pool %s: %w", pool.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, poolKey(pool.ID), data, 0); err != nil {
		return fmt.Errorf("failed to store pool %s: %w", pool.ID, err)
	}
	if err := r.store.AddToSet(ctx, poolIndexKey, pool.ID); err != nil {
		return fmt.Errorf("failed to index pool %s: %w", pool.ID, err)
	}
	return nil
}

func (r *poolRepository) Get(ctx context.Context, id string) (*entities.Pool, error) {
	data, err := r.store.Get(ctx, poolKey(id))
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool %s: %w", id, err)
	}

	var pool entities.Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool %s: %w", id, err)
	}
	return &pool, nil
}

func (r *poolRepository) AppendBetLog(ctx context.Context, bet *entities.Bet) error {
	data, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal bet %s: %w", bet.ID, err)
	}
	if err := r.store.AppendToList(ctx, betLogKey(bet.PoolID), data); err != nil {
		return fmt.Errorf("failed to append bet %s: %w", bet.ID, err)
	}
	return nil
}

// ListPoolIDs returns every persisted pool ID
func (r *poolRepository) ListPoolIDs(ctx context.Context) ([]string, error) {
	ids, err := r.store.GetSet(ctx, poolIndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	return ids, nil
}

// GetBetLog returns a pool's full bet log in placement order
func (r *poolRepository) GetBetLog(ctx context.Context, poolID string) ([]*entities.Bet, error) {
	raw, err := r.store.GetList(ctx, betLogKey(poolID))
	if err != nil {
		return nil, fmt.Errorf("failed to load bet log for pool %s: %w", poolID, err)
	}

	bets := make([]*entities.Bet, 0, len(raw))
	for _, data := range raw {
		var bet entities.Bet
		if err := json.Unmarshal(data, &bet); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bet log entry: %w", err)
		}
		bets = append(bets, &bet)
	}
	return bets, nil
}
