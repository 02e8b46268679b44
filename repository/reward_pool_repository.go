package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
)

const rewardPoolIndexKey = "rewardpools"

func rewardPoolKey(id string) string      { return "rewardpool:" + id }
func distributionLogKey(id string) string { return "rewardpool:" + id + ":distributions" }

type rewardPoolRepository struct {
	store interfaces.KVStore
}

// NewRewardPoolRepository creates a reward pool repository over the given store
func NewRewardPoolRepository(store interfaces.KVStore) interfaces.RewardPoolRepository {
	return &rewardPoolRepository{store: store}
}

func (r *rewardPoolRepository) Save(ctx context.Context, pool *entities.RewardPool) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to marshal reward pool %s: %w", pool.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, rewardPoolKey(pool.ID), data, 0); err != nil {
		return fmt.Errorf("failed to store reward pool %s: %w", pool.ID, err)
	}
	if err := r.store.AddToSet(ctx, rewardPoolIndexKey, pool.ID); err != nil {
		return fmt.Errorf("failed to index reward pool %s: %w", pool.ID, err)
	}
	return nil
}

func (r *rewardPoolRepository) Get(ctx context.Context, id string) (*entities.RewardPool, error) {
	data, err := r.store.Get(ctx, rewardPoolKey(id))
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reward pool %s: %w", id, err)
	}

	var pool entities.RewardPool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reward pool %s: %w", id, err)
	}
	return &pool, nil
}

func (r *rewardPoolRepository) AppendDistributionLog(ctx context.Context, dist *entities.Distribution) error {
	data, err := json.Marshal(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution %s: %w", dist.ID, err)
	}
	if err := r.store.AppendToList(ctx, distributionLogKey(dist.RewardPoolID), data); err != nil {
		return fmt.Errorf("failed to append distribution %s: %w", dist.ID, err)
	}
	return nil
}
