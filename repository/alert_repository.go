package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"fairbook/domain/entities"
	"fairbook/domain/interfaces"
)

const flaggedUsersKey = "alerts:users"

func alertLogKey(userID string) string { return "alerts:" + userID }

type alertRepository struct {
	store interfaces.KVStore
}

// NewAlertRepository creates an alert repository over the given store
func NewAlertRepository(store interfaces.KVStore) interfaces.AlertRepository {
	return &alertRepository{store: store}
}

func (r *alertRepository) Append(ctx context.Context, alert *entities.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert %s: %w", alert.ID, err)
	}
	if err := r.store.AppendToList(ctx, alertLogKey(alert.UserID), data); err != nil {
		return fmt.Errorf("failed to append alert %s: %w", alert.ID, err)
	}
	if err := r.store.AddToSet(ctx, flaggedUsersKey, alert.UserID); err != nil {
		return fmt.Errorf("failed to index flagged user %s: %w", alert.UserID, err)
	}
	return nil
}

func (r *alertRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Alert, error) {
	raw, err := r.store.GetList(ctx, alertLogKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for user %s: %w", userID, err)
	}

	alerts := make([]*entities.Alert, 0, len(raw))
	for _, data := range raw {
		var alert entities.Alert
		if err := json.Unmarshal(data, &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert entry: %w", err)
		}
		alerts = append(alerts, &alert)
	}
	return alerts, nil
}
