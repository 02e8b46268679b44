package interfaces

import (
	"context"
	"errors"
	"time"

	"fairbook/domain/entities"
)

// ErrKeyNotFound is returned by KVStore.Get when a key has no value
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the contract a persistence collaborator must satisfy. Aggregate
// state is serialized wholesale on every mutation; logs are appended, never
// rewritten. The running process's in-memory state stays authoritative.
type KVStore interface {
	// Get retrieves the raw value stored under key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key; ttl <= 0 means no expiry
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// AppendToList appends value to the list stored under key
	AppendToList(ctx context.Context, key string, value []byte) error

	// GetList returns the list stored under key in append order
	GetList(ctx context.Context, key string) ([][]byte, error)

	// AddToSet adds value to the set stored under key
	AddToSet(ctx context.Context, key string, value string) error

	// GetSet returns the members of the set stored under key
	GetSet(ctx context.Context, key string) ([]string, error)

	// Close releases underlying resources
	Close() error
}

// PoolRepository persists betting pool snapshots and the append-only bet log
type PoolRepository interface {
	// Save serializes the whole pool record
	Save(ctx context.Context, pool *entities.Pool) error

	// Get retrieves a pool snapshot by ID, nil when absent
	Get(ctx context.Context, id string) (*entities.Pool, error)

	// AppendBetLog appends one bet to the pool's immutable bet log
	AppendBetLog(ctx context.Context, bet *entities.Bet) error

	// ListPoolIDs returns every persisted pool ID
	ListPoolIDs(ctx context.Context) ([]string, error)

	// GetBetLog returns a pool's full bet log in placement order
	GetBetLog(ctx context.Context, poolID string) ([]*entities.Bet, error)
}

// RewardPoolRepository persists reward pool snapshots and distribution logs
type RewardPoolRepository interface {
	// Save serializes the whole reward pool record
	Save(ctx context.Context, pool *entities.RewardPool) error

	// Get retrieves a reward pool snapshot by ID, nil when absent
	Get(ctx context.Context, id string) (*entities.RewardPool, error)

	// AppendDistributionLog appends one completed distribution round
	AppendDistributionLog(ctx context.Context, dist *entities.Distribution) error
}

// AlertRepository persists the append-only suspicious-activity log
type AlertRepository interface {
	// Append stores one alert; alerts are never rewritten
	Append(ctx context.Context, alert *entities.Alert) error

	// ListByUser returns a user's stored alerts in append order
	ListByUser(ctx context.Context, userID string) ([]*entities.Alert, error)
}
