package repository

import (
	"context"
	"sync"
	"time"

	"fairbook/domain/interfaces"
)

type memoryValue struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process KVStore. Used by tests and by deployments
// that accept losing snapshots on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]memoryValue
	lists  map[string][][]byte
	sets   map[string]map[string]bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memoryValue),
		lists:  make(map[string][][]byte),
		sets:   make(map[string]map[string]bool),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	if !value.expiresAt.IsZero() && time.Now().After(value.expiresAt) {
		return nil, interfaces.ErrKeyNotFound
	}
	return value.data, nil
}

func (s *MemoryStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := memoryValue{data: value}
	if ttl > 0 {
		stored.expiresAt = time.Now().Add(ttl)
	}
	s.values[key] = stored
	return nil
}

func (s *MemoryStore) AppendToList(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append(s.lists[key], value)
	return nil
}

func (s *MemoryStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	out := make([][]byte, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryStore) AddToSet(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sets[key] == nil {
		s.sets[key] = make(map[string]bool)
	}
	s.sets[key][value] = true
	return nil
}

func (s *MemoryStore) GetSet(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]string, 0, len(s.sets[key]))
	for member := range s.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
