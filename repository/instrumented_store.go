package repository

import (
	"context"
	"time"

	"fairbook/domain/interfaces"
	"fairbook/infrastructure/observability"
)

// InstrumentedStore decorates a KVStore and records an operation metric with
// duration for every call.
type InstrumentedStore struct {
	inner   interfaces.KVStore
	backend string
	metrics *observability.MetricsProvider
}

// NewInstrumentedStore wraps a store with metric recording
func NewInstrumentedStore(inner interfaces.KVStore, backend string, metrics *observability.MetricsProvider) interfaces.KVStore {
	return &InstrumentedStore{inner: inner, backend: backend, metrics: metrics}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer s.observe("get", time.Now())
	return s.inner.Get(ctx, key)
}

func (s *InstrumentedStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer s.observe("set", time.Now())
	return s.inner.SetWithTTL(ctx, key, value, ttl)
}

func (s *InstrumentedStore) AppendToList(ctx context.Context, key string, value []byte) error {
	defer s.observe("append_list", time.Now())
	return s.inner.AppendToList(ctx, key, value)
}

func (s *InstrumentedStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	defer s.observe("get_list", time.Now())
	return s.inner.GetList(ctx, key)
}

func (s *InstrumentedStore) AddToSet(ctx context.Context, key string, value string) error {
	defer s.observe("add_set", time.Now())
	return s.inner.AddToSet(ctx, key, value)
}

func (s *InstrumentedStore) GetSet(ctx context.Context, key string) ([]string, error) {
	defer s.observe("get_set", time.Now())
	return s.inner.GetSet(ctx, key)
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

func (s *InstrumentedStore) observe(method string, start time.Time) {
	s.metrics.RecordStoreOperation(s.backend, method, time.Since(start))
}
