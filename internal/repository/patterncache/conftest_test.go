package patterncache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/db"
	"github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

type mockFetcher struct {
	doc       pattern.Document
	err       error
	calls     int
	healthErr error
}

func (m *mockFetcher) Fetch(_ context.Context) (pattern.Document, error) {
	m.calls++
	return m.doc, m.err
}

func (m *mockFetcher) HealthCheck(_ context.Context) error { return m.healthErr }

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCachedFetcher(t *testing.T, inner *mockFetcher) (*CachedFetcher, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cf, err := New(inner, ms, "https://example.com/regexes.json", time.Minute, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cf, ms
}
