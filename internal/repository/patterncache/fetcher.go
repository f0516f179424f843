package patterncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/db"
	"github.com/kailas-cloud/patternbot/internal/domain"
	"github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

var cacheKeyPrefix = domain.KeyPrefix + "patterns:"

// MaxTTL bounds how long a cached document may be served.
const MaxTTL = time.Hour

// store is the consumer interface for the pattern cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedFetcher serves the pattern document from a key-value store for at
// most ttl before refetching from the inner fetcher.
type CachedFetcher struct {
	inner      domain.PatternFetcher
	store      store
	key        string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator for the document served from sourceURL.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.PatternFetcher,
	s store,
	sourceURL string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedFetcher, error) {
	if ttl <= 0 || ttl > MaxTTL {
		return nil, fmt.Errorf("cache ttl must be in (0, %s], got %s", MaxTTL, ttl)
	}
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		key:        cacheKey(sourceURL),
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}, nil
}

// Fetch returns the cached document or calls the inner fetcher.
// Store failures never fail the fetch.
func (c *CachedFetcher) Fetch(ctx context.Context) (pattern.Document, error) {
	if doc, ok := c.getFromCache(ctx); ok {
		c.incCache("hit")
		return doc, nil
	}

	c.incCache("miss")

	doc, err := c.inner.Fetch(ctx)
	if err != nil {
		return pattern.Document{}, fmt.Errorf("fetch uncached: %w", err)
	}

	c.putToCache(ctx, doc)
	return doc, nil
}

// HealthCheck delegates to the inner fetcher when it supports health checks.
func (c *CachedFetcher) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// Invalidate drops the cached document so the next Fetch reads the source.
func (c *CachedFetcher) Invalidate(ctx context.Context) error {
	if err := c.store.Del(ctx, c.key); err != nil {
		return fmt.Errorf("invalidate %s: %w", c.key, err)
	}
	return nil
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(sourceURL string) string {
	h := sha256.Sum256([]byte(sourceURL))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedFetcher) getFromCache(ctx context.Context) (pattern.Document, bool) {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached patterns", zap.String("key", c.key), zap.Error(err))
		}
		return pattern.Document{}, false
	}
	if len(data) == 0 {
		return pattern.Document{}, false
	}

	var doc pattern.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("Failed to parse cached patterns, dropping entry", zap.String("key", c.key), zap.Error(err))
		if err := c.store.Del(ctx, c.key); err != nil {
			c.logger.Warn("Failed to drop cached patterns", zap.String("key", c.key), zap.Error(err))
		}
		return pattern.Document{}, false
	}

	return doc, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, doc pattern.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("Failed to encode patterns for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, c.key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache patterns", zap.String("key", c.key), zap.Error(err))
	}
}
