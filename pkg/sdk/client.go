package patternbot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/db"
	dbRedis "github.com/kailas-cloud/patternbot/internal/db/redis"
	"github.com/kailas-cloud/patternbot/internal/domain"
	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
	"github.com/kailas-cloud/patternbot/internal/repository/patterncache"
	"github.com/kailas-cloud/patternbot/internal/transport/upstream"
	healthuc "github.com/kailas-cloud/patternbot/internal/usecase/health"
	interactionuc "github.com/kailas-cloud/patternbot/internal/usecase/interaction"
	patternuc "github.com/kailas-cloud/patternbot/internal/usecase/pattern"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced in tests.
type lookupUseCase interface {
	Lookup(ctx context.Context, query string) (dompattern.Document, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Client is the patternbot SDK entry point.
type Client struct {
	store     db.Store
	lookupSvc lookupUseCase
	healthSvc healthUseCase
	cache     cacheInvalidator
	obs       *observer
}

// New creates a Client. When a cache store is configured the provided
// context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver != "" && cfg.cacheTTL <= 0 {
		return nil, errors.New("patternbot: cache store requires WithCacheTTL")
	}
	if cfg.cacheTTL > patterncache.MaxTTL {
		return nil, fmt.Errorf("patternbot: cache ttl must not exceed %s", patterncache.MaxTTL)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.driver != "" {
		store, err = createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("patternbot: cache store not ready: %w", err)
		}
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil && store != nil {
		store.Close()
	}
	return c, err
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("patternbot: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("patternbot: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	fetcher := upstream.NewFetcher(&upstream.Config{
		SourceURL:  cfg.sourceURL,
		Timeout:    cfg.timeout,
		UserAgent:  cfg.userAgent,
		HTTPClient: cfg.httpClient,
		Logger:     zap.NewNop(),
	})

	var patternFetcher domain.PatternFetcher = fetcher
	var pinger healthuc.CachePinger
	var cache cacheInvalidator
	if store != nil {
		cached, err := patterncache.New(fetcher, store, fetcher.SourceURL(), cfg.cacheTTL, nil, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("patternbot: %w", err)
		}
		patternFetcher = cached
		pinger = store
		cache = cached
	}

	return &Client{
		store:     store,
		lookupSvc: patternuc.New(patternFetcher),
		healthSvc: healthuc.New(pinger, fetcher),
		cache:     cache,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Lookup returns the patterns whose key contains query, in source order.
// An empty query returns every pattern.
func (c *Client) Lookup(ctx context.Context, query string) (patterns []Pattern, err error) {
	start := time.Now()
	defer func() { c.obs.observe("lookup", start, err, "query", query, "matches", len(patterns)) }()

	doc, err := c.lookupSvc.Lookup(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", query, err)
	}
	return patternsFromDomain(doc), nil
}

// Message returns the chat reply the bot sends for query.
func (c *Client) Message(ctx context.Context, query string) (msg string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("message", start, err, "query", query) }()

	doc, err := c.lookupSvc.Lookup(ctx, query)
	if err != nil {
		return "", fmt.Errorf("lookup %q: %w", query, err)
	}
	return interactionuc.Render(doc), nil
}

// Invalidate drops the cached document so the next lookup reads the source.
// It does nothing when no cache is configured.
func (c *Client) Invalidate(ctx context.Context) (err error) {
	if c.cache == nil {
		return nil
	}
	start := time.Now()
	defer func() { c.obs.observe("invalidate", start, err) }()

	return c.cache.Invalidate(ctx) //nolint:wrapcheck // already wrapped with the cache key
}

// Ping checks the pattern source and, when configured, the cache store.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	report := c.healthSvc.Check(ctx)
	if report.Status == healthuc.Healthy {
		return nil
	}
	for name, res := range report.Checks {
		if res != healthuc.CheckOK {
			return fmt.Errorf("ping: %s check failed", name)
		}
	}
	return errors.New("ping: unhealthy")
}
