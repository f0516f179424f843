package domain

import (
	"context"

	"github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

// KeyPrefix namespaces every key the service writes to the cache store.
const KeyPrefix = "patternbot:"

// PatternFetcher is the shared contract for obtaining a fresh Pattern Document.
type PatternFetcher interface {
	Fetch(ctx context.Context) (pattern.Document, error)
}

// HealthChecker verifies availability of an external dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
