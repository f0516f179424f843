package pattern

import (
	"context"
	"fmt"

	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

// Service looks up patterns whose key contains a query.
type Service struct {
	fetcher Fetcher
}

// New creates a pattern lookup service.
func New(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Lookup fetches the current document and filters it by query.
// The document is not retained after the call.
func (s *Service) Lookup(ctx context.Context, query string) (dompattern.Document, error) {
	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return dompattern.Document{}, fmt.Errorf("lookup %q: %w", query, err)
	}
	return dompattern.Filter(doc, query), nil
}
