package interaction

import (
	"context"

	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

// PatternLookup returns the patterns whose key contains query.
type PatternLookup interface {
	Lookup(ctx context.Context, query string) (dompattern.Document, error)
}
