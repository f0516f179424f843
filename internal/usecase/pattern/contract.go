package pattern

import (
	"context"

	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

// Fetcher retrieves a fresh pattern document.
type Fetcher interface {
	Fetch(ctx context.Context) (dompattern.Document, error)
}
