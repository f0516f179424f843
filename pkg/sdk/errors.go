package patternbot

import (
	"github.com/kailas-cloud/patternbot/internal/domain"
	"github.com/kailas-cloud/patternbot/internal/transport/upstream"
)

// Sentinel errors re-exported from the internal layers.
// Use errors.Is() to check.
var (
	ErrPatternSourceError  = domain.ErrPatternSourceError
	ErrUpstreamUnavailable = upstream.ErrUpstreamUnavailable
	ErrUpstreamStatus      = upstream.ErrUpstreamStatus
	ErrMalformedDocument   = upstream.ErrMalformedDocument
	ErrMissingRegexes      = upstream.ErrMissingRegexes
)
