package interaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/domain"
	"github.com/kailas-cloud/patternbot/internal/domain/command"
	dominteraction "github.com/kailas-cloud/patternbot/internal/domain/interaction"
	logpkg "github.com/kailas-cloud/patternbot/internal/logger"
	"github.com/kailas-cloud/patternbot/internal/metrics"
)

// User-facing replies for failures scoped to a single interaction.
const (
	replyMissingKey     = "Missing pattern key."
	replyInvalidPayload = "Invalid command payload."
	replyFetchFailed    = "Failed to fetch patterns, please try again later."
)

// Outcome labels for the interactions metric.
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeUnknown     = "unknown_command"
	outcomeUpstream    = "upstream_error"
	outcomeUnsupported = "unsupported"
)

// Service dispatches interactions and formats replies.
type Service struct {
	patterns PatternLookup
}

// New creates an interaction service.
func New(patterns PatternLookup) *Service {
	return &Service{patterns: patterns}
}

// Handle answers a single interaction. Failures inside a command become
// ephemeral replies; only an unsupported interaction type returns an error.
func (s *Service) Handle(ctx context.Context, req dominteraction.Request) (dominteraction.Response, error) {
	ctx = logpkg.WithFields(ctx,
		zap.String("interaction_id", req.ID),
		zap.Stringer("interaction_type", req.Type),
	)

	switch req.Type {
	case dominteraction.Ping:
		record(req.Type, "", outcomeOK)
		return dominteraction.PongResponse(), nil
	case dominteraction.ApplicationCommand:
		return s.handleCommand(ctx, req), nil
	default:
		record(req.Type, "", outcomeUnsupported)
		return dominteraction.Response{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedInteraction, req.Type)
	}
}

func (s *Service) handleCommand(ctx context.Context, req dominteraction.Request) dominteraction.Response {
	log := logpkg.FromContext(ctx)

	if req.Data == nil {
		log.Warn("Command interaction without usable data")
		record(req.Type, "", outcomeInvalid)
		return dominteraction.EphemeralResponse(replyInvalidPayload)
	}

	switch req.Data.Name {
	case command.PatternName:
		return s.handlePattern(ctx, req)
	default:
		log.Warn("Unknown command", zap.String("command", req.Data.Name))
		record(req.Type, "unknown", outcomeUnknown)
		return dominteraction.EphemeralResponse(fmt.Sprintf("Unknown command: %s", req.Data.Name))
	}
}

func (s *Service) handlePattern(ctx context.Context, req dominteraction.Request) dominteraction.Response {
	log := logpkg.FromContext(ctx)

	opt, ok := req.Data.FirstOption()
	if !ok {
		record(req.Type, command.PatternName, outcomeInvalid)
		return dominteraction.EphemeralResponse(replyMissingKey)
	}
	query, ok := opt.StringValue()
	if !ok {
		record(req.Type, command.PatternName, outcomeInvalid)
		return dominteraction.EphemeralResponse(replyMissingKey)
	}

	doc, err := s.patterns.Lookup(ctx, query)
	if err != nil {
		log.Error("Pattern lookup failed", zap.String("query", query), zap.Error(err))
		record(req.Type, command.PatternName, outcomeUpstream)
		return dominteraction.EphemeralResponse(replyFetchFailed)
	}

	log.Debug("Pattern lookup", zap.String("query", query), zap.Int("matches", doc.Len()))
	record(req.Type, command.PatternName, outcomeOK)
	return dominteraction.MessageResponse(Render(doc))
}

func record(t dominteraction.Type, cmd, outcome string) {
	metrics.InteractionsTotal.WithLabelValues(t.String(), cmd, outcome).Inc()
}
