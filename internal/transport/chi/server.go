package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/domain"
	dominteraction "github.com/kailas-cloud/patternbot/internal/domain/interaction"
	logpkg "github.com/kailas-cloud/patternbot/internal/logger"
	healthuc "github.com/kailas-cloud/patternbot/internal/usecase/health"
	interactionuc "github.com/kailas-cloud/patternbot/internal/usecase/interaction"
)

// ErrorCode is the machine-readable code of a JSON error body.
type ErrorCode string

// Error codes returned by the HTTP API.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnsupported        ErrorCode = "unsupported_interaction"
	ErrorCodeInvalidInteraction ErrorCode = "invalid_interaction"
	ErrorCodeInternal           ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the interactions endpoint and the operational routes.
type Server struct {
	interactions  *interactionuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server.
func NewServer(interactions *interactionuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		interactions: interactions,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedInteraction, http.StatusBadRequest, ErrorCodeUnsupported),
		sentinelHandler(domain.ErrInvalidInteraction, http.StatusBadRequest, ErrorCodeInvalidInteraction),
	}
	return s
}

// Mount registers the routes on r. Only the interactions route is behind verify.
func (s *Server) Mount(r chi.Router, verify func(http.Handler) http.Handler) {
	r.With(verify).Post("/interactions", s.HandleInteraction)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// HandleInteraction handles POST /interactions.
func (s *Server) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}

	req, err := dominteraction.Decode(body)
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("undecodable interaction", zap.Error(err))
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}

	resp, err := s.interactions.Handle(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedInteraction,
		domain.ErrInvalidInteraction,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
