package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/domain"
	"github.com/kailas-cloud/patternbot/internal/domain/pattern"
	"github.com/kailas-cloud/patternbot/internal/metrics"
)

// DefaultSourceURL is the SkyHanni repository's regex constants file.
const DefaultSourceURL = "https://raw.githubusercontent.com/hannibal002/SkyHanni-REPO/main/constants/regexes.json"

// regexesField is the top-level field holding the key -> pattern mapping.
const regexesField = "regexes"

// maxDocumentBytes caps the response body read from the upstream.
const maxDocumentBytes = 16 << 20

// Fetch failure classes. Every error returned by Fetch also wraps
// domain.ErrPatternSourceError.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamStatus      = errors.New("upstream returned non-2xx status")
	ErrMalformedDocument   = errors.New("malformed upstream document")
	ErrMissingRegexes      = errors.New("upstream document has no regexes field")
)

// StatusError carries the status code of a non-2xx upstream response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUpstreamStatus.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// Config holds the fetcher settings.
type Config struct {
	SourceURL string
	// Timeout bounds a single fetch. Zero keeps the transport default.
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Fetcher downloads the pattern document on every call. It keeps no state
// between calls.
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
	logger    *zap.Logger
}

// NewFetcher creates an upstream pattern fetcher.
func NewFetcher(cfg *Config) *Fetcher {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	url := cfg.SourceURL
	if url == "" {
		url = DefaultSourceURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, url: url, userAgent: cfg.UserAgent, logger: logger}
}

// SourceURL returns the URL the fetcher reads from.
func (f *Fetcher) SourceURL() string { return f.url }

// Fetch implements domain.PatternFetcher.
func (f *Fetcher) Fetch(ctx context.Context) (pattern.Document, error) {
	start := time.Now()
	doc, status, err := f.fetch(ctx)
	metrics.UpstreamFetchTotal.WithLabelValues(status).Inc()
	if err != nil {
		f.logger.Debug("Pattern fetch failed", zap.String("url", f.url), zap.Error(err))
		return pattern.Document{}, fmt.Errorf("fetch patterns: %w: %w", err, domain.ErrPatternSourceError)
	}

	metrics.UpstreamFetchDuration.Observe(time.Since(start).Seconds())
	metrics.UpstreamPatternsFetched.Set(float64(doc.Len()))
	return doc, nil
}

// fetch returns the document and a metrics status label.
func (f *Fetcher) fetch(ctx context.Context) (pattern.Document, string, error) {
	resp, err := f.get(ctx)
	if err != nil {
		return pattern.Document{}, "unavailable", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return pattern.Document{}, "bad_status", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return pattern.Document{}, "unavailable", fmt.Errorf("%w: read body: %w", ErrUpstreamUnavailable, err)
	}

	doc, err := decodeDocument(body)
	if err != nil {
		if errors.Is(err, ErrMissingRegexes) {
			return pattern.Document{}, "missing_regexes", err
		}
		return pattern.Document{}, "malformed", err
	}
	return doc, "success", nil
}

// HealthCheck verifies the upstream answers with a 2xx status.
func (f *Fetcher) HealthCheck(ctx context.Context) error {
	resp, err := f.get(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// decodeDocument extracts the ordered regexes object from the upstream body.
func decodeDocument(body []byte) (pattern.Document, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pattern.Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if envelope == nil {
		return pattern.Document{}, fmt.Errorf("%w: document is null", ErrMalformedDocument)
	}

	raw, ok := envelope[regexesField]
	if !ok {
		return pattern.Document{}, ErrMissingRegexes
	}

	var doc pattern.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return pattern.Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return doc, nil
}
