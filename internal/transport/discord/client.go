// Package discord is a minimal client for the Discord REST API covering
// global application command management.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/domain"
	"github.com/kailas-cloud/patternbot/internal/domain/command"
)

// DefaultBaseURL is the versioned Discord API root.
const DefaultBaseURL = "https://discord.com/api/v10"

const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the platform.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord api error %d: %s", e.StatusCode, string(e.Body))
}

func (e *APIError) Unwrap() error { return domain.ErrPlatformError }

// Config holds the client settings.
type Config struct {
	BaseURL    string
	BotToken   string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the Discord REST API with a bot token.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	userAgent string
	logger    *zap.Logger
}

// NewClient creates a Discord REST client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      hc,
		baseURL:   base,
		token:     cfg.BotToken,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// BulkOverwriteGlobalCommands replaces every global command of the application.
func (c *Client) BulkOverwriteGlobalCommands(
	ctx context.Context, appID string, cmds []command.Command,
) ([]command.Command, error) {
	var out []command.Command
	if err := c.do(ctx, http.MethodPut, commandsEndpoint(appID), cmds, &out); err != nil {
		return nil, fmt.Errorf("bulk overwrite commands: %w", err)
	}
	return out, nil
}

// ListGlobalCommands returns the global commands currently registered.
func (c *Client) ListGlobalCommands(ctx context.Context, appID string) ([]command.Command, error) {
	var out []command.Command
	if err := c.do(ctx, http.MethodGet, commandsEndpoint(appID), nil, &out); err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return out, nil
}

func commandsEndpoint(appID string) string {
	return "applications/" + url.PathEscape(appID) + "/commands"
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, endpoint, err, domain.ErrPlatformError)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("discord api call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseAPIError extracts the platform's {"code", "message"} error body.
func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: body}

	var parsed struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}
	return apiErr
}
