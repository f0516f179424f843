package chi

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	dominteraction "github.com/kailas-cloud/patternbot/internal/domain/interaction"
	"github.com/kailas-cloud/patternbot/internal/transport/upstream"
	healthuc "github.com/kailas-cloud/patternbot/internal/usecase/health"
	interactionuc "github.com/kailas-cloud/patternbot/internal/usecase/interaction"
	patternuc "github.com/kailas-cloud/patternbot/internal/usecase/pattern"
)

const regexesBody = `{"regexes":{"a.b":"^x$","c.d":"y","a.bc":"z"}}`

// testEnv wires the real services against a fake upstream.
type testEnv struct {
	router   http.Handler
	priv     ed25519.PrivateKey
	upstream *httptest.Server
	status   atomic.Int32
	hits     atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}
	env.status.Store(http.StatusOK)

	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hits.Add(1)
		status := int(env.status.Load())
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(regexesBody))
		}
	}))
	t.Cleanup(env.upstream.Close)

	fetcher := upstream.NewFetcher(&upstream.Config{SourceURL: env.upstream.URL, Logger: zap.NewNop()})
	interactions := interactionuc.New(patternuc.New(fetcher))
	health := healthuc.New(nil, fetcher)

	pub, priv := newKeyPair(t)
	env.priv = priv

	r := chi.NewRouter()
	NewServer(interactions, health, zap.NewNop()).Mount(r, SignatureMiddleware(pub, zap.NewNop()))
	env.router = r
	return env
}

func (e *testEnv) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, signedRequest(e.priv, "1700000000", body))
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) dominteraction.Response {
	t.Helper()
	var resp dominteraction.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

const patternCommand = `{"id":"1","type":2,"data":{"id":"9","name":"pattern","type":1,` +
	`"options":[{"name":"key","type":3,"value":"a.b"}]}}`

func TestInteractions_Ping(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, `{"id":"1","type":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "{\"type\":1}\n" {
		t.Errorf("body: got %q", rr.Body.String())
	}
	if env.hits.Load() != 0 {
		t.Errorf("ping must not fetch patterns, got %d upstream hits", env.hits.Load())
	}
}

func TestInteractions_PingWithUnexpectedFields(t *testing.T) {
	env := newTestEnv(t)

	bodies := []string{
		`{"type":1,"id":123}`,
		`{"type":1,"data":"x"}`,
		`{"type":1,"data":{"options":[{"name":5}]}}`,
	}
	for _, body := range bodies {
		rr := env.post(t, body)
		if rr.Code != http.StatusOK || rr.Body.String() != "{\"type\":1}\n" {
			t.Errorf("%s: got %d %q, want pong", body, rr.Code, rr.Body.String())
		}
	}
}

func TestInteractions_MalformedCommandData(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, `{"id":"1","type":2,"data":{"name":5,"options":"x"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Data == nil || resp.Data.Flags != dominteraction.FlagEphemeral ||
		resp.Data.Content != "Invalid command payload." {
		t.Errorf("expected ephemeral invalid payload reply, got %+v", resp.Data)
	}
	if env.hits.Load() != 0 {
		t.Errorf("upstream hits: got %d, want 0", env.hits.Load())
	}
}

func TestInteractions_PatternCommand(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, patternCommand)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Type != dominteraction.ChannelMessageWithSource {
		t.Errorf("type: got %d, want %d", resp.Type, dominteraction.ChannelMessageWithSource)
	}
	want := "Here are the patterns matching your query:\n\n" +
		"**Pattern Key:** a.b\n```regex\n^x$\n```\n\n" +
		"**Pattern Key:** a.bc\n```regex\nz\n```\n\n"
	if resp.Data == nil || resp.Data.Content != want {
		t.Errorf("content mismatch:\n got: %+v\nwant: %q", resp.Data, want)
	}
}

func TestInteractions_BadSignatureNeverFetches(t *testing.T) {
	env := newTestEnv(t)

	req := signedRequest(env.priv, "1700000000", patternCommand)
	req.Header.Set(HeaderTimestamp, "1")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if env.hits.Load() != 0 {
		t.Errorf("upstream hits: got %d, want 0", env.hits.Load())
	}
}

func TestInteractions_UpstreamFailureThenRecovery(t *testing.T) {
	env := newTestEnv(t)
	env.status.Store(http.StatusInternalServerError)

	rr := env.post(t, patternCommand)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeResponse(t, rr)
	if resp.Data == nil || resp.Data.Flags != dominteraction.FlagEphemeral {
		t.Fatalf("expected ephemeral reply, got %+v", resp.Data)
	}
	if resp.Data.Content != "Failed to fetch patterns, please try again later." {
		t.Errorf("content: got %q", resp.Data.Content)
	}

	env.status.Store(http.StatusOK)
	resp = decodeResponse(t, env.post(t, patternCommand))
	if resp.Data == nil || resp.Data.Flags != 0 {
		t.Fatalf("expected public reply after recovery, got %+v", resp.Data)
	}
	if env.hits.Load() != 2 {
		t.Errorf("each query fetches: got %d upstream hits, want 2", env.hits.Load())
	}
}

func TestInteractions_NoMatch(t *testing.T) {
	env := newTestEnv(t)

	body := `{"id":"1","type":2,"data":{"name":"pattern","options":[{"name":"key","type":3,"value":"zzz"}]}}`
	resp := decodeResponse(t, env.post(t, body))
	if resp.Data == nil || resp.Data.Content != "Here are the patterns matching your query:\n\n" {
		t.Errorf("content: got %+v", resp.Data)
	}
}

func TestInteractions_UnsupportedType(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, `{"id":"1","type":3}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeUnsupported {
		t.Errorf("code: got %s, want %s", errResp.Code, ErrorCodeUnsupported)
	}
}

func TestInteractions_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.post(t, `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorCodeBadRequest {
		t.Errorf("code: got %s, want %s", errResp.Code, ErrorCodeBadRequest)
	}
	if strings.Contains(errResp.Message, "json") {
		t.Errorf("message leaks decoder details: %q", errResp.Message)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	get := func() (int, HealthResponse) {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
		var resp HealthResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		return rr.Code, resp
	}

	code, resp := get()
	if code != http.StatusOK || resp.Status != "ok" || resp.Checks["upstream"] != "ok" {
		t.Errorf("healthy: got %d %+v", code, resp)
	}

	env.status.Store(http.StatusBadGateway)
	code, resp = get()
	if code != http.StatusServiceUnavailable || resp.Status != "degraded" || resp.Checks["upstream"] != "error" {
		t.Errorf("degraded: got %d %+v", code, resp)
	}
}

func TestMetricsRoute_NoSignatureRequired(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}
