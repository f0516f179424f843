package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/patternbot/internal/config"
	domcmd "github.com/kailas-cloud/patternbot/internal/domain/command"
)

func staticConfig(cfg config.Config) loadFunc {
	cfg.ApplyDefaults()
	return func(string) (config.Config, error) { return cfg, nil }
}

func run(t *testing.T, load loadFunc, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(load)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"regexes":{"chat.party":"^P .*$","chat.guild":"^G .*$","item.name":".*"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPatterns_Plain(t *testing.T) {
	srv := newUpstream(t)
	load := staticConfig(config.Config{Patterns: config.PatternsConfig{SourceURL: srv.URL}})

	out, err := run(t, load, "patterns", "chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "chat.party\t^P .*$\nchat.guild\t^G .*$\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPatterns_JSONKeepsOrder(t *testing.T) {
	srv := newUpstream(t)
	load := staticConfig(config.Config{Patterns: config.PatternsConfig{SourceURL: srv.URL}})

	out, err := run(t, load, "patterns", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	party := strings.Index(out, "chat.party")
	guild := strings.Index(out, "chat.guild")
	item := strings.Index(out, "item.name")
	if party < 0 || !(party < guild && guild < item) {
		t.Errorf("keys out of order: %s", out)
	}
}

func TestPatterns_NoMatch(t *testing.T) {
	srv := newUpstream(t)
	load := staticConfig(config.Config{Patterns: config.PatternsConfig{SourceURL: srv.URL}})

	out, err := run(t, load, "patterns", "zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No patterns found") {
		t.Errorf("got %q", out)
	}
}

func TestPatterns_Message(t *testing.T) {
	srv := newUpstream(t)
	load := staticConfig(config.Config{Patterns: config.PatternsConfig{SourceURL: srv.URL}})

	out, err := run(t, load, "patterns", "item", "--message")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "**Pattern Key:** item.name\n```regex\n.*\n```") {
		t.Errorf("got %q", out)
	}
}

func TestRegister(t *testing.T) {
	var gotAuth, gotMethod, gotPath string
	var gotBody []domcmd.Command
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for i := range gotBody {
			gotBody[i].ID = "100"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gotBody)
	}))
	t.Cleanup(srv.Close)

	load := staticConfig(config.Config{Discord: config.DiscordConfig{
		BotToken: "tok", AppID: "42", APIBaseURL: srv.URL,
	}})

	out, err := run(t, load, "register")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/applications/42/commands" {
		t.Errorf("request: got %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bot tok" {
		t.Errorf("authorization: got %q", gotAuth)
	}
	if len(gotBody) != 1 || gotBody[0].Name != domcmd.PatternName {
		t.Errorf("body: got %+v", gotBody)
	}
	if !strings.Contains(out, "Registered 1 command(s)") || !strings.Contains(out, "/pattern") {
		t.Errorf("output: got %q", out)
	}
}

func TestRegister_PlatformError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":0,"message":"401: Unauthorized"}`)
	}))
	t.Cleanup(srv.Close)

	load := staticConfig(config.Config{Discord: config.DiscordConfig{
		BotToken: "bad", AppID: "42", APIBaseURL: srv.URL,
	}})

	_, err := run(t, load, "register")
	if err == nil || !strings.Contains(err.Error(), "401: Unauthorized") {
		t.Errorf("expected platform error, got %v", err)
	}
}

func TestRegister_MissingCredentials(t *testing.T) {
	load := staticConfig(config.Config{})

	_, err := run(t, load, "register")
	if err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("expected bot_token error, got %v", err)
	}
}

func TestCommandsList_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: got %s", r.Method)
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	load := staticConfig(config.Config{Discord: config.DiscordConfig{
		BotToken: "tok", AppID: "42", APIBaseURL: srv.URL,
	}})

	out, err := run(t, load, "commands", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No global commands registered.") {
		t.Errorf("got %q", out)
	}
}

func TestLoadError(t *testing.T) {
	load := func(string) (config.Config, error) { return config.Config{}, errors.New("boom") }

	_, err := run(t, load, "patterns", "x")
	if err == nil || !strings.Contains(err.Error(), "load config: boom") {
		t.Errorf("got %v", err)
	}
}
