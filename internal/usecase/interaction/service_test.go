package interaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/patternbot/internal/domain"
	dominteraction "github.com/kailas-cloud/patternbot/internal/domain/interaction"
	dompattern "github.com/kailas-cloud/patternbot/internal/domain/pattern"
)

// --- Mocks ---

type mockLookup struct {
	source    dompattern.Document
	err       error
	lastQuery string
	called    bool
}

func (m *mockLookup) Lookup(_ context.Context, query string) (dompattern.Document, error) {
	m.called = true
	m.lastQuery = query
	if m.err != nil {
		return dompattern.Document{}, m.err
	}
	return dompattern.Filter(m.source, query), nil
}

func patternRequest(options ...dominteraction.Option) dominteraction.Request {
	return dominteraction.Request{
		ID:   "123",
		Type: dominteraction.ApplicationCommand,
		Data: &dominteraction.CommandData{Name: "pattern", Options: options},
	}
}

func sampleSource() dompattern.Document {
	return dompattern.NewDocument(
		dompattern.Entry{Key: "a.b.c", Pattern: "X"},
		dompattern.Entry{Key: "a.b.d", Pattern: "Y"},
		dompattern.Entry{Key: "z.q", Pattern: "Z"},
	)
}

// --- Tests ---

func TestHandle_Ping(t *testing.T) {
	lookup := &mockLookup{}
	svc := New(lookup)

	resp, err := svc.Handle(context.Background(), dominteraction.Request{
		Type: dominteraction.Ping,
		Data: &dominteraction.CommandData{Name: "pattern"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != dominteraction.Pong || resp.Data != nil {
		t.Errorf("expected bare pong, got %+v", resp)
	}
	if lookup.called {
		t.Error("ping must not trigger a lookup")
	}
}

func TestHandle_PatternCommand(t *testing.T) {
	lookup := &mockLookup{source: sampleSource()}
	svc := New(lookup)

	resp, err := svc.Handle(context.Background(), patternRequest(
		dominteraction.Option{Name: "key", Type: 3, Value: "a.b"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Type != dominteraction.ChannelMessageWithSource {
		t.Fatalf("type: got %d, want %d", resp.Type, dominteraction.ChannelMessageWithSource)
	}
	if resp.Data.Flags != 0 {
		t.Errorf("pattern reply should be public, flags=%d", resp.Data.Flags)
	}

	content := resp.Data.Content
	want := introLine +
		"**Pattern Key:** a.b.c\n```regex\nX\n```\n\n" +
		"**Pattern Key:** a.b.d\n```regex\nY\n```\n\n"
	if content != want {
		t.Errorf("content mismatch:\ngot:  %q\nwant: %q", content, want)
	}
	if n := strings.Count(content, "```regex"); n != 2 {
		t.Errorf("expected 2 regex blocks, got %d", n)
	}
	if strings.Contains(content, "z.q") {
		t.Error("non-matching key rendered")
	}
	if lookup.lastQuery != "a.b" {
		t.Errorf("query: got %q, want %q", lookup.lastQuery, "a.b")
	}
}

func TestHandle_PatternCommand_NoMatch(t *testing.T) {
	svc := New(&mockLookup{source: sampleSource()})

	resp, err := svc.Handle(context.Background(), patternRequest(
		dominteraction.Option{Name: "key", Value: "nope"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data.Content != introLine || resp.Data.Flags != 0 {
		t.Errorf("expected public intro line only, got %+v", resp.Data)
	}
}

func TestHandle_PatternCommand_UsesFirstOption(t *testing.T) {
	lookup := &mockLookup{source: sampleSource()}
	svc := New(lookup)

	if _, err := svc.Handle(context.Background(), patternRequest(
		dominteraction.Option{Name: "query", Value: "z."},
		dominteraction.Option{Name: "key", Value: "a.b"},
	)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.lastQuery != "z." {
		t.Errorf("query: got %q, want first option value %q", lookup.lastQuery, "z.")
	}
}

func TestHandle_PatternCommand_UpstreamError(t *testing.T) {
	svc := New(&mockLookup{err: domain.ErrPatternSourceError})

	resp, err := svc.Handle(context.Background(), patternRequest(
		dominteraction.Option{Name: "key", Value: "a"},
	))
	if err != nil {
		t.Fatalf("upstream errors must become a reply, got %v", err)
	}
	if resp.Data == nil || resp.Data.Content != replyFetchFailed {
		t.Fatalf("unexpected reply: %+v", resp)
	}
	if resp.Data.Flags != dominteraction.FlagEphemeral {
		t.Errorf("error reply should be ephemeral, flags=%d", resp.Data.Flags)
	}
}

func TestHandle_PatternCommand_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		req  dominteraction.Request
		want string
	}{
		{"no data", dominteraction.Request{Type: dominteraction.ApplicationCommand}, replyInvalidPayload},
		{"no options", patternRequest(), replyMissingKey},
		{"numeric value", patternRequest(dominteraction.Option{Name: "key", Value: 42.0}), replyMissingKey},
		{"null value", patternRequest(dominteraction.Option{Name: "key"}), replyMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &mockLookup{source: sampleSource()}
			svc := New(lookup)

			resp, err := svc.Handle(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Data == nil || resp.Data.Content != tt.want {
				t.Errorf("got %+v, want content %q", resp, tt.want)
			}
			if lookup.called {
				t.Error("malformed payload must not trigger a lookup")
			}
		})
	}
}

func TestHandle_UnknownCommand(t *testing.T) {
	lookup := &mockLookup{}
	svc := New(lookup)

	resp, err := svc.Handle(context.Background(), dominteraction.Request{
		Type: dominteraction.ApplicationCommand,
		Data: &dominteraction.CommandData{Name: "frobnicate"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data == nil || resp.Data.Content != "Unknown command: frobnicate" {
		t.Errorf("unexpected reply: %+v", resp)
	}
	if resp.Data.Flags != dominteraction.FlagEphemeral {
		t.Errorf("unknown command reply should be ephemeral")
	}
	if lookup.called {
		t.Error("unknown command must not trigger a lookup")
	}
}

func TestHandle_UnsupportedType(t *testing.T) {
	svc := New(&mockLookup{})

	_, err := svc.Handle(context.Background(), dominteraction.Request{Type: dominteraction.ModalSubmit})
	if !errors.Is(err, domain.ErrUnsupportedInteraction) {
		t.Errorf("expected ErrUnsupportedInteraction, got %v", err)
	}
}
