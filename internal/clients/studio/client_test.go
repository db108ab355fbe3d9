package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	t.Setenv("STUDIO_BASE_URL", baseURL)
	t.Setenv("STUDIO_MAX_RETRIES", "1")
	t.Setenv("STUDIO_TIMEOUT_SECONDS", "5")
	t.Setenv("STUDIO_AGENT_NEWS_TOPIC_SELECTOR", "agent-topic-1")

	c, err := NewClient(mustTestLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestChatWithAgentSendsRequestAndDecodesResponse(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Response: "Latest robotics news"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	out, err := c.ChatWithAgent(context.Background(), "key-123", "user-1", AgentNewsTopicSelector, "sess-1", "pick a topic")
	if err != nil {
		t.Fatalf("ChatWithAgent: %v", err)
	}
	if out != "Latest robotics news" {
		t.Fatalf("response = %q", out)
	}
	if gotPath != "/v3/inference/chat/" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAPIKey != "key-123" {
		t.Fatalf("x-api-key = %q", gotAPIKey)
	}
	want := chatRequest{UserID: "user-1", AgentID: "agent-topic-1", SessionID: "sess-1", Message: "pick a topic"}
	if gotBody != want {
		t.Fatalf("request body = %+v, want %+v", gotBody, want)
	}
}

func TestChatWithAgentRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	out, err := c.ChatWithAgent(context.Background(), "key", "user", AgentNewsTopicSelector, "sess", "msg")
	if err != nil {
		t.Fatalf("ChatWithAgent: %v", err)
	}
	if out != "ok" {
		t.Fatalf("response = %q", out)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("server hits = %d, want 2", got)
	}
}

func TestChatWithAgentDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.ChatWithAgent(context.Background(), "key", "user", AgentNewsTopicSelector, "sess", "msg")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var httpErr *studioHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hits = %d, want 1", got)
	}
}

func TestChatWithAgentUnconfiguredAgent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.ChatWithAgent(context.Background(), "key", "user", AgentFormatSource, "sess", "msg")
	if !errors.Is(err, ErrAgentNotConfigured) {
		t.Fatalf("err = %v, want ErrAgentNotConfigured", err)
	}
	if got := hits.Load(); got != 0 {
		t.Fatalf("server hits = %d, want 0", got)
	}
}

func TestChatWithAgentHonoursContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "flaky", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ChatWithAgent(ctx, "key", "user", AgentNewsTopicSelector, "sess", "msg")
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestLoadAgentRegistryFromEnv(t *testing.T) {
	t.Setenv("STUDIO_AGENT_NEWS_SOURCER", "agent-sourcer-9")

	agents, err := loadAgentRegistry()
	if err != nil {
		t.Fatalf("loadAgentRegistry: %v", err)
	}
	if agents[AgentNewsSourcer] != "agent-sourcer-9" {
		t.Fatalf("AgentNewsSourcer = %q", agents[AgentNewsSourcer])
	}
	if _, ok := agents[AgentFormatSource]; ok {
		t.Fatal("unset agent key should be absent")
	}
}
