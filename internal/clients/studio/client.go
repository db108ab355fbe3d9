package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
)

// AgentKey selects one of the configured studio agents.
type AgentKey string

const (
	AgentNewsTopicSelector    AgentKey = "news_topic_selector"
	AgentNewsSourcer          AgentKey = "news_sourcer"
	AgentFormatNewsLinkedIn   AgentKey = "format_news_linkedin"
	AgentFormatNewsTwitter    AgentKey = "format_news_twitter"
	AgentManufacturingMetrics AgentKey = "manufacturing_metrices"
	AgentManufacturingModels  AgentKey = "manufacturing_models"
	AgentFormatSource         AgentKey = "format_source"
)

// ErrAgentNotConfigured indicates the agent registry has no ID for the
// requested key; the call fails before any network traffic.
var ErrAgentNotConfigured = errors.New("agent id not configured")

// Client is the inference gateway to the external studio agent service.
// Every exchange is one idempotent request/response keyed by a per-run
// session id; transient failures are retried with bounded exponential
// backoff inside the client, never by callers.
type Client interface {
	ChatWithAgent(ctx context.Context, apiKey, userID string, agent AgentKey, sessionID, message string) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	agents     map[AgentKey]string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("STUDIO_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing STUDIO_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	agents, err := loadAgentRegistry()
	if err != nil {
		return nil, err
	}

	// Agent chains can run long; the upstream service allows up to 15
	// minutes per exchange.
	timeoutSec := 900
	if v := os.Getenv("STUDIO_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("STUDIO_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "StudioClient"),
		baseURL:    baseURL,
		agents:     agents,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type chatRequest struct {
	UserID    string `json:"user_id"`
	AgentID   string `json:"agent_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type studioHTTPError struct {
	StatusCode int
	Body       string
}

func (e *studioHTTPError) Error() string {
	return fmt.Sprintf("studio http %d: %s", e.StatusCode, e.Body)
}

func (c *client) ChatWithAgent(ctx context.Context, apiKey, userID string, agent AgentKey, sessionID, message string) (string, error) {
	agentID, ok := c.agents[agent]
	if !ok || agentID == "" {
		return "", fmt.Errorf("%w: %s", ErrAgentNotConfigured, agent)
	}

	body := chatRequest{
		UserID:    userID,
		AgentID:   agentID,
		SessionID: sessionID,
		Message:   message,
	}

	var out chatResponse
	if err := c.do(ctx, apiKey, "/v3/inference/chat/", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *client) do(ctx context.Context, apiKey, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := c.doOnce(ctx, apiKey, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("studio decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryable(err) || attempt == c.maxRetries {
			return err
		}

		c.log.Warn("Studio request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", backoff.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, apiKey, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &studioHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func isRetryable(err error) bool {
	var httpErr *studioHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout ||
			httpErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
