package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftdesk/draftdesk-backend/internal/clients/studio"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
)

// NewsSourcer runs the three-step news pipeline: pick a topic from the
// desk's brief, gather coverage for it, then format the result for the
// target platform.
type NewsSourcer struct {
	log    *logger.Logger
	client studio.Client
}

func NewNewsSourcer(baseLog *logger.Logger, client studio.Client) *NewsSourcer {
	return &NewsSourcer{
		log:    baseLog.With("sourcer", "news"),
		client: client,
	}
}

func (s *NewsSourcer) Get(ctx context.Context, req Request) (string, error) {
	sessionID := newSessionID()
	log := s.log.With("session_id", sessionID, "user_id", req.UserID)
	log.Info("starting news sourcing", "platform", req.Platform)

	topic, err := s.selectTopic(ctx, log, req, sessionID)
	if err != nil {
		return "", err
	}

	gatherContext := fmt.Sprintf("%s\nThe topic to gather the news for: %s", req.Context, topic)
	rawNews, err := s.gatherNews(ctx, log, req, sessionID, gatherContext)
	if err != nil {
		return "", err
	}

	formatContext := fmt.Sprintf("Context for the content: %s\nInformation to include in the content:\n%s", gatherContext, rawNews)
	out, err := s.formatNews(ctx, log, req, sessionID, formatContext)
	if err != nil {
		return "", err
	}

	log.Info("news sourcing completed")
	return out, nil
}

func (s *NewsSourcer) selectTopic(ctx context.Context, log *logger.Logger, req Request, sessionID string) (string, error) {
	log.Info("selecting news topic")
	topic, err := s.client.ChatWithAgent(ctx, req.APIKey, req.UserID, studio.AgentNewsTopicSelector, sessionID, req.Context)
	if err != nil {
		return "", fmt.Errorf("select topic: %w", err)
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		log.Warn("topic selection returned empty result")
		return "", fmt.Errorf("select topic: %w", ErrEmptySelection)
	}
	log.Info("selected topic", "topic", topic)
	return topic, nil
}

func (s *NewsSourcer) gatherNews(ctx context.Context, log *logger.Logger, req Request, sessionID, message string) (string, error) {
	log.Info("gathering news")
	raw, err := s.client.ChatWithAgent(ctx, req.APIKey, req.UserID, studio.AgentNewsSourcer, sessionID, message)
	if err != nil {
		return "", fmt.Errorf("gather news: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		log.Warn("news gathering returned empty result")
		return "", fmt.Errorf("gather news: %w", ErrEmptySelection)
	}
	return raw, nil
}

func (s *NewsSourcer) formatNews(ctx context.Context, log *logger.Logger, req Request, sessionID, message string) (string, error) {
	var agent studio.AgentKey
	switch req.Platform {
	case PlatformLinkedIn:
		agent = studio.AgentFormatNewsLinkedIn
	case PlatformTwitter:
		agent = studio.AgentFormatNewsTwitter
	default:
		log.Warn("no news formatter for platform", "platform", req.Platform)
		return "", fmt.Errorf("format news for %q: %w", req.Platform, ErrUnsupportedPlatform)
	}

	log.Info("formatting news", "platform", req.Platform)
	out, err := s.client.ChatWithAgent(ctx, req.APIKey, req.UserID, agent, sessionID, message)
	if err != nil {
		return "", fmt.Errorf("format news: %w", err)
	}
	return out, nil
}
