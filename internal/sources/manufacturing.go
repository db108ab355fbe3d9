package sources

import (
	"context"
	"fmt"

	"github.com/draftdesk/draftdesk-backend/internal/clients/studio"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
)

// sourceAndFormat is the two-step pipeline shared by the manufacturing
// content types: one agent sources the data, a shared formatter turns it
// into platform-ready copy. The platform is folded into the format prompt
// instead of branching to per-platform agents.
func sourceAndFormat(ctx context.Context, log *logger.Logger, client studio.Client, sourceAgent studio.AgentKey, req Request) (string, error) {
	sessionID := newSessionID()
	log = log.With("session_id", sessionID, "user_id", req.UserID)
	log.Info("sourcing data", "content_type", req.ContentType, "platform", req.Platform)

	sourceData, err := client.ChatWithAgent(ctx, req.APIKey, req.UserID, sourceAgent, sessionID, req.Context)
	if err != nil {
		return "", fmt.Errorf("source data: %w", err)
	}

	formatMessage := fmt.Sprintf(`%s
THE TYPE OF CONTENT THIS IS: %s
THE CONTENT FORMAT SHOULD BE ACCORDING TO THE PLATFORM: %s

DRAFT CONTENT WITH DATA:
%s
`, req.Context, req.ContentType, req.Platform, sourceData)

	log.Info("formatting sourced data")
	out, err := client.ChatWithAgent(ctx, req.APIKey, req.UserID, studio.AgentFormatSource, sessionID, formatMessage)
	if err != nil {
		return "", fmt.Errorf("format source: %w", err)
	}
	return out, nil
}

// ManufacturingMetricsSourcer produces content built on manufacturing
// metrics data.
type ManufacturingMetricsSourcer struct {
	log    *logger.Logger
	client studio.Client
}

func NewManufacturingMetricsSourcer(baseLog *logger.Logger, client studio.Client) *ManufacturingMetricsSourcer {
	return &ManufacturingMetricsSourcer{
		log:    baseLog.With("sourcer", "manufacturing_metrics"),
		client: client,
	}
}

func (s *ManufacturingMetricsSourcer) Get(ctx context.Context, req Request) (string, error) {
	return sourceAndFormat(ctx, s.log, s.client, studio.AgentManufacturingMetrics, req)
}

// ManufacturingBusinessModelsSourcer produces content about manufacturing
// business models.
type ManufacturingBusinessModelsSourcer struct {
	log    *logger.Logger
	client studio.Client
}

func NewManufacturingBusinessModelsSourcer(baseLog *logger.Logger, client studio.Client) *ManufacturingBusinessModelsSourcer {
	return &ManufacturingBusinessModelsSourcer{
		log:    baseLog.With("sourcer", "manufacturing_business_models"),
		client: client,
	}
}

func (s *ManufacturingBusinessModelsSourcer) Get(ctx context.Context, req Request) (string, error) {
	return sourceAndFormat(ctx, s.log, s.client, studio.AgentManufacturingModels, req)
}
