package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/sources"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// ContentService owns the content records that desks generate into, and
// runs the sourcing pipeline that fills them.
type ContentService interface {
	CreateEmpty(ctx context.Context, tx *gorm.DB) (*types.Content, error)
	Get(ctx context.Context, contentID uuid.UUID) (*types.Content, error)
	UpdateFeedback(ctx context.Context, contentID uuid.UUID, feedback string) (*types.Content, error)

	// Run dispatches to the sourcer for the desk's content type, writes
	// the generated text into the content record, and returns it.
	Run(ctx context.Context, in RunInput) (string, error)
}

// RunInput carries everything one pipeline run needs. APIKey is the
// desk owner's studio key.
type RunInput struct {
	ContentID   uuid.UUID
	Topic       string
	Context     string
	ContentType string
	Platform    string
	APIKey      string
	UserID      string
}

type contentService struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *sources.Registry
	repo     repos.ContentRepo
}

func NewContentService(db *gorm.DB, baseLog *logger.Logger, registry *sources.Registry, repo repos.ContentRepo) ContentService {
	return &contentService{
		db:       db,
		log:      baseLog.With("service", "ContentService"),
		registry: registry,
		repo:     repo,
	}
}

func (s *contentService) CreateEmpty(ctx context.Context, tx *gorm.DB) (*types.Content, error) {
	content := &types.Content{ID: uuid.New()}
	created, err := s.repo.Create(ctx, tx, []*types.Content{content})
	if err != nil {
		return nil, fmt.Errorf("create content record: %w", err)
	}
	s.log.Info("created empty content record", "content_id", created[0].ID)
	return created[0], nil
}

func (s *contentService) Get(ctx context.Context, contentID uuid.UUID) (*types.Content, error) {
	return s.repo.GetByID(ctx, nil, contentID)
}

func (s *contentService) UpdateFeedback(ctx context.Context, contentID uuid.UUID, feedback string) (*types.Content, error) {
	if err := s.repo.UpdateFields(ctx, nil, contentID, map[string]interface{}{"feedback": feedback}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, nil, contentID)
}

func (s *contentService) Run(ctx context.Context, in RunInput) (string, error) {
	log := s.log.With("content_id", in.ContentID, "content_type", in.ContentType)
	log.Info("starting content generation run", "topic", in.Topic)

	// The sourcer lookup happens before anything else so an unknown
	// content type never reaches an agent.
	sourcer, err := s.registry.Lookup(in.ContentType)
	if err != nil {
		return "", err
	}

	// Earlier feedback on this content record feeds back into the prompt.
	var feedback string
	if content, getErr := s.repo.GetByID(ctx, nil, in.ContentID); getErr != nil {
		log.Warn("could not load content record for feedback, continuing without", "error", getErr)
	} else {
		feedback = content.Feedback
	}

	baseContext := fmt.Sprintf("TOPIC: %s\nCONTEXT AROUND TOPIC: %s\nFEEDBACK: %s\n", in.Topic, in.Context, feedback)

	result, err := sourcer.Get(ctx, sources.Request{
		APIKey:      in.APIKey,
		UserID:      in.UserID,
		Context:     baseContext,
		ContentType: in.ContentType,
		Platform:    in.Platform,
	})
	if err != nil {
		return "", fmt.Errorf("sourcing pipeline: %w", err)
	}

	if err := s.repo.UpdateFields(ctx, nil, in.ContentID, map[string]interface{}{"result": result}); err != nil {
		return "", fmt.Errorf("persist generated content: %w", err)
	}
	log.Info("content generation run complete")
	return result, nil
}
