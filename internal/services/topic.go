package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// TopicService manages the saved topic ideas a user can later spin a
// desk from.
type TopicService interface {
	CreateTopic(ctx context.Context, topic, topicContext string) (*types.Topic, error)
	GetTopic(ctx context.Context, topicID uuid.UUID) (*types.Topic, error)
	ListTopics(ctx context.Context, limit, offset int) ([]*types.Topic, int64, error)
	UpdateTopic(ctx context.Context, topicID uuid.UUID, updates map[string]interface{}) (*types.Topic, error)
	DeleteTopic(ctx context.Context, topicID uuid.UUID) error

	// LinkDesk records which desk was spun from this topic, so a post
	// submission can find the generated content.
	LinkDesk(ctx context.Context, topicID, deskID uuid.UUID) (*types.Topic, error)
}

type topicService struct {
	db        *gorm.DB
	log       *logger.Logger
	topicRepo repos.TopicRepo
}

func NewTopicService(db *gorm.DB, log *logger.Logger, topicRepo repos.TopicRepo) TopicService {
	return &topicService{
		db:        db,
		log:       log.With("service", "TopicService"),
		topicRepo: topicRepo,
	}
}

func (s *topicService) CreateTopic(ctx context.Context, topic, topicContext string) (*types.Topic, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	record := &types.Topic{
		ID:      uuid.New(),
		UserID:  rd.UserID,
		Topic:   topic,
		Context: topicContext,
	}
	created, err := s.topicRepo.Create(ctx, nil, []*types.Topic{record})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *topicService) getOwnedTopic(ctx context.Context, topicID uuid.UUID) (*types.Topic, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	topic, err := s.topicRepo.GetByID(ctx, nil, topicID)
	if err != nil {
		return nil, err
	}
	if topic.UserID != rd.UserID {
		return nil, repos.ErrNotFound
	}
	return topic, nil
}

func (s *topicService) GetTopic(ctx context.Context, topicID uuid.UUID) (*types.Topic, error) {
	return s.getOwnedTopic(ctx, topicID)
}

func (s *topicService) ListTopics(ctx context.Context, limit, offset int) ([]*types.Topic, int64, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, 0, ErrNotAuthenticated
	}
	return s.topicRepo.ListByUserID(ctx, nil, rd.UserID, limit, offset)
}

func (s *topicService) UpdateTopic(ctx context.Context, topicID uuid.UUID, updates map[string]interface{}) (*types.Topic, error) {
	if _, err := s.getOwnedTopic(ctx, topicID); err != nil {
		return nil, err
	}
	if err := s.topicRepo.UpdateFields(ctx, nil, topicID, updates); err != nil {
		return nil, err
	}
	return s.topicRepo.GetByID(ctx, nil, topicID)
}

func (s *topicService) DeleteTopic(ctx context.Context, topicID uuid.UUID) error {
	if _, err := s.getOwnedTopic(ctx, topicID); err != nil {
		return err
	}
	return s.topicRepo.Delete(ctx, nil, topicID)
}

func (s *topicService) LinkDesk(ctx context.Context, topicID, deskID uuid.UUID) (*types.Topic, error) {
	return s.UpdateTopic(ctx, topicID, map[string]interface{}{"desk_id": deskID})
}
