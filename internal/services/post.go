package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// PostService manages the review flow: a post snapshots a desk's
// generated content so reviewers see exactly what was produced, even if
// the desk keeps regenerating afterwards.
type PostService interface {
	// SubmitForReview creates a pending post from the desk linked to the
	// topic. ErrEmptyContent if the desk has not generated anything yet.
	SubmitForReview(ctx context.Context, topicID uuid.UUID) (*types.Post, error)

	GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error)
	ListPosts(ctx context.Context, status types.PostStatus, limit, offset int) ([]*types.Post, int64, error)
	ApprovePost(ctx context.Context, postID uuid.UUID) (*types.Post, error)
	RejectPost(ctx context.Context, postID uuid.UUID, feedback string) (*types.Post, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
}

type postService struct {
	db          *gorm.DB
	log         *logger.Logger
	postRepo    repos.PostRepo
	topicRepo   repos.TopicRepo
	deskRepo    repos.DeskRepo
	contentRepo repos.ContentRepo
}

func NewPostService(
	db *gorm.DB,
	log *logger.Logger,
	postRepo repos.PostRepo,
	topicRepo repos.TopicRepo,
	deskRepo repos.DeskRepo,
	contentRepo repos.ContentRepo,
) PostService {
	return &postService{
		db:          db,
		log:         log.With("service", "PostService"),
		postRepo:    postRepo,
		topicRepo:   topicRepo,
		deskRepo:    deskRepo,
		contentRepo: contentRepo,
	}
}

func (s *postService) SubmitForReview(ctx context.Context, topicID uuid.UUID) (*types.Post, error) {
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
	if topic.DeskID == nil {
		return nil, fmt.Errorf("topic %s has no desk: %w", topicID, ErrEmptyContent)
	}

	desk, err := s.deskRepo.GetByID(ctx, nil, *topic.DeskID)
	if err != nil {
		return nil, fmt.Errorf("load desk for topic: %w", err)
	}
	content, err := s.contentRepo.GetByID(ctx, nil, desk.ContentID)
	if err != nil {
		return nil, fmt.Errorf("load content for desk: %w", err)
	}
	if strings.TrimSpace(content.Result) == "" {
		return nil, ErrEmptyContent
	}

	post := &types.Post{
		ID:          uuid.New(),
		TopicID:     topic.ID,
		Topic:       desk.Topic,
		Context:     desk.Context,
		Platform:    desk.Platform,
		ContentType: desk.ContentType,
		Content:     content.Result,
		QnA:         content.QnA,
		Feedback:    content.Feedback,
		Status:      types.PostStatusPendingReview,
	}
	created, err := s.postRepo.Create(ctx, nil, []*types.Post{post})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.log.Info("post submitted for review", "post_id", created[0].ID, "topic_id", topicID)
	return created[0], nil
}

func (s *postService) GetPost(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	return s.postRepo.GetByID(ctx, nil, postID)
}

func (s *postService) ListPosts(ctx context.Context, status types.PostStatus, limit, offset int) ([]*types.Post, int64, error) {
	return s.postRepo.ListByStatus(ctx, nil, status, limit, offset)
}

func (s *postService) setStatus(ctx context.Context, postID uuid.UUID, updates map[string]interface{}) (*types.Post, error) {
	if err := s.postRepo.UpdateFields(ctx, nil, postID, updates); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, nil, postID)
}

func (s *postService) ApprovePost(ctx context.Context, postID uuid.UUID) (*types.Post, error) {
	return s.setStatus(ctx, postID, map[string]interface{}{"status": types.PostStatusApproved})
}

func (s *postService) RejectPost(ctx context.Context, postID uuid.UUID, feedback string) (*types.Post, error) {
	return s.setStatus(ctx, postID, map[string]interface{}{
		"status":   types.PostStatusRejected,
		"feedback": feedback,
	})
}

func (s *postService) DeletePost(ctx context.Context, postID uuid.UUID) error {
	return s.postRepo.Delete(ctx, nil, postID)
}
