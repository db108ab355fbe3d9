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

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	// SetStudioAPIKey stores the caller's key for the agent-inference
	// upstream. Generation runs fail without one.
	SetStudioAPIKey(ctx context.Context, apiKey string) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	return s.userRepo.GetByID(ctx, nil, rd.UserID)
}

func (s *userService) SetStudioAPIKey(ctx context.Context, apiKey string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return ErrNotAuthenticated
	}
	return s.userRepo.UpdateFields(ctx, nil, rd.UserID, map[string]interface{}{"studio_api_key": apiKey})
}
