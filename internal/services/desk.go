package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// DeskService drives a desk through its generation phases: it owns the
// desk records, writes the canonical status for each run, and notifies
// listeners on every transition. Runs execute detached from the
// triggering request.
type DeskService interface {
	CreateDesk(ctx context.Context, in CreateDeskInput) (*types.Desk, error)
	GetDesk(ctx context.Context, deskID uuid.UUID) (*types.Desk, error)
	ListDesks(ctx context.Context, limit, offset int) ([]*types.Desk, int64, error)
	UpdateDesk(ctx context.Context, deskID uuid.UUID, updates map[string]interface{}) (*types.Desk, error)
	DeleteDesk(ctx context.Context, deskID uuid.UUID) error

	GetContentForDesk(ctx context.Context, deskID uuid.UUID) (*types.Content, error)
	GetStatus(ctx context.Context, deskID uuid.UUID) (types.GenerationStatus, error)

	// RunContentPhase executes the content phase synchronously. It writes
	// PROCESSING before the pipeline and a terminal SUCCESS or ERROR
	// after, returning the pipeline error on failure. ErrRunInProgress if
	// the desk already has an active run.
	RunContentPhase(ctx context.Context, deskID, userID uuid.UUID, apiKey string) error

	// Run executes the full pipeline. A phase failure is logged and
	// swallowed: callers learn the outcome from the persisted status, not
	// from Run itself. ErrRunInProgress is still returned, since it means
	// nothing was started at all.
	Run(ctx context.Context, deskID, userID uuid.UUID, apiKey string) error

	// TriggerRunContentPhase and TriggerRun start the corresponding run
	// in a detached goroutine and return immediately. The run lock is
	// acquired before returning, so a nil result means the run is on.
	TriggerRunContentPhase(ctx context.Context, deskID uuid.UUID) error
	TriggerRun(ctx context.Context, deskID uuid.UUID) error

	// SwallowedFailures counts runs whose failure was absorbed by Run.
	SwallowedFailures() uint64
}

type CreateDeskInput struct {
	Topic       string `json:"topic" binding:"required"`
	Context     string `json:"context" binding:"required"`
	Platform    string `json:"platform" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type deskService struct {
	db       *gorm.DB
	log      *logger.Logger
	deskRepo repos.DeskRepo
	userRepo repos.UserRepo
	content  ContentService
	notifier DeskNotifier

	locks     runLocks
	swallowed atomic.Uint64
}

func NewDeskService(
	db *gorm.DB,
	log *logger.Logger,
	deskRepo repos.DeskRepo,
	userRepo repos.UserRepo,
	content ContentService,
	notifier DeskNotifier,
) DeskService {
	return &deskService{
		db:       db,
		log:      log.With("service", "DeskService"),
		deskRepo: deskRepo,
		userRepo: userRepo,
		content:  content,
		notifier: notifier,
		locks:    runLocks{active: make(map[uuid.UUID]struct{})},
	}
}

// Detached runs trace under their own root span; the triggering
// request's span has usually finished before the run does.
var runTracer = otel.Tracer("draftdesk/desk")

// runLocks is an advisory per-desk lock. It guards against two runs
// interleaving status writes for the same desk; it does not survive a
// process restart.
type runLocks struct {
	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func (l *runLocks) tryAcquire(deskID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.active[deskID]; held {
		return false
	}
	l.active[deskID] = struct{}{}
	return true
}

func (l *runLocks) release(deskID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, deskID)
}

func (s *deskService) CreateDesk(ctx context.Context, in CreateDeskInput) (*types.Desk, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	var desk *types.Desk
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		content, err := s.content.CreateEmpty(ctx, tx)
		if err != nil {
			return err
		}
		desk = &types.Desk{
			ID:          uuid.New(),
			UserID:      rd.UserID,
			Topic:       in.Topic,
			Context:     in.Context,
			Platform:    in.Platform,
			ContentType: in.ContentType,
			ContentID:   content.ID,
			Status:      types.NewGenerationStatus(types.PhaseNotRunning, types.StatusSuccess, "Desk created."),
		}
		created, err := s.deskRepo.Create(ctx, tx, []*types.Desk{desk})
		if err != nil {
			return fmt.Errorf("create desk record: %w", err)
		}
		desk = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("desk created", "desk_id", desk.ID, "content_type", desk.ContentType)
	return desk, nil
}

// getOwnedDesk loads a desk and checks it belongs to the caller. An
// unowned desk reads as not found so ids cannot be probed.
func (s *deskService) getOwnedDesk(ctx context.Context, deskID uuid.UUID) (*types.Desk, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	desk, err := s.deskRepo.GetByID(ctx, nil, deskID)
	if err != nil {
		return nil, err
	}
	if desk.UserID != rd.UserID {
		return nil, repos.ErrNotFound
	}
	return desk, nil
}

func (s *deskService) GetDesk(ctx context.Context, deskID uuid.UUID) (*types.Desk, error) {
	return s.getOwnedDesk(ctx, deskID)
}

func (s *deskService) ListDesks(ctx context.Context, limit, offset int) ([]*types.Desk, int64, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, 0, ErrNotAuthenticated
	}
	return s.deskRepo.ListByUserID(ctx, nil, rd.UserID, limit, offset)
}

func (s *deskService) UpdateDesk(ctx context.Context, deskID uuid.UUID, updates map[string]interface{}) (*types.Desk, error) {
	if _, err := s.getOwnedDesk(ctx, deskID); err != nil {
		return nil, err
	}
	if err := s.deskRepo.UpdateFields(ctx, nil, deskID, updates); err != nil {
		return nil, err
	}
	return s.deskRepo.GetByID(ctx, nil, deskID)
}

func (s *deskService) DeleteDesk(ctx context.Context, deskID uuid.UUID) error {
	if _, err := s.getOwnedDesk(ctx, deskID); err != nil {
		return err
	}
	return s.deskRepo.Delete(ctx, nil, deskID)
}

func (s *deskService) GetContentForDesk(ctx context.Context, deskID uuid.UUID) (*types.Content, error) {
	desk, err := s.getOwnedDesk(ctx, deskID)
	if err != nil {
		return nil, err
	}
	return s.content.Get(ctx, desk.ContentID)
}

func (s *deskService) GetStatus(ctx context.Context, deskID uuid.UUID) (types.GenerationStatus, error) {
	desk, err := s.getOwnedDesk(ctx, deskID)
	if err != nil {
		return types.GenerationStatus{}, err
	}
	return desk.Status, nil
}

// updateStatus persists the new status and notifies listeners. A failed
// persist is logged and the run continues; listeners are only notified
// of statuses that actually reached the store.
func (s *deskService) updateStatus(ctx context.Context, deskID uuid.UUID, phase types.GenerationPhase, text types.StatusText, message string) {
	status := types.NewGenerationStatus(phase, text, message)
	if err := s.deskRepo.UpdateStatus(ctx, nil, deskID, status); err != nil {
		s.log.Error("failed to persist desk status", "desk_id", deskID, "phase", phase, "status_text", text, "error", err)
		return
	}
	s.notifier.StatusChanged(deskID, status)
}

func (s *deskService) RunContentPhase(ctx context.Context, deskID, userID uuid.UUID, apiKey string) error {
	if !s.locks.tryAcquire(deskID) {
		return ErrRunInProgress
	}
	defer s.locks.release(deskID)
	return s.runContentPhase(ctx, deskID, userID, apiKey)
}

func (s *deskService) Run(ctx context.Context, deskID, userID uuid.UUID, apiKey string) error {
	if !s.locks.tryAcquire(deskID) {
		return ErrRunInProgress
	}
	defer s.locks.release(deskID)
	s.run(ctx, deskID, userID, apiKey)
	return nil
}

// runContentPhase is the content phase proper. The caller must hold the
// desk's run lock.
func (s *deskService) runContentPhase(ctx context.Context, deskID, userID uuid.UUID, apiKey string) error {
	log := s.log.With("desk_id", deskID)
	log.Info("running content generation phase")

	desk, err := s.deskRepo.GetByID(ctx, nil, deskID)
	if err != nil {
		return fmt.Errorf("load desk: %w", err)
	}

	s.updateStatus(ctx, deskID, types.PhaseContent, types.StatusProcessing, "Starting content generation...")

	_, err = s.content.Run(ctx, RunInput{
		ContentID:   desk.ContentID,
		Topic:       desk.Topic,
		Context:     desk.Context,
		ContentType: desk.ContentType,
		Platform:    desk.Platform,
		APIKey:      apiKey,
		UserID:      userID.String(),
	})
	if err != nil {
		log.Error("content generation phase failed", "error", err)
		s.updateStatus(ctx, deskID, types.PhaseContent, types.StatusError, fmt.Sprintf("Content generation failed: %s", err))
		return fmt.Errorf("content phase for desk %s: %w", deskID, err)
	}

	s.updateStatus(ctx, deskID, types.PhaseContent, types.StatusSuccess, "Content generation complete.")
	log.Info("content generation phase complete")
	return nil
}

// run is the full pipeline. A phase failure has already written its
// ERROR status, so it is logged, counted, and absorbed here. The caller
// must hold the desk's run lock.
func (s *deskService) run(ctx context.Context, deskID, userID uuid.UUID, apiKey string) {
	log := s.log.With("desk_id", deskID)
	log.Info("starting full generation run")

	if err := s.runContentPhase(ctx, deskID, userID, apiKey); err != nil {
		s.swallowed.Add(1)
		log.Error("generation run failed, outcome recorded in desk status", "error", err)
		return
	}

	s.updateStatus(ctx, deskID, types.PhaseContent, types.StatusSuccess, "All generation steps completed successfully.")
	log.Info("full generation run complete")
}

// prepareRun authorizes the trigger, resolves the owner's studio key,
// and claims the run lock.
func (s *deskService) prepareRun(ctx context.Context, deskID uuid.UUID) (userID uuid.UUID, apiKey string, err error) {
	desk, err := s.getOwnedDesk(ctx, deskID)
	if err != nil {
		return uuid.Nil, "", err
	}
	user, err := s.userRepo.GetByID(ctx, nil, desk.UserID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("load desk owner: %w", err)
	}
	if strings.TrimSpace(user.StudioAPIKey) == "" {
		return uuid.Nil, "", fmt.Errorf("no studio api key on record: %w", repos.ErrNotFound)
	}
	if !s.locks.tryAcquire(deskID) {
		return uuid.Nil, "", ErrRunInProgress
	}
	return user.ID, user.StudioAPIKey, nil
}

func (s *deskService) TriggerRunContentPhase(ctx context.Context, deskID uuid.UUID) error {
	userID, apiKey, err := s.prepareRun(ctx, deskID)
	if err != nil {
		return err
	}
	// Detached from the request: the trigger returns now and the run
	// keeps the request's values but not its cancellation.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.locks.release(deskID)
		runCtx, span := runTracer.Start(runCtx, "desk.run_content_phase",
			trace.WithAttributes(attribute.String("desk.id", deskID.String())))
		defer span.End()
		if err := s.runContentPhase(runCtx, deskID, userID, apiKey); err != nil {
			span.RecordError(err)
			s.log.Error("detached content phase failed", "desk_id", deskID, "error", err)
		}
	}()
	return nil
}

func (s *deskService) TriggerRun(ctx context.Context, deskID uuid.UUID) error {
	userID, apiKey, err := s.prepareRun(ctx, deskID)
	if err != nil {
		return err
	}
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.locks.release(deskID)
		runCtx, span := runTracer.Start(runCtx, "desk.run",
			trace.WithAttributes(attribute.String("desk.id", deskID.String())))
		defer span.End()
		s.run(runCtx, deskID, userID, apiKey)
	}()
	return nil
}

func (s *deskService) SwallowedFailures() uint64 {
	return s.swallowed.Load()
}
