package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/clients/studio"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/requestdata"
	"github.com/draftdesk/draftdesk-backend/internal/sources"
	"github.com/draftdesk/draftdesk-backend/internal/sse"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeDeskRepo struct {
	mu       sync.Mutex
	desks    map[uuid.UUID]*types.Desk
	statuses []types.GenerationStatus
}

func newFakeDeskRepo() *fakeDeskRepo {
	return &fakeDeskRepo{desks: make(map[uuid.UUID]*types.Desk)}
}

func (f *fakeDeskRepo) Create(_ context.Context, _ *gorm.DB, desks []*types.Desk) ([]*types.Desk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range desks {
		f.desks[d.ID] = d
	}
	return desks, nil
}

func (f *fakeDeskRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Desk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desks[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDeskRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID, _, _ int) ([]*types.Desk, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Desk
	for _, d := range f.desks {
		if d.UserID == userID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeDeskRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.desks[id]; !ok {
		return repos.ErrNotFound
	}
	return nil
}

func (f *fakeDeskRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status types.GenerationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desks[id]
	if !ok {
		return repos.ErrNotFound
	}
	d.Status = status
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeDeskRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.desks, id)
	return nil
}

func (f *fakeDeskRepo) recordedStatuses() []types.GenerationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.GenerationStatus, len(f.statuses))
	copy(out, f.statuses)
	return out
}

type fakeContentRepo struct {
	mu       sync.Mutex
	contents map[uuid.UUID]*types.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{contents: make(map[uuid.UUID]*types.Content)}
}

func (f *fakeContentRepo) Create(_ context.Context, _ *gorm.DB, contents []*types.Content) ([]*types.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contents {
		f.contents[c.ID] = c
	}
	return contents, nil
}

func (f *fakeContentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeContentRepo) UpdateFields(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[id]
	if !ok {
		return repos.ErrNotFound
	}
	if result, ok := updates["result"].(string); ok {
		c.Result = result
	}
	if feedback, ok := updates["feedback"].(string); ok {
		c.Feedback = feedback
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*types.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (f *fakeUserRepo) UpdateFields(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}

// blockingStudioClient answers from a response table and can be made to
// block until released, to hold a run open mid-flight.
type blockingStudioClient struct {
	mu        sync.Mutex
	calls     []studio.AgentKey
	responses map[studio.AgentKey]string
	errs      map[studio.AgentKey]error
	block     chan struct{}
}

func (f *blockingStudioClient) ChatWithAgent(_ context.Context, _, _ string, agent studio.AgentKey, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, agent)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err, ok := f.errs[agent]; ok {
		return "", err
	}
	return f.responses[agent], nil
}

func (f *blockingStudioClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type deskFixture struct {
	svc     DeskService
	desks   *fakeDeskRepo
	content *fakeContentRepo
	users   *fakeUserRepo
	hub     *sse.Hub
	deskID  uuid.UUID
	userID  uuid.UUID
	ctx     context.Context
}

func newDeskFixture(t *testing.T, studioClient studio.Client, contentType string) *deskFixture {
	t.Helper()
	log := mustTestLogger(t)

	deskRepo := newFakeDeskRepo()
	contentRepo := newFakeContentRepo()
	userRepo := &fakeUserRepo{users: make(map[uuid.UUID]*types.User)}

	registry := sources.NewRegistry(log, studioClient)
	contentSvc := NewContentService(nil, log, registry, contentRepo)

	hub := sse.NewHub(log)
	notifier := NewDeskNotifier(log, hub, nil)

	svc := NewDeskService(nil, log, deskRepo, userRepo, contentSvc, notifier)

	userID := uuid.New()
	userRepo.users[userID] = &types.User{ID: userID, Email: "owner@example.com", StudioAPIKey: "sk-test"}

	contentID := uuid.New()
	contentRepo.contents[contentID] = &types.Content{ID: contentID, Feedback: "keep it punchy"}

	deskID := uuid.New()
	deskRepo.desks[deskID] = &types.Desk{
		ID:          deskID,
		UserID:      userID,
		Topic:       "Factory automation trends",
		Context:     "Audience: plant managers",
		Platform:    sources.PlatformLinkedIn,
		ContentType: contentType,
		ContentID:   contentID,
		Status:      types.NewGenerationStatus(types.PhaseNotRunning, types.StatusSuccess, "Desk created."),
	}

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	return &deskFixture{
		svc:     svc,
		desks:   deskRepo,
		content: contentRepo,
		users:   userRepo,
		hub:     hub,
		deskID:  deskID,
		userID:  userID,
		ctx:     ctx,
	}
}

func workingStudioClient() *blockingStudioClient {
	return &blockingStudioClient{responses: map[studio.AgentKey]string{
		studio.AgentNewsTopicSelector:  "Cobots on the line",
		studio.AgentNewsSourcer:        "Cobot shipments grew 30% this quarter.",
		studio.AgentFormatNewsLinkedIn: "generated linkedin post",
	}}
}

func TestRunContentPhaseSuccess(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)

	sub, err := fx.hub.Subscribe(fx.deskID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer fx.hub.Unsubscribe(fx.deskID)

	if err := fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test"); err != nil {
		t.Fatalf("RunContentPhase: %v", err)
	}

	statuses := fx.desks.recordedStatuses()
	if len(statuses) != 2 {
		t.Fatalf("status writes = %d, want 2 (processing then success)", len(statuses))
	}
	if statuses[0].StatusText != types.StatusProcessing || statuses[0].Phase != types.PhaseContent {
		t.Errorf("first status = %+v, want content/processing", statuses[0])
	}
	if statuses[1].StatusText != types.StatusSuccess || statuses[1].Message != "Content generation complete." {
		t.Errorf("final status = %+v, want content/success", statuses[1])
	}

	// Every persisted write reaches the subscriber, in order.
	for i, want := range statuses {
		select {
		case got := <-sub.Updates:
			if got != want {
				t.Errorf("published status %d = %+v, want %+v", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for published status %d", i)
		}
	}

	desk, _ := fx.desks.GetByID(context.Background(), nil, fx.deskID)
	content, err := fx.content.GetByID(context.Background(), nil, desk.ContentID)
	if err != nil {
		t.Fatalf("GetByID content: %v", err)
	}
	if content.Result != "generated linkedin post" {
		t.Errorf("content result = %q, want generated text", content.Result)
	}
}

func TestRunWritesFinalStatus(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)

	if err := fx.svc.Run(fx.ctx, fx.deskID, fx.userID, "sk-test"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	statuses := fx.desks.recordedStatuses()
	if len(statuses) != 3 {
		t.Fatalf("status writes = %d, want 3", len(statuses))
	}
	final := statuses[2]
	if final.StatusText != types.StatusSuccess || final.Message != "All generation steps completed successfully." {
		t.Errorf("final status = %+v, want overall success", final)
	}
	if fx.svc.SwallowedFailures() != 0 {
		t.Errorf("SwallowedFailures = %d, want 0", fx.svc.SwallowedFailures())
	}
}

func TestRunSwallowsPhaseFailure(t *testing.T) {
	studioClient := &blockingStudioClient{errs: map[studio.AgentKey]error{
		studio.AgentNewsTopicSelector: errors.New("studio exploded"),
	}}
	fx := newDeskFixture(t, studioClient, sources.ContentTypeNewsRoundup)

	if err := fx.svc.Run(fx.ctx, fx.deskID, fx.userID, "sk-test"); err != nil {
		t.Fatalf("Run returned %v, want swallowed failure", err)
	}

	statuses := fx.desks.recordedStatuses()
	final := statuses[len(statuses)-1]
	if final.StatusText != types.StatusError {
		t.Errorf("final status = %+v, want error", final)
	}
	if fx.svc.SwallowedFailures() != 1 {
		t.Errorf("SwallowedFailures = %d, want 1", fx.svc.SwallowedFailures())
	}
}

func TestRunContentPhaseErrorTruncatedAndContentUntouched(t *testing.T) {
	studioClient := &blockingStudioClient{errs: map[studio.AgentKey]error{
		studio.AgentNewsTopicSelector: errors.New(strings.Repeat("boom ", 200)),
	}}
	fx := newDeskFixture(t, studioClient, sources.ContentTypeNewsRoundup)

	err := fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test")
	if err == nil {
		t.Fatal("RunContentPhase succeeded, want error")
	}

	desk, _ := fx.desks.GetByID(context.Background(), nil, fx.deskID)
	if desk.Status.StatusText != types.StatusError {
		t.Errorf("desk status = %+v, want error", desk.Status)
	}
	if len(desk.Status.Message) > types.MaxStatusMessageLen {
		t.Errorf("status message length = %d, want <= %d", len(desk.Status.Message), types.MaxStatusMessageLen)
	}
	if !strings.HasPrefix(desk.Status.Message, "Content generation failed: ") {
		t.Errorf("status message = %q, want failure prefix", desk.Status.Message)
	}

	content, err := fx.content.GetByID(context.Background(), nil, desk.ContentID)
	if err != nil {
		t.Fatalf("GetByID content: %v", err)
	}
	if content.Result != "" {
		t.Errorf("content result = %q, want untouched empty result", content.Result)
	}
}

func TestRunContentPhaseUnknownContentType(t *testing.T) {
	studioClient := &blockingStudioClient{}
	fx := newDeskFixture(t, studioClient, "Quarterly Horoscope")

	err := fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test")
	if !errors.Is(err, sources.ErrUnsupportedContentType) {
		t.Fatalf("RunContentPhase error = %v, want ErrUnsupportedContentType", err)
	}
	if studioClient.callCount() != 0 {
		t.Errorf("agent calls = %d, want 0 for unknown content type", studioClient.callCount())
	}

	desk, _ := fx.desks.GetByID(context.Background(), nil, fx.deskID)
	if desk.Status.StatusText != types.StatusError {
		t.Errorf("desk status = %+v, want error", desk.Status)
	}
}

func TestConcurrentRunRejected(t *testing.T) {
	studioClient := workingStudioClient()
	studioClient.block = make(chan struct{})
	fx := newDeskFixture(t, studioClient, sources.ContentTypeNewsRoundup)

	done := make(chan error, 1)
	go func() {
		done <- fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test")
	}()

	// Wait for the first run to reach its agent call, so it holds the lock.
	deadline := time.After(2 * time.Second)
	for studioClient.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never reached the studio client")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test"); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second run error = %v, want ErrRunInProgress", err)
	}
	if err := fx.svc.TriggerRun(fx.ctx, fx.deskID); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("TriggerRun error = %v, want ErrRunInProgress", err)
	}

	close(studioClient.block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Lock released; a new run is accepted again.
	studioClient.mu.Lock()
	studioClient.block = nil
	studioClient.mu.Unlock()
	if err := fx.svc.RunContentPhase(fx.ctx, fx.deskID, fx.userID, "sk-test"); err != nil {
		t.Fatalf("run after release failed: %v", err)
	}
}

func TestTriggerRunUnknownDesk(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)

	err := fx.svc.TriggerRun(fx.ctx, uuid.New())
	if !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("TriggerRun error = %v, want ErrNotFound", err)
	}
}

func TestTriggerRunWithoutStudioKey(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)
	fx.users.users[fx.userID].StudioAPIKey = ""

	err := fx.svc.TriggerRun(fx.ctx, fx.deskID)
	if !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("TriggerRun error = %v, want ErrNotFound", err)
	}
}

func TestTriggerRunRequiresAuth(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)

	err := fx.svc.TriggerRun(context.Background(), fx.deskID)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("TriggerRun error = %v, want ErrNotAuthenticated", err)
	}
}

func TestGetStatusOwnership(t *testing.T) {
	fx := newDeskFixture(t, workingStudioClient(), sources.ContentTypeNewsRoundup)

	status, err := fx.svc.GetStatus(fx.ctx, fx.deskID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Phase != types.PhaseNotRunning {
		t.Errorf("initial phase = %q, want not_running", status.Phase)
	}

	otherCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})
	if _, err := fx.svc.GetStatus(otherCtx, fx.deskID); !errors.Is(err, repos.ErrNotFound) {
		t.Errorf("GetStatus for another user error = %v, want ErrNotFound", err)
	}
}
