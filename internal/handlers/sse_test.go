package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/services"
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

// statusOnlyDeskService serves GetStatus and rejects everything else;
// the stream handler only needs the snapshot read.
type statusOnlyDeskService struct {
	services.DeskService

	statuses map[uuid.UUID]types.GenerationStatus
}

func (s *statusOnlyDeskService) GetStatus(_ context.Context, deskID uuid.UUID) (types.GenerationStatus, error) {
	status, ok := s.statuses[deskID]
	if !ok {
		return types.GenerationStatus{}, repos.ErrNotFound
	}
	return status, nil
}

func newStreamRouter(t *testing.T, hub *sse.Hub, desks *statusOnlyDeskService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewSSEHandler(mustTestLogger(t), hub, desks)
	r := gin.New()
	r.GET("/sse/:id/stream", h.StreamDeskStatus)
	return r
}

func TestStreamDeskStatusSendsSnapshot(t *testing.T) {
	deskID := uuid.New()
	hub := sse.NewHub(mustTestLogger(t))
	desks := &statusOnlyDeskService{statuses: map[uuid.UUID]types.GenerationStatus{
		deskID: types.NewGenerationStatus(types.PhaseContent, types.StatusProcessing, "Starting content generation..."),
	}}
	router := newStreamRouter(t, hub, desks)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/sse/%s/stream", deskID), nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(rec, req)
	}()

	// The snapshot is written before the handler blocks on updates, so
	// cancelling after it lands closes the stream cleanly.
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: status_update") {
		t.Fatalf("missing snapshot event, body: %q", body)
	}
	if !strings.Contains(body, "Starting content generation...") {
		t.Fatalf("snapshot message missing, body: %q", body)
	}
}

func TestStreamDeskStatusSecondSubscriberGetsBusyEvent(t *testing.T) {
	deskID := uuid.New()
	hub := sse.NewHub(mustTestLogger(t))
	desks := &statusOnlyDeskService{statuses: map[uuid.UUID]types.GenerationStatus{
		deskID: types.NewGenerationStatus(types.PhaseNotRunning, types.StatusSuccess, "Desk created."),
	}}
	router := newStreamRouter(t, hub, desks)

	// Occupy the desk's single subscriber slot.
	if _, err := hub.Subscribe(deskID); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer hub.Unsubscribe(deskID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/sse/%s/stream", deskID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Fatalf("missing error event, body: %q", body)
	}
	if !strings.Contains(body, "Resource Busy") {
		t.Fatalf("missing busy message, body: %q", body)
	}
}

func TestStreamDeskStatusUnknownDesk(t *testing.T) {
	hub := sse.NewHub(mustTestLogger(t))
	desks := &statusOnlyDeskService{statuses: map[uuid.UUID]types.GenerationStatus{}}
	router := newStreamRouter(t, hub, desks)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/sse/%s/stream", uuid.New()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStreamDeskStatusInvalidID(t *testing.T) {
	hub := sse.NewHub(mustTestLogger(t))
	desks := &statusOnlyDeskService{statuses: map[uuid.UUID]types.GenerationStatus{}}
	router := newStreamRouter(t, hub, desks)

	req := httptest.NewRequest(http.MethodGet, "/sse/not-a-uuid/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
