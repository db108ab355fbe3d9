package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/services"
	"github.com/draftdesk/draftdesk-backend/internal/sse"
)

// streamHeartbeat keeps proxies from idling out a quiet stream.
const streamHeartbeat = 15 * time.Second

type SSEHandler struct {
	log         *logger.Logger
	hub         *sse.Hub
	deskService services.DeskService
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub, deskService services.DeskService) *SSEHandler {
	return &SSEHandler{
		log:         log.With("handler", "SSEHandler"),
		hub:         hub,
		deskService: deskService,
	}
}

// GET /sse/:id/stream
//
// Streams desk status transitions. The first event is a snapshot of the
// current status; every later event is a live transition. A desk admits
// one stream at a time: a second connection gets a Resource Busy error
// event and the connection closes.
func (h *SSEHandler) StreamDeskStatus(c *gin.Context) {
	deskID, ok := parseIDParam(c)
	if !ok {
		return
	}

	// Ownership check doubles as the snapshot read.
	snapshot, err := h.deskService.GetStatus(c.Request.Context(), deskID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, flushOK := w.(http.Flusher)
	if !flushOK {
		RespondError(c, http.StatusInternalServerError, "streaming_unsupported", errors.New("streaming unsupported"))
		return
	}

	sub, err := h.hub.Subscribe(deskID)
	if err != nil {
		if errors.Is(err, sse.ErrBusy) {
			h.writeEvent(w, sse.EventError, map[string]string{"error": "Resource Busy"})
			flusher.Flush()
			return
		}
		RespondError(c, http.StatusInternalServerError, "subscribe_failed", err)
		return
	}
	defer h.hub.Unsubscribe(deskID)

	log := h.log.With("desk_id", deskID)
	log.Debug("status stream opened")

	if ok := h.writeEvent(w, sse.EventStatusUpdate, snapshot); !ok {
		return
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("status stream client disconnected")
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case status := <-sub.Updates:
			if ok := h.writeEvent(w, sse.EventStatusUpdate, status); !ok {
				log.Warn("failed to write status event, closing stream")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) writeEvent(w http.ResponseWriter, event sse.Event, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("failed to marshal stream payload", "error", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
		return false
	}
	return true
}
