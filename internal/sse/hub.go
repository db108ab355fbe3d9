package sse

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

type Event string

const (
	EventStatusUpdate Event = "status_update"
	EventError        Event = "error"
)

// ErrBusy is returned when a desk already has a live subscriber. The caller
// must reject the new connection instead of replacing the existing one.
var ErrBusy = errors.New("another subscriber is active for this desk")

// subscriberBuffer bounds the per-desk queue. When it is full the incoming
// update is dropped with a warning; the desk row stays the source of truth,
// so a reconnecting subscriber catches up from the snapshot.
const subscriberBuffer = 16

// Subscriber is the receiving end of one desk's status stream. Updates is a
// single-producer single-consumer channel: only the hub sends on it, only the
// stream handler reads from it.
type Subscriber struct {
	DeskID  uuid.UUID
	Updates chan types.GenerationStatus
}

// Hub maps a desk to at most one live subscriber and fans status transitions
// out to it without ever blocking the publisher. It is an injected service,
// shared by the orchestrator (publisher) and the stream handler (subscriber
// lifecycle), so all registry access goes through the mutex.
type Hub struct {
	mu   sync.Mutex
	log  *logger.Logger
	subs map[uuid.UUID]*Subscriber

	dropped uint64
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log.With("component", "StatusHub"),
		subs: make(map[uuid.UUID]*Subscriber),
	}
}

// Subscribe registers a subscriber for the desk. Fails with ErrBusy when one
// is already registered.
func (h *Hub) Subscribe(deskID uuid.UUID) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.subs[deskID]; exists {
		h.log.Warn("Rejecting subscriber, desk already has a listener", "desk_id", deskID)
		return nil, ErrBusy
	}
	sub := &Subscriber{
		DeskID:  deskID,
		Updates: make(chan types.GenerationStatus, subscriberBuffer),
	}
	h.subs[deskID] = sub
	h.log.Debug("Subscriber registered", "desk_id", deskID, "active", len(h.subs))
	return sub, nil
}

// Unsubscribe removes the desk's registration. Idempotent; the Updates
// channel is left open so a concurrent Publish can never hit a closed
// channel, it simply stops being read.
func (h *Hub) Unsubscribe(deskID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.subs[deskID]; !exists {
		return
	}
	delete(h.subs, deskID)
	h.log.Debug("Subscriber removed", "desk_id", deskID, "active", len(h.subs))
}

// Publish enqueues the status for the desk's subscriber, if any. Publishing
// with no subscriber is a silent no-op; publishing into a full buffer drops
// the update rather than blocking the run.
func (h *Hub) Publish(deskID uuid.UUID, status types.GenerationStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, exists := h.subs[deskID]
	if !exists {
		return
	}
	select {
	case sub.Updates <- status:
	default:
		h.dropped++
		h.log.Warn("Dropping status update, subscriber buffer full",
			"desk_id", deskID, "phase", status.Phase, "status_text", status.StatusText)
	}
}

// Dropped reports how many updates were discarded on full buffers.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ActiveSubscribers reports the number of registered desks.
func (h *Hub) ActiveSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
