package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/draftdesk/draftdesk-backend/internal/clients/redis"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/sse"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// DeskNotifier fans a status transition out to everything that listens:
// the in-process hub always, and the cross-instance status bus when one
// is configured. Notification is fire-and-forget; a failed delivery never
// fails the status write that triggered it.
type DeskNotifier interface {
	StatusChanged(deskID uuid.UUID, status types.GenerationStatus)
}

type deskNotifier struct {
	log *logger.Logger
	hub *sse.Hub
	bus redisclient.StatusBus
}

// NewDeskNotifier wires the notifier. bus may be nil for single-instance
// deployments.
func NewDeskNotifier(baseLog *logger.Logger, hub *sse.Hub, bus redisclient.StatusBus) DeskNotifier {
	return &deskNotifier{
		log: baseLog.With("service", "DeskNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *deskNotifier) StatusChanged(deskID uuid.UUID, status types.GenerationStatus) {
	if n.bus == nil {
		n.hub.Publish(deskID, status)
		return
	}
	// With a bus, local delivery happens through the forwarder like on
	// every other instance, so each subscriber sees the event once.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.bus.Publish(ctx, deskID, status); err != nil {
		n.log.Warn("failed to publish status to bus, delivering locally only", "desk_id", deskID, "error", err)
		n.hub.Publish(deskID, status)
	}
}
