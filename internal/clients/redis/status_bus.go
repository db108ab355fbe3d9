package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

// StatusBus mirrors desk status transitions over Redis pub/sub so a stream
// subscriber connected to another instance still sees live updates. Delivery
// stays best-effort; the desk row remains the durable source of truth.
type StatusBus interface {
	Publish(ctx context.Context, deskID uuid.UUID, status types.GenerationStatus) error
	StartForwarder(ctx context.Context, onStatus func(deskID uuid.UUID, status types.GenerationStatus)) error
	Close() error
}

type statusEnvelope struct {
	DeskID uuid.UUID              `json:"desk_id"`
	Status types.GenerationStatus `json:"status"`
}

type statusBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewStatusBus(log *logger.Logger) (StatusBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_STATUS_CHANNEL"))
	if ch == "" {
		ch = "desk_status"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &statusBus{
		log:     log.With("service", "RedisStatusBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *statusBus) Publish(ctx context.Context, deskID uuid.UUID, status types.GenerationStatus) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis status bus not initialized")
	}
	raw, err := json.Marshal(statusEnvelope{DeskID: deskID, Status: status})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *statusBus) StartForwarder(ctx context.Context, onStatus func(deskID uuid.UUID, status types.GenerationStatus)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis status bus not initialized")
	}
	if onStatus == nil {
		return fmt.Errorf("onStatus callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var env statusEnvelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					b.log.Warn("bad redis status payload", "error", err)
					continue
				}
				onStatus(env.DeskID, env.Status)
			}
		}
	}()

	return nil
}

func (b *statusBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
