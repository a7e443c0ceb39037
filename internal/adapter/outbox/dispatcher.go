package outbox

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"blolend/internal/domain/event"

	"github.com/redis/go-redis/v9"
)

// Dispatcher drains the event outbox into a redis pub/sub channel. Events are
// appended to the outbox inside the transaction that produced them, so
// publishing is at-least-once: an event is only marked published after a
// successful Publish.
type Dispatcher struct {
	events   event.Repository
	rdb      *redis.Client
	channel  string
	interval time.Duration
	batch    int
}

func NewDispatcher(events event.Repository, rdb *redis.Client, channel string, interval time.Duration) *Dispatcher {
	return &Dispatcher{events: events, rdb: rdb, channel: channel, interval: interval, batch: 100}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := d.Dispatch(ctx); err != nil {
				log.Printf("outbox: dispatch failed: %v", err)
			} else if n > 0 {
				log.Printf("outbox: published %d event(s)", n)
			}
		}
	}
}

type wireEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Dispatch publishes one batch of pending events and returns how many went
// out.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	pending, err := d.events.ListUnpublished(ctx, d.batch)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := make([]uint64, 0, len(pending))
	for _, e := range pending {
		msg, err := json.Marshal(wireEvent{
			EventID:   e.EventID,
			Type:      e.Type,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		})
		if err != nil {
			return len(published), err
		}
		if err := d.rdb.Publish(ctx, d.channel, msg).Err(); err != nil {
			// stop at the first failure; the rest stay pending
			break
		}
		published = append(published, e.ID)
	}
	if len(published) == 0 {
		return 0, nil
	}
	return len(published), d.events.MarkPublished(ctx, published)
}
