package hub

import (
	"context"

	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/presence"
	"go.uber.org/zap"
)

// Dispatcher pushes durable mutations to currently-connected recipients.
// Delivery is best-effort and at-most-once per online recipient: no retry, no
// queue, no backlog for offline users. The write path never blocks on it; an
// offline recipient sees the update on their next fetch.
type Dispatcher struct {
	registry presence.Registry
	logger   *zap.Logger
	metrics  *metrics.Set
}

func NewDispatcher(registry presence.Registry, logger *zap.Logger, metrics *metrics.Set) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Fanout emits ev to every participant except the actor. Misses are expected
// and silent from the caller's point of view.
func (d *Dispatcher) Fanout(ctx context.Context, participants []string, actor string, ev event.WsEvent) {
	for _, userID := range participants {
		if userID == actor {
			continue
		}
		d.ToUser(ctx, userID, ev)
	}
}

// ToUser emits ev to a single user if they are online. Reports whether the
// event was enqueued.
func (d *Dispatcher) ToUser(ctx context.Context, userID string, ev event.WsEvent) bool {
	conn, ok := d.registry.Lookup(ctx, userID)
	if !ok {
		d.metrics.DeliveryMisses.Inc()
		return false
	}

	if !conn.TrySend(ev) {
		d.metrics.DeliveryMisses.Inc()
		d.logger.Debug("delivery dropped",
			zap.String("user_id", userID),
			zap.String("event", ev.Event),
		)
		return false
	}

	d.metrics.EventsDelivered.WithLabelValues(ev.Event).Inc()
	return true
}
