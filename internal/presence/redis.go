package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	onlineKey      = "presence:online"
	changedChannel = "presence:changed"
	deliverPrefix  = "presence:deliver:"
)

// delHashIfOwned removes the user's presence entry only if it still points at
// this instance, so a reconnect that landed on another instance survives the
// old connection's teardown.
var delHashIfOwned = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
  return redis.call('HDEL', KEYS[1], ARGV[1])
end
return 0
`)

// Redis is the shared-store Registry for multi-process deployments. Local
// connections are held in an embedded Memory registry; the global roster lives
// in a Redis hash of userID -> instanceID. Lookup of a user connected to
// another instance returns a forwarding handle that publishes the event to
// that instance's delivery channel.
type Redis struct {
	local      *Memory
	rdb        *redis.Client
	instanceID string
	logger     *zap.Logger
	cancel     context.CancelFunc
}

type deliverEnvelope struct {
	UserID string        `json:"userId"`
	Event  event.WsEvent `json:"event"`
}

func NewRedis(rdb *redis.Client, instanceID string, logger *zap.Logger) *Redis {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Redis{
		local:      NewMemory(),
		rdb:        rdb,
		instanceID: instanceID,
		logger:     logger,
		cancel:     cancel,
	}

	go r.subscribe(ctx)
	return r
}

func (r *Redis) Register(ctx context.Context, userID string, c Conn) error {
	if err := r.rdb.HSet(ctx, onlineKey, userID, r.instanceID).Err(); err != nil {
		return fmt.Errorf("presence register: %w", err)
	}
	_ = r.local.Register(ctx, userID, c)

	if err := r.rdb.Publish(ctx, changedChannel, userID).Err(); err != nil {
		r.logger.Warn("presence change publish failed", zap.Error(err))
	}
	return nil
}

func (r *Redis) Unregister(ctx context.Context, userID string, c Conn) error {
	// Drop the local handle first; if the conn no longer matches, the user
	// reconnected on this instance and the global entry must stay.
	if c != nil {
		if current, ok := r.local.Lookup(ctx, userID); ok && current != c {
			return nil
		}
	}
	_ = r.local.Unregister(ctx, userID, c)

	if err := delHashIfOwned.Run(ctx, r.rdb, []string{onlineKey}, userID, r.instanceID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("presence unregister: %w", err)
	}

	if err := r.rdb.Publish(ctx, changedChannel, userID).Err(); err != nil {
		r.logger.Warn("presence change publish failed", zap.Error(err))
	}
	return nil
}

func (r *Redis) Lookup(ctx context.Context, userID string) (Conn, bool) {
	if c, ok := r.local.Lookup(ctx, userID); ok {
		return c, true
	}

	instance, err := r.rdb.HGet(ctx, onlineKey, userID).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("presence lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	if instance == r.instanceID {
		// Stale global entry for a locally disconnected user.
		return nil, false
	}

	return &forwardConn{rdb: r.rdb, channel: deliverPrefix + instance, userID: userID, logger: r.logger}, true
}

func (r *Redis) Online(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.HKeys(ctx, onlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("presence online: %w", err)
	}
	return ids, nil
}

func (r *Redis) Watch(fn func()) {
	r.local.Watch(fn)
}

func (r *Redis) Close() error {
	r.cancel()

	ctx := context.Background()
	ids, _ := r.local.Online(ctx)
	for _, id := range ids {
		if err := delHashIfOwned.Run(ctx, r.rdb, []string{onlineKey}, id, r.instanceID).Err(); err != nil && err != redis.Nil {
			r.logger.Warn("presence cleanup failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return r.local.Close()
}

// subscribe forwards cross-instance deliveries to local connections and fans
// remote membership changes into the local watchers.
func (r *Redis) subscribe(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, changedChannel, deliverPrefix+r.instanceID)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch msg.Channel {
			case changedChannel:
				r.local.notify()
			default:
				var env deliverEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					r.logger.Warn("bad delivery envelope", zap.Error(err))
					continue
				}
				if c, ok := r.local.Lookup(ctx, env.UserID); ok {
					c.TrySend(env.Event)
				}
			}
		}
	}
}

// forwardConn publishes events to the instance that holds the user's socket.
type forwardConn struct {
	rdb     *redis.Client
	channel string
	userID  string
	logger  *zap.Logger
}

func (f *forwardConn) TrySend(ev event.WsEvent) bool {
	payload, err := json.Marshal(deliverEnvelope{UserID: f.userID, Event: ev})
	if err != nil {
		return false
	}
	if err := f.rdb.Publish(context.Background(), f.channel, payload).Err(); err != nil {
		f.logger.Warn("cross-instance delivery failed", zap.String("user_id", f.userID), zap.Error(err))
		return false
	}
	return true
}
