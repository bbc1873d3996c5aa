package hub

import (
	"context"
	"testing"

	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/presence"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type captureConn struct {
	events []event.WsEvent
	full   bool
}

func (c *captureConn) TrySend(ev event.WsEvent) bool {
	if c.full {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *presence.Memory) {
	t.Helper()
	registry := presence.NewMemory()
	d := NewDispatcher(registry, zap.NewNop(), metrics.New(prometheus.NewRegistry()))
	return d, registry
}

func TestToUserDelivers(t *testing.T) {
	d, registry := newTestDispatcher(t)
	ctx := context.Background()
	conn := &captureConn{}
	registry.Register(ctx, "bob", conn)

	if !d.ToUser(ctx, "bob", event.New("newMessage", nil)) {
		t.Fatal("delivery to online user reported as miss")
	}
	if len(conn.events) != 1 || conn.events[0].Event != "newMessage" {
		t.Errorf("conn received %v", conn.events)
	}
}

func TestToUserOfflineMiss(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if d.ToUser(context.Background(), "ghost", event.New("newMessage", nil)) {
		t.Error("delivery to offline user reported as success")
	}
}

func TestToUserFullBufferMiss(t *testing.T) {
	d, registry := newTestDispatcher(t)
	ctx := context.Background()
	registry.Register(ctx, "bob", &captureConn{full: true})

	if d.ToUser(ctx, "bob", event.New("newMessage", nil)) {
		t.Error("saturated connection reported as delivered")
	}
}

func TestFanoutSkipsActor(t *testing.T) {
	d, registry := newTestDispatcher(t)
	ctx := context.Background()

	alice := &captureConn{}
	bob := &captureConn{}
	registry.Register(ctx, "alice", alice)
	registry.Register(ctx, "bob", bob)

	d.Fanout(ctx, []string{"alice", "bob", "offline-carol"}, "alice", event.New("messagesSeen", nil))

	if len(alice.events) != 0 {
		t.Errorf("actor received their own event: %v", alice.events)
	}
	if len(bob.events) != 1 {
		t.Errorf("peer received %d events, want 1", len(bob.events))
	}
}
