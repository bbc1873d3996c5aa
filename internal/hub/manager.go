package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"github.com/arnold-1324/twitterClone-sub000/internal/presence"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// EventHandler receives inbound socket events that need persistence or
// conversation context. Wired after construction via SetHandler, the same
// two-phase wiring the service needs to hold the dispatcher.
type EventHandler interface {
	HandleTyping(ctx context.Context, userID string, ind model.TypingIndicator)
	HandleMarkSeen(ctx context.Context, userID string, p model.MarkSeenPayload)
	HandleDisconnect(ctx context.Context, userID string)
}

// Hub owns the socket side: connection lifecycle, presence registration and
// the presence snapshot broadcast. Every register/unregister rebroadcasts the
// full online-id list to all local clients; O(N) per connect/disconnect, a
// deliberate simplicity trade-off that bounds scalability.
type Hub struct {
	registry   presence.Registry
	logger     *zap.Logger
	metrics    *metrics.Set
	diffEvents bool

	handler   EventHandler
	handlerMu sync.RWMutex

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(registry presence.Registry, logger *zap.Logger, mset *metrics.Set, diffEvents bool) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:   registry,
		logger:     logger,
		metrics:    mset,
		diffEvents: diffEvents,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		ctx:        ctx,
		cancel:     cancel,
	}

	registry.Watch(h.broadcastPresence)

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetHandler wires the session facade in. Must be called before the first
// connection is served.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handler = handler
}

func (h *Hub) eventHandler() EventHandler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	handler := h.eventHandler()
	if handler == nil {
		h.logger.Error("no event handler wired, dropping event", zap.String("event", ev.Event))
		return
	}

	switch ev.Event {
	case event.EventTyping:
		var ind model.TypingIndicator
		if err := json.Unmarshal(ev.Payload, &ind); err != nil {
			h.sendError(c, "invalid_payload", "failed to parse typing indicator")
			return
		}
		handler.HandleTyping(h.ctx, c.userID, ind)

	case event.EventMarkSeen:
		var p model.MarkSeenPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.sendError(c, "invalid_payload", "failed to parse seen request")
			return
		}
		handler.HandleMarkSeen(h.ctx, c.userID, p)

	default:
		h.logger.Debug("unknown event type", zap.String("event", ev.Event))
		h.sendError(c, "unknown_event", "unknown event type: "+ev.Event)
	}
}

func (h *Hub) sendError(c *Client, code, message string) {
	c.TrySend(event.New(event.EventError, model.ErrorPayload{Code: code, Message: message}))
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	h.clientsMu.Unlock()
	h.metrics.ConnectionsOpen.Inc()

	// Cleanup callbacks run on every disconnect path: presence unregister is
	// conn-matched so a reconnect's replacement handle survives, and the
	// facade clears the user's typing entries.
	c.OnClose(func() {
		if err := h.registry.Unregister(h.ctx, c.userID, c); err != nil {
			h.logger.Warn("presence unregister failed", zap.String("user_id", c.userID), zap.Error(err))
		}
		if h.diffEvents {
			h.broadcastLocal(event.New(event.EventUserOffline, model.PresenceChange{UserID: c.userID}))
		}
		if handler := h.eventHandler(); handler != nil {
			handler.HandleDisconnect(h.ctx, c.userID)
		}
	})

	if err := h.registry.Register(h.ctx, c.userID, c); err != nil {
		h.logger.Error("presence register failed", zap.String("user_id", c.userID), zap.Error(err))
	}
	if h.diffEvents {
		h.broadcastLocal(event.New(event.EventUserOnline, model.PresenceChange{UserID: c.userID, Online: true}))
	}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	_, exists := h.clients[c]
	if exists {
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	if !exists {
		return
	}

	h.metrics.ConnectionsOpen.Dec()
	c.runCleanups()
	c.Close()
	h.logger.Info("client removed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

// broadcastPresence pushes the full online-id snapshot to all local clients.
// Registered as the registry watcher, so it fires on every membership change,
// local or (for the shared-store registry) remote.
func (h *Hub) broadcastPresence() {
	online, err := h.registry.Online(h.ctx)
	if err != nil {
		h.logger.Warn("presence snapshot failed", zap.Error(err))
		return
	}
	h.broadcastLocal(event.New(event.EventOnlineUsers, online))
}

func (h *Hub) broadcastLocal(ev event.WsEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		c.TrySend(ev)
	}
}

// LocalConnections reports the number of open connections on this instance.
func (h *Hub) LocalConnections() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Registry exposes the presence registry for monitoring.
func (h *Hub) Registry() presence.Registry {
	return h.registry
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for client := range h.clients {
		client.runCleanups()
		client.Close()
	}
	h.clientsMu.RUnlock()

	close(h.inbound)
	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	switch origin {
	case "", "http://localhost:3000":
		return true
	case "https://www.twitterclone.app":
		return true
	default:
		return false
	}
}

// ServeWS upgrades the request and binds the connection to the resolved user
// identity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}
