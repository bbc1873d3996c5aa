package hub

import (
	"context"

	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"github.com/arnold-1324/twitterClone-sub000/internal/typing"
)

// MonitorService gathers hub statistics for the monitoring endpoint.
type MonitorService struct {
	hub    *Hub
	typing *typing.Coordinator
}

func NewMonitorService(hub *Hub, typing *typing.Coordinator) *MonitorService {
	return &MonitorService{hub: hub, typing: typing}
}

// GetStats returns a point-in-time view of connections, presence and typing
// state.
func (ms *MonitorService) GetStats(ctx context.Context) model.MonitorResponse {
	online, err := ms.hub.Registry().Online(ctx)
	if err != nil {
		online = nil
	}

	conversations, users := ms.typing.Stats()

	status := "healthy"
	if ms.hub.LocalConnections() == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			LocalConnected: ms.hub.LocalConnections(),
			TotalOnline:    len(online),
		},
		Typing: model.TypingStats{
			ActiveConversations: conversations,
			TypingUsers:         users,
		},
		OnlineUsers: online,
	}
}
