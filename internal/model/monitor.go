package model

// MonitorResponse aggregates hub health for the monitoring endpoint.
type MonitorResponse struct {
	Status      string          `json:"status"`
	Connections ConnectionStats `json:"connections"`
	Typing      TypingStats     `json:"typing"`
	OnlineUsers []string        `json:"onlineUsers"`
}

// ConnectionStats holds connection counters for this process.
type ConnectionStats struct {
	LocalConnected int `json:"localConnected"`
	TotalOnline    int `json:"totalOnline"`
}

// TypingStats summarizes the typing coordinator state.
type TypingStats struct {
	ActiveConversations int `json:"activeConversations"`
	TypingUsers         int `json:"typingUsers"`
}
