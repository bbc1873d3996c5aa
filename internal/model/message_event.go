package model

// TypingIndicator - client-sent typing start/stop signal.
type TypingIndicator struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// TypingStatus - server push carrying the updated typing set for a conversation.
type TypingStatus struct {
	ConversationID string   `json:"conversationId"`
	TypingUsers    []string `json:"typingUsers"`
}

// MarkSeenPayload - client request to flip seen on a whole conversation.
type MarkSeenPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MessagesSeen - seen-receipt push to the other participants.
type MessagesSeen struct {
	ConversationID string `json:"conversationId"`
	SeenBy         string `json:"seenBy"`
}

// MessageDeleted - soft-delete push; the message stays visible to others, so
// only the id travels.
type MessageDeleted struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

// PresenceChange - incremental presence diff, emitted only when the
// presence_diff_events compatibility flag is enabled.
type PresenceChange struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}
