package event

// Chat Event Types - Client to Server
const (
	// EventTyping - client toggles a typing start/stop signal
	EventTyping = "typing"

	// EventMarkSeen - client asks for a bulk seen flip on a conversation
	EventMarkSeen = "markMessagesAsSeen"
)

// Chat Event Types - Server to Client
const (
	// EventOnlineUsers - full presence snapshot (array of user ids)
	EventOnlineUsers = "getOnlineUsers"

	// EventTypingStatus - updated typing set for a conversation
	EventTypingStatus = "typingStatus"

	// EventMessagesSeen - seen-receipt push to the message senders
	EventMessagesSeen = "messagesSeen"

	// EventNewMessage - new-message push to online recipients
	EventNewMessage = "newMessage"

	// EventNewReply - reply push, same entity shape as newMessage
	EventNewReply = "newReply"

	// EventMessageEdited - edited message push
	EventMessageEdited = "messageEdited"

	// EventMessageDeleted - soft-delete push, id only
	EventMessageDeleted = "messageDeleted"

	// EventMessageReaction - reaction upsert push
	EventMessageReaction = "messageReaction"

	// EventPollUpdated - vote or close push carrying the full message
	EventPollUpdated = "pollUpdated"

	// EventUserOnline / EventUserOffline - incremental presence diffs, only
	// emitted when the presence_diff_events compatibility flag is on
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"

	// EventError - error pushed back to the originating client
	EventError = "error"
)
