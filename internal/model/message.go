package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageKind tags the payload variant carried by a message. Payload fields
// are only valid for their own kind: Text for text/post_share, FileKey for the
// media kinds, Poll for poll.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindImage     MessageKind = "image"
	KindVideo     MessageKind = "video"
	KindAudio     MessageKind = "audio"
	KindFile      MessageKind = "file"
	KindPostShare MessageKind = "post_share"
	KindPoll      MessageKind = "poll"
)

// IsMedia reports whether the kind carries an object-storage reference.
func (k MessageKind) IsMedia() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindFile:
		return true
	}
	return false
}

// Message represents a chat message in MongoDB.
type Message struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID  `json:"conversationId" bson:"conversation_id"`
	SenderID       string              `json:"senderId" bson:"sender_id"`
	Kind           MessageKind         `json:"kind" bson:"kind"`
	Text           string              `json:"text,omitempty" bson:"text,omitempty"`
	FileKey        string              `json:"fileKey,omitempty" bson:"file_key,omitempty"`
	FileURL        string              `json:"fileUrl,omitempty" bson:"-"`
	Poll           *Poll               `json:"poll,omitempty" bson:"poll,omitempty"`
	ReplyTo        *primitive.ObjectID `json:"replyTo,omitempty" bson:"reply_to,omitempty"`
	Reactions      []Reaction          `json:"reactions" bson:"reactions"`
	DeletedFor     []string            `json:"-" bson:"deleted_for,omitempty"`
	Seen           bool                `json:"seen" bson:"seen"`
	Edited         bool                `json:"edited" bson:"edited"`
	EditedAt       *time.Time          `json:"editedAt,omitempty" bson:"edited_at,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"created_at"`
}

// Reaction represents a reaction on a message. At most one reaction per user
// is kept per message; a new reaction from the same user replaces the old one.
type Reaction struct {
	UserID string `json:"userId" bson:"user_id"`
	Emoji  string `json:"emoji" bson:"emoji"`
}

// ErrorPayload represents an error response sent to a client via WebSocket.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
