package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a chat thread in MongoDB. The participant set is
// fixed at creation. Direct conversations carry a DirectKey derived from the
// normalized participant pair so concurrent first-contact sends from both
// sides upsert into one document.
type Conversation struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ParticipantIDs []string           `json:"participantIds" bson:"participant_ids"`
	IsGroup        bool               `json:"isGroup" bson:"is_group"`
	Name           string             `json:"name,omitempty" bson:"name,omitempty"`
	DirectKey      string             `json:"-" bson:"direct_key,omitempty"`
	LastMessage    *LastMessage       `json:"lastMessage" bson:"last_message"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
	LastMessageAt  time.Time          `json:"lastMessageAt" bson:"last_message_at"`
}

// LastMessage stores the denormalized most-recent-message preview shown in
// conversation lists. Last-write-wins under concurrent sends.
type LastMessage struct {
	Text     string `json:"text" bson:"text"`
	SenderID string `json:"senderId" bson:"sender_id"`
	Seen     bool   `json:"seen" bson:"seen"`
}

// DirectKey returns the normalized key for the unordered participant pair.
// Both call orders produce the same key.
func DirectKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// Others returns the participant ids excluding actor.
func (c *Conversation) Others(actor string) []string {
	others := make([]string, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		if id != actor {
			others = append(others, id)
		}
	}
	return others
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
