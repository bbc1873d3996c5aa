package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the external identity entity. The messaging core only reads it to
// confirm a recipient exists and to shape display fields; all user lifecycle
// management lives outside this service.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Username  string             `json:"username" bson:"username"`
	Avatar    string             `json:"avatar" bson:"avatar"`
	IsActive  bool               `json:"isActive" bson:"is_active"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
