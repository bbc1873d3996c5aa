package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	// FindOrCreateDirect returns the direct conversation for the unordered
	// pair {a,b}, creating it atomically on first contact. Both call orders
	// resolve to the same document.
	FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error)

	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)

	// ListForUser returns the user's conversations, most recent activity first.
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)

	// SetLastMessage refreshes the denormalized preview and activity time.
	SetLastMessage(ctx context.Context, conversationID string, lm *model.LastMessage) error

	// MarkLastMessageSeen flips the preview's seen flag for a viewer who is
	// not its sender.
	MarkLastMessageSeen(ctx context.Context, conversationID, viewerID string) error

	DeleteConversation(ctx context.Context, conversationID string) error

	// EnsureIndexes creates the unique direct_key index backing the
	// first-contact upsert, plus the participant lookup index.
	EnsureIndexes(ctx context.Context) error
}

func NewConversationRepository(mongoRepo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *conversationRepository) FindOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, fmt.Errorf("%w: a direct conversation needs two distinct participants", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	key := model.DirectKey(userA, userB)
	now := time.Now().UTC()

	filter := db.NewFilter().Eq("direct_key", key).Build()
	update := bson.M{
		"$setOnInsert": bson.M{
			"participant_ids": []string{userA, userB},
			"is_group":        false,
			"direct_key":      key,
			"created_at":      now,
			"updated_at":      now,
			"last_message_at": now,
		},
	}

	conversation, err := r.mongoRepo.FindOneAndUpdateUpsert(ctx, filter, update)
	if err != nil {
		r.logger.Error("direct conversation upsert failed",
			zap.String("direct_key", key),
			zap.Error(err),
		)
		return nil, wrapStorageErr("find or create direct conversation", err)
	}

	return conversation, nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conversation, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: conversation %s", apperr.ErrNotFound, conversationID)
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, wrapStorageErr("get conversation", err)
	}

	return conversation, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participant_ids", userID).Build()
	opts := options.Find().SetSort(bson.M{"last_message_at": -1})

	conversations, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list conversations", zap.String("user_id", userID), zap.Error(err))
		return nil, wrapStorageErr("list conversations", err)
	}

	r.logger.Debug("conversations retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(conversations)),
	)
	return conversations, nil
}

func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID string, lm *model.LastMessage) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	result, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		"last_message":    lm,
		"last_message_at": now,
		"updated_at":      now,
	})
	if err != nil {
		return wrapStorageErr("set last message", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: conversation %s", apperr.ErrNotFound, conversationID)
	}
	return nil
}

func (r *conversationRepository) MarkLastMessageSeen(ctx context.Context, conversationID, viewerID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("_id", conversationID).
		Ne("last_message.sender_id", viewerID).
		Build()

	if _, err := r.mongoRepo.UpdateRaw(ctx, filter, bson.M{"$set": bson.M{"last_message.seen": true}}); err != nil {
		return wrapStorageErr("mark last message seen", err)
	}
	return nil
}

func (r *conversationRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.DeleteByID(ctx, conversationID)
	if err != nil {
		return wrapStorageErr("delete conversation", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: conversation %s", apperr.ErrNotFound, conversationID)
	}

	r.logger.Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.Collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "direct_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"direct_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "participant_ids", Value: 1}, {Key: "last_message_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create conversation indexes: %w", err)
	}
	return nil
}
