package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	defaultPageSize = 20
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	// InsertMessage validates the kind-specific payload, stamps the creation
	// time and persists the message, returning it with its assigned id.
	InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error)

	GetMessage(ctx context.Context, messageID string) (*model.Message, error)

	// ListMessages returns messages in ascending creation order, excluding
	// those the viewer has tombstoned.
	ListMessages(ctx context.Context, conversationID, viewerID string, page int64) (*db.PaginatedResult[model.Message], error)

	// MarkSeen flips seen on every message in the conversation not authored
	// by the viewer and not already seen. Bulk, idempotent.
	MarkSeen(ctx context.Context, conversationID, viewerID string) (int64, error)

	// EditMessage rewrites the text of the editor's own message.
	EditMessage(ctx context.Context, messageID, editorID, newText string) (*model.Message, error)

	// SoftDeleteForViewer tombstones the message for one viewer only.
	SoftDeleteForViewer(ctx context.Context, messageID, viewerID string) (*model.Message, error)

	// React upserts the user's reaction, replacing any prior one.
	React(ctx context.Context, messageID, userID, emoji string) (*model.Message, error)

	// UpdatePoll persists the mutated poll sub-document.
	UpdatePoll(ctx context.Context, messageID string, p *model.Poll) (*model.Message, error)

	// DeleteByConversation removes every message of a conversation. Only the
	// admin purge path reaches this.
	DeleteByConversation(ctx context.Context, conversationID string) (int64, error)
}

func NewMessageRepository(mongoRepo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := validateNewMessage(msg); err != nil {
		return nil, err
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = time.Now().UTC()
	if msg.Reactions == nil {
		msg.Reactions = []model.Reaction{}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("insert attempt failed, retrying",
				zap.Error(lastErr),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxRetries),
			)
		}

		_, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			m.logger.Info("message inserted",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("conversation_id", msg.ConversationID.Hex()),
				zap.String("kind", string(msg.Kind)),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)
	return nil, wrapStorageErr("insert message", lastErr)
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (m *messageRepository) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: message %s", apperr.ErrNotFound, messageID)
		}
		m.logger.Error("failed to fetch message", zap.String("message_id", messageID), zap.Error(err))
		return nil, wrapStorageErr("get message", err)
	}
	return msg, nil
}

func (m *messageRepository) ListMessages(ctx context.Context, conversationID, viewerID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Ne("deleted_for", viewerID).
		Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying message list",
				zap.String("conversation_id", conversationID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: defaultPageSize,
			SortBy:   "created_at",
			SortDesc: false,
		})
		if err == nil {
			m.logger.Debug("messages listed",
				zap.String("conversation_id", conversationID),
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
			)
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	m.logger.Error("failed to list messages", zap.String("conversation_id", conversationID), zap.Error(lastErr))
	return nil, wrapStorageErr("list messages", lastErr)
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

func (m *messageRepository) MarkSeen(ctx context.Context, conversationID, viewerID string) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Ne("sender_id", viewerID).
		Eq("seen", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"seen": true})
	if err != nil {
		m.logger.Error("mark seen failed",
			zap.String("conversation_id", conversationID),
			zap.String("viewer_id", viewerID),
			zap.Error(err),
		)
		return 0, wrapStorageErr("mark seen", err)
	}

	m.logger.Debug("messages marked seen",
		zap.String("conversation_id", conversationID),
		zap.Int64("modified", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}

func (m *messageRepository) EditMessage(ctx context.Context, messageID, editorID, newText string) (*model.Message, error) {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil, fmt.Errorf("%w: message text is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg, err := m.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != editorID {
		return nil, fmt.Errorf("%w: only the sender may edit a message", apperr.ErrNotAuthorized)
	}
	if msg.Kind != model.KindText && msg.Kind != model.KindPostShare {
		return nil, fmt.Errorf("%w: only text messages can be edited", apperr.ErrValidation)
	}

	now := time.Now().UTC()
	if _, err := m.mongoRepo.UpdateByID(ctx, messageID, bson.M{
		"text":      newText,
		"edited":    true,
		"edited_at": now,
	}); err != nil {
		return nil, wrapStorageErr("edit message", err)
	}

	msg.Text = newText
	msg.Edited = true
	msg.EditedAt = &now
	return msg, nil
}

func (m *messageRepository) SoftDeleteForViewer(ctx context.Context, messageID, viewerID string) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg, err := m.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	filter := db.NewFilter().ObjectID("_id", messageID).Build()
	if _, err := m.mongoRepo.UpdateRaw(ctx, filter, bson.M{
		"$addToSet": bson.M{"deleted_for": viewerID},
	}); err != nil {
		return nil, wrapStorageErr("soft delete message", err)
	}

	m.logger.Debug("message tombstoned for viewer",
		zap.String("message_id", messageID),
		zap.String("viewer_id", viewerID),
	)
	return msg, nil
}

func (m *messageRepository) React(ctx context.Context, messageID, userID, emoji string) (*model.Message, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, fmt.Errorf("%w: reaction emoji is required", apperr.ErrValidation)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg, err := m.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	// Replace any prior reaction from the same user, keeping at most one.
	reactions := make([]model.Reaction, 0, len(msg.Reactions)+1)
	for _, reaction := range msg.Reactions {
		if reaction.UserID != userID {
			reactions = append(reactions, reaction)
		}
	}
	reactions = append(reactions, model.Reaction{UserID: userID, Emoji: emoji})

	if _, err := m.mongoRepo.UpdateByID(ctx, messageID, bson.M{"reactions": reactions}); err != nil {
		return nil, wrapStorageErr("react to message", err)
	}

	msg.Reactions = reactions
	return msg, nil
}

func (m *messageRepository) UpdatePoll(ctx context.Context, messageID string, p *model.Poll) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.UpdateByID(ctx, messageID, bson.M{"poll": p})
	if err != nil {
		return nil, wrapStorageErr("update poll", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: message %s", apperr.ErrNotFound, messageID)
	}

	return m.GetMessage(ctx, messageID)
}

func (m *messageRepository) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("conversation_id", conversationID).Build()
	result, err := m.mongoRepo.DeleteMany(ctx, filter)
	if err != nil {
		return 0, wrapStorageErr("purge messages", err)
	}

	m.logger.Info("conversation messages purged",
		zap.String("conversation_id", conversationID),
		zap.Int64("deleted", result.DeletedCount),
	)
	return result.DeletedCount, nil
}

// -----------------------------------------------------------------------------
// Validation and helpers
// -----------------------------------------------------------------------------

func validateNewMessage(msg *model.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", apperr.ErrValidation)
	}
	if msg.ConversationID.IsZero() {
		return fmt.Errorf("%w: conversation id is required", apperr.ErrValidation)
	}
	if msg.SenderID == "" {
		return fmt.Errorf("%w: sender id is required", apperr.ErrValidation)
	}

	switch {
	case msg.Kind == model.KindText || msg.Kind == model.KindPostShare:
		if strings.TrimSpace(msg.Text) == "" {
			return fmt.Errorf("%w: text is required for %s messages", apperr.ErrValidation, msg.Kind)
		}
	case msg.Kind.IsMedia():
		if msg.FileKey == "" {
			return fmt.Errorf("%w: file key is required for %s messages", apperr.ErrValidation, msg.Kind)
		}
	case msg.Kind == model.KindPoll:
		if msg.Poll == nil || len(msg.Poll.Options) < 2 {
			return fmt.Errorf("%w: poll payload is malformed", apperr.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown message kind %q", apperr.ErrValidation, msg.Kind)
	}
	return nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// wrapStorageErr folds storage failures into the transient bucket so callers
// surface a generic failure, keeping the cause for the logs.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrTransient, op, err)
}
