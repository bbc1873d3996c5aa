package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/arnold-1324/twitterClone-sub000/internal/hub"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"github.com/arnold-1324/twitterClone-sub000/internal/poll"
	"github.com/arnold-1324/twitterClone-sub000/internal/repo"
	"github.com/arnold-1324/twitterClone-sub000/internal/storage"
	"github.com/arnold-1324/twitterClone-sub000/internal/typing"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const mediaURLExpiry = 15 * time.Minute

// SendMessageInput describes one send/reply/poll-create request. Either
// ConversationID (existing thread) or RecipientID (lazy direct-conversation
// creation on first contact) must be set.
type SendMessageInput struct {
	ConversationID string            `json:"conversationId"`
	RecipientID    string            `json:"recipientId"`
	Kind           model.MessageKind `json:"kind"`
	Text           string            `json:"text"`
	FileKey        string            `json:"fileKey"`
	ReplyTo        string            `json:"replyTo"`
	Poll           *poll.Spec        `json:"poll"`
}

// ChatService is the session facade: it attaches the authenticated identity
// to every store operation and pushes the resulting mutation to online
// participants. Durability always precedes delivery; a dispatch miss is never
// an error.
type ChatService interface {
	SendMessage(ctx context.Context, senderID string, in SendMessageInput) (*model.Message, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID string, page int64) (*db.PaginatedResult[model.Message], error)
	MarkSeen(ctx context.Context, viewerID, conversationID string) error
	EditMessage(ctx context.Context, editorID, messageID, newText string) (*model.Message, error)
	DeleteForViewer(ctx context.Context, viewerID, messageID string) error
	React(ctx context.Context, userID, messageID, emoji string) (*model.Message, error)
	VotePoll(ctx context.Context, voterID, messageID string, selection []int) (*model.Message, error)
	ClosePoll(ctx context.Context, userID, messageID string) (*model.Message, error)
	PurgeConversation(ctx context.Context, conversationID string) error

	hub.EventHandler
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	typing        *typing.Coordinator
	dispatcher    *hub.Dispatcher
	signer        storage.Signer
	metrics       *metrics.Set
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	typingCoordinator *typing.Coordinator,
	dispatcher *hub.Dispatcher,
	signer storage.Signer,
	mset *metrics.Set,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		typing:        typingCoordinator,
		dispatcher:    dispatcher,
		signer:        signer,
		metrics:       mset,
		logger:        logger,
	}
}

// -----------------------------------------------------------------
// Sending
// -----------------------------------------------------------------

func (s *chatService) SendMessage(ctx context.Context, senderID string, in SendMessageInput) (*model.Message, error) {
	conversation, err := s.resolveConversation(ctx, senderID, in)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Kind:           in.Kind,
		Text:           in.Text,
		FileKey:        in.FileKey,
	}
	if msg.Kind == "" {
		msg.Kind = model.KindText
	}

	if in.Poll != nil {
		built, err := poll.New(*in.Poll)
		if err != nil {
			return nil, err
		}
		msg.Kind = model.KindPoll
		msg.Poll = built
	}

	eventName := event.EventNewMessage
	if in.ReplyTo != "" {
		replyID, err := s.resolveReplyTarget(ctx, conversation.ID, in.ReplyTo)
		if err != nil {
			return nil, err
		}
		msg.ReplyTo = replyID
		eventName = event.EventNewReply
	}

	stored, err := s.messages.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.metrics.MessagesStored.Inc()

	if err := s.conversations.SetLastMessage(ctx, conversation.ID.Hex(), &model.LastMessage{
		Text:     previewText(stored),
		SenderID: senderID,
	}); err != nil {
		// The message itself is durable; a stale preview is tolerable.
		s.logger.Warn("last message update failed",
			zap.String("conversation_id", conversation.ID.Hex()),
			zap.Error(err),
		)
	}

	s.shapeMessage(ctx, stored)
	s.dispatcher.Fanout(ctx, conversation.ParticipantIDs, senderID, event.New(eventName, stored))

	return stored, nil
}

func (s *chatService) resolveConversation(ctx context.Context, senderID string, in SendMessageInput) (*model.Conversation, error) {
	if in.ConversationID != "" {
		return s.participantConversation(ctx, in.ConversationID, senderID)
	}

	if in.RecipientID == "" {
		return nil, fmt.Errorf("%w: conversationId or recipientId is required", apperr.ErrValidation)
	}

	if _, err := s.users.GetUser(ctx, in.RecipientID); err != nil {
		return nil, err
	}
	return s.conversations.FindOrCreateDirect(ctx, senderID, in.RecipientID)
}

func (s *chatService) resolveReplyTarget(ctx context.Context, conversationID primitive.ObjectID, replyTo string) (*primitive.ObjectID, error) {
	target, err := s.messages.GetMessage(ctx, replyTo)
	if err != nil {
		return nil, err
	}
	if target.ConversationID != conversationID {
		return nil, fmt.Errorf("%w: reply target belongs to another conversation", apperr.ErrValidation)
	}
	return &target.ID, nil
}

// -----------------------------------------------------------------
// Reads
// -----------------------------------------------------------------

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	result, err := s.messages.ListMessages(ctx, conversationID, userID, page)
	if err != nil {
		return nil, err
	}

	for i := range result.Data {
		s.shapeMessage(ctx, &result.Data[i])
	}
	return result, nil
}

// -----------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------

func (s *chatService) MarkSeen(ctx context.Context, viewerID, conversationID string) error {
	conversation, err := s.participantConversation(ctx, conversationID, viewerID)
	if err != nil {
		return err
	}

	if _, err := s.messages.MarkSeen(ctx, conversationID, viewerID); err != nil {
		return err
	}
	if err := s.conversations.MarkLastMessageSeen(ctx, conversationID, viewerID); err != nil {
		s.logger.Warn("last message seen update failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}

	s.dispatcher.Fanout(ctx, conversation.ParticipantIDs, viewerID, event.New(event.EventMessagesSeen, model.MessagesSeen{
		ConversationID: conversationID,
		SeenBy:         viewerID,
	}))
	return nil
}

func (s *chatService) EditMessage(ctx context.Context, editorID, messageID, newText string) (*model.Message, error) {
	edited, err := s.messages.EditMessage(ctx, messageID, editorID, newText)
	if err != nil {
		return nil, err
	}

	s.dispatchToConversation(ctx, edited.ConversationID, editorID, event.New(event.EventMessageEdited, edited))
	return edited, nil
}

func (s *chatService) DeleteForViewer(ctx context.Context, viewerID, messageID string) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if _, err := s.participantConversation(ctx, msg.ConversationID.Hex(), viewerID); err != nil {
		return err
	}

	if _, err := s.messages.SoftDeleteForViewer(ctx, messageID, viewerID); err != nil {
		return err
	}

	s.dispatchToConversation(ctx, msg.ConversationID, viewerID, event.New(event.EventMessageDeleted, model.MessageDeleted{
		MessageID:      messageID,
		ConversationID: msg.ConversationID.Hex(),
	}))
	return nil
}

func (s *chatService) React(ctx context.Context, userID, messageID, emoji string) (*model.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participantConversation(ctx, msg.ConversationID.Hex(), userID); err != nil {
		return nil, err
	}

	reacted, err := s.messages.React(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	s.dispatchToConversation(ctx, reacted.ConversationID, userID, event.New(event.EventMessageReaction, reacted))
	return reacted, nil
}

// -----------------------------------------------------------------
// Polls
// -----------------------------------------------------------------

func (s *chatService) VotePoll(ctx context.Context, voterID, messageID string, selection []int) (*model.Message, error) {
	msg, err := s.pollMessage(ctx, messageID, voterID)
	if err != nil {
		return nil, err
	}

	if err := poll.Vote(msg.Poll, voterID, selection, time.Now().UTC()); err != nil {
		return nil, err
	}

	updated, err := s.messages.UpdatePoll(ctx, messageID, msg.Poll)
	if err != nil {
		return nil, err
	}

	s.dispatchToConversation(ctx, updated.ConversationID, voterID, event.New(event.EventPollUpdated, updated))
	return updated, nil
}

func (s *chatService) ClosePoll(ctx context.Context, userID, messageID string) (*model.Message, error) {
	msg, err := s.pollMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, fmt.Errorf("%w: only the poll creator may close it", apperr.ErrNotAuthorized)
	}

	poll.Close(msg.Poll)

	updated, err := s.messages.UpdatePoll(ctx, messageID, msg.Poll)
	if err != nil {
		return nil, err
	}

	s.dispatchToConversation(ctx, updated.ConversationID, userID, event.New(event.EventPollUpdated, updated))
	return updated, nil
}

func (s *chatService) pollMessage(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Kind != model.KindPoll || msg.Poll == nil {
		return nil, fmt.Errorf("%w: message %s is not a poll", apperr.ErrValidation, messageID)
	}
	if _, err := s.participantConversation(ctx, msg.ConversationID.Hex(), userID); err != nil {
		return nil, err
	}
	return msg, nil
}

// -----------------------------------------------------------------
// Admin
// -----------------------------------------------------------------

func (s *chatService) PurgeConversation(ctx context.Context, conversationID string) error {
	if err := s.conversations.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	if _, err := s.messages.DeleteByConversation(ctx, conversationID); err != nil {
		return err
	}
	return nil
}

// -----------------------------------------------------------------
// Socket events (hub.EventHandler)
// -----------------------------------------------------------------

func (s *chatService) HandleTyping(ctx context.Context, userID string, ind model.TypingIndicator) {
	conversation, err := s.participantConversation(ctx, ind.ConversationID, userID)
	if err != nil {
		s.logger.Debug("typing signal dropped",
			zap.String("user_id", userID),
			zap.String("conversation_id", ind.ConversationID),
			zap.Error(err),
		)
		return
	}

	var typingUsers []string
	if ind.IsTyping {
		typingUsers = s.typing.Start(ind.ConversationID, userID)
	} else {
		typingUsers = s.typing.Stop(ind.ConversationID, userID)
	}

	s.dispatcher.Fanout(ctx, conversation.ParticipantIDs, userID, event.New(event.EventTypingStatus, model.TypingStatus{
		ConversationID: ind.ConversationID,
		TypingUsers:    typingUsers,
	}))
}

func (s *chatService) HandleMarkSeen(ctx context.Context, userID string, p model.MarkSeenPayload) {
	// The socket identity wins over whatever userId the payload claims.
	if err := s.MarkSeen(ctx, userID, p.ConversationID); err != nil {
		s.logger.Debug("seen request dropped",
			zap.String("user_id", userID),
			zap.String("conversation_id", p.ConversationID),
			zap.Error(err),
		)
	}
}

// HandleDisconnect clears the user's ephemeral typing state and tells the
// peers. Runs on every transport close, not just explicit stop signals.
func (s *chatService) HandleDisconnect(ctx context.Context, userID string) {
	for _, conversationID := range s.typing.ClearUser(userID) {
		conversation, err := s.conversations.GetConversation(ctx, conversationID)
		if err != nil {
			continue
		}
		s.dispatcher.Fanout(ctx, conversation.ParticipantIDs, userID, event.New(event.EventTypingStatus, model.TypingStatus{
			ConversationID: conversationID,
			TypingUsers:    s.typing.Snapshot(conversationID),
		}))
	}
}

// -----------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------

func (s *chatService) participantConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	conversation, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s is not a participant", apperr.ErrNotAuthorized, userID)
	}
	return conversation, nil
}

func (s *chatService) dispatchToConversation(ctx context.Context, conversationID primitive.ObjectID, actor string, ev event.WsEvent) {
	conversation, err := s.conversations.GetConversation(ctx, conversationID.Hex())
	if err != nil {
		s.logger.Warn("dispatch skipped, conversation lookup failed",
			zap.String("conversation_id", conversationID.Hex()),
			zap.Error(err),
		)
		return
	}
	s.dispatcher.Fanout(ctx, conversation.ParticipantIDs, actor, ev)
}

func (s *chatService) shapeMessage(ctx context.Context, msg *model.Message) {
	if !msg.Kind.IsMedia() || msg.FileKey == "" {
		return
	}
	signed, err := s.signer.SignGet(ctx, msg.FileKey, mediaURLExpiry)
	if err != nil {
		s.logger.Warn("media url signing failed", zap.String("file_key", msg.FileKey), zap.Error(err))
		return
	}
	msg.FileURL = signed
}

func previewText(msg *model.Message) string {
	switch {
	case msg.Kind == model.KindPoll && msg.Poll != nil:
		return "Poll: " + msg.Poll.Question
	case msg.Kind.IsMedia():
		return "[" + string(msg.Kind) + "]"
	default:
		return msg.Text
	}
}
