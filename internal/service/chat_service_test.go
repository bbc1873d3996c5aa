package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/db"
	"github.com/arnold-1324/twitterClone-sub000/internal/event"
	"github.com/arnold-1324/twitterClone-sub000/internal/hub"
	"github.com/arnold-1324/twitterClone-sub000/internal/metrics"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
	"github.com/arnold-1324/twitterClone-sub000/internal/poll"
	"github.com/arnold-1324/twitterClone-sub000/internal/presence"
	"github.com/arnold-1324/twitterClone-sub000/internal/storage"
	"github.com/arnold-1324/twitterClone-sub000/internal/typing"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------
// In-memory repository fakes
// -----------------------------------------------------------------

type fakeConversationRepo struct {
	byID map[string]*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byID: make(map[string]*model.Conversation)}
}

func (f *fakeConversationRepo) put(c *model.Conversation) *model.Conversation {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.byID[c.ID.Hex()] = c
	return c
}

func (f *fakeConversationRepo) FindOrCreateDirect(_ context.Context, userA, userB string) (*model.Conversation, error) {
	key := model.DirectKey(userA, userB)
	for _, c := range f.byID {
		if c.DirectKey == key {
			return c, nil
		}
	}
	return f.put(&model.Conversation{
		ParticipantIDs: []string{userA, userB},
		DirectKey:      key,
		CreatedAt:      time.Now(),
	}), nil
}

func (f *fakeConversationRepo) GetConversation(_ context.Context, conversationID string) (*model.Conversation, error) {
	c, ok := f.byID[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", apperr.ErrNotFound, conversationID)
	}
	return c, nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, userID string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) SetLastMessage(_ context.Context, conversationID string, lm *model.LastMessage) error {
	c, ok := f.byID[conversationID]
	if !ok {
		return apperr.ErrNotFound
	}
	c.LastMessage = lm
	c.LastMessageAt = time.Now()
	return nil
}

func (f *fakeConversationRepo) MarkLastMessageSeen(_ context.Context, conversationID, viewerID string) error {
	c, ok := f.byID[conversationID]
	if !ok {
		return apperr.ErrNotFound
	}
	if c.LastMessage != nil && c.LastMessage.SenderID != viewerID {
		c.LastMessage.Seen = true
	}
	return nil
}

func (f *fakeConversationRepo) DeleteConversation(_ context.Context, conversationID string) error {
	if _, ok := f.byID[conversationID]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.byID, conversationID)
	return nil
}

func (f *fakeConversationRepo) EnsureIndexes(context.Context) error { return nil }

type fakeMessageRepo struct {
	byID map[string]*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: make(map[string]*model.Message)}
}

func (f *fakeMessageRepo) InsertMessage(_ context.Context, msg *model.Message) (*model.Message, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	f.byID[msg.ID.Hex()] = msg
	return msg, nil
}

func (f *fakeMessageRepo) GetMessage(_ context.Context, messageID string) (*model.Message, error) {
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", apperr.ErrNotFound, messageID)
	}
	return msg, nil
}

func (f *fakeMessageRepo) ListMessages(_ context.Context, conversationID, viewerID string, page int64) (*db.PaginatedResult[model.Message], error) {
	var out []model.Message
	for _, msg := range f.byID {
		if msg.ConversationID.Hex() != conversationID {
			continue
		}
		tombstoned := false
		for _, id := range msg.DeletedFor {
			if id == viewerID {
				tombstoned = true
				break
			}
		}
		if !tombstoned {
			out = append(out, *msg)
		}
	}
	return &db.PaginatedResult[model.Message]{Data: out, Total: int64(len(out)), Page: page}, nil
}

func (f *fakeMessageRepo) MarkSeen(_ context.Context, conversationID, viewerID string) (int64, error) {
	var n int64
	for _, msg := range f.byID {
		if msg.ConversationID.Hex() == conversationID && msg.SenderID != viewerID && !msg.Seen {
			msg.Seen = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) EditMessage(_ context.Context, messageID, editorID, newText string) (*model.Message, error) {
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if msg.SenderID != editorID {
		return nil, fmt.Errorf("%w: only the sender may edit", apperr.ErrNotAuthorized)
	}
	now := time.Now()
	msg.Text = newText
	msg.Edited = true
	msg.EditedAt = &now
	return msg, nil
}

func (f *fakeMessageRepo) SoftDeleteForViewer(_ context.Context, messageID, viewerID string) (*model.Message, error) {
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	msg.DeletedFor = append(msg.DeletedFor, viewerID)
	return msg, nil
}

func (f *fakeMessageRepo) React(_ context.Context, messageID, userID, emoji string) (*model.Message, error) {
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	kept := msg.Reactions[:0]
	for _, r := range msg.Reactions {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	msg.Reactions = append(kept, model.Reaction{UserID: userID, Emoji: emoji})
	return msg, nil
}

func (f *fakeMessageRepo) UpdatePoll(_ context.Context, messageID string, p *model.Poll) (*model.Message, error) {
	msg, ok := f.byID[messageID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	msg.Poll = p
	return msg, nil
}

func (f *fakeMessageRepo) DeleteByConversation(_ context.Context, conversationID string) (int64, error) {
	var n int64
	for id, msg := range f.byID {
		if msg.ConversationID.Hex() == conversationID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	known map[string]bool
}

func (f *fakeUserRepo) GetUser(_ context.Context, userID string) (*model.User, error) {
	if !f.known[userID] {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return &model.User{UserID: userID}, nil
}

type captureConn struct {
	events []event.WsEvent
}

func (c *captureConn) TrySend(ev event.WsEvent) bool {
	c.events = append(c.events, ev)
	return true
}

func (c *captureConn) names() []string {
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Event)
	}
	return out
}

// -----------------------------------------------------------------
// Fixture
// -----------------------------------------------------------------

type fixture struct {
	svc           ChatService
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	users         *fakeUserRepo
	registry      *presence.Memory
	typing        *typing.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conversations := newFakeConversationRepo()
	messages := newFakeMessageRepo()
	users := &fakeUserRepo{known: map[string]bool{"alice": true, "bob": true, "carol": true}}
	registry := presence.NewMemory()
	coordinator := typing.NewCoordinator()
	mset := metrics.New(prometheus.NewRegistry())
	logger := zap.NewNop()

	svc := NewChatService(
		conversations,
		messages,
		users,
		coordinator,
		hub.NewDispatcher(registry, logger, mset),
		storage.NoopSigner{},
		mset,
		logger,
	)

	return &fixture{
		svc:           svc,
		conversations: conversations,
		messages:      messages,
		users:         users,
		registry:      registry,
		typing:        coordinator,
	}
}

func (f *fixture) connect(t *testing.T, userID string) *captureConn {
	t.Helper()
	conn := &captureConn{}
	if err := f.registry.Register(context.Background(), userID, conn); err != nil {
		t.Fatalf("register %s: %v", userID, err)
	}
	return conn
}

func (f *fixture) directConversation(t *testing.T, users ...string) *model.Conversation {
	t.Helper()
	return f.conversations.put(&model.Conversation{ParticipantIDs: users})
}

// -----------------------------------------------------------------
// Sending
// -----------------------------------------------------------------

func TestSendMessageDeliversToOnlinePeer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	bob := f.connect(t, "bob")
	alice := f.connect(t, "alice")

	stored, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{
		ConversationID: conversation.ID.Hex(),
		Text:           "hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if stored.ID.IsZero() {
		t.Error("stored message has no id")
	}
	if stored.Kind != model.KindText {
		t.Errorf("kind defaulted to %q, want text", stored.Kind)
	}

	if got := bob.names(); len(got) != 1 || got[0] != event.EventNewMessage {
		t.Errorf("bob received %v", got)
	}
	if len(alice.events) != 0 {
		t.Errorf("sender received their own event: %v", alice.names())
	}

	if conversation.LastMessage == nil || conversation.LastMessage.Text != "hello" {
		t.Errorf("last message preview not set: %+v", conversation.LastMessage)
	}
}

func TestSendMessageOfflinePeerIsStoredOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")

	stored, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{
		ConversationID: conversation.ID.Hex(),
		Text:           "hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := f.messages.GetMessage(ctx, stored.ID.Hex()); err != nil {
		t.Errorf("message not durable: %v", err)
	}
}

func TestSendMessageFirstContactBothOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{RecipientID: "bob", Text: "hi"})
	if err != nil {
		t.Fatalf("alice->bob: %v", err)
	}
	second, err := f.svc.SendMessage(ctx, "bob", SendMessageInput{RecipientID: "alice", Text: "hi back"})
	if err != nil {
		t.Fatalf("bob->alice: %v", err)
	}

	if first.ConversationID != second.ConversationID {
		t.Error("both call orders must resolve to the same direct conversation")
	}
	if len(f.conversations.byID) != 1 {
		t.Errorf("expected one conversation, got %d", len(f.conversations.byID))
	}
}

func TestSendMessageUnknownRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendMessage(context.Background(), "alice", SendMessageInput{RecipientID: "nobody", Text: "hi"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageRequiresTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendMessage(context.Background(), "alice", SendMessageInput{Text: "hi"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestSendMessageNonParticipant(t *testing.T) {
	f := newFixture(t)
	conversation := f.directConversation(t, "alice", "bob")

	_, err := f.svc.SendMessage(context.Background(), "carol", SendMessageInput{
		ConversationID: conversation.ID.Hex(),
		Text:           "let me in",
	})
	if !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSendReplyCrossConversationRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.directConversation(t, "alice", "bob")
	other := f.directConversation(t, "alice", "carol")

	target, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: other.ID.Hex(), Text: "elsewhere"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err = f.svc.SendMessage(ctx, "alice", SendMessageInput{
		ConversationID: first.ID.Hex(),
		Text:           "re",
		ReplyTo:        target.ID.Hex(),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation for cross-conversation reply, got %v", err)
	}
}

func TestSendReplyEmitsReplyEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	bob := f.connect(t, "bob")

	target, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "original"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	reply, err := f.svc.SendMessage(ctx, "bob", SendMessageInput{
		ConversationID: conversation.ID.Hex(),
		Text:           "re",
		ReplyTo:        target.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.ReplyTo == nil || *reply.ReplyTo != target.ID {
		t.Errorf("reply target not linked: %v", reply.ReplyTo)
	}

	got := bob.names()
	if len(got) != 1 || got[0] != event.EventNewReply {
		t.Errorf("bob received %v, want [%s]", got, event.EventNewReply)
	}
}

func TestSendPollMessage(t *testing.T) {
	f := newFixture(t)
	conversation := f.directConversation(t, "alice", "bob")

	stored, err := f.svc.SendMessage(context.Background(), "alice", SendMessageInput{
		ConversationID: conversation.ID.Hex(),
		Poll:           &poll.Spec{Question: "Lunch?", Options: []string{"Pizza", "Sushi"}},
	})
	if err != nil {
		t.Fatalf("send poll: %v", err)
	}

	if stored.Kind != model.KindPoll || stored.Poll == nil {
		t.Fatalf("poll message not built: kind=%q poll=%v", stored.Kind, stored.Poll)
	}
	if conversation.LastMessage.Text != "Poll: Lunch?" {
		t.Errorf("poll preview = %q", conversation.LastMessage.Text)
	}
}

// -----------------------------------------------------------------
// Seen / edit / delete / react
// -----------------------------------------------------------------

func TestMarkSeenNotifiesPeers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	alice := f.connect(t, "alice")

	sent, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "hello"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.svc.MarkSeen(ctx, "bob", conversation.ID.Hex()); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	if msg, _ := f.messages.GetMessage(ctx, sent.ID.Hex()); !msg.Seen {
		t.Error("message not flipped to seen")
	}
	if got := alice.names(); len(got) != 1 || got[0] != event.EventMessagesSeen {
		t.Errorf("alice received %v", got)
	}

	// Idempotent: a second pass succeeds without error.
	if err := f.svc.MarkSeen(ctx, "bob", conversation.ID.Hex()); err != nil {
		t.Errorf("repeat mark seen: %v", err)
	}
}

func TestMarkSeenNonParticipant(t *testing.T) {
	f := newFixture(t)
	conversation := f.directConversation(t, "alice", "bob")

	err := f.svc.MarkSeen(context.Background(), "carol", conversation.ID.Hex())
	if !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestEditMessageOnlySender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	bob := f.connect(t, "bob")

	sent, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "helo"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	bob.events = nil

	if _, err := f.svc.EditMessage(ctx, "bob", sent.ID.Hex(), "hacked"); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("peer edit: expected ErrNotAuthorized, got %v", err)
	}

	edited, err := f.svc.EditMessage(ctx, "alice", sent.ID.Hex(), "hello")
	if err != nil {
		t.Fatalf("sender edit: %v", err)
	}
	if edited.Text != "hello" || !edited.Edited {
		t.Errorf("edit not applied: %+v", edited)
	}
	if got := bob.names(); len(got) != 1 || got[0] != event.EventMessageEdited {
		t.Errorf("bob received %v", got)
	}
}

func TestDeleteForViewerIsPerViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")

	sent, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "oops"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.svc.DeleteForViewer(ctx, "bob", sent.ID.Hex()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	bobView, _ := f.svc.ListMessages(ctx, "bob", conversation.ID.Hex(), 1)
	if len(bobView.Data) != 0 {
		t.Errorf("bob still sees %d messages", len(bobView.Data))
	}
	aliceView, _ := f.svc.ListMessages(ctx, "alice", conversation.ID.Hex(), 1)
	if len(aliceView.Data) != 1 {
		t.Errorf("alice should still see the message, got %d", len(aliceView.Data))
	}
}

func TestReactReplacesPriorReaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")

	sent, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "hello"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.svc.React(ctx, "bob", sent.ID.Hex(), "👍"); err != nil {
		t.Fatalf("react: %v", err)
	}
	reacted, err := f.svc.React(ctx, "bob", sent.ID.Hex(), "❤️")
	if err != nil {
		t.Fatalf("re-react: %v", err)
	}

	if len(reacted.Reactions) != 1 || reacted.Reactions[0].Emoji != "❤️" {
		t.Errorf("reactions = %+v", reacted.Reactions)
	}
}

// -----------------------------------------------------------------
// Polls via the facade
// -----------------------------------------------------------------

func seedPoll(t *testing.T, f *fixture, conversationID string) *model.Message {
	t.Helper()
	sent, err := f.svc.SendMessage(context.Background(), "alice", SendMessageInput{
		ConversationID: conversationID,
		Poll:           &poll.Spec{Question: "Lunch?", Options: []string{"Pizza", "Sushi"}},
	})
	if err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	return sent
}

func TestVotePollThroughFacade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	alice := f.connect(t, "alice")
	sent := seedPoll(t, f, conversation.ID.Hex())

	updated, err := f.svc.VotePoll(ctx, "bob", sent.ID.Hex(), []int{1})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if updated.Poll.TotalVotes != 1 || len(updated.Poll.Options[1].Votes) != 1 {
		t.Errorf("vote not recorded: %+v", updated.Poll)
	}
	if got := alice.names(); len(got) != 1 || got[0] != event.EventPollUpdated {
		t.Errorf("alice received %v", got)
	}
}

func TestVoteOnNonPollMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")

	sent, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "not a poll"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.svc.VotePoll(ctx, "bob", sent.ID.Hex(), []int{0}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestClosePollOnlyCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	sent := seedPoll(t, f, conversation.ID.Hex())

	if _, err := f.svc.ClosePoll(ctx, "bob", sent.ID.Hex()); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("peer close: expected ErrNotAuthorized, got %v", err)
	}

	closed, err := f.svc.ClosePoll(ctx, "alice", sent.ID.Hex())
	if err != nil {
		t.Fatalf("creator close: %v", err)
	}
	if !closed.Poll.Closed {
		t.Error("poll not closed")
	}

	if _, err := f.svc.VotePoll(ctx, "bob", sent.ID.Hex(), []int{0}); !errors.Is(err, apperr.ErrPollClosed) {
		t.Errorf("vote after close: expected ErrPollClosed, got %v", err)
	}
}

// -----------------------------------------------------------------
// Socket events
// -----------------------------------------------------------------

func TestHandleTypingFansOutStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	bob := f.connect(t, "bob")

	f.svc.HandleTyping(ctx, "alice", model.TypingIndicator{ConversationID: conversation.ID.Hex(), IsTyping: true})

	if got := bob.names(); len(got) != 1 || got[0] != event.EventTypingStatus {
		t.Fatalf("bob received %v", got)
	}
	if snapshot := f.typing.Snapshot(conversation.ID.Hex()); len(snapshot) != 1 || snapshot[0] != "alice" {
		t.Errorf("typing snapshot = %v", snapshot)
	}

	f.svc.HandleTyping(ctx, "alice", model.TypingIndicator{ConversationID: conversation.ID.Hex(), IsTyping: false})
	if snapshot := f.typing.Snapshot(conversation.ID.Hex()); snapshot != nil {
		t.Errorf("typing snapshot after stop = %v", snapshot)
	}
}

func TestHandleTypingNonParticipantDropped(t *testing.T) {
	f := newFixture(t)
	conversation := f.directConversation(t, "alice", "bob")

	f.svc.HandleTyping(context.Background(), "carol", model.TypingIndicator{ConversationID: conversation.ID.Hex(), IsTyping: true})

	if snapshot := f.typing.Snapshot(conversation.ID.Hex()); snapshot != nil {
		t.Errorf("outsider typing recorded: %v", snapshot)
	}
}

func TestHandleDisconnectClearsTyping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")
	bob := f.connect(t, "bob")

	f.svc.HandleTyping(ctx, "alice", model.TypingIndicator{ConversationID: conversation.ID.Hex(), IsTyping: true})
	bob.events = nil

	f.svc.HandleDisconnect(ctx, "alice")

	if snapshot := f.typing.Snapshot(conversation.ID.Hex()); snapshot != nil {
		t.Errorf("typing state survived disconnect: %v", snapshot)
	}
	if got := bob.names(); len(got) != 1 || got[0] != event.EventTypingStatus {
		t.Errorf("bob received %v after disconnect", got)
	}
}

// -----------------------------------------------------------------
// Admin
// -----------------------------------------------------------------

func TestPurgeConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conversation := f.directConversation(t, "alice", "bob")

	if _, err := f.svc.SendMessage(ctx, "alice", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "one"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, "bob", SendMessageInput{ConversationID: conversation.ID.Hex(), Text: "two"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.svc.PurgeConversation(ctx, conversation.ID.Hex()); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if _, err := f.conversations.GetConversation(ctx, conversation.ID.Hex()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("conversation survived purge: %v", err)
	}
	if len(f.messages.byID) != 0 {
		t.Errorf("%d messages survived purge", len(f.messages.byID))
	}
}
