package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"github.com/thereayou/gatherly/internal/websocket"
	"go.uber.org/zap"
)

// ReadReceipt is pushed to connections when a message is acknowledged.
type ReadReceipt struct {
	MessageID uuid.UUID `json:"message_id"`
	ReaderID  uuid.UUID `json:"reader_id"`
}

// ChatService relays direct messages and read receipts. Persistence comes
// first; delivery to live connections is best effort.
type ChatService struct {
	users    UserStore
	messages MessageStore
	hub      *websocket.Hub
	log      *zap.Logger
}

func NewChatService(users UserStore, messages MessageStore, hub *websocket.Hub, log *zap.Logger) *ChatService {
	return &ChatService{
		users:    users,
		messages: messages,
		hub:      hub,
		log:      log.Named("chat"),
	}
}

// Send persists a message from senderID to receiverID and pushes it to
// whichever of the two is connected. Offline peers are not an error.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, body string) (*models.Message, error) {
	sender, err := uuid.Parse(senderID)
	if err != nil {
		return nil, invalid("sender id %q", senderID)
	}
	receiver, err := uuid.Parse(receiverID)
	if err != nil {
		return nil, invalid("receiver id %q", receiverID)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("message body is empty")
	}

	if _, err := s.users.GetUser(ctx, sender); err != nil {
		return nil, storeErr("sender", err)
	}
	if _, err := s.users.GetUser(ctx, receiver); err != nil {
		return nil, storeErr("receiver", err)
	}

	message := &models.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
	}
	if err := s.messages.SaveMessage(ctx, message); err != nil {
		s.log.Error("save message", zap.Stringer("sender", sender), zap.Stringer("receiver", receiver), zap.Error(err))
		return nil, storeErr("save message", err)
	}

	s.deliver(websocket.TypeReceiveMessage, message, sender, receiver)

	return message, nil
}

// MarkRead flags messageID as read and notifies the acknowledging user and
// the original sender if they are connected. Only the receiver may
// acknowledge a message.
func (s *ChatService) MarkRead(ctx context.Context, messageID string, ackingUserID uuid.UUID) (*models.Message, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return nil, invalid("message id %q", messageID)
	}

	message, err := s.messages.GetMessage(ctx, id)
	if err != nil {
		return nil, storeErr("message", err)
	}
	if message.ReceiverID != ackingUserID {
		return nil, ErrUnauthorized
	}

	message, err = s.messages.MarkMessageRead(ctx, id)
	if err != nil {
		return nil, storeErr("message", err)
	}

	receipt := ReadReceipt{MessageID: message.ID, ReaderID: ackingUserID}
	s.deliver(websocket.TypeMessageRead, receipt, ackingUserID, message.SenderID)

	return message, nil
}

// History returns the conversation between a and b, oldest first.
func (s *ChatService) History(ctx context.Context, a, b string) ([]models.Message, error) {
	userA, err := uuid.Parse(a)
	if err != nil {
		return nil, invalid("user id %q", a)
	}
	userB, err := uuid.Parse(b)
	if err != nil {
		return nil, invalid("user id %q", b)
	}

	messages, err := s.messages.GetConversation(ctx, userA, userB)
	if err != nil {
		return nil, storeErr("history", err)
	}
	return messages, nil
}

func (s *ChatService) ChatList(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error) {
	chats, err := s.messages.GetChatList(ctx, userID)
	if err != nil {
		return nil, storeErr("chat list", err)
	}
	return chats, nil
}

// deliver pushes payload once to each distinct client registered for the
// given users. Lookups are snapshots; a client that disconnects before the
// push simply misses it.
func (s *ChatService) deliver(msgType websocket.MessageType, payload interface{}, userIDs ...uuid.UUID) {
	sent := make(map[uuid.UUID]bool, len(userIDs))

	for _, userID := range userIDs {
		client, ok := s.hub.Lookup(userID)
		if !ok {
			s.log.Debug("recipient offline", zap.String("type", string(msgType)), zap.Stringer("user", userID))
			continue
		}
		if sent[client.ID] {
			continue
		}
		sent[client.ID] = true

		if err := client.SendMessage(msgType, payload); err != nil {
			s.log.Debug("delivery missed", zap.String("type", string(msgType)), zap.Stringer("user", userID), zap.Error(err))
		}
	}
}
