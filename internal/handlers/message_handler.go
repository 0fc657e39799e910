package handlers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/handlers/dto"
	"github.com/thereayou/gatherly/internal/services"
	"github.com/thereayou/gatherly/internal/websocket"
	"go.uber.org/zap"
)

// MessageHandler dispatches websocket intents to the gateway services.
type MessageHandler struct {
	hub       *websocket.Hub
	chat      *services.ChatService
	countdown *services.CountdownService
	log       *zap.Logger
}

func NewMessageHandler(hub *websocket.Hub, chat *services.ChatService, countdown *services.CountdownService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		hub:       hub,
		chat:      chat,
		countdown: countdown,
		log:       log.Named("intents"),
	}
}

// HandleMessage runs one intent under the connection's context, so store
// calls are abandoned once the socket goes away.
func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	ctx := client.Context()

	var err error
	switch msg.Type {
	case websocket.TypeJoin:
		err = h.handleJoin(client, msg)

	case websocket.TypeSendMessage:
		err = h.handleSend(ctx, client, msg)

	case websocket.TypeMarkRead:
		err = h.handleMarkRead(ctx, client, msg)

	case websocket.TypeCountdown:
		err = h.handleCountdown(ctx, client)

	default:
		h.log.Debug("unknown intent", zap.String("type", string(msg.Type)), zap.Stringer("client", client.ID))
		return nil
	}

	if err != nil {
		return clientError(err)
	}
	return nil
}

// handleJoin registers the connection under the announced identity, which
// must be the one its token proved.
func (h *MessageHandler) handleJoin(client *websocket.Client, msg *websocket.Message) error {
	var payload dto.JoinPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return websocket.ErrInvalidMessage
		}
	}

	userID := client.UserID
	if payload.UserID != "" {
		announced, err := uuid.Parse(payload.UserID)
		if err != nil {
			return services.ErrInvalidArgument
		}
		if announced != client.UserID {
			return services.ErrUnauthorized
		}
	}

	h.hub.Register(userID, client)
	return nil
}

func (h *MessageHandler) handleSend(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var payload dto.SendMessageRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}

	_, err := h.chat.Send(ctx, client.UserID.String(), payload.ReceiverID, payload.Body)
	return err
}

func (h *MessageHandler) handleMarkRead(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var payload dto.MarkReadPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}

	_, err := h.chat.MarkRead(ctx, payload.MessageID, client.UserID)
	return err
}

// handleCountdown answers only the requesting connection.
func (h *MessageHandler) handleCountdown(ctx context.Context, client *websocket.Client) error {
	view, err := h.countdown.Evaluate(ctx, client.UserID)
	if err != nil {
		return err
	}

	if !h.countdown.ShouldPush(view) {
		return nil
	}

	if err := client.SendMessage(websocket.TypeCountdownUpdate, view); err != nil {
		h.log.Debug("countdown not delivered", zap.Stringer("client", client.ID), zap.Error(err))
	}
	return nil
}
