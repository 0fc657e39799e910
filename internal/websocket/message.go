package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"

	// Inbound intents
	TypeJoin        MessageType = "join"
	TypeSendMessage MessageType = "send_message"
	TypeMarkRead    MessageType = "mark_read"
	TypeCountdown   MessageType = "countdown"

	// Outbound pushes
	TypeReceiveMessage  MessageType = "receive_message"
	TypeMessageRead     MessageType = "message_read"
	TypeOnlineUsers     MessageType = "online_users"
	TypeEventNotice     MessageType = "event_notice"
	TypeCountdownUpdate MessageType = "countdown_update"
	TypeError           MessageType = "error"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func encode(msgType MessageType, data interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = jsonData
	}

	return json.Marshal(msg)
}
