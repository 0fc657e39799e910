package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/gatherly/internal/websocket"
	"go.uber.org/zap"
)

var testLog = zap.NewNop()

// connect opens a socketless client for userID and registers it.
func connect(hub *websocket.Hub, userID uuid.UUID) *websocket.Client {
	client := websocket.NewClient(hub, nil, userID)
	hub.Attach(client)
	hub.Register(userID, client)
	return client
}

func drain(clients ...*websocket.Client) {
	for _, c := range clients {
	loop:
		for {
			select {
			case <-c.Send:
			default:
				break loop
			}
		}
	}
}

func nextFrame(t *testing.T, c *websocket.Client) websocket.Message {
	t.Helper()

	select {
	case frame := <-c.Send:
		var msg websocket.Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected a frame, got none")
		return websocket.Message{}
	}
}

func requireNoFrame(t *testing.T, c *websocket.Client) {
	t.Helper()

	select {
	case frame := <-c.Send:
		t.Fatalf("unexpected frame: %s", frame)
	default:
	}
}
