package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

type ClientMessageHandler interface {
	HandleMessage(client *Client, msg *Message) error
}

// Client is one live duplex connection. The transport goroutines own it;
// the hub only keeps references.
type Client struct {
	ID uuid.UUID
	// UserID is the identity proven by the access token at upgrade time.
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Context is cancelled when the connection closes. Work done on behalf of
// the connection runs under it.
func (c *Client) Context() context.Context {
	return c.ctx
}

// ReadPump reads intents from the connection until it fails, then detaches
// the client from the hub.
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		c.Hub.Detach(c)
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", zap.Error(err), zap.Stringer("client", c.ID))
			}
			break
		}

		msg.UserID = c.UserID

		if msg.Type == TypePong {
			continue
		}

		if handler != nil {
			if err := handler.HandleMessage(c, &msg); err != nil {
				c.SendError(err)
			}
		}
	}
}

// WritePump moves queued frames to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close marks the client as gone. Later deliveries fail with ErrClientClosed.
// The send channel is never closed, so concurrent deliveries cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	msgData, err := encode(msgType, data)
	if err != nil {
		return err
	}
	return c.deliver(msgData)
}

func (c *Client) deliver(frame []byte) error {
	if c.Closed() {
		return ErrClientClosed
	}

	select {
	case c.Send <- frame:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(err error) {
	payload := map[string]interface{}{
		"error": err.Error(),
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		payload["code"] = ce.Code
		payload["retryable"] = ce.Retryable
	}

	c.SendMessage(TypeError, payload)
}
