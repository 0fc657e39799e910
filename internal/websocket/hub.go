package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// Hub tracks every open connection and the registry of which connection
// currently speaks for each user. One mutex guards all three maps so that a
// superseding registration and the disconnect of the superseded client are
// linearized.
type Hub struct {
	// Every open connection, registered or not
	clients map[uuid.UUID]*Client

	// Registry: at most one client per user, last registration wins
	users map[uuid.UUID]*Client

	// Reverse index client.ID -> user, kept in lockstep with users
	owners map[uuid.UUID]uuid.UUID

	mu  sync.RWMutex
	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		users:   make(map[uuid.UUID]*Client),
		owners:  make(map[uuid.UUID]uuid.UUID),
		log:     log.Named("hub"),
	}
}

// Run sends an application level heartbeat to every open connection until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast(TypePing, nil)
		}
	}
}

// Attach makes a freshly opened connection reachable by broadcasts.
func (h *Hub) Attach(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.log.Debug("client attached", zap.Stringer("client", client.ID), zap.Stringer("user", client.UserID))
}

// Detach forgets a closed connection and drops its registry entry if it
// still owns one.
func (h *Hub) Detach(client *Client) {
	h.Unregister(client)

	h.mu.Lock()
	delete(h.clients, client.ID)
	h.mu.Unlock()

	h.log.Debug("client detached", zap.Stringer("client", client.ID))
}

// Register binds userID to client. A previous client for the same user is
// dropped from the registry without notification; its connection stays open.
func (h *Hub) Register(userID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.users[userID]; ok && old.ID != client.ID {
		delete(h.owners, old.ID)
		h.log.Debug("registration superseded",
			zap.Stringer("user", userID),
			zap.Stringer("old_client", old.ID),
			zap.Stringer("client", client.ID))
	}

	// A client announcing a different identity leaves its previous one.
	if prev, ok := h.owners[client.ID]; ok && prev != userID {
		if h.users[prev] == client {
			delete(h.users, prev)
		}
	}

	h.users[userID] = client
	h.owners[client.ID] = userID

	h.log.Info("user registered", zap.Stringer("user", userID), zap.Stringer("client", client.ID))

	h.publishRosterLocked()
}

// Unregister removes the entry owned by client. It reports whether an entry
// was removed; a superseded or unknown client is a no-op.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.owners[client.ID]
	if !ok {
		return false
	}

	delete(h.owners, client.ID)
	if h.users[userID] == client {
		delete(h.users, userID)
	}

	h.log.Info("user unregistered", zap.Stringer("user", userID), zap.Stringer("client", client.ID))

	h.publishRosterLocked()
	return true
}

// Lookup returns the client currently registered for userID.
func (h *Hub) Lookup(userID uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.users[userID]
	return client, ok
}

// OnlineUsers returns the roster of registered users, sorted.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.rosterLocked()
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Broadcast pushes one frame to every open connection, registered or not,
// and returns how many accepted it.
func (h *Hub) Broadcast(msgType MessageType, data interface{}) int {
	frame, err := encode(msgType, data)
	if err != nil {
		h.log.Error("encode broadcast", zap.String("type", string(msgType)), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		if err := client.deliver(frame); err != nil {
			h.log.Debug("broadcast skipped", zap.Stringer("client", client.ID), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) rosterLocked() []uuid.UUID {
	users := make([]uuid.UUID, 0, len(h.users))
	for userID := range h.users {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].String() < users[j].String()
	})
	return users
}

// publishRosterLocked runs under the write lock so rosters reach clients in
// registry order. Deliveries never block.
func (h *Hub) publishRosterLocked() {
	frame, err := encode(TypeOnlineUsers, h.rosterLocked())
	if err != nil {
		h.log.Error("encode roster", zap.Error(err))
		return
	}

	for _, client := range h.clients {
		if err := client.deliver(frame); err != nil {
			h.log.Debug("roster skipped", zap.Stringer("client", client.ID), zap.Error(err))
		}
	}
}
