// Package realtime pushes change notices to connected websocket clients.
// Clients react by refetching the affected list.
package realtime

import (
	"context"
	"sort"
	"sync"

	"foodspot/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MessageTypeSpotChanged    = "spot_changed"
	MessageTypePostCreated    = "post_created"
	MessageTypeProfileUpdated = "profile_updated"
	MessageTypeNotification   = "notification"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// envelope carries a message and, for user-scoped messages, its recipient.
type envelope struct {
	msg    Message
	userID *uuid.UUID
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			h.logger.Infow("websocket hub stopped", "clients_closed", n)
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debugw("websocket client connected", "user_id", c.userID, "total_clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debugw("websocket client disconnected", "user_id", c.userID, "total_clients", n)

		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

func (h *Hub) deliver(e envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if e.userID != nil && c.userID != *e.userID {
			continue
		}
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- e.msg:
		default:
			// slow consumer
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(e envelope) {
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warnw("websocket broadcast channel full, dropping message", "type", e.msg.Type)
	}
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) {
	h.enqueue(envelope{msg: msg})
}

// SendTo sends msg only to the connections of one user.
func (h *Hub) SendTo(userID uuid.UUID, msg Message) {
	h.enqueue(envelope{msg: msg, userID: &userID})
}

// Attach forwards bus events to clients. The returned func detaches.
func (h *Hub) Attach(bus *events.Bus) (detach func()) {
	unsubs := []func(){
		bus.SpotChanged.Subscribe(func(e events.SpotChanged) {
			h.Broadcast(Message{Type: MessageTypeSpotChanged, Data: e})
		}),
		bus.PostCreated.Subscribe(func(e events.PostCreated) {
			h.Broadcast(Message{Type: MessageTypePostCreated, Data: e})
		}),
		bus.ProfileUpdated.Subscribe(func(e events.ProfileUpdated) {
			h.SendTo(e.UserID, Message{Type: MessageTypeProfileUpdated, Data: e})
		}),
		bus.NotificationPublished.Subscribe(func(e events.NotificationPublished) {
			msg := Message{Type: MessageTypeNotification, Data: e}
			if e.UserID != nil {
				h.SendTo(*e.UserID, msg)
				return
			}
			h.Broadcast(msg)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
