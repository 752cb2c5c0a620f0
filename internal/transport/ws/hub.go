package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mborders/logmatic"
)

// Hub tracks connected feed clients and fans agent events out to them.
type Hub struct {
	// clients maps connection id → client. Only Run touches it.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	done       chan struct{}

	log *logmatic.Logger
}

type broadcastMsg struct {
	agentIDs []string
	data     []byte
}

func NewHub(log *logmatic.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for id, client := range h.clients {
			delete(h.clients, id)
			close(client.done)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.clients[client.id] = client
			h.log.Debug("ws hub: client %s connected (%d total)", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.done)
				h.log.Debug("ws hub: client %s disconnected (%d total)", client.id, len(h.clients))
			}

		case msg := <-h.broadcast:
			for id, client := range h.clients {
				if !client.wants(msg.agentIDs) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, id)
					close(client.done)
					h.log.Warn("ws hub: dropped slow client %s", id)
				}
			}
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast delivers event to clients subscribed to any of agentIDs or to
// every agent.
func (h *Hub) Broadcast(event *Event, agentIDs ...string) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws hub: marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- &broadcastMsg{agentIDs: agentIDs, data: data}:
	case <-h.done:
	}
}
