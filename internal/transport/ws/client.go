package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client is one feed connection.
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn

	// subscriptions holds agent ids, or AllAgents.
	subscriptions map[string]struct{}
	mu            sync.RWMutex

	send chan []byte
	// done is closed by the hub when the client is removed.
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		id:            uuid.New(),
		hub:           hub,
		conn:          conn,
		subscriptions: make(map[string]struct{}),
		send:          make(chan []byte, sendBufSize),
		done:          make(chan struct{}),
	}
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) Subscribe(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[agentID] = struct{}{}
}

func (c *Client) Unsubscribe(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, agentID)
}

func (c *Client) wants(agentIDs []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.subscriptions[AllAgents]; ok {
		return true
	}
	for _, id := range agentIDs {
		if _, ok := c.subscriptions[id]; ok {
			return true
		}
	}
	return false
}

// ReadPump reads client events until the connection fails.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.hub.log.Debug("ws: client %s closed the connection", c.id)
			} else {
				c.hub.log.Debug("ws: read error from %s: %v", c.id, err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events and keeps the connection alive.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusGoingAway, "")
	}()

	for {
		select {
		case message := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.log.Debug("ws: write error to %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.hub.log.Debug("ws: ping error to %s: %v", c.id, err)
				return
			}

		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeFeedSubscribe, EventTypeFeedUnsubscribe:
		var p FeedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.AgentID == "" {
			c.sendError("INVALID_PAYLOAD", "agent_id required for "+event.Type)
			return
		}
		if event.Type == EventTypeFeedSubscribe {
			c.Subscribe(p.AgentID)
		} else {
			c.Unsubscribe(p.AgentID)
		}

	case EventTypePing:
		c.enqueue(&Event{Type: EventTypePong, Timestamp: time.Now().Unix()})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, "", ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.enqueue(evt)
}

func (c *Client) enqueue(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
