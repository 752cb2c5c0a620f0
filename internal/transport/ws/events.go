package ws

import (
	"encoding/json"
	"time"

	"github.com/agentkred/kred/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeFeedSubscribe   = "feed.subscribe"
	EventTypeFeedUnsubscribe = "feed.unsubscribe"
	EventTypePing            = "ping"
)

// Event types - Server → Client
const (
	EventTypeAgentUpdated  = "agent.updated"
	EventTypeReviewCreated = "review.created"
	EventTypePong          = "pong"
	EventTypeError         = "error"
)

// AllAgents subscribes a client to every agent.
const AllAgents = "*"

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	AgentID   string          `json:"agent_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type FeedPayload struct {
	AgentID string `json:"agent_id"`
}

type AgentPayload struct {
	domain.Agent
}

type ReviewPayload struct {
	domain.Review
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType, agentID string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		AgentID:   agentID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
