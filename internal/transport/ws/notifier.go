package ws

import (
	"github.com/agentkred/kred/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyAgentUpdated(agent *domain.Agent) {
	evt, err := NewEvent(EventTypeAgentUpdated, agent.ID, AgentPayload{Agent: *agent})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt, agent.ID)
}

// NotifyReviewCreated reaches subscribers of either side of the review.
func (n *HubNotifier) NotifyReviewCreated(review *domain.Review) {
	evt, err := NewEvent(EventTypeReviewCreated, review.TargetID, ReviewPayload{Review: *review})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Broadcast(evt, review.TargetID, review.ReviewerID)
}
