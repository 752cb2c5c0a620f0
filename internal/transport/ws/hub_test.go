package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/agentkred/kred/internal/domain"
	"github.com/agentkred/kred/internal/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestHubRoutesBySubscription(t *testing.T) {
	hub := startHub(t)
	notifier := NewHubNotifier(hub)

	one := NewClient(hub, nil)
	one.Subscribe("bot-1")
	all := NewClient(hub, nil)
	all.Subscribe(AllAgents)
	require.True(t, hub.Register(one))
	require.True(t, hub.Register(all))

	notifier.NotifyAgentUpdated(&domain.Agent{ID: "bot-2", TrustScore: 40})
	notifier.NotifyAgentUpdated(&domain.Agent{ID: "bot-1", TrustScore: 60})

	evt := receive(t, all)
	assert.Equal(t, EventTypeAgentUpdated, evt.Type)
	assert.Equal(t, "bot-2", evt.AgentID)
	assert.Equal(t, "bot-1", receive(t, all).AgentID)

	evt = receive(t, one)
	assert.Equal(t, "bot-1", evt.AgentID)
	var agent domain.Agent
	require.NoError(t, json.Unmarshal(evt.Payload, &agent))
	assert.Equal(t, 60, agent.TrustScore)

	notifier.NotifyReviewCreated(&domain.Review{ReviewerID: "bot-1", TargetID: "bot-3", Score: 5})
	evt = receive(t, one)
	assert.Equal(t, EventTypeReviewCreated, evt.Type)
	assert.Equal(t, "bot-3", evt.AgentID)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := NewClient(hub, nil)
	slow.Subscribe(AllAgents)
	require.True(t, hub.Register(slow))

	for i := 0; i <= sendBufSize; i++ {
		hub.Broadcast(&Event{Type: EventTypeAgentUpdated, AgentID: "bot-1"}, "bot-1")
	}

	select {
	case <-slow.done:
	case <-time.After(time.Second):
		t.Fatal("slow client was not dropped")
	}
}

func TestHubStopRejectsRegistration(t *testing.T) {
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx))

	assert.False(t, hub.Register(NewClient(hub, nil)))
	hub.Broadcast(&Event{Type: EventTypePong})
}

func TestServeWSFeed(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(ServeWS(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{
		"type":    EventTypeFeedSubscribe,
		"payload": map[string]string{"agent_id": "bot-1"},
	}))
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": EventTypePing}))

	var evt Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	require.Equal(t, EventTypePong, evt.Type)

	NewHubNotifier(hub).NotifyAgentUpdated(&domain.Agent{ID: "bot-1", Name: "Bot"})
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, EventTypeAgentUpdated, evt.Type)
	assert.Equal(t, "bot-1", evt.AgentID)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "bogus"}))
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	assert.Equal(t, EventTypeError, evt.Type)
}
