package ws

import (
	"net/http"

	"nhooyr.io/websocket"
)

// ServeWS upgrades to a feed connection. The feed is public; it carries the
// same data as the read endpoints.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // any origin, matching CORS
		})
		if err != nil {
			hub.log.Warn("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, conn)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
