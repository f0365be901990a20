package wsfanout

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader accepts connections from any origin: CORS/auth plumbing around
// the websocket channel is an out-of-scope external collaborator per
// spec.md §1.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// ServeHTTP upgrades the connection and streams each Event its subscription
// receives to it as a JSON text frame, until a write to the connection
// fails. Events that Publish drops for a backlogged subscriber are not sent.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("wsfanout: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	// Drain and discard any client-sent frames so the connection's read
	// deadline machinery stays happy; this channel carries no client->server
	// messages today.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.log.Error("wsfanout: marshal event failed", "type", ev.Type, "err", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
