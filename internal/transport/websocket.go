package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and joins the connection to the room. Session
// authentication happens in front of the lobby; the identity and nick are
// taken from the query string as-is.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	nick := r.URL.Query().Get("nick")
	if identity == "" || nick == "" {
		http.Error(w, "identity and nick are required", http.StatusBadRequest)
		return
	}
	if h.Online(identity) {
		http.Error(w, "identity already connected", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Websocket upgrade failed", "error", err, "identity", identity)
		return
	}

	m, err := h.register(identity, nick)
	if err != nil {
		log.Warn("Rejected websocket member", "identity", identity, "error", err)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
		return
	}

	go h.writePump(conn, m)
	h.readPump(conn, m)
}

func (h *Hub) readPump(conn *websocket.Conn, m *member) {
	defer func() {
		h.unregister(m)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("Unexpected websocket close", "identity", m.Identity, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("Discarding malformed envelope", "identity", m.Identity, "error", err)
			continue
		}
		if err := h.route(m, env); err != nil {
			log.Warn("Failed to route envelope", "from", m.Identity, "to", env.To, "family", env.Family, "error", err)
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, m *member) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case env := <-m.queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				log.Warn("Failed to write envelope", "identity", m.Identity, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-m.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
