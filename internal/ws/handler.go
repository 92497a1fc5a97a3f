package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket connections and runs their
// lifecycle against the hub.
type Handler struct {
	hub      *Hub
	events   EventHandler
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, events EventHandler) *Handler {
	return &Handler{
		hub:    hub,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The browser client is served from a separate origin.
				return true
			},
		},
	}
}

// ServeWS handles GET /ws. A credential supplied in the handshake
// (?token=...) authenticates the connection before its first event; a
// connection without one stays anonymous until it sends an authenticate
// event, and is rejected for every relay operation until then.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(h.hub, conn, h.events)
	h.hub.register(c)
	go c.writePump()

	if token := r.URL.Query().Get("token"); token != "" {
		payload, _ := json.Marshal(AuthenticatePayload{Token: token})
		h.events.HandleEvent(r.Context(), c, Event{Type: EventAuthenticate, Payload: payload})
	}

	c.readPump(r.Context())
}
