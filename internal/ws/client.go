package ws

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	// Outbound queue depth per connection. When it fills, further broadcasts
	// to this member are dropped rather than queued indefinitely.
	sendQueueLen = 256
)

// Conn is the view of a connection the relay services operate on. Identity is
// bound at most once per connection; re-authentication requires a new
// connection.
type Conn interface {
	UserID() uuid.UUID
	BindUser(id uuid.UUID)
	Join(room string)
	Send(event string, payload any)
}

// EventHandler consumes the inbound events of a connection. Events of one
// connection are delivered one at a time, in receive order, from that
// connection's read loop.
type EventHandler interface {
	HandleEvent(ctx context.Context, conn Conn, evt Event)
	HandleDisconnect(ctx context.Context, conn Conn)
}

// Client is one live websocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	handler EventHandler
	send    chan []byte

	// userID is uuid.Nil until authenticated. Written and read only from the
	// connection's read loop.
	userID uuid.UUID
}

func newClient(hub *Hub, conn *websocket.Conn, handler EventHandler) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		handler: handler,
		send:    make(chan []byte, sendQueueLen),
	}
}

func (c *Client) UserID() uuid.UUID { return c.userID }

func (c *Client) BindUser(id uuid.UUID) { c.userID = id }

func (c *Client) Join(room string) { c.hub.join(c, room) }

// Send emits a single event to this connection only, best-effort.
func (c *Client) Send(event string, payload any) {
	data, err := EncodeEvent(event, payload)
	if err != nil {
		log.Printf("send %s: %v", event, err)
		return
	}
	c.trySend(data)
}

// trySend enqueues without blocking. Callers may hold the hub lock, so this
// must never wait on the peer.
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("client %v: send queue full, dropping frame", c.userID)
	}
}

// readPump processes inbound frames until the transport closes, dispatching
// each event synchronously so the connection keeps per-connection FIFO order.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.handler.HandleDisconnect(ctx, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client %v: read: %v", c.userID, err)
			}
			return
		}

		evt, err := DecodeEvent(data)
		if err != nil {
			c.Send(EventError, ErrorPayload{Code: "bad_envelope", Message: err.Error()})
			continue
		}
		c.handler.HandleEvent(ctx, c, evt)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}
