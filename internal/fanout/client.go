package fanout

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HeartbeatInterval is H from spec §4.6: the server pings every H; if
// no pong or client ping arrives within 2H the connection is
// terminated. Configurable via internal/config's HEARTBEAT_INTERVAL_MS.
var HeartbeatInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection and its topic subscriptions.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	subsMu sync.RWMutex
	topics map[string]bool
}

// Upgrade upgrades an HTTP request to a WebSocket connection, registers
// the resulting Client with hub, and starts its read/write pumps.
func Upgrade(hub *Hub, w http.ResponseWriter, r *http.Request, id string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     id,
		topics: make(map[string]bool),
	}
	hub.register <- c

	go c.writePump()
	go c.readPump()
	return nil
}

// IsSubscribed reports whether the client currently subscribes to topic.
func (c *Client) IsSubscribed(topic string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.topics[topic]
}

func (c *Client) subscribe(topics []string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, t := range topics {
		c.topics[t] = true
	}
}

func (c *Client) unsubscribe(topics []string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, t := range topics {
		delete(c.topics, t)
	}
}

// readPump pumps inbound SUBSCRIBE/UNSUBSCRIBE messages from the
// connection into the client's subscription set. A malformed message
// yields a typed SUBSCRIBE_ERROR event back to the sender rather than
// dropping the connection (spec §4.6).
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(2 * HeartbeatInterval))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * HeartbeatInterval))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("clientId", c.id).Msg("websocket read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(2 * HeartbeatInterval))

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}

		switch msg.Op {
		case "SUBSCRIBE":
			c.subscribe(msg.Topics)
		case "UNSUBSCRIBE":
			c.unsubscribe(msg.Topics)
		default:
			c.sendError("unknown op: " + msg.Op)
		}
	}
}

func (c *Client) sendError(reason string) {
	payload, _ := json.Marshal(map[string]string{"reason": reason})
	evt := Event{Kind: SubscribeError, Payload: payload}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// writePump pumps outbound events to the connection and sends periodic
// pings, mirroring the teacher's writePump (pkg/api/websocket.go).
func (c *Client) writePump() {
	ticker := time.NewTicker(HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
