package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; clients only send pongs
	maxMessageSize = 1024

	// Send buffer size
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The visualization page is served from the same origin; anything
	// else is up to the CORS layer in front
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client represents one connected visualization page
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	closeOnce sync.Once
}

// ServeWS upgrades an HTTP request to a WebSocket connection and
// registers the client with the hub
func ServeWS(hub *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hub.Enabled() {
			http.Error(w, "websocket connections are disabled", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			id:     uuid.New().String(),
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, sendBufferSize),
			logger: logger.With(zap.String("connectionID", uuid.New().String())),
		}
		client.start()
	}
}

func (c *Client) start() {
	c.hub.register <- c

	go c.writePump()
	go c.readPump()

	c.sendConnected()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump drains inbound frames; visualization clients only ever send
// pongs, everything else is logged and ignored
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket read error", zap.Error(err))
			}
			return
		}
		c.logger.Debug("ignoring client message", zap.ByteString("message", message))
	}
}

// writePump forwards hub frames to the connection and keeps it alive
// with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("failed to write message", zap.Error(err))
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

func (c *Client) sendConnected() {
	frame, err := json.Marshal(Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn("failed to queue connection message")
	}
}
