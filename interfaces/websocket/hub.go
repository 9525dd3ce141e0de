package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dialograph/pkg/observability"
)

// Message types pushed to visualization clients
const (
	MessageTypeConnected    = "CONNECTION_ESTABLISHED"
	MessageTypeGraphChanged = "GRAPH_CHANGED"
)

// Message is the envelope for every frame sent to clients
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// GraphChangedPayload tells clients the graph version advanced so they
// can refetch the snapshot
type GraphChangedPayload struct {
	Version int `json:"version"`
}

// Hub maintains the set of connected visualization clients and fans
// refresh notifications out to all of them. Clients are read-only
// observers; the only inbound traffic the hub expects is pongs.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	metrics  *observability.Collector
	disabled atomic.Bool
}

// NewHub creates a new WebSocket hub. metrics may be nil.
func NewHub(logger *zap.Logger, metrics *observability.Collector) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run starts the hub's event loop; call it as a goroutine
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("hub shutting down")
			for client := range h.clients {
				client.close()
			}
			h.clients = make(map[*Client]bool)
			h.setClientGauge()
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setClientGauge()
			h.logger.Info("client connected", zap.String("connectionID", client.id))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.setClientGauge()
				h.logger.Info("client disconnected", zap.String("connectionID", client.id))
			}

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer: drop it rather than block
					// everyone else
					delete(h.clients, client)
					client.close()
					h.setClientGauge()
					h.logger.Warn("dropped slow client", zap.String("connectionID", client.id))
				}
			}
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}

// SetEnabled toggles acceptance of new connections at runtime.
// Existing clients stay connected; only upgrades are refused while
// disabled.
func (h *Hub) SetEnabled(enabled bool) {
	h.disabled.Store(!enabled)
}

// Enabled reports whether new connections are accepted
func (h *Hub) Enabled() bool {
	return !h.disabled.Load()
}

// NotifyGraphChanged broadcasts a refresh hint carrying the new graph
// version. Safe to call from any goroutine; drops the notification if
// the hub's queue is full.
func (h *Hub) NotifyGraphChanged(version int) {
	payload, err := json.Marshal(GraphChangedPayload{Version: version})
	if err != nil {
		h.logger.Error("failed to marshal change notification", zap.Error(err))
		return
	}

	frame, err := json.Marshal(Message{
		Type:      MessageTypeGraphChanged,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Error("failed to marshal change notification", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("broadcast queue full, change notification dropped",
			zap.Int("version", version))
	}
}

func (h *Hub) setClientGauge() {
	if h.metrics != nil {
		h.metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
}
