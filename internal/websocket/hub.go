package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/infrastructure"
)

// Message types the hub emits on its own. Pipeline events use the
// event names defined by the service layer.
const (
	TypeConnection = "connection"
	TypeError      = "error"
)

const (
	defaultBroadcastBuffer = 256
	clientSendBuffer       = 256
	statsInterval          = 30 * time.Second
)

// Message is the JSON envelope written to every client.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// HubConfig tunes client keepalive and metric recording.
type HubConfig struct {
	PingPeriod time.Duration
	PongWait   time.Duration
	// Metrics is optional; when set the hub tracks websocket_connections.
	Metrics *infrastructure.PipelineMetrics
}

// HubStats is a point-in-time view of hub activity.
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
	ClientsEvicted   int64 `json:"clients_evicted"`
}

// Hub maintains the set of active clients and broadcasts pipeline events to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger
	cfg    HubConfig

	stats HubStats

	quit     chan struct{}
	stopOnce sync.Once
	running  bool
}

// NewHub creates a hub. Zero keepalive values fall back to the client defaults.
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = pongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = (cfg.PongWait * 9) / 10
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, defaultBroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		cfg:        cfg,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop and the periodic stats logger in the background.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportStats()
}

// Run is the hub's main loop. It owns all mutations of the client set.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.stats.TotalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.connectionsChanged(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.connectionsChanged(ctx, -1)
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) greet(ctx context.Context, client *Client) {
	data, err := encode(TypeConnection, map[string]interface{}{
		"status":    "connected",
		"message":   "Connected to Marketing Data Engine",
		"client_id": client.id,
	}, client.traceID)
	if err != nil {
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			h.stats.MessagesSent++
		default:
			// A client that cannot keep up is disconnected rather than stalling the hub.
			close(client.send)
			delete(h.clients, client)
			h.stats.ClientsEvicted++
			evicted++
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	if evicted > 0 {
		h.connectionsChanged(context.Background(), -evicted)
	}
	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", len(h.clients)),
		slog.Int("message_size", len(message)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	n := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.running = false
	h.mu.Unlock()

	if n > 0 {
		h.connectionsChanged(context.Background(), -n)
	}
}

func (h *Hub) connectionsChanged(ctx context.Context, delta int) {
	if h.cfg.Metrics == nil {
		return
	}
	h.cfg.Metrics.WebSocketConnections.Add(ctx, int64(delta))
}

// Broadcast sends a typed pipeline event to every connected client.
// It never blocks: when the hub is stopped or its queue is full the event is dropped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with a trace id stamped on the envelope.
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	payload, err := encode(messageType, data, traceID)
	if err != nil {
		h.logger.Error("Failed to encode broadcast message",
			slog.String("type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}

	select {
	case h.broadcast <- payload:
	default:
		h.mu.Lock()
		h.stats.MessagesDropped++
		h.mu.Unlock()
		h.logger.Warn("Broadcast queue full, dropping message", slog.String("type", messageType))
	}
}

// BroadcastError notifies clients that a pipeline step failed.
func (h *Hub) BroadcastError(step string, err error) {
	if err == nil {
		return
	}
	h.Broadcast(TypeError, map[string]interface{}{
		"step":    step,
		"message": err.Error(),
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of hub counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := h.stats
	stats.ActiveClients = len(h.clients)
	return stats
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.conn.Close()
	}
}

// Stop gracefully stops the hub and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

func (h *Hub) reportStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			return
		case <-ticker.C:
			stats := h.Stats()
			h.logger.Info("WebSocket hub metrics",
				slog.Int("active_clients", stats.ActiveClients),
				slog.Int64("total_connections", stats.TotalConnections),
				slog.Int64("messages_sent", stats.MessagesSent),
				slog.Int64("messages_dropped", stats.MessagesDropped),
				slog.Int("broadcast_queue", len(h.broadcast)))
		}
	}
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
