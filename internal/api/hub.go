package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"swaperex-scan/internal/domain"
)

// HubConfig holds alert hub limits.
type HubConfig struct {
	MaxClients int // maximum concurrent subscribers (default 1000)
	BufferSize int // per-client send buffer (default 64)
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{MaxClients: 1000, BufferSize: 64}
}

// hubClient is one WebSocket subscriber.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// AlertHub fans triggered token signals out to WebSocket subscribers.
// A client that cannot keep up with its send buffer is dropped rather
// than allowed to stall the broadcast loop.
type AlertHub struct {
	config     HubConfig
	clients    map[*hubClient]bool
	register   chan *hubClient
	unregister chan *hubClient
	broadcast  chan domain.TokenSignal
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// NewAlertHub creates an alert hub.
func NewAlertHub(config HubConfig, logger *log.Logger) *AlertHub {
	defaults := DefaultHubConfig()
	if config.MaxClients <= 0 {
		config.MaxClients = defaults.MaxClients
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[alerts] ", log.LstdFlags)
	}
	return &AlertHub{
		config:     config,
		clients:    make(map[*hubClient]bool),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		broadcast:  make(chan domain.TokenSignal, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Start runs the hub's main loop until ctx is cancelled.
func (h *AlertHub) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case signal := <-h.broadcast:
			h.broadcastSignal(signal)
		}
	}
}

// Publish queues a signal for broadcast. Non-blocking: when the hub queue
// is full the signal is dropped, alerts are advisory.
func (h *AlertHub) Publish(signal domain.TokenSignal) {
	select {
	case h.broadcast <- signal:
	default:
		h.logger.Printf("broadcast queue full, dropping %s for %s", signal.Kind, signal.Token)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *AlertHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and subscribes the connection to alerts.
func (h *AlertHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan []byte, h.config.BufferSize),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writeLoop(client)
	go h.readLoop(client)
}

func (h *AlertHub) addClient(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) >= h.config.MaxClients {
		close(client.send)
		client.conn.Close()
		return
	}
	h.clients[client] = true
}

func (h *AlertHub) removeClient(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
}

func (h *AlertHub) broadcastSignal(signal domain.TokenSignal) {
	payload, err := json.Marshal(signal)
	if err != nil {
		h.logger.Printf("marshal signal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow client: drop it instead of stalling everyone else
			delete(h.clients, client)
			close(client.send)
			client.conn.Close()
		}
	}
}

func (h *AlertHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
}

// writeLoop pushes queued payloads to one connection.
func (h *AlertHub) writeLoop(client *hubClient) {
	for payload := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.deregister(client)
			return
		}
	}
}

// readLoop drains inbound frames so pings are answered and closure is seen.
func (h *AlertHub) readLoop(client *hubClient) {
	defer h.deregister(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// deregister hands the client back to the hub loop. After shutdown the loop
// is gone, so the send must not block; closeAll has already cleaned up.
func (h *AlertHub) deregister(client *hubClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
