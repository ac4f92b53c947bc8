package sse

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/diceduel/internal/model"
)

// Hub fans out events to the SSE subscribers of a single chat
type Hub struct {
	chatID  model.ChatID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	// refs counts streams holding the hub through HubManager.Acquire. Guarded by HubManager.mu.
	refs int
}

// NewHub creates a new Hub for a chat
func NewHub(chatID model.ChatID, logger *slog.Logger) *Hub {
	return &Hub{
		chatID:     chatID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("chat_id", string(chatID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("subscriber", client.subscriber),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.String("subscriber", client.subscriber),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			sent := len(h.clients) - dropped
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("sse broadcast partial failure",
					slog.Int("sent", sent),
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. It reports false if the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a raw message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and single-line data
func (h *Hub) BroadcastEvent(eventName string, data []byte) {
	h.Broadcast(formatMessage(eventName, data))
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func formatMessage(eventName string, data []byte) []byte {
	msg := make([]byte, 0, len(eventName)+len(data)+16)
	msg = append(msg, "event: "...)
	msg = append(msg, eventName...)
	msg = append(msg, "\ndata: "...)
	msg = append(msg, data...)
	msg = append(msg, "\n\n"...)
	return msg
}

// HubManager manages hubs for all chats
type HubManager struct {
	hubs   map[model.ChatID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.ChatID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a chat, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(chatID model.ChatID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[chatID]; ok {
		return hub
	}

	hub := NewHub(chatID, m.logger)
	m.hubs[chatID] = hub
	go hub.Run()
	return hub
}

// Acquire returns the chat's hub, creating it if needed, and keeps it open
// until the matching Release
func (m *HubManager) Acquire(chatID model.ChatID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[chatID]
	if !ok {
		hub = NewHub(chatID, m.logger)
		m.hubs[chatID] = hub
		go hub.Run()
	}
	hub.refs++
	return hub
}

// Release drops a reference taken by Acquire. The last release closes the hub.
func (m *HubManager) Release(hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub.refs--
	if hub.refs > 0 {
		return
	}
	hub.Close()
	if m.hubs[hub.chatID] == hub {
		delete(m.hubs, hub.chatID)
	}
}

// GetHub returns the hub for a chat, or nil if nobody subscribed
func (m *HubManager) GetHub(chatID model.ChatID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[chatID]
}

// CleanupEmptyHubs removes hubs with no clients that no stream has acquired
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for chatID, hub := range m.hubs {
		if hub.refs == 0 && hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, chatID)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for chatID, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, chatID)
	}
}
