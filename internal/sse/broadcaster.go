package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/diceduel/internal/model"
)

// Broadcaster publishes game events to the chat's SSE hub
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger,
	}
}

// Publish sends the event as JSON to subscribers of its chat. Events for chats
// without subscribers are dropped.
func (b *Broadcaster) Publish(event model.Event) {
	hub := b.hubManager.GetHub(event.ChatID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	hub.BroadcastEvent(string(event.Type), data)
}
