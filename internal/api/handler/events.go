package handler

import (
	"net/http"

	"github.com/mcoot/diceduel/internal/api/middleware"
	"github.com/mcoot/diceduel/internal/sse"
)

// EventsHandler streams chat events over SSE
type EventsHandler struct {
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{hubManager: hubManager}
}

// Stream handles GET /api/v1/chats/{chat}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	hub := h.hubManager.Acquire(chatID(r))
	defer h.hubManager.Release(hub)
	sse.ServeSSE(w, r, hub, middleware.Subject(r.Context()))
}
