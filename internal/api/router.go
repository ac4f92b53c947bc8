package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/diceduel/internal/api/handler"
	apimiddleware "github.com/mcoot/diceduel/internal/api/middleware"
	"github.com/mcoot/diceduel/internal/api/response"
	"github.com/mcoot/diceduel/internal/middleware"
	"github.com/mcoot/diceduel/internal/services/auth"
	"github.com/mcoot/diceduel/internal/services/game"
	"github.com/mcoot/diceduel/internal/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController game.ControllerInterface
	HubManager     *sse.HubManager
	// Alerter receives 5xx responses and recovered panics (optional)
	Alerter apimiddleware.Alerter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(apimiddleware.Recovery(cfg.Logger, cfg.Alerter))
	if cfg.Alerter != nil {
		api.Use(apimiddleware.Alert(cfg.Alerter))
	}

	// Public routes
	api.HandleFunc("/health", healthHandler(cfg.AuthService)).Methods(http.MethodGet)
	api.HandleFunc("/auth/token", authHandler.Token).Methods(http.MethodPost)

	// Chat routes (require an access token unless auth runs open)
	chats := api.PathPrefix("/chats/{chat}").Subrouter()
	chats.Use(apimiddleware.Auth(cfg.AuthService))
	chats.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	chats.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	chats.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	chats.HandleFunc("/games/{id}/accept", gameHandler.Accept).Methods(http.MethodPost)
	chats.HandleFunc("/games/{id}/revenge", gameHandler.Revenge).Methods(http.MethodPost)
	chats.HandleFunc("/rolls", gameHandler.Roll).Methods(http.MethodPost)
	chats.HandleFunc("/scoreboard", gameHandler.Scoreboard).Methods(http.MethodGet)
	chats.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(authService *auth.Service) http.HandlerFunc {
	mode := "token"
	if authService.Open() {
		mode = "open"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Auth: mode})
	}
}
