package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/diceduel/internal/api/apierr"
	"github.com/mcoot/diceduel/internal/api/request"
	"github.com/mcoot/diceduel/internal/api/response"
	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	controller game.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller game.ControllerInterface) *GameHandler {
	return &GameHandler{controller: controller}
}

func chatID(r *http.Request) model.ChatID {
	return model.ChatID(mux.Vars(r)["chat"])
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/chats/{chat}/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.NewGameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.controller.NewGame(r.Context(), game.NewGameRequest{
		ChatID:        chatID(r),
		Challenger:    req.Challenger.ToModel(),
		Opponent:      req.Opponent,
		WinningRounds: req.WinningRounds,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g))
}

// List handles GET /api/v1/chats/{chat}/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.StateFilter
	for _, raw := range r.URL.Query()["state"] {
		state := model.GameState(raw)
		if !state.Valid() {
			WriteError(w, apierr.NewInvalidRequestError("Unknown game state: "+raw))
			return
		}
		filter = append(filter, state)
	}

	games, err := h.controller.ActiveGames(r.Context(), chatID(r), filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(games))
}

// Get handles GET /api/v1/chats/{chat}/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.controller.GetGame(r.Context(), chatID(r), gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Accept handles POST /api/v1/chats/{chat}/games/{id}/accept
func (h *GameHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req request.ActorRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.controller.AcceptGame(r.Context(), chatID(r), gameID(r), req.Actor.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Revenge handles POST /api/v1/chats/{chat}/games/{id}/revenge
func (h *GameHandler) Revenge(w http.ResponseWriter, r *http.Request) {
	var req request.ActorRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.controller.Revenge(r.Context(), chatID(r), gameID(r), req.Actor.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g))
}

// Roll handles POST /api/v1/chats/{chat}/rolls.
// Out of turn rolls are reported with outcome "invalid", not as errors.
func (h *GameHandler) Roll(w http.ResponseWriter, r *http.Request) {
	var req request.RollRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.controller.Roll(r.Context(), chatID(r), req.Actor.ToModel(), req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RollResultFromModel(result))
}

// Scoreboard handles GET /api/v1/chats/{chat}/scoreboard
func (h *GameHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.controller.Scoreboard(r.Context(), chatID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreboardFromModel(standings))
}
