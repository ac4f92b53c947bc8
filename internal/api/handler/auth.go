package handler

import (
	"net/http"

	"github.com/mcoot/diceduel/internal/api/request"
	"github.com/mcoot/diceduel/internal/api/response"
	"github.com/mcoot/diceduel/internal/services/auth"
)

// AuthHandler issues access tokens to chat adapters
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req request.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.authService.IssueToken(req.APIKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TokenFromModel(token))
}
