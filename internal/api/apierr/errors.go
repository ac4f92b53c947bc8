package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ConflictDetails accompanies GAME_IN_PROGRESS errors
type ConflictDetails struct {
	Side     model.Side  `json:"side"`
	Username string      `json:"username"`
	Game     *model.Game `json:"game"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeIntegrationError     = "INTEGRATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodePlayerNotFound       = "PLAYER_NOT_FOUND"
	CodeGameNotFound         = "GAME_NOT_FOUND"
	CodeNoActiveGame         = "NO_ACTIVE_GAME"
	CodeGameInProgress       = "GAME_IN_PROGRESS"
	CodeSelfChallenge        = "SELF_CHALLENGE"
	CodeNotChallenged        = "NOT_CHALLENGED"
	CodeNotInGame            = "NOT_IN_GAME"
	CodeAlreadyAccepted      = "ALREADY_ACCEPTED"
	CodeGameFinished         = "GAME_FINISHED"
	CodeGameNotAccepted      = "GAME_NOT_ACCEPTED"
	CodeGameNotFinished      = "GAME_NOT_FINISHED"
	CodeInvalidRoll          = "INVALID_ROLL"
	CodeInvalidWinningRounds = "INVALID_WINNING_ROUNDS"
	CodeMissingOpponent      = "MISSING_OPPONENT"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// ruleErrors maps user-facing rule violations. Messages come from the error itself.
var ruleErrors = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
	{model.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound},
	{model.ErrNoActiveGame, http.StatusNotFound, CodeNoActiveGame},
	{model.ErrSelfChallenge, http.StatusUnprocessableEntity, CodeSelfChallenge},
	{model.ErrNotChallenged, http.StatusForbidden, CodeNotChallenged},
	{model.ErrNotInGame, http.StatusForbidden, CodeNotInGame},
	{model.ErrAlreadyAccepted, http.StatusConflict, CodeAlreadyAccepted},
	{model.ErrGameFinished, http.StatusConflict, CodeGameFinished},
	{model.ErrGameNotAccepted, http.StatusConflict, CodeGameNotAccepted},
	{model.ErrGameNotFinished, http.StatusConflict, CodeGameNotFinished},
	{model.ErrInvalidRoll, http.StatusBadRequest, CodeInvalidRoll},
	{model.ErrInvalidWinningRounds, http.StatusBadRequest, CodeInvalidWinningRounds},
	{model.ErrMissingOpponent, http.StatusBadRequest, CodeMissingOpponent},
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var conflict *model.ConflictError
	if errors.As(err, &conflict) {
		return &httpError{http.StatusConflict, APIError{
			Code:    CodeGameInProgress,
			Message: conflict.Error(),
			Details: ConflictDetails{Side: conflict.Side, Username: conflict.Username, Game: conflict.Game},
		}}
	}

	for _, rule := range ruleErrors {
		if errors.Is(err, rule.err) {
			return &httpError{rule.status, APIError{Code: rule.code, Message: rule.err.Error()}}
		}
	}

	switch {
	case errors.Is(err, model.ErrIntegration):
		return &httpError{http.StatusBadRequest, APIError{Code: CodeIntegrationError, Message: err.Error()}}
	case errors.Is(err, model.ErrRevisionConflict):
		return &httpError{http.StatusConflict, APIError{Code: CodeConcurrentUpdate, Message: "Game was modified concurrently, try again"}}
	case errors.Is(err, model.ErrStorageUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeStorageUnavailable, Message: "Storage unavailable"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeInvalidCredentials, Message: "Invalid API key"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Invalid or expired token"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
