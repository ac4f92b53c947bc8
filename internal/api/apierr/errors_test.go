package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing actor", model.ErrMissingActorID, http.StatusBadRequest, CodeIntegrationError},
		{"not participant", model.ErrNotParticipant, http.StatusBadRequest, CodeIntegrationError},
		{"game not found", fmt.Errorf("lookup: %w", model.ErrGameNotFound), http.StatusNotFound, CodeGameNotFound},
		{"no active game", model.ErrNoActiveGame, http.StatusNotFound, CodeNoActiveGame},
		{"self challenge", model.ErrSelfChallenge, http.StatusUnprocessableEntity, CodeSelfChallenge},
		{"not challenged", model.ErrNotChallenged, http.StatusForbidden, CodeNotChallenged},
		{"already accepted", model.ErrAlreadyAccepted, http.StatusConflict, CodeAlreadyAccepted},
		{"invalid roll", model.ErrInvalidRoll, http.StatusBadRequest, CodeInvalidRoll},
		{"revision conflict", model.ErrRevisionConflict, http.StatusConflict, CodeConcurrentUpdate},
		{"storage", model.NewStorageError("get game", errors.New("dial tcp")), http.StatusServiceUnavailable, CodeStorageUnavailable},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"bad token", fmt.Errorf("%w: expired", auth.ErrInvalidToken), http.StatusUnauthorized, CodeUnauthorized},
		{"invalid request", NewInvalidRequestError("bad json"), http.StatusBadRequest, CodeInvalidRequest},
		{"unknown", errors.New("surprise"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := toHTTPError(tt.err)
			assert.Equal(t, tt.status, he.status)
			assert.Equal(t, tt.code, he.apiError.Code)
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestWriteErrorIncludesConflictingGame(t *testing.T) {
	game := &model.Game{ID: "G1", ChatID: "chat", State: model.GameStateAccepted}
	err := &model.ConflictError{Side: model.SideChallenger, Username: "alice", Game: game}

	rr := httptest.NewRecorder()
	WriteError(rr, err)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Side model.Side  `json:"side"`
				Game *model.Game `json:"game"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeGameInProgress, resp.Error.Code)
	assert.Equal(t, model.SideChallenger, resp.Error.Details.Side)
	require.NotNil(t, resp.Error.Details.Game)
	assert.Equal(t, model.GameID("G1"), resp.Error.Details.Game.ID)
}
