package cli

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"ALREADY_ACCEPTED","message":"game was already accepted"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL+"/", "tok").Post("/api/v1/chats/c/games/g/accept", map[string]string{}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ALREADY_ACCEPTED", apiErr.Code)
	assert.Equal(t, "game was already accepted (ALREADY_ACCEPTED)", err.Error())
}

func TestClientDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","auth":"open"}`))
	}))
	defer srv.Close()

	var result HealthResult
	require.NoError(t, NewClient(srv.URL, "").Get("/api/v1/health", &result))
	assert.Equal(t, HealthResult{Status: "ok", Auth: "open"}, result)
}

func TestConfigPaths(t *testing.T) {
	c := &Config{Chat: "team chat"}
	assert.Equal(t, "/api/v1/chats/team%20chat/games", c.ChatPath("/games"))

	_, err := c.Actor()
	assert.Error(t, err)

	c.Identity = Identity{ID: "42", Username: "alice"}
	actor, err := c.Actor()
	require.NoError(t, err)
	assert.Equal(t, "42", actor.ID)
}
