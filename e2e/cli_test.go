package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/diceduel/internal/api"
	"github.com/mcoot/diceduel/internal/factory"
	"github.com/mcoot/diceduel/internal/services/auth"
)

const apiKey = "e2e-adapter-key"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "diceduel-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/diceduel")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// as runs a command in chat "e2e" on behalf of the given chat user
func (r *cliRunner) as(id, username string, args ...string) (string, error) {
	return r.run(append([]string{"--chat", "e2e", "--as-id", id, "--as-username", username}, args...)...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// cleanEnv drops DICEDUEL_* variables from the developer's shell
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "DICEDUEL_") {
			env = append(env, kv)
		}
	}
	return env
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs a real HTTP server that requires the e2e API key
func startTestServer(t *testing.T) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	require.NoError(t, err)
	authConfig := auth.DefaultConfig()
	authConfig.Secret = "e2e-secret"
	authConfig.KeyHashes = []string{string(hash)}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{AuthConfig: authConfig, Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
		Alerter:        app.Alerts,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = addr
	server := api.NewServer(router, serverConfig, logger)

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close()
	})

	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type gameResponse struct {
	ID            string         `json:"id"`
	State         string         `json:"state"`
	WinningRounds int            `json:"winning_rounds"`
	Challenger    playerResponse `json:"challenger"`
	Opponent      playerResponse `json:"opponent"`
	Score         struct {
		Challenger int `json:"challenger"`
		Opponent   int `json:"opponent"`
	} `json:"score"`
}

type rollResponse struct {
	Outcome string          `json:"outcome"`
	Value   int             `json:"value"`
	Winner  *playerResponse `json:"winner"`
	Game    gameResponse    `json:"game"`
}

type scoreboardResponse struct {
	Standings []struct {
		Rank     int    `json:"rank"`
		PlayerID string `json:"player_id"`
		Name     string `json:"name"`
		Wins     int    `json:"wins"`
	} `json:"standings"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[struct {
		Status string `json:"status"`
		Auth   string `json:"auth"`
	}](t, output)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "token", resp.Auth)
}

func TestCLI_LoginRequired(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.as("1", "alice", "game", "list")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.run("login", "--api-key", "wrong")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CREDENTIALS")

	output, err = cli.run("login", "--api-key", apiKey)
	require.NoError(t, err, "output: %s", output)

	// Token is saved in the token file
	output, err = cli.as("1", "alice", "game", "list")
	require.NoError(t, err, "output: %s", output)
}

func TestCLI_FullDuel(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))
	_, err := cli.run("login", "--api-key", apiKey)
	require.NoError(t, err)

	// Alice challenges Bob to a best of three
	output, err := cli.as("1", "alice", "game", "new", "@bob", "--rounds", "2")
	require.NoError(t, err, "output: %s", output)
	created := decode[gameResponse](t, output)
	assert.Equal(t, "initiated", created.State)
	assert.Equal(t, 2, created.WinningRounds)

	// Only Bob can accept
	output, err = cli.as("3", "carol", "game", "accept", created.ID)
	assert.Error(t, err)
	assert.Contains(t, output, "NOT_CHALLENGED")

	output, err = cli.as("2", "bob", "game", "accept", created.ID)
	require.NoError(t, err, "output: %s", output)
	assert.Equal(t, "accepted", decode[gameResponse](t, output).State)

	rolls := []struct {
		id, username string
		value        string
		outcome      string
	}{
		{"1", "alice", "6", "open"},
		{"1", "alice", "2", "invalid"},
		{"2", "bob", "3", "lose"},
		{"2", "bob", "4", "open"},
		{"1", "alice", "4", "tie"},
		{"1", "alice", "5", "open"},
		{"2", "bob", "1", "closed"},
	}
	var last rollResponse
	for i, r := range rolls {
		output, err = cli.as(r.id, r.username, "roll", r.value)
		require.NoError(t, err, "roll %d: %s", i, output)
		last = decode[rollResponse](t, output)
		assert.Equal(t, r.outcome, last.Outcome, "roll %d", i)
	}

	require.NotNil(t, last.Winner)
	assert.Equal(t, "alice", last.Winner.Name)
	assert.Equal(t, "finished", last.Game.State)

	output, err = cli.as("2", "bob", "scoreboard")
	require.NoError(t, err, "output: %s", output)
	board := decode[scoreboardResponse](t, output)
	require.Len(t, board.Standings, 1)
	assert.Equal(t, "1", board.Standings[0].PlayerID)
	assert.Equal(t, 1, board.Standings[0].Wins)

	// Bob asks for revenge and becomes the challenger
	output, err = cli.as("2", "bob", "game", "revenge", created.ID)
	require.NoError(t, err, "output: %s", output)
	revenge := decode[gameResponse](t, output)
	assert.Equal(t, "2", revenge.Challenger.ID)
	assert.Equal(t, "alice", revenge.Opponent.Username)

	output, err = cli.as("2", "bob", "game", "list", "--state", "finished")
	require.NoError(t, err, "output: %s", output)
	finished := decode[struct {
		Games []gameResponse `json:"games"`
	}](t, output)
	require.Len(t, finished.Games, 1)
	assert.Equal(t, created.ID, finished.Games[0].ID)
}

func TestCLI_ErrorHandling(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))
	_, err := cli.run("login", "--api-key", apiKey)
	require.NoError(t, err)

	// Acting commands need a user
	output, err := cli.run("roll")
	assert.Error(t, err)
	assert.Contains(t, output, "--as-id")

	output, err = cli.as("1", "alice", "roll", "7")
	assert.Error(t, err)
	assert.Contains(t, output, "between 1 and 6")

	output, err = cli.as("1", "alice", "roll")
	assert.Error(t, err)
	assert.Contains(t, output, "NO_ACTIVE_GAME")

	output, err = cli.as("1", "alice", "game", "new", "alice")
	assert.Error(t, err)
	assert.Contains(t, output, "SELF_CHALLENGE")

	output, err = cli.as("1", "alice", "game", "get", "missing")
	assert.Error(t, err)
	assert.Contains(t, output, "GAME_NOT_FOUND")
}
