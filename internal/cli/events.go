package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream SSE events from the chat",
		Long: `Connect to the chat's SSE endpoint and stream events in real-time.

Events include:
  - connected: Stream established
  - game_created: A challenge was issued
  - game_accepted: A challenge was accepted
  - dice_rolled: A counted roll changed a game

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// StreamEvent is one event received from the server
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// eventBody is the subset of a game event the text output needs
type eventBody struct {
	GameID  string `json:"game_id"`
	Payload struct {
		Game    *Game  `json:"game"`
		Revenge bool   `json:"revenge"`
		Outcome string `json:"outcome"`
		Side    string `json:"side"`
		Value   int    `json:"value"`
		Score   Score  `json:"score"`
	} `json:"payload"`
}

func streamEvents(ctx context.Context, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signalContext(ctx)
	defer stop()

	url := strings.TrimSuffix(cfg.ServerURL, "/") + cfg.ChatPath("/events")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// Streams stay open, so no client timeout
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	err = readEvents(resp.Body, func(e StreamEvent) {
		if jsonOutput {
			data, _ := json.Marshal(e)
			fmt.Println(string(data))
			return
		}
		fmt.Printf("[%s] %s\n", e.Time.Format("15:04:05"), describeEvent(e))
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

// readEvents parses an SSE stream, calling emit for each complete event
func readEvents(r io.Reader, emit func(StreamEvent)) error {
	scanner := bufio.NewScanner(r)
	var name string
	var data []string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		case line == "":
			if name != "" {
				raw := strings.Join(data, "\n")
				if !json.Valid([]byte(raw)) {
					raw, _ = marshalString(raw)
				}
				emit(StreamEvent{Time: time.Now(), Event: name, Data: json.RawMessage(raw)})
			}
			name, data = "", nil
		}
	}
	return scanner.Err()
}

func marshalString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func describeEvent(e StreamEvent) string {
	var body eventBody
	if err := json.Unmarshal(e.Data, &body); err != nil || body.Payload.Game == nil {
		return e.Event
	}
	g := body.Payload.Game

	switch e.Event {
	case "game_created":
		verb := "challenged"
		if body.Payload.Revenge {
			verb = "wants revenge on"
		}
		return fmt.Sprintf("%s %s %s (game %s)", g.Challenger.Name, verb, g.Opponent.Name, g.ID)
	case "game_accepted":
		return fmt.Sprintf("%s accepted the duel with %s (game %s)", g.Opponent.Name, g.Challenger.Name, g.ID)
	case "dice_rolled":
		roller := g.Challenger.Name
		if body.Payload.Side == "opponent" {
			roller = g.Opponent.Name
		}
		msg := fmt.Sprintf("%s rolled %d (%s), score %d - %d",
			roller, body.Payload.Value, body.Payload.Outcome, body.Payload.Score.Challenger, body.Payload.Score.Opponent)
		if body.Payload.Outcome == "closed" {
			winner := g.Opponent.Name
			if body.Payload.Score.Challenger > body.Payload.Score.Opponent {
				winner = g.Challenger.Name
			}
			msg += ", " + winner + " wins the match"
		}
		return msg
	default:
		return e.Event
	}
}

// signalContext ends ctx on Ctrl+C
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
