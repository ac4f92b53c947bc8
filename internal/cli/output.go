package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Game:
		o.printGame(v)
	case GameList:
		o.printGameList(v)
	case RollResult:
		o.printRollResult(v)
	case Scoreboard:
		o.printScoreboard(v)
	case TokenResult:
		o.printToken(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name"`
}

// Score response type
type Score struct {
	Challenger int `json:"challenger"`
	Opponent   int `json:"opponent"`
}

// Game response type
type Game struct {
	ID              string `json:"id"`
	ChatID          string `json:"chat_id"`
	State           string `json:"state"`
	WinningRounds   int    `json:"winning_rounds"`
	Challenger      Player `json:"challenger"`
	Opponent        Player `json:"opponent"`
	ChallengerRolls []int  `json:"challenger_rolls"`
	OpponentRolls   []int  `json:"opponent_rolls"`
	Score           Score  `json:"score"`
	Revision        int64  `json:"revision"`
}

// GameList response type
type GameList struct {
	Games []Game `json:"games"`
}

// RollResult response type
type RollResult struct {
	Outcome string  `json:"outcome"`
	Side    string  `json:"side"`
	Value   int     `json:"value"`
	Score   Score   `json:"score"`
	Winner  *Player `json:"winner,omitempty"`
	Game    Game    `json:"game"`
}

// Standing response type
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
}

// Scoreboard response type
type Scoreboard struct {
	Standings []Standing `json:"standings"`
}

// TokenResult response type
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Auth   string `json:"auth"`
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s\n", g.ID)
	fmt.Printf("State: %s\n", g.State)
	fmt.Printf("%s vs %s (first to %d)\n", g.Challenger.Name, g.Opponent.Name, g.WinningRounds)
	fmt.Printf("Score: %d - %d\n", g.Score.Challenger, g.Score.Opponent)
	if len(g.ChallengerRolls) > 0 || len(g.OpponentRolls) > 0 {
		fmt.Printf("Rolls: %s | %s\n", formatRolls(g.ChallengerRolls), formatRolls(g.OpponentRolls))
	}
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No games")
		return
	}
	for _, g := range l.Games {
		fmt.Printf("%s  %-9s  %s vs %s  %d-%d\n",
			g.ID, g.State, g.Challenger.Name, g.Opponent.Name, g.Score.Challenger, g.Score.Opponent)
	}
}

func (o *Output) printRollResult(r RollResult) {
	switch r.Outcome {
	case "invalid":
		fmt.Printf("Roll of %d not counted: wait for the other player\n", r.Value)
		return
	case "open":
		fmt.Printf("Rolled %d, waiting for the other player\n", r.Value)
	case "tie":
		fmt.Printf("Rolled %d, round tied\n", r.Value)
	case "win", "lose":
		fmt.Printf("Rolled %d, you %s the round\n", r.Value, r.Outcome)
	default:
		fmt.Printf("Rolled %d\n", r.Value)
	}

	fmt.Printf("Score: %d - %d\n", r.Score.Challenger, r.Score.Opponent)
	if r.Winner != nil {
		fmt.Printf("Winner: %s\n", r.Winner.Name)
	}
}

func (o *Output) printScoreboard(s Scoreboard) {
	if len(s.Standings) == 0 {
		fmt.Println("No finished games yet")
		return
	}
	for _, st := range s.Standings {
		fmt.Printf("%2d. %s - %d\n", st.Rank, st.Name, st.Wins)
	}
}

func (o *Output) printToken(t TokenResult) {
	fmt.Println("Logged in")
	fmt.Printf("Token expires: %s\n", t.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Auth: %s\n", h.Auth)
}

func formatRolls(rolls []int) string {
	if len(rolls) == 0 {
		return "-"
	}
	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = fmt.Sprint(r)
	}
	return strings.Join(parts, " ")
}
