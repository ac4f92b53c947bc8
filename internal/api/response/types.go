package response

import (
	"time"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/auth"
	"github.com/mcoot/diceduel/internal/services/scoring"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:          string(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Name:        p.Name(),
	}
}

// PlayerFromOpponent converts the opponent side, which may not be resolved yet
func PlayerFromOpponent(o model.Opponent) Player {
	return Player{
		ID:          string(o.ID),
		Username:    o.Username,
		DisplayName: o.DisplayName,
		Name:        o.Name(),
	}
}

// Score holds round wins per side
type Score struct {
	Challenger int `json:"challenger"`
	Opponent   int `json:"opponent"`
}

// Game represents a game in API responses
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

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	score := scoring.GameScore(g)
	challengerRolls := g.ChallengerRolls
	if challengerRolls == nil {
		challengerRolls = []int{}
	}
	opponentRolls := g.OpponentRolls
	if opponentRolls == nil {
		opponentRolls = []int{}
	}
	return Game{
		ID:              string(g.ID),
		ChatID:          string(g.ChatID),
		State:           string(g.State),
		WinningRounds:   g.WinningRounds,
		Challenger:      PlayerFromModel(g.Challenger),
		Opponent:        PlayerFromOpponent(g.Opponent),
		ChallengerRolls: challengerRolls,
		OpponentRolls:   opponentRolls,
		Score:           Score{Challenger: score.Challenger, Opponent: score.Opponent},
		Revision:        g.Revision,
	}
}

// GameList is the response for listing games
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModel converts a slice of games
func GameListFromModel(games []*model.Game) GameList {
	list := GameList{Games: make([]Game, 0, len(games))}
	for _, g := range games {
		list.Games = append(list.Games, GameFromModel(g))
	}
	return list
}

// RollResult is the response for a roll
type RollResult struct {
	Outcome string `json:"outcome"`
	Side    string `json:"side"`
	Value   int    `json:"value"`
	Score   Score  `json:"score"`
	// Winner is set when the roll closed the match
	Winner *Player `json:"winner,omitempty"`
	Game   Game    `json:"game"`
}

// RollResultFromModel converts a model.RollResult
func RollResultFromModel(r *model.RollResult) RollResult {
	resp := RollResult{
		Outcome: string(r.Outcome),
		Side:    string(r.Side),
		Value:   r.Value,
		Score:   Score{Challenger: r.Score.Challenger, Opponent: r.Score.Opponent},
		Game:    GameFromModel(r.Game),
	}
	if side, ok := r.Winner(); ok {
		winner := resp.Game.Challenger
		if side == model.SideOpponent {
			winner = resp.Game.Opponent
		}
		resp.Winner = &winner
	}
	return resp
}

// Standing is one scoreboard line
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
}

// Scoreboard is the response for the chat scoreboard
type Scoreboard struct {
	Standings []Standing `json:"standings"`
}

// ScoreboardFromModel converts scoring standings
func ScoreboardFromModel(standings []scoring.Standing) Scoreboard {
	sb := Scoreboard{Standings: make([]Standing, 0, len(standings))}
	for _, s := range standings {
		sb.Standings = append(sb.Standings, Standing{
			Rank:     s.Rank,
			PlayerID: string(s.PlayerID),
			Name:     s.Name,
			Wins:     s.Wins,
		})
	}
	return sb
}

// Token is the response for the token endpoint
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenFromModel converts an auth.Token
func TokenFromModel(t *auth.Token) Token {
	return Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		ExpiresAt:   t.ExpiresAt,
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
	Auth   string `json:"auth"`
}
