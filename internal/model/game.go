package model

import "slices"

// GameID uniquely identifies a game. IDs sort lexicographically in creation order.
type GameID string

// ChatID identifies the chat channel a game is played in
type ChatID string

// GameState represents the lifecycle phase of a game
type GameState string

const (
	GameStateInitiated GameState = "initiated" // Challenge issued, waiting for the opponent
	GameStateAccepted  GameState = "accepted"  // Opponent accepted, rolls in progress
	GameStateFinished  GameState = "finished"  // One side reached the winning rounds
)

// Valid reports whether s is a known state
func (s GameState) Valid() bool {
	switch s {
	case GameStateInitiated, GameStateAccepted, GameStateFinished:
		return true
	}
	return false
}

// StateFilter selects games by state. An empty filter matches everything.
type StateFilter []GameState

// ActiveStates is the default filter for "active games" queries
var ActiveStates = StateFilter{GameStateInitiated, GameStateAccepted}

// Matches reports whether state passes the filter
func (f StateFilter) Matches(state GameState) bool {
	if len(f) == 0 {
		return true
	}
	return slices.Contains(f, state)
}

// Opponent is the challenged side of a game. Before acceptance only the
// username (or display name) typed by the challenger is known; once accepted
// the ID is filled in from the resolved player.
type Opponent struct {
	ID          PlayerID `json:"id,omitempty"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
}

// Resolved reports whether the opponent has been bound to a player record
func (o Opponent) Resolved() bool {
	return o.ID != ""
}

// Name returns the best human-readable name for the opponent
func (o Opponent) Name() string {
	if o.Username != "" {
		return o.Username
	}
	return o.DisplayName
}

// Side identifies one of the two participants of a game
type Side string

const (
	SideChallenger Side = "challenger"
	SideOpponent   Side = "opponent"
)

// Other returns the opposite side
func (s Side) Other() Side {
	if s == SideChallenger {
		return SideOpponent
	}
	return SideChallenger
}

// Game is one dice duel between a challenger and an opponent in a chat
type Game struct {
	ID              GameID    `json:"id"`
	ChatID          ChatID    `json:"chat_id"`
	Challenger      Player    `json:"challenger"`
	Opponent        Opponent  `json:"opponent"`
	State           GameState `json:"state"`
	WinningRounds   int       `json:"winning_rounds"`
	ChallengerRolls []int     `json:"challenger_rolls"`
	OpponentRolls   []int     `json:"opponent_rolls"`

	// Revision is bumped by storage on every successful write and is used
	// for conditional updates
	Revision int64 `json:"revision"`
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.ChallengerRolls = slices.Clone(g.ChallengerRolls)
	c.OpponentRolls = slices.Clone(g.OpponentRolls)
	if c.ChallengerRolls == nil {
		c.ChallengerRolls = []int{}
	}
	if c.OpponentRolls == nil {
		c.OpponentRolls = []int{}
	}
	return &c
}

// SideOf returns which side the player plays, or false if they are not part of the game
func (g *Game) SideOf(id PlayerID) (Side, bool) {
	switch {
	case id == "":
		return "", false
	case g.Challenger.ID == id:
		return SideChallenger, true
	case g.Opponent.ID == id:
		return SideOpponent, true
	}
	return "", false
}

// HasParticipant reports whether the player is the challenger or the resolved opponent
func (g *Game) HasParticipant(id PlayerID) bool {
	_, ok := g.SideOf(id)
	return ok
}

// Rolls returns the roll sequence of a side
func (g *Game) Rolls(side Side) []int {
	if side == SideChallenger {
		return g.ChallengerRolls
	}
	return g.OpponentRolls
}

// AppendRoll appends a roll to a side's sequence
func (g *Game) AppendRoll(side Side, value int) {
	if side == SideChallenger {
		g.ChallengerRolls = append(g.ChallengerRolls, value)
	} else {
		g.OpponentRolls = append(g.OpponentRolls, value)
	}
}
