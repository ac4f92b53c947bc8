package request

import "github.com/mcoot/diceduel/internal/model"

// Identity is the chat platform identity of the acting user
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// ToModel converts to model.ExternalIdentity
func (i Identity) ToModel() model.ExternalIdentity {
	return model.ExternalIdentity{
		ID:          i.ID,
		Username:    i.Username,
		DisplayName: i.DisplayName,
	}
}

// TokenRequest is the request body for exchanging an API key
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// NewGameRequest is the request body for challenging a player
type NewGameRequest struct {
	Challenger Identity `json:"challenger"`
	// Opponent is a username (optionally @-prefixed) or display name
	Opponent      string `json:"opponent"`
	WinningRounds int    `json:"winning_rounds,omitempty"`
}

// ActorRequest is the request body for accepting or requesting revenge
type ActorRequest struct {
	Actor Identity `json:"actor"`
}

// RollRequest is the request body for rolling a die. A zero value lets the
// server roll.
type RollRequest struct {
	Actor Identity `json:"actor"`
	Value int      `json:"value,omitempty"`
}
