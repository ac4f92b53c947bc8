package model

import "strings"

// PlayerID uniquely identifies a player across the system.
// It is assigned by the chat platform, never by this service.
type PlayerID string

// Player represents a chat participant who has interacted with the bot
type Player struct {
	ID          PlayerID `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
}

// Name returns the best human-readable name for the player
func (p *Player) Name() string {
	if p.Username != "" {
		return p.Username
	}
	return p.DisplayName
}

// ExternalIdentity is the identity shape supplied by the messaging adapter
// with every inbound event
type ExternalIdentity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Validate checks the adapter supplied a stable id
func (e ExternalIdentity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingActorID
	}
	return nil
}

// NormalizeUsername strips a leading mention marker and surrounding whitespace
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}
