package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventGameCreated  EventType = "game_created"
	EventGameAccepted EventType = "game_accepted"
	EventDiceRolled   EventType = "dice_rolled"
)

// Event is published to chat subscribers after a successful operation
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ChatID    ChatID    `json:"chat_id"`
	GameID    GameID    `json:"game_id"`
	PlayerID  PlayerID  `json:"player_id,omitempty"` // The player who triggered the event
	Payload   any       `json:"payload,omitempty"`   // Type-specific data
}

// GameCreatedPayload contains data for game created events
type GameCreatedPayload struct {
	Game *Game `json:"game"`
	// Revenge is true when the game was started from a finished game
	Revenge bool `json:"revenge,omitempty"`
}

// GameAcceptedPayload contains data for game accepted events
type GameAcceptedPayload struct {
	Game *Game `json:"game"`
}

// DiceRolledPayload contains data for dice rolled events
type DiceRolledPayload struct {
	Outcome RollOutcome `json:"outcome"`
	Side    Side        `json:"side"`
	Value   int         `json:"value"`
	Score   Score       `json:"score"`
	Game    *Game       `json:"game"`
}
