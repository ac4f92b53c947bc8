package testutil

import "github.com/mcoot/diceduel/internal/model"

// Identity builds an adapter identity whose username doubles as its display name
func Identity(id, username string) model.ExternalIdentity {
	return model.ExternalIdentity{ID: id, Username: username, DisplayName: username}
}

// AcceptedGame builds an Accepted game between two resolved players
func AcceptedGame(chatID model.ChatID, id model.GameID, challenger, opponent model.PlayerID, winningRounds int) *model.Game {
	return &model.Game{
		ID:              id,
		ChatID:          chatID,
		Challenger:      model.Player{ID: challenger, Username: string(challenger), DisplayName: string(challenger)},
		Opponent:        model.Opponent{ID: opponent, Username: string(opponent), DisplayName: string(opponent)},
		State:           model.GameStateAccepted,
		WinningRounds:   winningRounds,
		ChallengerRolls: []int{},
		OpponentRolls:   []int{},
	}
}
