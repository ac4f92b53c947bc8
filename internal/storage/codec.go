package storage

import (
	"encoding/json"

	"github.com/mcoot/diceduel/internal/model"
)

// DecodeGame unmarshals a stored game record, normalizing empty roll sequences
func DecodeGame(data []byte) (*model.Game, error) {
	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	if game.ChallengerRolls == nil {
		game.ChallengerRolls = []int{}
	}
	if game.OpponentRolls == nil {
		game.OpponentRolls = []int{}
	}
	return &game, nil
}
