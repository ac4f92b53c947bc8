package game

import (
	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/scoring"
)

// ApplyRoll plays value for actor against an Accepted game and classifies the
// result. The input game is never modified; the result carries a mutated copy,
// or the original for RollInvalid. Callers must only pass Accepted games.
func ApplyRoll(game *model.Game, actor model.PlayerID, value int) (*model.RollResult, error) {
	side, ok := game.SideOf(actor)
	if !ok {
		return nil, model.ErrNotParticipant
	}

	own := len(game.Rolls(side))
	other := len(game.Rolls(side.Other()))
	if own > other {
		return &model.RollResult{
			Outcome: model.RollInvalid,
			Game:    game,
			Side:    side,
			Value:   value,
			Score:   scoring.GameScore(game),
		}, nil
	}

	next := game.Clone()
	next.AppendRoll(side, value)
	result := &model.RollResult{Game: next, Side: side, Value: value}
	result.Score = scoring.GameScore(next)

	if own == other {
		result.Outcome = model.RollOpen
		return result, nil
	}

	otherRolls := next.Rolls(side.Other())
	last := otherRolls[len(otherRolls)-1]
	switch {
	case value == last:
		result.Outcome = model.RollTie
	case result.Score.Challenger == next.WinningRounds || result.Score.Opponent == next.WinningRounds:
		result.Outcome = model.RollClosed
		next.State = model.GameStateFinished
	case value > last:
		result.Outcome = model.RollWin
	default:
		result.Outcome = model.RollLose
	}
	return result, nil
}
