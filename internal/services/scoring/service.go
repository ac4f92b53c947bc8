package scoring

import (
	"cmp"
	"slices"

	"github.com/mcoot/diceduel/internal/model"
)

// Score counts round wins for both sides. Rounds are compared index by index
// up to the shorter sequence; the strictly higher roll takes the round and
// equal rolls award nobody. A trailing unmatched roll is an open round and is
// ignored. Score is pure and safe for concurrent use.
func Score(challengerRolls, opponentRolls []int) model.Score {
	var score model.Score
	rounds := min(len(challengerRolls), len(opponentRolls))
	for i := range rounds {
		switch {
		case challengerRolls[i] > opponentRolls[i]:
			score.Challenger++
		case opponentRolls[i] > challengerRolls[i]:
			score.Opponent++
		}
	}
	return score
}

// GameScore scores a game's roll sequences
func GameScore(game *model.Game) model.Score {
	return Score(game.ChallengerRolls, game.OpponentRolls)
}

// MatchWinner returns the player who won a finished game
func MatchWinner(game *model.Game) (model.PlayerID, bool) {
	if game.State != model.GameStateFinished {
		return "", false
	}
	side, ok := GameScore(game).Leader()
	if !ok {
		return "", false
	}
	if side == model.SideChallenger {
		return game.Challenger.ID, true
	}
	return game.Opponent.ID, game.Opponent.Resolved()
}

// Standing is one line of a chat scoreboard
type Standing struct {
	PlayerID model.PlayerID
	Name     string
	Wins     int
	Rank     int
}

// Service builds scoreboards from finished games
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// Rank tallies match wins over games and orders players by wins descending,
// ties broken by player id. Unfinished games are ignored. Names are taken from
// the games themselves and can be refreshed by the caller.
func (s *Service) Rank(games []*model.Game) []Standing {
	byPlayer := make(map[model.PlayerID]*Standing)
	for _, game := range games {
		winner, ok := MatchWinner(game)
		if !ok {
			continue
		}
		standing, seen := byPlayer[winner]
		if !seen {
			standing = &Standing{PlayerID: winner, Name: winnerName(game, winner)}
			byPlayer[winner] = standing
		}
		standing.Wins++
	}

	standings := make([]Standing, 0, len(byPlayer))
	for _, standing := range byPlayer {
		standings = append(standings, *standing)
	}
	slices.SortFunc(standings, func(a, b Standing) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func winnerName(game *model.Game, winner model.PlayerID) string {
	if game.Challenger.ID == winner {
		return game.Challenger.Name()
	}
	return game.Opponent.Name()
}
