// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

// Suite runs the storage contract against a backend. Embed it in a backend
// test suite and set Storage in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func newGame(chat model.ChatID, id model.GameID, state model.GameState) *model.Game {
	return &model.Game{
		ID:              id,
		ChatID:          chat,
		Challenger:      model.Player{ID: "p1", Username: "alice"},
		Opponent:        model.Opponent{Username: "bob"},
		State:           state,
		WinningRounds:   3,
		ChallengerRolls: []int{},
		OpponentRolls:   []int{},
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "42", Username: "alice", DisplayName: "Alice"}

	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "42")
	s.Require().NoError(err)
	s.Equal(*player, *retrieved)
}

func (s *Suite) TestSavePlayerOverwrites() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, &model.Player{ID: "42", Username: "alice"}))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, &model.Player{ID: "42", Username: "alice2"}))

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "42")
	s.Require().NoError(err)
	s.Equal("alice2", retrieved.Username)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestReturnedPlayerIsACopy() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, &model.Player{ID: "42", Username: "alice"}))

	first, err := s.Storage.GetPlayer(s.Ctx, "42")
	s.Require().NoError(err)
	first.Username = "mallory"

	second, err := s.Storage.GetPlayer(s.Ctx, "42")
	s.Require().NoError(err)
	s.Equal("alice", second.Username)
}

// Game tests

func (s *Suite) TestInsertAndGetGame() {
	game := newGame("chat-1", "01A", model.GameStateInitiated)

	s.Require().NoError(s.Storage.InsertGame(s.Ctx, game))
	s.Equal(int64(1), game.Revision)

	retrieved, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	s.Equal(game.ID, retrieved.ID)
	s.Equal(game.Challenger, retrieved.Challenger)
	s.Equal(game.Opponent, retrieved.Opponent)
	s.Equal(model.GameStateInitiated, retrieved.State)
	s.Equal(3, retrieved.WinningRounds)
	s.Empty(retrieved.ChallengerRolls)
	s.Empty(retrieved.OpponentRolls)
	s.Equal(int64(1), retrieved.Revision)
}

func (s *Suite) TestInsertGameRejectsDuplicateID() {
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01A", model.GameStateInitiated)))

	err := s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01A", model.GameStateAccepted))
	s.ErrorIs(err, model.ErrGameExists)

	retrieved, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	s.Equal(model.GameStateInitiated, retrieved.State)
}

func (s *Suite) TestSameGameIDInDifferentChats() {
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01A", model.GameStateInitiated)))
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-2", "01A", model.GameStateFinished)))

	first, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	second, err := s.Storage.GetGame(s.Ctx, "chat-2", "01A")
	s.Require().NoError(err)
	s.Equal(model.GameStateInitiated, first.State)
	s.Equal(model.GameStateFinished, second.State)
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "chat-1", "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestUpdateGameOverwritesFullRecord() {
	game := newGame("chat-1", "01A", model.GameStateInitiated)
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, game))

	game.State = model.GameStateAccepted
	game.Opponent = model.Opponent{ID: "p2", Username: "bob"}
	game.ChallengerRolls = []int{6}
	s.Require().NoError(s.Storage.UpdateGame(s.Ctx, game))
	s.Equal(int64(2), game.Revision)

	retrieved, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	s.Equal(model.GameStateAccepted, retrieved.State)
	s.Equal(model.PlayerID("p2"), retrieved.Opponent.ID)
	s.Equal([]int{6}, retrieved.ChallengerRolls)
	s.Equal(int64(2), retrieved.Revision)
}

func (s *Suite) TestUpdateGameRejectsStaleRevision() {
	game := newGame("chat-1", "01A", model.GameStateAccepted)
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, game))

	first, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	second, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)

	first.ChallengerRolls = []int{4}
	s.Require().NoError(s.Storage.UpdateGame(s.Ctx, first))

	second.ChallengerRolls = []int{2}
	err = s.Storage.UpdateGame(s.Ctx, second)
	s.ErrorIs(err, model.ErrRevisionConflict)
	s.Equal(int64(1), second.Revision)

	retrieved, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	s.Equal([]int{4}, retrieved.ChallengerRolls)
}

func (s *Suite) TestUpdateGameNotFound() {
	game := newGame("chat-1", "missing", model.GameStateAccepted)
	game.Revision = 1
	err := s.Storage.UpdateGame(s.Ctx, game)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestConcurrentUpdatesHaveOneWinner() {
	game := newGame("chat-1", "01A", model.GameStateAccepted)
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, game))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func(roll int) {
			defer wg.Done()
			g, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
			if err != nil {
				results <- err
				return
			}
			g.ChallengerRolls = append(g.ChallengerRolls, roll)
			results <- s.Storage.UpdateGame(s.Ctx, g)
		}(i%6 + 1)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrRevisionConflict)
	}
	s.GreaterOrEqual(succeeded, 1)

	retrieved, err := s.Storage.GetGame(s.Ctx, "chat-1", "01A")
	s.Require().NoError(err)
	// Every successful write built on the latest state it read
	s.Len(retrieved.ChallengerRolls, succeeded)
	s.Equal(int64(1+succeeded), retrieved.Revision)
}

func (s *Suite) TestListGamesOrderedByID() {
	for _, id := range []model.GameID{"01C", "01A", "01B"} {
		s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", id, model.GameStateInitiated)))
	}

	games, err := s.Storage.ListGames(s.Ctx, "chat-1", nil)
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	s.Equal(model.GameID("01A"), games[0].ID)
	s.Equal(model.GameID("01B"), games[1].ID)
	s.Equal(model.GameID("01C"), games[2].ID)
}

func (s *Suite) TestListGamesFiltersByState() {
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01A", model.GameStateFinished)))
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01B", model.GameStateInitiated)))
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01C", model.GameStateAccepted)))
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01D", model.GameStateFinished)))

	finished, err := s.Storage.ListGames(s.Ctx, "chat-1", model.StateFilter{model.GameStateFinished})
	s.Require().NoError(err)
	s.Require().Len(finished, 2)
	s.Equal(model.GameID("01A"), finished[0].ID)
	s.Equal(model.GameID("01D"), finished[1].ID)

	active, err := s.Storage.ListGames(s.Ctx, "chat-1", model.ActiveStates)
	s.Require().NoError(err)
	s.Require().Len(active, 2)
	s.Equal(model.GameID("01B"), active[0].ID)
	s.Equal(model.GameID("01C"), active[1].ID)
}

func (s *Suite) TestListGamesReflectsUpdatedState() {
	game := newGame("chat-1", "01A", model.GameStateAccepted)
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, game))
	game.State = model.GameStateFinished
	s.Require().NoError(s.Storage.UpdateGame(s.Ctx, game))

	active, err := s.Storage.ListGames(s.Ctx, "chat-1", model.ActiveStates)
	s.Require().NoError(err)
	s.Empty(active)

	finished, err := s.Storage.ListGames(s.Ctx, "chat-1", model.StateFilter{model.GameStateFinished})
	s.Require().NoError(err)
	s.Len(finished, 1)
}

func (s *Suite) TestListGamesScopedToChat() {
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-1", "01A", model.GameStateInitiated)))
	s.Require().NoError(s.Storage.InsertGame(s.Ctx, newGame("chat-2", "01B", model.GameStateInitiated)))

	games, err := s.Storage.ListGames(s.Ctx, "chat-1", nil)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(model.GameID("01A"), games[0].ID)
}

func (s *Suite) TestListGamesEmptyChat() {
	games, err := s.Storage.ListGames(s.Ctx, "nobody-here", nil)
	s.Require().NoError(err)
	s.Empty(games)
}
