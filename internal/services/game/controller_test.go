package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/diceduel/internal/dependencies/mocks"
	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/identity"
	"github.com/mcoot/diceduel/internal/services/scoring"
	"github.com/mcoot/diceduel/internal/storage"
	"github.com/mcoot/diceduel/internal/storage/memory"
	"github.com/mcoot/diceduel/internal/testutil"
)

// conflictOnce rejects the first game update as if another writer got there first
type conflictOnce struct {
	storage.Storage
	tripped bool
}

func (c *conflictOnce) UpdateGame(ctx context.Context, game *model.Game) error {
	if !c.tripped {
		c.tripped = true
		return model.ErrRevisionConflict
	}
	return c.Storage.UpdateGame(ctx, game)
}

var (
	alice = testutil.Identity("1", "alice")
	bob   = testutil.Identity("2", "bob")
	carol = testutil.Identity("3", "carol")
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	roller     *mocks.MockRoller
	clock      *mocks.MockClock
	publisher  *mocks.MockPublisher
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.roller = mocks.NewMockRoller()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = mocks.NewMockPublisher()
	s.controller = s.newController(s.storage)
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(store storage.Storage) *Controller {
	logger := testutil.NopLogger()
	return NewController(
		NewRepository(store, mocks.NewMockIDs(), logger),
		identity.New(store, logger),
		scoring.New(),
		s.roller,
		s.clock,
		s.publisher,
		logger,
		DefaultWinningRounds,
	)
}

func (s *ControllerSuite) challenge(challenger model.ExternalIdentity, opponent string, winningRounds int) *model.Game {
	game, err := s.controller.NewGame(s.ctx, NewGameRequest{
		ChatID:        "chat",
		Challenger:    challenger,
		Opponent:      opponent,
		WinningRounds: winningRounds,
	})
	s.Require().NoError(err)
	return game
}

func (s *ControllerSuite) startGame(challenger, opponent model.ExternalIdentity, winningRounds int) *model.Game {
	game := s.challenge(challenger, "@"+opponent.Username, winningRounds)
	accepted, err := s.controller.AcceptGame(s.ctx, "chat", game.ID, opponent)
	s.Require().NoError(err)
	return accepted
}

func (s *ControllerSuite) roll(actor model.ExternalIdentity, value int) *model.RollResult {
	result, err := s.controller.Roll(s.ctx, "chat", actor, value)
	s.Require().NoError(err)
	return result
}

// playMatch runs a single-round match that the challenger wins
func (s *ControllerSuite) playMatch(challenger, opponent model.ExternalIdentity) *model.Game {
	game := s.startGame(challenger, opponent, 1)
	s.roll(challenger, 6)
	result := s.roll(opponent, 1)
	s.Require().Equal(model.RollClosed, result.Outcome)
	s.Require().Equal(game.ID, result.Game.ID)
	return result.Game
}

// NewGame tests

func (s *ControllerSuite) TestNewGameSucceeds() {
	game := s.challenge(alice, "@bob", 3)

	s.Equal(model.GameID("G0001"), game.ID)
	s.Equal(model.ChatID("chat"), game.ChatID)
	s.Equal(model.PlayerID("1"), game.Challenger.ID)
	s.Equal("bob", game.Opponent.Username)
	s.False(game.Opponent.Resolved())
	s.Equal(model.GameStateInitiated, game.State)
	s.Equal(3, game.WinningRounds)

	player, err := s.storage.GetPlayer(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("alice", player.Username)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventGameCreated, events[0].Type)
	s.Equal(s.clock.Now(), events[0].Timestamp)
	s.Equal(game.ID, events[0].GameID)
}

func (s *ControllerSuite) TestNewGameDefaultsWinningRounds() {
	game := s.challenge(alice, "bob", 0)
	s.Equal(DefaultWinningRounds, game.WinningRounds)
}

func (s *ControllerSuite) TestNewGameRejectsInvalidInput() {
	cases := []struct {
		name string
		req  NewGameRequest
		want error
	}{
		{"negative winning rounds", NewGameRequest{ChatID: "chat", Challenger: alice, Opponent: "bob", WinningRounds: -1}, model.ErrInvalidWinningRounds},
		{"missing opponent", NewGameRequest{ChatID: "chat", Challenger: alice, Opponent: " @ "}, model.ErrMissingOpponent},
		{"self challenge", NewGameRequest{ChatID: "chat", Challenger: alice, Opponent: "@Alice"}, model.ErrSelfChallenge},
		{"missing actor id", NewGameRequest{ChatID: "chat", Challenger: model.ExternalIdentity{Username: "alice"}, Opponent: "bob"}, model.ErrIntegration},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.controller.NewGame(s.ctx, tc.req)
			s.ErrorIs(err, tc.want)
		})
	}
	s.Empty(s.publisher.Events())
}

func (s *ControllerSuite) TestNewGameReportsConflict() {
	existing := s.startGame(alice, bob, 1)

	_, err := s.controller.NewGame(s.ctx, NewGameRequest{ChatID: "chat", Challenger: alice, Opponent: "carol"})

	var conflict *model.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(existing.ID, conflict.Game.ID)
	s.True(model.IsRuleViolation(err))
}

// AcceptGame tests

func (s *ControllerSuite) TestAcceptGameBindsOpponent() {
	game := s.challenge(alice, "@Bob", 1)

	accepted, err := s.controller.AcceptGame(s.ctx, "chat", game.ID, bob)
	s.Require().NoError(err)

	s.Equal(model.GameStateAccepted, accepted.State)
	s.Equal(model.PlayerID("2"), accepted.Opponent.ID)
	s.Equal("bob", accepted.Opponent.Username)

	stored, err := s.controller.GetGame(s.ctx, "chat", game.ID)
	s.Require().NoError(err)
	s.Equal(accepted, stored)
	s.Equal([]model.EventType{model.EventGameCreated, model.EventGameAccepted}, s.publisher.Types())
}

func (s *ControllerSuite) TestAcceptGameFailures() {
	game := s.challenge(alice, "bob", 1)

	_, err := s.controller.AcceptGame(s.ctx, "chat", game.ID, carol)
	s.ErrorIs(err, model.ErrNotChallenged)

	_, err = s.controller.AcceptGame(s.ctx, "chat", "missing", bob)
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.controller.AcceptGame(s.ctx, "chat", game.ID, bob)
	s.Require().NoError(err)

	_, err = s.controller.AcceptGame(s.ctx, "chat", game.ID, bob)
	s.ErrorIs(err, model.ErrAlreadyAccepted)
}

func (s *ControllerSuite) TestAcceptFinishedGameFails() {
	game := s.playMatch(alice, bob)

	_, err := s.controller.AcceptGame(s.ctx, "chat", game.ID, bob)
	s.ErrorIs(err, model.ErrGameFinished)
}

func (s *ControllerSuite) TestAcceptRejectsSecondAcceptedGame() {
	fromAlice := s.challenge(alice, "@bob", 1)
	fromCarol := s.challenge(carol, "@bob", 1)

	_, err := s.controller.AcceptGame(s.ctx, "chat", fromAlice.ID, bob)
	s.Require().NoError(err)

	_, err = s.controller.AcceptGame(s.ctx, "chat", fromCarol.ID, bob)
	var conflict *model.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.ErrorIs(err, model.ErrGameInProgress)
	s.Equal(model.SideOpponent, conflict.Side)
	s.Equal(fromAlice.ID, conflict.Game.ID)

	stored, err := s.controller.GetGame(s.ctx, "chat", fromCarol.ID)
	s.Require().NoError(err)
	s.Equal(model.GameStateInitiated, stored.State)

	// Bob's reply still lands in the game he is playing
	s.roll(alice, 3)
	result := s.roll(bob, 5)
	s.Equal(fromAlice.ID, result.Game.ID)
	s.Equal(model.RollClosed, result.Outcome)
}

func (s *ControllerSuite) TestAcceptRejectsBusyChallenger() {
	fromAlice := s.challenge(alice, "@carol", 1)
	s.startGame(bob, alice, 1)

	_, err := s.controller.AcceptGame(s.ctx, "chat", fromAlice.ID, carol)
	var conflict *model.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(model.SideOpponent, conflict.Side)
	s.Equal("alice", conflict.Username)
}

// Roll tests

func (s *ControllerSuite) TestRollFlow() {
	s.startGame(alice, bob, 1)

	s.Equal(model.RollOpen, s.roll(alice, 5).Outcome)
	s.Equal(model.RollInvalid, s.roll(alice, 3).Outcome)
	s.Equal(model.RollTie, s.roll(bob, 5).Outcome)
	s.Equal(model.RollOpen, s.roll(bob, 2).Outcome)

	result := s.roll(alice, 1)
	s.Equal(model.RollClosed, result.Outcome)
	s.Equal(model.Score{Opponent: 1}, result.Score)
	s.Equal([]int{5, 1}, result.Game.ChallengerRolls)
	s.Equal([]int{5, 2}, result.Game.OpponentRolls)

	stored, err := s.controller.GetGame(s.ctx, "chat", result.Game.ID)
	s.Require().NoError(err)
	s.Equal(model.GameStateFinished, stored.State)

	_, err = s.controller.Roll(s.ctx, "chat", alice, 4)
	s.ErrorIs(err, model.ErrNoActiveGame)
}

func (s *ControllerSuite) TestInvalidRollDoesNotWrite() {
	game := s.startGame(alice, bob, 1)
	s.roll(alice, 5)
	before, err := s.controller.GetGame(s.ctx, "chat", game.ID)
	s.Require().NoError(err)
	eventsBefore := len(s.publisher.Events())

	result := s.roll(alice, 6)

	s.Equal(model.RollInvalid, result.Outcome)
	after, err := s.controller.GetGame(s.ctx, "chat", game.ID)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Len(s.publisher.Events(), eventsBefore)
}

func (s *ControllerSuite) TestRollWithoutValueUsesRoller() {
	s.startGame(alice, bob, 1)
	s.roller.Queue(4)

	result := s.roll(alice, 0)

	s.Equal(4, result.Value)
	s.Equal([]int{4}, result.Game.ChallengerRolls)
}

func (s *ControllerSuite) TestRollRejectsInvalidValue() {
	s.startGame(alice, bob, 1)

	_, err := s.controller.Roll(s.ctx, "chat", alice, 7)
	s.ErrorIs(err, model.ErrInvalidRoll)
}

func (s *ControllerSuite) TestRollWithoutGame() {
	_, err := s.controller.Roll(s.ctx, "chat", carol, 3)
	s.ErrorIs(err, model.ErrNoActiveGame)
}

func (s *ControllerSuite) TestRollPublishesScore() {
	s.startGame(alice, bob, 3)
	s.roll(alice, 2)
	s.roll(bob, 5)

	events := s.publisher.Events()
	last := events[len(events)-1]
	s.Equal(model.EventDiceRolled, last.Type)
	payload, ok := last.Payload.(*model.DiceRolledPayload)
	s.Require().True(ok)
	s.Equal(model.RollWin, payload.Outcome)
	s.Equal(model.SideOpponent, payload.Side)
	s.Equal(model.Score{Opponent: 1}, payload.Score)
}

func (s *ControllerSuite) TestRollRetriesAfterConcurrentUpdate() {
	store := &conflictOnce{Storage: s.storage}
	s.controller = s.newController(store)
	s.startGame(alice, bob, 1)
	store.tripped = false

	result := s.roll(alice, 3)

	s.Equal(model.RollOpen, result.Outcome)
	s.True(store.tripped)
}

func (s *ControllerSuite) TestApplyRollWithStaleGameConflicts() {
	game := s.startGame(alice, bob, 1)
	stale := game.Clone()

	_, err := s.controller.ApplyRoll(s.ctx, game, "1", 3)
	s.Require().NoError(err)

	_, err = s.controller.ApplyRoll(s.ctx, stale, "2", 4)
	s.ErrorIs(err, model.ErrRevisionConflict)
}

func (s *ControllerSuite) TestApplyRollRequiresAcceptedGame() {
	game := s.challenge(alice, "bob", 1)

	_, err := s.controller.ApplyRoll(s.ctx, game, "1", 3)
	s.ErrorIs(err, model.ErrGameNotAccepted)
}

// Revenge tests

func (s *ControllerSuite) TestRevengeSwapsRoles() {
	finished := s.playMatch(alice, bob)

	game, err := s.controller.Revenge(s.ctx, "chat", finished.ID, bob)
	s.Require().NoError(err)

	s.NotEqual(finished.ID, game.ID)
	s.Equal(model.PlayerID("2"), game.Challenger.ID)
	s.Equal("alice", game.Opponent.Username)
	s.False(game.Opponent.Resolved())
	s.Equal(model.GameStateInitiated, game.State)
	s.Equal(finished.WinningRounds, game.WinningRounds)

	events := s.publisher.Events()
	payload, ok := events[len(events)-1].Payload.(*model.GameCreatedPayload)
	s.Require().True(ok)
	s.True(payload.Revenge)
}

func (s *ControllerSuite) TestRevengeFailures() {
	game := s.startGame(alice, bob, 1)

	_, err := s.controller.Revenge(s.ctx, "chat", game.ID, alice)
	s.ErrorIs(err, model.ErrGameNotFinished)

	_, err = s.controller.Revenge(s.ctx, "chat", game.ID, carol)
	s.ErrorIs(err, model.ErrNotInGame)

	_, err = s.controller.Revenge(s.ctx, "chat", "missing", alice)
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Query tests

func (s *ControllerSuite) TestActiveGames() {
	finished := s.playMatch(alice, bob)
	accepted := s.startGame(alice, carol, 1)
	initiated := s.challenge(bob, "dave", 1)

	active, err := s.controller.ActiveGames(s.ctx, "chat", nil)
	s.Require().NoError(err)
	s.Equal([]model.GameID{accepted.ID, initiated.ID}, gameIDs(active))

	done, err := s.controller.ActiveGames(s.ctx, "chat", model.StateFilter{model.GameStateFinished})
	s.Require().NoError(err)
	s.Equal([]model.GameID{finished.ID}, gameIDs(done))
}

func (s *ControllerSuite) TestScoreboard() {
	first := s.playMatch(alice, bob)
	_, err := s.controller.Revenge(s.ctx, "chat", first.ID, bob)
	s.Require().NoError(err)
	_, err = s.controller.AcceptGame(s.ctx, "chat", "G0002", alice)
	s.Require().NoError(err)
	s.roll(bob, 6)
	s.roll(alice, 1)
	s.playMatch(alice, carol)

	// renamed players show their current name
	_, err = s.controller.resolver.Resolve(s.ctx, testutil.Identity("1", "alicia"))
	s.Require().NoError(err)

	standings, err := s.controller.Scoreboard(s.ctx, "chat")
	s.Require().NoError(err)

	s.Require().Len(standings, 2)
	s.Equal(scoring.Standing{PlayerID: "1", Name: "alicia", Wins: 2, Rank: 1}, standings[0])
	s.Equal(scoring.Standing{PlayerID: "2", Name: "bob", Wins: 1, Rank: 2}, standings[1])
}

func (s *ControllerSuite) TestScoreboardEmptyChat() {
	standings, err := s.controller.Scoreboard(s.ctx, "quiet")
	s.Require().NoError(err)
	s.Empty(standings)
}

func (s *ControllerSuite) TestStorageFailureIsNotRuleViolation() {
	s.controller = s.newController(unavailableStorage{Storage: s.storage})

	_, err := s.controller.ActiveGames(s.ctx, "chat", nil)
	s.Require().Error(err)
	s.True(errors.Is(err, model.ErrStorageUnavailable))
	s.False(model.IsRuleViolation(err))
}
