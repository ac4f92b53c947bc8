package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame() *Game {
	return &Game{
		ID:              "g1",
		ChatID:          "chat",
		Challenger:      Player{ID: "1", Username: "alice"},
		Opponent:        Opponent{ID: "2", Username: "bob"},
		State:           GameStateAccepted,
		WinningRounds:   2,
		ChallengerRolls: []int{4},
		OpponentRolls:   []int{},
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := testGame()
	c := g.Clone()
	c.AppendRoll(SideChallenger, 6)
	c.State = GameStateFinished

	assert.Equal(t, []int{4}, g.ChallengerRolls)
	assert.Equal(t, GameStateAccepted, g.State)
	assert.Equal(t, []int{4, 6}, c.Rolls(SideChallenger))

	empty := (&Game{}).Clone()
	assert.NotNil(t, empty.ChallengerRolls)
	assert.NotNil(t, empty.OpponentRolls)
}

func TestSideOf(t *testing.T) {
	g := testGame()

	side, ok := g.SideOf("1")
	assert.True(t, ok)
	assert.Equal(t, SideChallenger, side)

	side, ok = g.SideOf("2")
	assert.True(t, ok)
	assert.Equal(t, SideOpponent, side)

	_, ok = g.SideOf("3")
	assert.False(t, ok)

	// An unresolved opponent never matches the empty id
	g.Opponent.ID = ""
	assert.False(t, g.HasParticipant(""))
	assert.Equal(t, SideChallenger, SideOpponent.Other())
}

func TestStateFilter(t *testing.T) {
	assert.True(t, StateFilter{}.Matches(GameStateFinished))
	assert.True(t, ActiveStates.Matches(GameStateInitiated))
	assert.False(t, ActiveStates.Matches(GameStateFinished))
	assert.False(t, GameState("paused").Valid())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "alice", (&Player{Username: "alice", DisplayName: "Alice"}).Name())
	assert.Equal(t, "Alice", (&Player{DisplayName: "Alice"}).Name())
	assert.Equal(t, "Bob B", Opponent{DisplayName: "Bob B"}.Name())
	assert.False(t, Opponent{Username: "bob"}.Resolved())
	assert.Equal(t, "bob", NormalizeUsername("  @bob "))
}

func TestIdentityValidate(t *testing.T) {
	assert.NoError(t, ExternalIdentity{ID: "1"}.Validate())
	err := ExternalIdentity{ID: "  ", Username: "alice"}.Validate()
	assert.ErrorIs(t, err, ErrIntegration)
	assert.False(t, IsRuleViolation(err))
}

func TestScoreLeader(t *testing.T) {
	_, ok := Score{Challenger: 1, Opponent: 1}.Leader()
	assert.False(t, ok)

	side, ok := Score{Challenger: 0, Opponent: 2}.Leader()
	assert.True(t, ok)
	assert.Equal(t, SideOpponent, side)
	assert.Equal(t, 2, Score{Opponent: 2}.For(SideOpponent))

	r := &RollResult{Outcome: RollWin, Score: Score{Challenger: 1}}
	_, ok = r.Winner()
	assert.False(t, ok, "only closing rolls have a match winner")
	r.Outcome = RollClosed
	side, ok = r.Winner()
	assert.True(t, ok)
	assert.Equal(t, SideChallenger, side)
}

func TestValidRoll(t *testing.T) {
	for v := MinRoll; v <= MaxRoll; v++ {
		assert.True(t, ValidRoll(v))
	}
	assert.False(t, ValidRoll(0))
	assert.False(t, ValidRoll(7))
}

func TestErrorClassification(t *testing.T) {
	conflict := &ConflictError{Side: SideOpponent, Username: "bob", Game: testGame()}
	assert.ErrorIs(t, conflict, ErrGameInProgress)
	assert.True(t, IsRuleViolation(fmt.Errorf("create: %w", conflict)))
	assert.Equal(t, "bob already has a game in progress as opponent (game g1)", conflict.Error())

	cause := errors.New("connection refused")
	err := NewStorageError("get game", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRuleViolation(err))
	assert.NoError(t, NewStorageError("get game", nil))

	assert.ErrorIs(t, ErrNotParticipant, ErrIntegration)
}
