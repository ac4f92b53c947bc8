package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Not found errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameNotFound   = errors.New("game not found")

	// Rule violations, always safe to show to the end user
	ErrSelfChallenge        = errors.New("players cannot challenge themselves")
	ErrGameInProgress       = errors.New("player already has a game in progress")
	ErrNotInGame            = errors.New("player is not part of this game")
	ErrAlreadyAccepted      = errors.New("game has already been accepted")
	ErrGameFinished         = errors.New("game has already finished")
	ErrGameNotAccepted      = errors.New("game has not been accepted")
	ErrGameNotFinished      = errors.New("game has not finished yet")
	ErrNotChallenged        = errors.New("player is not the challenged opponent")
	ErrNoActiveGame         = errors.New("player has no game in progress")
	ErrInvalidRoll          = errors.New("roll must be between 1 and 6")
	ErrInvalidWinningRounds = errors.New("winning rounds must be at least 1")
	ErrMissingOpponent      = errors.New("opponent is required")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRevisionConflict   = errors.New("game was modified concurrently")
	ErrGameExists         = errors.New("game id already exists")

	// Integration errors, the adapter broke its contract
	ErrIntegration    = errors.New("integration error")
	ErrMissingActorID = fmt.Errorf("%w: missing actor id", ErrIntegration)
	ErrNotParticipant = fmt.Errorf("%w: acting player is not a participant", ErrIntegration)
)

var ruleViolations = []error{
	ErrPlayerNotFound,
	ErrGameNotFound,
	ErrSelfChallenge,
	ErrGameInProgress,
	ErrNotInGame,
	ErrAlreadyAccepted,
	ErrGameFinished,
	ErrGameNotAccepted,
	ErrGameNotFinished,
	ErrNotChallenged,
	ErrNoActiveGame,
	ErrInvalidRoll,
	ErrInvalidWinningRounds,
	ErrMissingOpponent,
}

// IsRuleViolation reports whether err is an expected, user-facing game rule error
func IsRuleViolation(err error) bool {
	for _, target := range ruleViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ConflictError is returned when a new game would give a player a second game in progress
type ConflictError struct {
	// Side is the role the conflicting player already holds in Game
	Side Side
	// Username of the player who is already busy
	Username string
	Game     *Game
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already has a game in progress as %s (game %s)", e.Username, e.Side, e.Game.ID)
}

// Is makes ConflictError match ErrGameInProgress
func (e *ConflictError) Is(target error) bool {
	return target == ErrGameInProgress
}

// StorageError wraps a failure of the underlying store
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err, returning nil for a nil err
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes StorageError match ErrStorageUnavailable
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
