package storage

import (
	"context"

	"github.com/mcoot/diceduel/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations return model.ErrPlayerNotFound / model.ErrGameNotFound for
// missing records and wrap backend failures in *model.StorageError. Callers
// always receive copies; mutating a returned value never affects the store.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Game operations

	// InsertGame writes a new game, failing with model.ErrGameExists if the
	// chat already holds a game with the same id. The stored revision starts at 1.
	InsertGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, chatID model.ChatID, id model.GameID) (*model.Game, error)
	// UpdateGame overwrites the full record if the stored revision still equals
	// game.Revision, otherwise it fails with model.ErrRevisionConflict. On
	// success game.Revision is advanced to the new stored revision.
	UpdateGame(ctx context.Context, game *model.Game) error
	// ListGames returns the chat's games matching filter, ordered by id
	ListGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error)
}
