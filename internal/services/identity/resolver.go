package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

// Resolver maps chat platform identities to stored players
type Resolver struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new Resolver
func New(storage storage.Storage, logger *slog.Logger) *Resolver {
	return &Resolver{
		storage: storage,
		logger:  logger,
	}
}

// Resolve returns the player for an external identity, creating it on first
// sight and refreshing its names when they changed. At most one write is made.
func (r *Resolver) Resolve(ctx context.Context, ext model.ExternalIdentity) (*model.Player, error) {
	if err := ext.Validate(); err != nil {
		return nil, err
	}

	observed := model.Player{
		ID:          model.PlayerID(ext.ID),
		Username:    model.NormalizeUsername(ext.Username),
		DisplayName: ext.DisplayName,
	}

	stored, err := r.storage.GetPlayer(ctx, observed.ID)
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		if err := r.storage.SavePlayer(ctx, &observed); err != nil {
			return nil, err
		}
		r.logger.Info("player created",
			slog.String("player_id", string(observed.ID)),
			slog.String("username", observed.Username),
		)
		return &observed, nil
	case err != nil:
		return nil, err
	}

	if stored.Username == observed.Username && stored.DisplayName == observed.DisplayName {
		return stored, nil
	}

	if err := r.storage.SavePlayer(ctx, &observed); err != nil {
		return nil, err
	}
	r.logger.Info("player renamed",
		slog.String("player_id", string(observed.ID)),
		slog.String("old_username", stored.Username),
		slog.String("username", observed.Username),
	)
	return &observed, nil
}

// Lookup returns a stored player without creating one
func (r *Resolver) Lookup(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return r.storage.GetPlayer(ctx, id)
}
