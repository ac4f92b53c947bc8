package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/diceduel/internal/dependencies/ids"
	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

// Repository stores games scoped to a chat
type Repository struct {
	storage storage.Storage
	ids     ids.Generator
	logger  *slog.Logger
}

// NewRepository creates a new game Repository
func NewRepository(storage storage.Storage, ids ids.Generator, logger *slog.Logger) *Repository {
	return &Repository{
		storage: storage,
		ids:     ids,
		logger:  logger,
	}
}

// CreateGame writes a new Initiated game. It fails with a *model.ConflictError
// when the challenger already plays an Accepted game as challenger, or the
// opponent's username already plays one as opponent.
func (r *Repository) CreateGame(ctx context.Context, challenger *model.Player, opponent model.Opponent, chatID model.ChatID, winningRounds int) (*model.Game, error) {
	inProgress, err := r.storage.ListGames(ctx, chatID, model.StateFilter{model.GameStateAccepted})
	if err != nil {
		return nil, err
	}
	if conflict := findConflict(inProgress, challenger, opponent); conflict != nil {
		return nil, conflict
	}

	game := &model.Game{
		ID:              r.ids.NewGameID(),
		ChatID:          chatID,
		Challenger:      *challenger,
		Opponent:        opponent,
		State:           model.GameStateInitiated,
		WinningRounds:   winningRounds,
		ChallengerRolls: []int{},
		OpponentRolls:   []int{},
	}
	if err := r.storage.InsertGame(ctx, game); err != nil {
		r.logger.Error("failed to insert game",
			slog.String("chat_id", string(chatID)),
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	r.logger.Info("game created",
		slog.String("chat_id", string(chatID)),
		slog.String("game_id", string(game.ID)),
		slog.String("challenger", string(challenger.ID)),
		slog.String("opponent", opponent.Name()),
		slog.Int("winning_rounds", winningRounds),
	)
	return game, nil
}

func findConflict(games []*model.Game, challenger *model.Player, opponent model.Opponent) *model.ConflictError {
	opponentName := strings.ToLower(opponent.Name())
	for _, g := range games {
		if g.Challenger.ID == challenger.ID {
			return &model.ConflictError{Side: model.SideChallenger, Username: challenger.Name(), Game: g}
		}
		if opponentName != "" && strings.ToLower(g.Opponent.Name()) == opponentName {
			return &model.ConflictError{Side: model.SideOpponent, Username: opponent.Name(), Game: g}
		}
	}
	return nil
}

// GetGame returns the game, or nil if the chat holds no game with that id
func (r *Repository) GetGame(ctx context.Context, chatID model.ChatID, id model.GameID) (*model.Game, error) {
	game, err := r.storage.GetGame(ctx, chatID, id)
	if errors.Is(err, model.ErrGameNotFound) {
		return nil, nil
	}
	return game, err
}

// UpdateGame overwrites the full game record. The write is conditional on
// game.Revision and fails with model.ErrRevisionConflict if the record moved on.
func (r *Repository) UpdateGame(ctx context.Context, game *model.Game) error {
	return r.storage.UpdateGame(ctx, game)
}

// ListGames returns the chat's games in creation order. A nil filter selects
// the active states.
func (r *Repository) ListGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error) {
	if filter == nil {
		filter = model.ActiveStates
	}
	return r.storage.ListGames(ctx, chatID, filter)
}
