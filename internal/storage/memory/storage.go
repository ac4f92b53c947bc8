package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players map[model.PlayerID]model.Player
	games   map[model.ChatID]map[model.GameID]*model.Game
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.PlayerID]model.Player),
		games:   make(map[model.ChatID]map[model.GameID]*model.Game),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = *player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &player, nil
}

// Game operations

func (s *Storage) InsertGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.games[game.ChatID]
	if !ok {
		chat = make(map[model.GameID]*model.Game)
		s.games[game.ChatID] = chat
	}
	if _, exists := chat[game.ID]; exists {
		return model.ErrGameExists
	}
	game.Revision = 1
	chat[game.ID] = game.Clone()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, chatID model.ChatID, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[chatID][id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[game.ChatID][game.ID]
	if !ok {
		return model.ErrGameNotFound
	}
	if stored.Revision != game.Revision {
		return model.ErrRevisionConflict
	}
	game.Revision++
	s.games[game.ChatID][game.ID] = game.Clone()
	return nil
}

func (s *Storage) ListGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.Game, 0, len(s.games[chatID]))
	for _, game := range s.games[chatID] {
		if filter.Matches(game.State) {
			games = append(games, game.Clone())
		}
	}
	slices.SortFunc(games, func(a, b *model.Game) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return games, nil
}
