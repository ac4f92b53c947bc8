package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, model.NewStorageError("ping", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return model.NewStorageError("save player", s.client.Set(ctx, s.keys.player(player.ID), data, 0).Err())
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, s.keys.player(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.NewStorageError("get player", err)
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Game operations

// insertGameScript writes the record and its index entry together, or
// nothing when the record already exists
var insertGameScript = redis.NewScript(`
	if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
		return 0
	end
	redis.call("ZADD", KEYS[2], 0, ARGV[2])
	return 1
`)

func (s *Storage) InsertGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Revision = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	created, err := insertGameScript.Run(ctx, s.client,
		[]string{s.keys.game(game.ChatID, game.ID), s.keys.gamesForChat(game.ChatID)},
		data, string(game.ID)).Int()
	if err != nil {
		return model.NewStorageError("insert game", err)
	}
	if created == 0 {
		return model.ErrGameExists
	}

	game.Revision = stored.Revision
	return nil
}

func (s *Storage) GetGame(ctx context.Context, chatID model.ChatID, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, s.keys.game(chatID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, model.NewStorageError("get game", err)
	}
	return storage.DecodeGame(data)
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	key := s.keys.game(game.ChatID, game.ID)

	next := game.Clone()
	next.Revision = game.Revision + 1
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	// Optimistic check-and-set: the transaction aborts with redis.TxFailedErr
	// if another client writes the key between WATCH and EXEC
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrGameNotFound
			}
			return err
		}
		stored, err := storage.DecodeGame(current)
		if err != nil {
			return err
		}
		if stored.Revision != game.Revision {
			return model.ErrRevisionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		game.Revision = next.Revision
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return model.ErrRevisionConflict
	case errors.Is(err, model.ErrGameNotFound), errors.Is(err, model.ErrRevisionConflict):
		return err
	default:
		return model.NewStorageError("update game", err)
	}
}

func (s *Storage) ListGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error) {
	// Equal scores make ZRANGE return members in lexicographic order,
	// which for ULIDs is creation order
	ids, err := s.client.ZRange(ctx, s.keys.gamesForChat(chatID), 0, -1).Result()
	if err != nil {
		return nil, model.NewStorageError("list games", err)
	}
	if len(ids) == 0 {
		return []*model.Game{}, nil
	}

	gameKeys := make([]string, len(ids))
	for i, id := range ids {
		gameKeys[i] = s.keys.game(chatID, model.GameID(id))
	}

	values, err := s.client.MGet(ctx, gameKeys...).Result()
	if err != nil {
		return nil, model.NewStorageError("list games", err)
	}

	games := make([]*model.Game, 0, len(values))
	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue // Index entry without a record
		}
		game, err := storage.DecodeGame([]byte(raw))
		if err != nil {
			return nil, model.NewStorageError("list games", err)
		}
		if filter.Matches(game.State) {
			games = append(games, game)
		}
	}

	return games, nil
}
