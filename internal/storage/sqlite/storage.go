// Package sqlite provides a single-file SQLite-backed storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id   TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
	chat_id  TEXT    NOT NULL,
	id       TEXT    NOT NULL,
	state    TEXT    NOT NULL,
	revision INTEGER NOT NULL,
	data     TEXT    NOT NULL,
	PRIMARY KEY (chat_id, id)
);
`

// Storage persists players and games in SQLite
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, model.NewStorageError("ping", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the SQLite handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO players (id, data) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		string(player.ID), string(data),
	)
	return model.NewStorageError("save player", err)
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM players WHERE id = ?`, string(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, model.NewStorageError("get player", err)
	}

	var player model.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// Game operations

func (s *Storage) InsertGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Revision = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (chat_id, id, state, revision, data) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (chat_id, id) DO NOTHING`,
		string(game.ChatID), string(game.ID), string(game.State), stored.Revision, string(data),
	)
	if err != nil {
		return model.NewStorageError("insert game", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.NewStorageError("insert game", err)
	}
	if n == 0 {
		return model.ErrGameExists
	}

	game.Revision = stored.Revision
	return nil
}

func (s *Storage) GetGame(ctx context.Context, chatID model.ChatID, id model.GameID) (*model.Game, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM games WHERE chat_id = ? AND id = ?`,
		string(chatID), string(id),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, model.NewStorageError("get game", err)
	}
	return storage.DecodeGame([]byte(data))
}

func (s *Storage) UpdateGame(ctx context.Context, game *model.Game) error {
	next := game.Clone()
	next.Revision = game.Revision + 1
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET state = ?, revision = ?, data = ?
		 WHERE chat_id = ? AND id = ? AND revision = ?`,
		string(next.State), next.Revision, string(data),
		string(game.ChatID), string(game.ID), game.Revision,
	)
	if err != nil {
		return model.NewStorageError("update game", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.NewStorageError("update game", err)
	}
	if n == 0 {
		// Distinguish a missing row from a stale revision
		if _, err := s.GetGame(ctx, game.ChatID, game.ID); err != nil {
			return err
		}
		return model.ErrRevisionConflict
	}

	game.Revision = next.Revision
	return nil
}

func (s *Storage) ListGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error) {
	query := `SELECT data FROM games WHERE chat_id = ?`
	args := []any{string(chatID)}
	if len(filter) > 0 {
		placeholders := make([]string, len(filter))
		for i, state := range filter {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		query += ` AND state IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.NewStorageError("list games", err)
	}
	defer func() { _ = rows.Close() }()

	games := []*model.Game{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, model.NewStorageError("list games", err)
		}
		game, err := storage.DecodeGame([]byte(data))
		if err != nil {
			return nil, model.NewStorageError("list games", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("list games", err)
	}
	return games, nil
}
