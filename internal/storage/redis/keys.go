package redis

import (
	"fmt"

	"github.com/mcoot/diceduel/internal/model"
)

// keys builds Redis keys under a configurable prefix.
//
//	{prefix}:player:{playerID}         JSON Player
//	{prefix}:game:{chatID}:{gameID}    JSON Game
//	{prefix}:idx:games:{chatID}        ZSET of game ids, all scores 0 (lexicographic order)
type keys struct {
	prefix string
}

func (k keys) player(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", k.prefix, id)
}

func (k keys) game(chatID model.ChatID, id model.GameID) string {
	return fmt.Sprintf("%s:game:%s:%s", k.prefix, chatID, id)
}

func (k keys) gamesForChat(chatID model.ChatID) string {
	return fmt.Sprintf("%s:idx:games:%s", k.prefix, chatID)
}
