package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/diceduel/internal/dependencies/clock"
	"github.com/mcoot/diceduel/internal/dependencies/dice"
	"github.com/mcoot/diceduel/internal/model"
	"github.com/mcoot/diceduel/internal/services/identity"
	"github.com/mcoot/diceduel/internal/services/scoring"
)

// maxWriteAttempts bounds read-modify-write retries on revision conflicts
const maxWriteAttempts = 3

// DefaultWinningRounds is used when a challenge does not name a target
const DefaultWinningRounds = 1

// Publisher receives events after every successful state change
type Publisher interface {
	Publish(event model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Event) {}

// NewGameRequest is a challenge issued in a chat
type NewGameRequest struct {
	ChatID     model.ChatID
	Challenger model.ExternalIdentity
	// Opponent is the username (with or without a leading @) or display name
	// of the challenged player
	Opponent string
	// WinningRounds defaults to the controller's default when zero
	WinningRounds int
}

// Controller runs the dice duel state machine on top of the game repository
type Controller struct {
	repo                 *Repository
	resolver             *identity.Resolver
	scoringService       *scoring.Service
	roller               dice.Roller
	clock                clock.Clock
	publisher            Publisher
	logger               *slog.Logger
	defaultWinningRounds int
}

// NewController creates a new GameController. A nil publisher discards events
// and a non-positive defaultWinningRounds falls back to DefaultWinningRounds.
func NewController(
	repo *Repository,
	resolver *identity.Resolver,
	scoringService *scoring.Service,
	roller dice.Roller,
	clock clock.Clock,
	publisher Publisher,
	logger *slog.Logger,
	defaultWinningRounds int,
) *Controller {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if defaultWinningRounds < 1 {
		defaultWinningRounds = DefaultWinningRounds
	}
	return &Controller{
		repo:                 repo,
		resolver:             resolver,
		scoringService:       scoringService,
		roller:               roller,
		clock:                clock,
		publisher:            publisher,
		logger:               logger,
		defaultWinningRounds: defaultWinningRounds,
	}
}

// NewGame records a challenge from one player to another
func (c *Controller) NewGame(ctx context.Context, req NewGameRequest) (*model.Game, error) {
	if err := req.Challenger.Validate(); err != nil {
		return nil, err
	}
	opponentName := model.NormalizeUsername(req.Opponent)
	if opponentName == "" {
		return nil, model.ErrMissingOpponent
	}
	winningRounds := req.WinningRounds
	if winningRounds == 0 {
		winningRounds = c.defaultWinningRounds
	}
	if winningRounds < 1 {
		return nil, model.ErrInvalidWinningRounds
	}

	challenger, err := c.resolver.Resolve(ctx, req.Challenger)
	if err != nil {
		return nil, err
	}
	if sameName(challenger.Username, opponentName) || sameName(challenger.DisplayName, opponentName) {
		return nil, model.ErrSelfChallenge
	}

	game, err := c.repo.CreateGame(ctx, challenger, model.Opponent{Username: opponentName}, req.ChatID, winningRounds)
	if err != nil {
		return nil, err
	}

	c.publish(model.EventGameCreated, game, challenger.ID, &model.GameCreatedPayload{Game: game})
	return game, nil
}

// AcceptGame binds the challenged player to the game and starts play
func (c *Controller) AcceptGame(ctx context.Context, chatID model.ChatID, gameID model.GameID, accepter model.ExternalIdentity) (*model.Game, error) {
	if err := accepter.Validate(); err != nil {
		return nil, err
	}
	player, err := c.resolver.Resolve(ctx, accepter)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		game, err := c.GetGame(ctx, chatID, gameID)
		if err != nil {
			return nil, err
		}
		switch game.State {
		case model.GameStateAccepted:
			return nil, model.ErrAlreadyAccepted
		case model.GameStateFinished:
			return nil, model.ErrGameFinished
		}
		if !isChallenged(game.Opponent, player) {
			return nil, model.ErrNotChallenged
		}
		if err := c.checkNotPlaying(ctx, game, player); err != nil {
			return nil, err
		}

		game.Opponent = model.Opponent{
			ID:          player.ID,
			Username:    player.Username,
			DisplayName: player.DisplayName,
		}
		game.State = model.GameStateAccepted

		err = c.repo.UpdateGame(ctx, game)
		if errors.Is(err, model.ErrRevisionConflict) && attempt < maxWriteAttempts {
			c.logger.Warn("retrying accept after concurrent update",
				slog.String("game_id", string(gameID)),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		c.logger.Info("game accepted",
			slog.String("chat_id", string(chatID)),
			slog.String("game_id", string(gameID)),
			slog.String("opponent", string(player.ID)),
		)
		c.publish(model.EventGameAccepted, game, player.ID, &model.GameAcceptedPayload{Game: game})
		return game, nil
	}
}

// checkNotPlaying fails with a ConflictError when either participant of game
// already plays another Accepted game in the chat
func (c *Controller) checkNotPlaying(ctx context.Context, game *model.Game, accepter *model.Player) error {
	accepted, err := c.repo.ListGames(ctx, game.ChatID, model.StateFilter{model.GameStateAccepted})
	if err != nil {
		return err
	}
	for _, other := range accepted {
		if other.ID == game.ID {
			continue
		}
		if side, ok := other.SideOf(accepter.ID); ok {
			return &model.ConflictError{Side: side, Username: accepter.Name(), Game: other}
		}
		if side, ok := other.SideOf(game.Challenger.ID); ok {
			return &model.ConflictError{Side: side, Username: game.Challenger.Name(), Game: other}
		}
	}
	return nil
}

// Revenge starts a new game from a finished one. The requester becomes the
// challenger and the other participant is challenged with the same winning rounds.
func (c *Controller) Revenge(ctx context.Context, chatID model.ChatID, gameID model.GameID, actor model.ExternalIdentity) (*model.Game, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	player, err := c.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	previous, err := c.GetGame(ctx, chatID, gameID)
	if err != nil {
		return nil, err
	}
	side, ok := previous.SideOf(player.ID)
	if !ok {
		return nil, model.ErrNotInGame
	}
	if previous.State != model.GameStateFinished {
		return nil, model.ErrGameNotFinished
	}

	opponent := c.revengeOpponent(ctx, previous, side.Other())
	game, err := c.repo.CreateGame(ctx, player, opponent, chatID, previous.WinningRounds)
	if err != nil {
		return nil, err
	}

	c.publish(model.EventGameCreated, game, player.ID, &model.GameCreatedPayload{Game: game, Revenge: true})
	return game, nil
}

// revengeOpponent builds the challenge placeholder for the other side,
// preferring the freshest stored names
func (c *Controller) revengeOpponent(ctx context.Context, game *model.Game, side model.Side) model.Opponent {
	opponent := game.Opponent
	if side == model.SideChallenger {
		opponent = model.Opponent{
			ID:          game.Challenger.ID,
			Username:    game.Challenger.Username,
			DisplayName: game.Challenger.DisplayName,
		}
	}
	if stored, err := c.resolver.Lookup(ctx, opponent.ID); err == nil {
		opponent.Username = stored.Username
		opponent.DisplayName = stored.DisplayName
	}
	return model.Opponent{Username: opponent.Username, DisplayName: opponent.DisplayName}
}

// Roll plays a die for the actor in their Accepted game in the chat.
// A zero value asks the server to roll.
func (c *Controller) Roll(ctx context.Context, chatID model.ChatID, actor model.ExternalIdentity, value int) (*model.RollResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if value == 0 {
		value = c.roller.Roll()
	}
	if !model.ValidRoll(value) {
		return nil, model.ErrInvalidRoll
	}
	player, err := c.resolver.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		game, err := c.activeGameFor(ctx, chatID, player.ID)
		if err != nil {
			return nil, err
		}

		result, err := c.ApplyRoll(ctx, game, player.ID, value)
		if errors.Is(err, model.ErrRevisionConflict) && attempt < maxWriteAttempts {
			c.logger.Warn("retrying roll after concurrent update",
				slog.String("game_id", string(game.ID)),
				slog.Int("attempt", attempt),
			)
			continue
		}
		return result, err
	}
}

func (c *Controller) activeGameFor(ctx context.Context, chatID model.ChatID, playerID model.PlayerID) (*model.Game, error) {
	games, err := c.repo.ListGames(ctx, chatID, model.StateFilter{model.GameStateAccepted})
	if err != nil {
		return nil, err
	}
	for _, game := range games {
		if game.HasParticipant(playerID) {
			return game, nil
		}
	}
	return nil, model.ErrNoActiveGame
}

// ApplyRoll applies a roll to an Accepted game and persists the result unless
// it was out of turn. A stale game fails with model.ErrRevisionConflict.
func (c *Controller) ApplyRoll(ctx context.Context, game *model.Game, actor model.PlayerID, value int) (*model.RollResult, error) {
	if game.State != model.GameStateAccepted {
		if game.State == model.GameStateFinished {
			return nil, model.ErrGameFinished
		}
		return nil, model.ErrGameNotAccepted
	}

	result, err := ApplyRoll(game, actor, value)
	if err != nil {
		return nil, err
	}
	if result.Outcome == model.RollInvalid {
		c.logger.Debug("roll out of turn",
			slog.String("game_id", string(game.ID)),
			slog.String("player_id", string(actor)),
		)
		return result, nil
	}

	if err := c.repo.UpdateGame(ctx, result.Game); err != nil {
		return nil, err
	}

	c.logger.Info("dice rolled",
		slog.String("chat_id", string(game.ChatID)),
		slog.String("game_id", string(game.ID)),
		slog.String("player_id", string(actor)),
		slog.Int("value", value),
		slog.String("outcome", string(result.Outcome)),
	)
	c.publish(model.EventDiceRolled, result.Game, actor, &model.DiceRolledPayload{
		Outcome: result.Outcome,
		Side:    result.Side,
		Value:   value,
		Score:   result.Score,
		Game:    result.Game,
	})
	return result, nil
}

// GetGame returns a game, failing with model.ErrGameNotFound if it is absent
func (c *Controller) GetGame(ctx context.Context, chatID model.ChatID, gameID model.GameID) (*model.Game, error) {
	game, err := c.repo.GetGame(ctx, chatID, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, model.ErrGameNotFound
	}
	return game, nil
}

// ActiveGames lists the chat's games in creation order. An empty filter
// selects Initiated and Accepted games.
func (c *Controller) ActiveGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error) {
	if len(filter) == 0 {
		filter = model.ActiveStates
	}
	return c.repo.ListGames(ctx, chatID, filter)
}

// Scoreboard ranks the chat's players by finished matches won
func (c *Controller) Scoreboard(ctx context.Context, chatID model.ChatID) ([]scoring.Standing, error) {
	games, err := c.repo.ListGames(ctx, chatID, model.StateFilter{model.GameStateFinished})
	if err != nil {
		return nil, err
	}

	standings := c.scoringService.Rank(games)
	for i := range standings {
		player, err := c.resolver.Lookup(ctx, standings[i].PlayerID)
		switch {
		case err == nil:
			if name := player.Name(); name != "" {
				standings[i].Name = name
			}
		case errors.Is(err, model.ErrPlayerNotFound):
		default:
			return nil, err
		}
	}
	return standings, nil
}

func (c *Controller) publish(eventType model.EventType, game *model.Game, playerID model.PlayerID, payload any) {
	c.publisher.Publish(model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		ChatID:    game.ChatID,
		GameID:    game.ID,
		PlayerID:  playerID,
		Payload:   payload,
	})
}

// isChallenged reports whether the player matches the challenge placeholder
func isChallenged(opponent model.Opponent, player *model.Player) bool {
	if opponent.Username != "" {
		return sameName(opponent.Username, player.Username) || sameName(opponent.Username, player.DisplayName)
	}
	return sameName(opponent.DisplayName, player.DisplayName)
}

func sameName(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// ControllerInterface is the game surface consumed by the API
type ControllerInterface interface {
	NewGame(ctx context.Context, req NewGameRequest) (*model.Game, error)
	AcceptGame(ctx context.Context, chatID model.ChatID, gameID model.GameID, accepter model.ExternalIdentity) (*model.Game, error)
	Revenge(ctx context.Context, chatID model.ChatID, gameID model.GameID, actor model.ExternalIdentity) (*model.Game, error)
	Roll(ctx context.Context, chatID model.ChatID, actor model.ExternalIdentity, value int) (*model.RollResult, error)
	GetGame(ctx context.Context, chatID model.ChatID, gameID model.GameID) (*model.Game, error)
	ActiveGames(ctx context.Context, chatID model.ChatID, filter model.StateFilter) ([]*model.Game, error)
	Scoreboard(ctx context.Context, chatID model.ChatID) ([]scoring.Standing, error)
}

var _ ControllerInterface = (*Controller)(nil)
