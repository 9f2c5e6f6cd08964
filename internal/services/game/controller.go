package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/dependencies/keylock"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/targeting"
	"github.com/mcoot/seabattle/internal/storage"
)

// Controller resolves attacks and tracks turn flow for active games
type Controller struct {
	storage  storage.Storage
	strategy targeting.Strategy
	locks    *keylock.Map[model.GameID]
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new game Controller. locks must be the same map
// handed to the lobby controller.
func NewController(
	storage storage.Storage,
	strategy targeting.Strategy,
	locks *keylock.Map[model.GameID],
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		strategy: strategy,
		locks:    locks,
		clock:    clock,
		logger:   logger.With(slog.String("component", "game")),
	}
}

// ResolveAttack fires at target for attacker and persists the result.
// When the attack ends the game the attacker's name is credited a win.
func (c *Controller) ResolveAttack(
	ctx context.Context,
	gameID model.GameID,
	attacker model.PlayerID,
	target model.Coordinate,
) (*model.AttackOutcome, error) {
	unlock := c.locks.Lock(gameID)
	defer unlock()

	room, err := c.loadActive(ctx, gameID, attacker)
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, room, gameID, attacker, target)
}

// RandomAttack picks a target for attacker and resolves it as one step,
// so no concurrent attack can take the picked cell in between
func (c *Controller) RandomAttack(
	ctx context.Context,
	gameID model.GameID,
	attacker model.PlayerID,
) (*model.AttackOutcome, error) {
	unlock := c.locks.Lock(gameID)
	defer unlock()

	room, err := c.loadActive(ctx, gameID, attacker)
	if err != nil {
		return nil, err
	}
	target, err := c.pickTarget(room, attacker)
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, room, gameID, attacker, target)
}

// PickRandomTarget returns an unattacked coordinate for playerID without
// firing at it
func (c *Controller) PickRandomTarget(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (model.Coordinate, error) {
	unlock := c.locks.Lock(gameID)
	defer unlock()

	room, err := c.storage.GetRoomByGame(ctx, gameID)
	if err != nil {
		return model.Coordinate{}, err
	}
	return c.pickTarget(room, playerID)
}

// pickTarget must be called with the game lock held
func (c *Controller) pickTarget(room *model.Room, playerID model.PlayerID) (model.Coordinate, error) {
	board := room.BoardOf(playerID)
	if board == nil {
		return model.Coordinate{}, model.ErrBoardNotFound
	}
	target, ok := c.strategy.PickTarget(board)
	if !ok {
		return model.Coordinate{}, model.ErrNoFreeCells
	}
	return target, nil
}

// GetGame returns the room hosting gameID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Room, error) {
	return c.storage.GetRoomByGame(ctx, gameID)
}

// ListWinners returns the winners table, most wins first
func (c *Controller) ListWinners(ctx context.Context) ([]model.Winner, error) {
	winners, err := c.storage.ListWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	return winners, nil
}

// loadActive fetches the room and checks both fleets are in play
func (c *Controller) loadActive(ctx context.Context, gameID model.GameID, attacker model.PlayerID) (*model.Room, error) {
	room, err := c.storage.GetRoomByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if room.BoardOf(attacker) == nil || room.OpposingBoard(attacker) == nil {
		return nil, fmt.Errorf("game %d player %d: %w", gameID, attacker, model.ErrBoardNotFound)
	}
	if room.State() == model.GameStateFinished {
		return nil, model.ErrGameFinished
	}
	return room, nil
}

func (c *Controller) resolve(
	ctx context.Context,
	room *model.Room,
	gameID model.GameID,
	attacker model.PlayerID,
	target model.Coordinate,
) (*model.AttackOutcome, error) {
	board := room.BoardOf(attacker)
	opposing := room.OpposingBoard(attacker)

	outcome := Resolve(board, opposing.Ships, target)
	outcome.GameID = gameID
	outcome.NextPlayer, _ = NextTurn(room, attacker, outcome.Status)
	if outcome.IsGameOver {
		room.Winner = &attacker
	}
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %d: %w", room.RoomID, err)
	}

	c.logger.Debug("attack resolved",
		slog.Int("game_id", int(gameID)),
		slog.Int("player_id", int(attacker)),
		slog.Int("x", target.X),
		slog.Int("y", target.Y),
		slog.String("status", string(outcome.Status)),
	)

	if outcome.IsGameOver {
		c.recordWin(ctx, room, gameID, attacker)
	}
	return &outcome, nil
}

// recordWin credits the winner's name. A failed write is logged and the
// game still ends.
func (c *Controller) recordWin(ctx context.Context, room *model.Room, gameID model.GameID, winner model.PlayerID) {
	user := room.GetUser(winner)
	if user == nil {
		return
	}
	wins, err := c.storage.IncrementWinner(ctx, user.Name)
	if err != nil {
		c.logger.Error("failed to record win",
			slog.Int("game_id", int(gameID)),
			slog.String("name", user.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Info("game over",
		slog.Int("game_id", int(gameID)),
		slog.String("winner", user.Name),
		slog.Int("wins", wins),
	)
}
