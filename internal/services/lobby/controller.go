package lobby

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/dependencies/keylock"
	"github.com/mcoot/seabattle/internal/dependencies/sequence"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Controller manages room matchmaking and fleet submission
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	// mu guards room create/join read-modify-write
	mu sync.Mutex
	// gameLocks is shared with the game controller so fleet submission
	// and attack resolution never interleave on the same room
	gameLocks *keylock.Map[model.GameID]

	roomIDs *sequence.Sequence
	gameIDs *sequence.Sequence
}

// NewController creates a new lobby Controller
func NewController(
	storage storage.Storage,
	gameLocks *keylock.Map[model.GameID],
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		clock:     clock,
		logger:    logger.With(slog.String("component", "lobby")),
		gameLocks: gameLocks,
		roomIDs:   sequence.New(),
		gameIDs:   sequence.New(),
	}
}

// ResumeIDs moves the room and game id sequences past anything already
// persisted, so a restart against a durable store never reuses an id
func (c *Controller) ResumeIDs(ctx context.Context) error {
	w, err := c.storage.Watermarks(ctx)
	if err != nil {
		return fmt.Errorf("read watermarks: %w", err)
	}
	c.roomIDs.ResumeAfter(int(w.RoomID))
	c.gameIDs.ResumeAfter(int(w.GameID))
	return nil
}

// CreateRoom creates a room with player as its only occupant
func (c *Controller) CreateRoom(ctx context.Context, player *model.Player) (*model.Room, error) {
	if player == nil {
		return nil, model.ErrNoPlayer
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	room := &model.Room{
		RoomID: model.RoomID(c.roomIDs.Next()),
		RoomUsers: []model.RoomUser{
			{Index: player.ID, Name: player.Name},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %d: %w", room.RoomID, err)
	}

	c.logger.Info("created room",
		slog.Int("room_id", int(room.RoomID)),
		slog.Int("player_id", int(player.ID)),
	)
	return room, nil
}

// JoinRoom adds player as the second occupant and stamps a new game id on
// the room. A full room is left untouched.
func (c *Controller) JoinRoom(ctx context.Context, roomID model.RoomID, player *model.Player) (*model.Room, error) {
	if player == nil {
		return nil, model.ErrNoPlayer
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}
	if room.GetUser(player.ID) != nil {
		return nil, model.ErrAlreadyInRoom
	}

	gameID := model.GameID(c.gameIDs.Next())
	room.RoomUsers = append(room.RoomUsers, model.RoomUser{Index: player.ID, Name: player.Name})
	room.GameID = &gameID
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room %d: %w", room.RoomID, err)
	}

	c.logger.Info("player joined room",
		slog.Int("room_id", int(room.RoomID)),
		slog.Int("player_id", int(player.ID)),
		slog.Int("game_id", int(gameID)),
	)
	return room, nil
}

// GetRoom retrieves a room by id
func (c *Controller) GetRoom(ctx context.Context, roomID model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, roomID)
}

// ListOpenRooms returns every room waiting for a second occupant
func (c *Controller) ListOpenRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	open := make([]*model.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.IsOpen() {
			open = append(open, room)
		}
	}
	return open, nil
}

// RoomIDsForPlayer returns the ids of every room the player occupies
func (c *Controller) RoomIDsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomID, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	var ids []model.RoomID
	for _, room := range rooms {
		if room.GetUser(playerID) != nil {
			ids = append(ids, room.RoomID)
		}
	}
	return ids, nil
}

// SubmitFleet attaches board to its owner's slot in the room hosting
// board.GameID, resetting Hits. The returned room reflects the state
// immediately after this submission. ready is the game-start gate,
// evaluated under the game lock so concurrent submissions see it in turn.
func (c *Controller) SubmitFleet(ctx context.Context, board model.FleetBoard) (room *model.Room, ready bool, err error) {
	unlock := c.gameLocks.Lock(board.GameID)
	defer unlock()

	room, err = c.storage.GetRoomByGame(ctx, board.GameID)
	if err != nil {
		return nil, false, err
	}

	user := room.GetUser(board.IndexPlayer)
	if user == nil {
		return nil, false, fmt.Errorf("player %d in game %d: %w", board.IndexPlayer, board.GameID, model.ErrPlayerNotFound)
	}

	submitted := board.Clone()
	submitted.Hits = []model.Coordinate{}
	user.GameBoard = submitted
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, false, fmt.Errorf("save room %d: %w", room.RoomID, err)
	}

	c.logger.Info("fleet submitted",
		slog.Int("game_id", int(board.GameID)),
		slog.Int("player_id", int(board.IndexPlayer)),
		slog.Int("ships", len(board.Ships)),
	)
	return room, bothFleetsSubmitted(room), nil
}

// bothFleetsSubmitted reports whether a full room has a board from every occupant
func bothFleetsSubmitted(room *model.Room) bool {
	return room.IsFull() && room.BothBoardsSubmitted()
}
