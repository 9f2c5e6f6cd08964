package storage

import (
	"context"

	"github.com/mcoot/seabattle/internal/model"
)

// Watermarks are the highest identifiers persisted so far. Id generators
// resume above them after a restart.
type Watermarks struct {
	PlayerID model.PlayerID
	RoomID   model.RoomID
	GameID   model.GameID
}

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations

	// SavePlayer stores a new player. It fails with model.ErrNameTaken if the
	// name is already registered and model.ErrPlayerIDTaken if the id is;
	// the existing record is never overwritten.
	SavePlayer(ctx context.Context, player *model.RegisteredPlayer) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.RegisteredPlayer, error)
	GetPlayerByName(ctx context.Context, name string) (*model.RegisteredPlayer, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByGame(ctx context.Context, gameID model.GameID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]*model.Room, error) // ordered by RoomID

	// Winner operations
	ListWinners(ctx context.Context) ([]model.Winner, error) // most wins first, then by name
	IncrementWinner(ctx context.Context, name string) (int, error)

	Watermarks(ctx context.Context) (Watermarks, error)
}
