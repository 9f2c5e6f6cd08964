package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Rooms are cloned on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	players   map[model.PlayerID]*model.RegisteredPlayer
	nameIndex map[string]model.PlayerID
	rooms     map[model.RoomID]*model.Room
	gameIndex map[model.GameID]model.RoomID
	winners   map[string]int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:   make(map[model.PlayerID]*model.RegisteredPlayer),
		nameIndex: make(map[string]model.PlayerID),
		rooms:     make(map[model.RoomID]*model.Room),
		gameIndex: make(map[model.GameID]model.RoomID),
		winners:   make(map[string]int),
	}
}

var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nameIndex[player.Name]; ok {
		return model.ErrNameTaken
	}
	if _, ok := s.players[player.ID]; ok {
		return model.ErrPlayerIDTaken
	}
	p := *player
	s.players[p.ID] = &p
	s.nameIndex[p.Name] = p.ID
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[name]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *s.players[id]
	return &p, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = room.Clone()
	if room.GameID != nil {
		s.gameIndex[*room.GameID] = room.RoomID
	}
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) GetRoomByGame(ctx context.Context, gameID model.GameID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.gameIndex[gameID]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return s.rooms[roomID].Clone(), nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms, nil
}

// Winner operations

func (s *Storage) ListWinners(ctx context.Context) ([]model.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	winners := make([]model.Winner, 0, len(s.winners))
	for name, wins := range s.winners {
		winners = append(winners, model.Winner{Name: name, Wins: wins})
	}
	model.SortWinners(winners)
	return winners, nil
}

func (s *Storage) IncrementWinner(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.winners[name]++
	return s.winners[name], nil
}

func (s *Storage) Watermarks(ctx context.Context) (storage.Watermarks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var w storage.Watermarks
	for id := range s.players {
		w.PlayerID = max(w.PlayerID, id)
	}
	for id := range s.rooms {
		w.RoomID = max(w.RoomID, id)
	}
	for id := range s.gameIndex {
		w.GameID = max(w.GameID, id)
	}
	return w, nil
}
