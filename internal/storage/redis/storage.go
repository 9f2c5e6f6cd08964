package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and verifies the connection
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.RegisteredPlayer) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, playerNameKey(player.Name), int(player.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrNameTaken
	}

	claimed, err = s.client.SetNX(ctx, playerKey(player.ID), data, 0).Result()
	if err != nil || !claimed {
		// Release the name so the record stays unregistered
		if delErr := s.client.Del(ctx, playerNameKey(player.Name)).Err(); delErr != nil && err == nil {
			err = delErr
		}
		if err != nil {
			return err
		}
		return model.ErrPlayerIDTaken
	}

	return s.client.ZAdd(ctx, playersKey(), redis.Z{Score: float64(player.ID), Member: int(player.ID)}).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.RegisteredPlayer
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, name string) (*model.RegisteredPlayer, error) {
	id, err := s.client.Get(ctx, playerNameKey(name)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayer(ctx, model.PlayerID(id))
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(room.RoomID), data, s.cfg.RoomTTL)
		pipe.ZAdd(ctx, roomsKey(), redis.Z{Score: float64(room.RoomID), Member: int(room.RoomID)})
		if room.GameID != nil {
			pipe.Set(ctx, roomByGameKey(*room.GameID), int(room.RoomID), s.cfg.RoomTTL)
			pipe.ZAdd(ctx, gamesKey(), redis.Z{Score: float64(*room.GameID), Member: int(*room.GameID)})
		}
		return nil
	})
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) GetRoomByGame(ctx context.Context, gameID model.GameID) (*model.Room, error) {
	roomID, err := s.client.Get(ctx, roomByGameKey(gameID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	room, err := s.GetRoom(ctx, model.RoomID(roomID))
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil, model.ErrGameNotFound
	}
	return room, err
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	ids, err := s.client.ZRange(ctx, roomsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("room index entry %q: %w", raw, err)
		}
		keys = append(keys, roomKey(model.RoomID(id)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	for _, v := range values {
		// Expired rooms linger in the index
		str, ok := v.(string)
		if !ok {
			continue
		}
		var room model.Room
		if err := json.Unmarshal([]byte(str), &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}
	return rooms, nil
}

// Winner operations

func (s *Storage) ListWinners(ctx context.Context) ([]model.Winner, error) {
	tally, err := s.client.HGetAll(ctx, winnersKey()).Result()
	if err != nil {
		return nil, err
	}

	winners := make([]model.Winner, 0, len(tally))
	for name, raw := range tally {
		wins, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("wins for %q: %w", name, err)
		}
		winners = append(winners, model.Winner{Name: name, Wins: wins})
	}
	model.SortWinners(winners)
	return winners, nil
}

func (s *Storage) IncrementWinner(ctx context.Context, name string) (int, error) {
	wins, err := s.client.HIncrBy(ctx, winnersKey(), name, 1).Result()
	if err != nil {
		return 0, err
	}
	return int(wins), nil
}

func (s *Storage) Watermarks(ctx context.Context) (storage.Watermarks, error) {
	var w storage.Watermarks

	playerID, err := s.highestScore(ctx, playersKey())
	if err != nil {
		return w, err
	}
	roomID, err := s.highestScore(ctx, roomsKey())
	if err != nil {
		return w, err
	}
	gameID, err := s.highestScore(ctx, gamesKey())
	if err != nil {
		return w, err
	}

	w.PlayerID = model.PlayerID(playerID)
	w.RoomID = model.RoomID(roomID)
	w.GameID = model.GameID(gameID)
	return w, nil
}

// highestScore returns the top score in a ZSET, or 0 when empty
func (s *Storage) highestScore(ctx context.Context, key string) (int, error) {
	top, err := s.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, err
	}
	if len(top) == 0 {
		return 0, nil
	}
	return int(top[0].Score), nil
}
