// Package sqlite provides a SQLite-backed storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
	"github.com/mcoot/seabattle/internal/storage/sqlite/migrations"
)

// Store persists players, rooms and the winners table in SQLite
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies embedded migrations
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer keeps busy errors away under concurrent commands
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ storage.Storage = (*Store)(nil)

// Player operations

func (s *Store) SavePlayer(ctx context.Context, player *model.RegisteredPlayer) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		int(player.ID), player.Name, player.PasswordHash, toMillis(player.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Either the name or the id collided
	var nameTaken bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM players WHERE name = ?)`, player.Name,
	).Scan(&nameTaken); err != nil {
		return fmt.Errorf("check player name: %w", err)
	}
	if nameTaken {
		return model.ErrNameTaken
	}
	return model.ErrPlayerIDTaken
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.RegisteredPlayer, error) {
	return s.scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, created_at FROM players WHERE id = ?`, int(id)))
}

func (s *Store) GetPlayerByName(ctx context.Context, name string) (*model.RegisteredPlayer, error) {
	return s.scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, created_at FROM players WHERE name = ?`, name))
}

func (s *Store) scanPlayer(row *sql.Row) (*model.RegisteredPlayer, error) {
	var (
		player    model.RegisteredPlayer
		id        int
		createdAt int64
	)
	if err := row.Scan(&id, &player.Name, &player.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	player.ID = model.PlayerID(id)
	player.CreatedAt = fromMillis(createdAt)
	return &player, nil
}

// Room operations

func (s *Store) SaveRoom(ctx context.Context, room *model.Room) error {
	payload, err := json.Marshal(room)
	if err != nil {
		return err
	}
	var gameID sql.NullInt64
	if room.GameID != nil {
		gameID = sql.NullInt64{Int64: int64(*room.GameID), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, game_id, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   game_id = excluded.game_id,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		int(room.RoomID), gameID, string(payload), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := scanRoom(s.db.QueryRowContext(ctx, `SELECT payload FROM rooms WHERE id = ?`, int(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoomNotFound
	}
	return room, err
}

func (s *Store) GetRoomByGame(ctx context.Context, gameID model.GameID) (*model.Room, error) {
	room, err := scanRoom(s.db.QueryRowContext(ctx, `SELECT payload FROM rooms WHERE game_id = ?`, int(gameID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	return room, err
}

func (s *Store) ListRooms(ctx context.Context) ([]*model.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*model.Room, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal([]byte(payload), &room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return &room, nil
}

// Winner operations

func (s *Store) ListWinners(ctx context.Context) ([]model.Winner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, wins FROM winners ORDER BY wins DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	defer rows.Close()

	winners := []model.Winner{}
	for rows.Next() {
		var w model.Winner
		if err := rows.Scan(&w.Name, &w.Wins); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

func (s *Store) IncrementWinner(ctx context.Context, name string) (int, error) {
	var wins int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO winners (name, wins) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET wins = wins + 1
		 RETURNING wins`,
		name,
	).Scan(&wins)
	if err != nil {
		return 0, fmt.Errorf("increment winner: %w", err)
	}
	return wins, nil
}

func (s *Store) Watermarks(ctx context.Context) (storage.Watermarks, error) {
	var playerID, roomID, gameID int
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COALESCE(MAX(id), 0) FROM players),
		(SELECT COALESCE(MAX(id), 0) FROM rooms),
		(SELECT COALESCE(MAX(game_id), 0) FROM rooms)`,
	).Scan(&playerID, &roomID, &gameID)
	if err != nil {
		return storage.Watermarks{}, fmt.Errorf("read watermarks: %w", err)
	}
	return storage.Watermarks{
		PlayerID: model.PlayerID(playerID),
		RoomID:   model.RoomID(roomID),
		GameID:   model.GameID(gameID),
	}, nil
}
