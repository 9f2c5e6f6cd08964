package response

import (
	"time"

	"github.com/mcoot/seabattle/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// Player represents a player in API responses
type Player struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:        int(p.ID),
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

// RoomUser represents a room occupant. Ship placements are never exposed.
type RoomUser struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	ShipsSubmitted bool   `json:"ships_submitted"`
	ShotsFired     int    `json:"shots_fired"`
}

// Room represents a room and the state of its game
type Room struct {
	RoomID    int        `json:"room_id"`
	GameID    *int       `json:"game_id"`
	State     string     `json:"state"`
	Users     []RoomUser `json:"users"`
	Winner    *int       `json:"winner"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	users := make([]RoomUser, 0, len(r.RoomUsers))
	for _, u := range r.RoomUsers {
		user := RoomUser{Index: int(u.Index), Name: u.Name}
		if u.GameBoard != nil {
			user.ShipsSubmitted = true
			user.ShotsFired = len(u.GameBoard.Hits)
		}
		users = append(users, user)
	}

	resp := Room{
		RoomID:    int(r.RoomID),
		State:     string(r.State()),
		Users:     users,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.GameID != nil {
		id := int(*r.GameID)
		resp.GameID = &id
	}
	if r.Winner != nil {
		w := int(*r.Winner)
		resp.Winner = &w
	}
	return resp
}

// RoomsFromModel converts a list of rooms
func RoomsFromModel(rooms []*model.Room) []Room {
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomFromModel(r))
	}
	return out
}

// Winner is one row of the winners table
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// WinnersFromModel converts the winners table
func WinnersFromModel(winners []model.Winner) []Winner {
	out := make([]Winner, 0, len(winners))
	for _, w := range winners {
		out = append(out, Winner{Name: w.Name, Wins: w.Wins})
	}
	return out
}
