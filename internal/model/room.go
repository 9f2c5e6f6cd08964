package model

import "time"

// RoomID identifies a matchmaking room
type RoomID int

// GameID identifies the game played in a full room
type GameID int

// RoomCapacity is the number of occupants a room holds once full
const RoomCapacity = 2

// GameState is the lifecycle phase of the game inside a room
type GameState string

const (
	GameStateForming        GameState = "forming"         // 0-1 occupants
	GameStateAwaitingBoards GameState = "awaiting_boards" // full, fleets not all submitted
	GameStateActive         GameState = "active"          // both fleets submitted
	GameStateFinished       GameState = "finished"        // one fleet fully sunk
)

// RoomUser is an occupant slot in a room
type RoomUser struct {
	Index     PlayerID
	Name      string
	GameBoard *FleetBoard // nil until the player submits ships
}

// Room represents a two-slot matchmaking unit and, once full, its game
type Room struct {
	RoomID    RoomID
	RoomUsers []RoomUser
	GameID    *GameID   // nil until the room fills
	Winner    *PlayerID // set by the attack that sinks the last ship
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen returns true if the room is waiting for a second occupant
func (r *Room) IsOpen() bool {
	return len(r.RoomUsers) == 1
}

// IsFull returns true if the room cannot accept another occupant
func (r *Room) IsFull() bool {
	return len(r.RoomUsers) >= RoomCapacity
}

// GetUser returns the occupant with the given player ID, or nil if not found
func (r *Room) GetUser(playerID PlayerID) *RoomUser {
	for i := range r.RoomUsers {
		if r.RoomUsers[i].Index == playerID {
			return &r.RoomUsers[i]
		}
	}
	return nil
}

// Opponent returns the first occupant that is not playerID, or nil
func (r *Room) Opponent(playerID PlayerID) *RoomUser {
	for i := range r.RoomUsers {
		if r.RoomUsers[i].Index != playerID {
			return &r.RoomUsers[i]
		}
	}
	return nil
}

// BoardOf returns the fleet board submitted by playerID, or nil
func (r *Room) BoardOf(playerID PlayerID) *FleetBoard {
	for i := range r.RoomUsers {
		board := r.RoomUsers[i].GameBoard
		if board != nil && board.IndexPlayer == playerID {
			return board
		}
	}
	return nil
}

// OpposingBoard returns the first submitted board not owned by playerID, or nil
func (r *Room) OpposingBoard(playerID PlayerID) *FleetBoard {
	for i := range r.RoomUsers {
		board := r.RoomUsers[i].GameBoard
		if board != nil && board.IndexPlayer != playerID {
			return board
		}
	}
	return nil
}

// BothBoardsSubmitted returns true if every occupant has a fleet board
func (r *Room) BothBoardsSubmitted() bool {
	if len(r.RoomUsers) == 0 {
		return false
	}
	for _, u := range r.RoomUsers {
		if u.GameBoard == nil {
			return false
		}
	}
	return true
}

// State derives the game lifecycle phase from the room contents
func (r *Room) State() GameState {
	if !r.IsFull() {
		return GameStateForming
	}
	if r.Winner != nil {
		return GameStateFinished
	}
	if !r.BothBoardsSubmitted() {
		return GameStateAwaitingBoards
	}
	return GameStateActive
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	clone := *r
	clone.RoomUsers = make([]RoomUser, len(r.RoomUsers))
	for i, u := range r.RoomUsers {
		u.GameBoard = u.GameBoard.Clone()
		clone.RoomUsers[i] = u
	}
	if r.GameID != nil {
		id := *r.GameID
		clone.GameID = &id
	}
	if r.Winner != nil {
		winner := *r.Winner
		clone.Winner = &winner
	}
	return &clone
}
