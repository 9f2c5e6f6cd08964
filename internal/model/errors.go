package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoPlayer       = errors.New("no registered player on this connection")
	ErrNameTaken      = errors.New("player name already registered")
	ErrPlayerIDTaken  = errors.New("player id already assigned")

	// Room errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is already full")
	ErrAlreadyInRoom = errors.New("player already in room")

	// Game errors
	ErrGameNotFound  = errors.New("game not found")
	ErrGameFinished  = errors.New("game already finished")
	ErrBoardNotFound = errors.New("board not found")
	ErrNoFreeCells   = errors.New("no unattacked cells remain")
)
