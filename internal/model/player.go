package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID int

// Player represents a game participant
type Player struct {
	ID        PlayerID
	Name      string
	CreatedAt time.Time
}

// RegisteredPlayer extends Player with the secret checked on login
type RegisteredPlayer struct {
	Player
	PasswordHash string // bcrypt hash
}
