package redis

import (
	"fmt"

	"github.com/mcoot/seabattle/internal/model"
)

const keyPrefix = "seabattle"

// playerKey holds a RegisteredPlayer as JSON
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// playerNameKey maps a player name to its id; written with SETNX
func playerNameKey(name string) string {
	return fmt.Sprintf("%s:idx:player_name:%s", keyPrefix, name)
}

// playersKey is a ZSET of player ids scored by id
func playersKey() string {
	return keyPrefix + ":idx:players"
}

// roomKey holds a Room as JSON
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%d", keyPrefix, id)
}

// roomsKey is a ZSET of room ids scored by id
func roomsKey() string {
	return keyPrefix + ":idx:rooms"
}

// roomByGameKey maps a game id to the room that hosts it
func roomByGameKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:room_by_game:%d", keyPrefix, gameID)
}

// gamesKey is a ZSET of game ids scored by id
func gamesKey() string {
	return keyPrefix + ":idx:games"
}

// winnersKey is a HASH of player name to win count
func winnersKey() string {
	return keyPrefix + ":winners"
}
