package game

import "github.com/mcoot/seabattle/internal/model"

// FirstTurn returns who opens a game: the player whose fleet submission
// completed the pair
func FirstTurn(submitter model.PlayerID) model.PlayerID {
	return submitter
}

// NextTurn returns who fires after an attack. A hit or kill keeps the
// turn; a miss hands it to the other occupant. ok is false when the room
// has no other occupant.
func NextTurn(room *model.Room, attacker model.PlayerID, status model.AttackStatus) (next model.PlayerID, ok bool) {
	if status != model.AttackMiss {
		return attacker, true
	}
	opponent := room.Opponent(attacker)
	if opponent == nil {
		return 0, false
	}
	return opponent.Index, true
}
