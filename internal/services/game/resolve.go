package game

import "github.com/mcoot/seabattle/internal/model"

// Resolve fires at target on behalf of attacker against the opposing
// fleet, recording every resolved coordinate on attacker.Hits.
//
// Ships are checked in placement order. The target sinks a ship when it
// is the last of that ship's cells not yet fired at; the ship's perimeter
// is then recorded too. A target that matches no remaining cell, including
// a repeat, is a miss.
func Resolve(attacker *model.FleetBoard, opposing []model.Ship, target model.Coordinate) model.AttackOutcome {
	outcome := model.AttackOutcome{
		Attacker: attacker.IndexPlayer,
		Target:   target,
		Status:   model.AttackMiss,
	}

	fired := attacker.Fired()
	for _, ship := range opposing {
		remaining := model.RemainingCells(ship, fired)
		if !model.NewCoordinateSet(remaining).Contains(target) {
			continue
		}
		if len(remaining) == 1 {
			outcome.Status = model.AttackKilled
			outcome.MissedCells = ship.Perimeter()
			attacker.RecordShots(outcome.MissedCells...)
		} else {
			outcome.Status = model.AttackShot
		}
		break
	}

	attacker.RecordShots(target)
	outcome.IsGameOver = model.FleetSunk(opposing, attacker.Fired())
	return outcome
}
