package model

// AttackStatus is the result of a single resolved shot
type AttackStatus string

const (
	AttackMiss   AttackStatus = "miss"
	AttackShot   AttackStatus = "shot"
	AttackKilled AttackStatus = "killed"
)

// AttackOutcome is the complete result of resolving one attack
type AttackOutcome struct {
	GameID      GameID
	Attacker    PlayerID
	Target      Coordinate
	Status      AttackStatus
	MissedCells []Coordinate // perimeter revealed by a kill, nil otherwise
	IsGameOver  bool
	NextPlayer  PlayerID // whose turn follows this attack
}

// KeepsTurn returns true if the attacker fires again after this outcome
func (o *AttackOutcome) KeepsTurn() bool {
	return o.Status == AttackShot || o.Status == AttackKilled
}
