package targeting

import "github.com/mcoot/seabattle/internal/model"

// Strategy chooses where an automated attack lands
type Strategy interface {
	// PickTarget returns a coordinate the board's owner has not fired at,
	// or false when there is none
	PickTarget(board *model.FleetBoard) (model.Coordinate, bool)
}
