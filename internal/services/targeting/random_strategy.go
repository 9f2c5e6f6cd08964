package targeting

import (
	"github.com/mcoot/seabattle/internal/dependencies/random"
	"github.com/mcoot/seabattle/internal/model"
)

// MaxRandomDraws bounds rejection sampling before falling back to a
// direct pick among the free cells
const MaxRandomDraws = 64

// RandomStrategy picks uniformly among unattacked cells
type RandomStrategy struct {
	random random.Random
}

var _ Strategy = (*RandomStrategy)(nil)

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// PickTarget draws x and y independently from [0, BoardSize) and retries
// on collision. Once MaxRandomDraws collide it picks from the free cells.
func (s *RandomStrategy) PickTarget(board *model.FleetBoard) (model.Coordinate, bool) {
	if board == nil || board.Exhausted() {
		return model.Coordinate{}, false
	}

	fired := board.Fired()
	for i := 0; i < MaxRandomDraws; i++ {
		c := model.Coordinate{
			X: s.random.Intn(model.BoardSize),
			Y: s.random.Intn(model.BoardSize),
		}
		if !fired.Contains(c) {
			return c, true
		}
	}

	free := board.FreeCells()
	if len(free) == 0 {
		return model.Coordinate{}, false
	}
	return free[s.random.Intn(len(free))], true
}
