package model

// BoardSize is the grid dimension; every board is BoardSize x BoardSize
const BoardSize = 10

// Coordinate identifies a cell on the board
type Coordinate struct {
	X int // 0-indexed from left
	Y int // 0-indexed from top
}

// OnBoard returns true if the coordinate is within the grid
func (c Coordinate) OnBoard() bool {
	return c.X >= 0 && c.X < BoardSize && c.Y >= 0 && c.Y < BoardSize
}

// ShipKind is the size tier of a ship
type ShipKind string

const (
	ShipSmall  ShipKind = "small"  // 1 cell
	ShipMedium ShipKind = "medium" // 2 cells
	ShipLarge  ShipKind = "large"  // 3 cells
	ShipHuge   ShipKind = "huge"   // 4 cells
)

// Ship is one placement in a fleet. No bounds or overlap checks are applied.
type Ship struct {
	Position  Coordinate
	Direction bool // true = vertical (extends along Y), false = horizontal
	Length    int
	Type      ShipKind
}

// Cells returns every cell the ship occupies, starting at Position
func (s Ship) Cells() []Coordinate {
	cells := make([]Coordinate, 0, s.Length)
	for i := 0; i < s.Length; i++ {
		if s.Direction {
			cells = append(cells, Coordinate{X: s.Position.X, Y: s.Position.Y + i})
		} else {
			cells = append(cells, Coordinate{X: s.Position.X + i, Y: s.Position.Y})
		}
	}
	return cells
}

// Perimeter returns the water around a ship: both flanks including the
// diagonal corners, followed by the cell just past each end. Cells off the
// board are kept so that clients receive the full ring.
func (s Ship) Perimeter() []Coordinate {
	x, y := s.Position.X, s.Position.Y
	cells := make([]Coordinate, 0, 2*(s.Length+2)+2)

	if s.Direction {
		for i := -1; i <= s.Length; i++ {
			cells = append(cells,
				Coordinate{X: x - 1, Y: y + i},
				Coordinate{X: x + 1, Y: y + i},
			)
		}
		return append(cells,
			Coordinate{X: x, Y: y - 1},
			Coordinate{X: x, Y: y + s.Length},
		)
	}

	for i := -1; i <= s.Length; i++ {
		cells = append(cells,
			Coordinate{X: x + i, Y: y - 1},
			Coordinate{X: x + i, Y: y + 1},
		)
	}
	return append(cells,
		Coordinate{X: x - 1, Y: y},
		Coordinate{X: x + s.Length, Y: y},
	)
}

// CoordinateSet is a lookup set of coordinates
type CoordinateSet map[Coordinate]struct{}

// NewCoordinateSet builds a set from a list, collapsing duplicates
func NewCoordinateSet(coords []Coordinate) CoordinateSet {
	set := make(CoordinateSet, len(coords))
	for _, c := range coords {
		set[c] = struct{}{}
	}
	return set
}

// Contains returns true if c is in the set
func (s CoordinateSet) Contains(c Coordinate) bool {
	_, ok := s[c]
	return ok
}

// RemainingCells returns the ship's cells not present in fired
func RemainingCells(ship Ship, fired CoordinateSet) []Coordinate {
	var remaining []Coordinate
	for _, cell := range ship.Cells() {
		if !fired.Contains(cell) {
			remaining = append(remaining, cell)
		}
	}
	return remaining
}

// FleetSunk returns true if every cell of every ship is in fired
func FleetSunk(ships []Ship, fired CoordinateSet) bool {
	for _, ship := range ships {
		if len(RemainingCells(ship, fired)) > 0 {
			return false
		}
	}
	return true
}

// FleetBoard is one player's ship layout for a game plus the coordinates
// that player has fired at the opponent (Hits)
type FleetBoard struct {
	GameID      GameID
	IndexPlayer PlayerID
	Ships       []Ship
	Hits        []Coordinate
}

// Fired returns the set of coordinates already resolved by this player
func (b *FleetBoard) Fired() CoordinateSet {
	return NewCoordinateSet(b.Hits)
}

// RecordShots appends resolved coordinates to Hits. Coordinates already
// present are skipped so Hits stays a set.
func (b *FleetBoard) RecordShots(coords ...Coordinate) {
	fired := b.Fired()
	for _, c := range coords {
		if fired.Contains(c) {
			continue
		}
		fired[c] = struct{}{}
		b.Hits = append(b.Hits, c)
	}
}

// FreeCells returns every on-board cell this player has not fired at, in row-major order
func (b *FleetBoard) FreeCells() []Coordinate {
	fired := b.Fired()
	var free []Coordinate
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			c := Coordinate{X: x, Y: y}
			if !fired.Contains(c) {
				free = append(free, c)
			}
		}
	}
	return free
}

// Exhausted returns true once all BoardSize*BoardSize cells have been fired at
func (b *FleetBoard) Exhausted() bool {
	count := 0
	for _, c := range b.Hits {
		if c.OnBoard() {
			count++
		}
	}
	return count >= BoardSize*BoardSize
}

// Clone returns a deep copy of the board
func (b *FleetBoard) Clone() *FleetBoard {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Ships = append([]Ship(nil), b.Ships...)
	clone.Hits = append([]Coordinate(nil), b.Hits...)
	return &clone
}
