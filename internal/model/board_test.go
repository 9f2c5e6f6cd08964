package model

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BoardSuite struct {
	suite.Suite
}

func TestBoardSuite(t *testing.T) {
	suite.Run(t, new(BoardSuite))
}

// Cells tests

func (s *BoardSuite) TestCellsHorizontal() {
	ship := Ship{Position: Coordinate{X: 2, Y: 3}, Length: 3, Type: ShipLarge}
	s.Equal([]Coordinate{{2, 3}, {3, 3}, {4, 3}}, ship.Cells())
}

func (s *BoardSuite) TestCellsVertical() {
	ship := Ship{Position: Coordinate{X: 2, Y: 3}, Direction: true, Length: 2, Type: ShipMedium}
	s.Equal([]Coordinate{{2, 3}, {2, 4}}, ship.Cells())
}

// Perimeter tests

func (s *BoardSuite) TestPerimeterSingleCellAtOrigin() {
	ship := Ship{Position: Coordinate{X: 0, Y: 0}, Length: 1, Type: ShipSmall}

	perimeter := ship.Perimeter()
	s.Len(perimeter, 8)
	s.ElementsMatch([]Coordinate{
		{-1, -1}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 1},
		{-1, 0}, {1, 0},
	}, perimeter)
}

func (s *BoardSuite) TestPerimeterVerticalOrder() {
	ship := Ship{Position: Coordinate{X: 4, Y: 4}, Direction: true, Length: 2, Type: ShipMedium}

	s.Equal([]Coordinate{
		{3, 3}, {5, 3},
		{3, 4}, {5, 4},
		{3, 5}, {5, 5},
		{3, 6}, {5, 6},
		{4, 3}, {4, 6},
	}, ship.Perimeter())
}

func (s *BoardSuite) TestPerimeterSizeForEveryLength() {
	for length := 1; length <= 4; length++ {
		for _, vertical := range []bool{true, false} {
			ship := Ship{Position: Coordinate{X: 5, Y: 5}, Direction: vertical, Length: length}
			perimeter := ship.Perimeter()
			s.Len(perimeter, 2*(length+2)+2)

			cells := NewCoordinateSet(ship.Cells())
			for _, c := range perimeter {
				s.False(cells.Contains(c), "perimeter overlaps ship at %v", c)
			}
			s.Len(NewCoordinateSet(perimeter), len(perimeter), "perimeter has duplicates")
		}
	}
}

// RemainingCells / FleetSunk tests

func (s *BoardSuite) TestRemainingCells() {
	ship := Ship{Position: Coordinate{X: 0, Y: 0}, Length: 3}
	fired := NewCoordinateSet([]Coordinate{{0, 0}, {2, 0}, {9, 9}})

	s.Equal([]Coordinate{{1, 0}}, RemainingCells(ship, fired))
}

func (s *BoardSuite) TestFleetSunk() {
	ships := []Ship{
		{Position: Coordinate{X: 0, Y: 0}, Length: 1},
		{Position: Coordinate{X: 3, Y: 3}, Direction: true, Length: 2},
	}

	s.False(FleetSunk(ships, NewCoordinateSet([]Coordinate{{0, 0}, {3, 3}})))
	s.True(FleetSunk(ships, NewCoordinateSet([]Coordinate{{0, 0}, {3, 3}, {3, 4}})))
}

func (s *BoardSuite) TestFleetSunkEmptyFleet() {
	s.True(FleetSunk(nil, CoordinateSet{}))
}

// FleetBoard tests

func (s *BoardSuite) TestFreeCellsExcludesFired() {
	board := &FleetBoard{Hits: []Coordinate{{0, 0}, {1, 0}, {-1, 0}}}

	free := board.FreeCells()
	s.Len(free, BoardSize*BoardSize-2)
	s.Equal(Coordinate{X: 2, Y: 0}, free[0])
}

func (s *BoardSuite) TestExhaustedIgnoresOffBoardAndDuplicates() {
	board := &FleetBoard{}
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize-1; x++ {
			board.RecordShots(Coordinate{X: x, Y: y})
		}
	}
	board.RecordShots(Coordinate{X: -1, Y: 0}, Coordinate{X: 0, Y: 0})
	s.False(board.Exhausted())

	for y := 0; y < BoardSize; y++ {
		board.RecordShots(Coordinate{X: BoardSize - 1, Y: y})
	}
	s.True(board.Exhausted())
	s.Empty(board.FreeCells())
}

func (s *BoardSuite) TestRecordShotsSkipsDuplicates() {
	board := &FleetBoard{}
	board.RecordShots(Coordinate{X: 1, Y: 1}, Coordinate{X: 2, Y: 2}, Coordinate{X: 1, Y: 1})
	board.RecordShots(Coordinate{X: 2, Y: 2}, Coordinate{X: 3, Y: 3})

	s.Equal([]Coordinate{{1, 1}, {2, 2}, {3, 3}}, board.Hits)
}

func (s *BoardSuite) TestCloneIsIndependent() {
	board := &FleetBoard{
		GameID:      1,
		IndexPlayer: 2,
		Ships:       []Ship{{Position: Coordinate{X: 1, Y: 1}, Length: 1}},
		Hits:        []Coordinate{{0, 0}},
	}

	clone := board.Clone()
	clone.RecordShots(Coordinate{X: 5, Y: 5})
	clone.Ships[0].Length = 4

	s.Len(board.Hits, 1)
	s.Equal(1, board.Ships[0].Length)
}
