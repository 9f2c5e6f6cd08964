package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/seabattle/internal/dependencies/keylock"
	"github.com/mcoot/seabattle/internal/dependencies/mocks"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/targeting"
	"github.com/mcoot/seabattle/internal/storage/memory"
	"github.com/mcoot/seabattle/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	lobby      *lobby.Controller
	controller *Controller
	ctx        context.Context

	alice *model.Player
	bob   *model.Player
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	logger := testutil.NopLogger()
	locks := keylock.New[model.GameID]()
	s.lobby = lobby.NewController(s.storage, locks, s.clock, logger)
	s.controller = NewController(s.storage, targeting.NewRandomStrategy(s.random), locks, s.clock, logger)
	s.ctx = context.Background()

	s.alice = &model.Player{ID: 1, Name: "alice"}
	s.bob = &model.Player{ID: 2, Name: "bob"}
}

// startGame pairs alice and bob and submits both fleets, returning the game id
func (s *ControllerSuite) startGame(aliceShips, bobShips []model.Ship) model.GameID {
	room, err := s.lobby.CreateRoom(s.ctx, s.alice)
	s.Require().NoError(err)
	room, err = s.lobby.JoinRoom(s.ctx, room.RoomID, s.bob)
	s.Require().NoError(err)
	gameID := *room.GameID

	_, _, err = s.lobby.SubmitFleet(s.ctx, model.FleetBoard{GameID: gameID, IndexPlayer: s.alice.ID, Ships: aliceShips})
	s.Require().NoError(err)
	_, _, err = s.lobby.SubmitFleet(s.ctx, model.FleetBoard{GameID: gameID, IndexPlayer: s.bob.ID, Ships: bobShips})
	s.Require().NoError(err)
	return gameID
}

func small(x, y int) model.Ship {
	return model.Ship{Position: model.Coordinate{X: x, Y: y}, Length: 1, Type: model.ShipSmall}
}

func (s *ControllerSuite) attack(gameID model.GameID, attacker model.PlayerID, x, y int) *model.AttackOutcome {
	outcome, err := s.controller.ResolveAttack(s.ctx, gameID, attacker, model.Coordinate{X: x, Y: y})
	s.Require().NoError(err)
	return outcome
}

// ResolveAttack tests

func (s *ControllerSuite) TestKillSingleCellShipEndsGame() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0)})

	outcome := s.attack(gameID, s.alice.ID, 0, 0)

	s.Equal(model.AttackKilled, outcome.Status)
	s.True(outcome.IsGameOver)
	s.Len(outcome.MissedCells, 8)
	s.ElementsMatch(model.Ship{Position: model.Coordinate{}, Length: 1}.Perimeter(), outcome.MissedCells)
	s.Equal(s.alice.ID, outcome.NextPlayer)

	room, err := s.controller.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	hits := room.BoardOf(s.alice.ID).Hits
	s.Len(hits, 9)
	s.Equal(model.Coordinate{X: 0, Y: 0}, hits[len(hits)-1])
	s.Equal(model.GameStateFinished, room.State())
}

func (s *ControllerSuite) TestKillNotLastShipContinuesGame() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0), small(5, 5)})

	outcome := s.attack(gameID, s.alice.ID, 0, 0)
	s.Equal(model.AttackKilled, outcome.Status)
	s.False(outcome.IsGameOver)
}

func (s *ControllerSuite) TestMissPassesTurn() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0)})

	outcome := s.attack(gameID, s.alice.ID, 5, 5)

	s.Equal(model.AttackMiss, outcome.Status)
	s.False(outcome.IsGameOver)
	s.Nil(outcome.MissedCells)
	s.Equal(s.bob.ID, outcome.NextPlayer)
	s.False(outcome.KeepsTurn())
}

func (s *ControllerSuite) TestShotKeepsTurn() {
	ship := model.Ship{Position: model.Coordinate{X: 2, Y: 2}, Direction: true, Length: 3, Type: model.ShipLarge}
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{ship})

	first := s.attack(gameID, s.alice.ID, 2, 3)
	s.Equal(model.AttackShot, first.Status)
	s.Equal(s.alice.ID, first.NextPlayer)

	second := s.attack(gameID, s.alice.ID, 2, 2)
	s.Equal(model.AttackShot, second.Status)

	third := s.attack(gameID, s.alice.ID, 2, 4)
	s.Equal(model.AttackKilled, third.Status)
	s.Len(third.MissedCells, 2*(3+2)+2)
	s.True(third.IsGameOver)
}

func (s *ControllerSuite) TestKillReportsPerimeterAwayFromEdges() {
	ship := model.Ship{Position: model.Coordinate{X: 4, Y: 4}, Length: 2, Type: model.ShipMedium}
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{ship, small(0, 9)})

	s.attack(gameID, s.alice.ID, 4, 4)
	outcome := s.attack(gameID, s.alice.ID, 5, 4)

	s.Equal(model.AttackKilled, outcome.Status)
	s.Equal(ship.Perimeter(), outcome.MissedCells)

	room, err := s.controller.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	fired := room.BoardOf(s.alice.ID).Fired()
	for _, c := range append(ship.Cells(), ship.Perimeter()...) {
		s.True(fired.Contains(c), "missing %v", c)
	}
	s.Len(fired, 2+len(ship.Perimeter()))
}

func (s *ControllerSuite) TestRepeatedAttackIsMiss() {
	ship := model.Ship{Position: model.Coordinate{X: 0, Y: 0}, Length: 2, Type: model.ShipMedium}
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{ship})

	s.Equal(model.AttackShot, s.attack(gameID, s.alice.ID, 0, 0).Status)
	repeat := s.attack(gameID, s.alice.ID, 0, 0)
	s.Equal(model.AttackMiss, repeat.Status)
	s.Equal(s.bob.ID, repeat.NextPlayer)

	room, err := s.controller.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Len(room.BoardOf(s.alice.ID).Hits, 1)
}

func (s *ControllerSuite) TestGameOverOnlyWhenEveryCellHit() {
	ships := []model.Ship{
		{Position: model.Coordinate{X: 0, Y: 0}, Direction: true, Length: 4, Type: model.ShipHuge},
		{Position: model.Coordinate{X: 3, Y: 0}, Length: 3, Type: model.ShipLarge},
		small(9, 9),
	}
	gameID := s.startGame([]model.Ship{small(5, 5)}, ships)

	var cells []model.Coordinate
	for _, ship := range ships {
		cells = append(cells, ship.Cells()...)
	}
	for i, c := range cells {
		outcome := s.attack(gameID, s.alice.ID, c.X, c.Y)
		s.Equal(i == len(cells)-1, outcome.IsGameOver, "after %d of %d cells", i+1, len(cells))
		s.NotEqual(model.AttackMiss, outcome.Status)
	}
}

func (s *ControllerSuite) TestTurnChangesOnlyOnMiss() {
	ship := model.Ship{Position: model.Coordinate{X: 0, Y: 0}, Length: 2, Type: model.ShipMedium}
	gameID := s.startGame([]model.Ship{ship, small(9, 9)}, []model.Ship{ship, small(9, 9)})

	current := s.alice.ID
	other := map[model.PlayerID]model.PlayerID{s.alice.ID: s.bob.ID, s.bob.ID: s.alice.ID}
	shots := []model.Coordinate{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 7, Y: 7}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 4, Y: 4}}

	for _, shot := range shots {
		outcome := s.attack(gameID, current, shot.X, shot.Y)
		if outcome.Status == model.AttackMiss {
			s.Equal(other[current], outcome.NextPlayer)
		} else {
			s.Equal(current, outcome.NextPlayer)
		}
		current = outcome.NextPlayer
	}
}

func (s *ControllerSuite) TestWinnerTallyByName() {
	for i := 0; i < 2; i++ {
		gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0)})
		s.True(s.attack(gameID, s.alice.ID, 0, 0).IsGameOver)
	}

	winners, err := s.storage.ListWinners(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Winner{{Name: "alice", Wins: 2}}, winners)
}

func (s *ControllerSuite) TestAttackAfterGameOverRejected() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0)})
	s.attack(gameID, s.alice.ID, 0, 0)

	_, err := s.controller.ResolveAttack(s.ctx, gameID, s.bob.ID, model.Coordinate{X: 9, Y: 9})
	s.ErrorIs(err, model.ErrGameFinished)

	winners, _ := s.storage.ListWinners(s.ctx)
	s.Equal([]model.Winner{{Name: "alice", Wins: 1}}, winners)
}

func (s *ControllerSuite) TestAttackUnknownGame() {
	_, err := s.controller.ResolveAttack(s.ctx, 42, s.alice.ID, model.Coordinate{})
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestAttackBeforeBothFleets() {
	room, _ := s.lobby.CreateRoom(s.ctx, s.alice)
	room, _ = s.lobby.JoinRoom(s.ctx, room.RoomID, s.bob)
	_, _, err := s.lobby.SubmitFleet(s.ctx, model.FleetBoard{GameID: *room.GameID, IndexPlayer: s.alice.ID, Ships: []model.Ship{small(0, 0)}})
	s.Require().NoError(err)

	_, err = s.controller.ResolveAttack(s.ctx, *room.GameID, s.alice.ID, model.Coordinate{})
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *ControllerSuite) TestConcurrentAttacksAllRecorded() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(9, 9)})

	var wg sync.WaitGroup
	for x := 0; x < 5; x++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			_, err := s.controller.ResolveAttack(s.ctx, gameID, s.alice.ID, model.Coordinate{X: x, Y: 0})
			s.NoError(err)
		}(x)
	}
	wg.Wait()

	room, err := s.controller.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	s.Len(room.BoardOf(s.alice.ID).Hits, 5)
}

// RandomAttack / PickRandomTarget tests

func (s *ControllerSuite) TestRandomAttackUsesPickedTarget() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(3, 4)})
	s.random.QueueIntn(3, 4)

	outcome, err := s.controller.RandomAttack(s.ctx, gameID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(model.Coordinate{X: 3, Y: 4}, outcome.Target)
	s.Equal(model.AttackKilled, outcome.Status)
}

func (s *ControllerSuite) TestPickRandomTargetSkipsFired() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(9, 9)})
	s.attack(gameID, s.alice.ID, 1, 1)
	s.random.QueueIntn(1, 1, 2, 2)

	target, err := s.controller.PickRandomTarget(s.ctx, gameID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(model.Coordinate{X: 2, Y: 2}, target)
}

func (s *ControllerSuite) TestPickRandomTargetWithoutBoard() {
	room, _ := s.lobby.CreateRoom(s.ctx, s.alice)
	room, _ = s.lobby.JoinRoom(s.ctx, room.RoomID, s.bob)

	_, err := s.controller.PickRandomTarget(s.ctx, *room.GameID, s.alice.ID)
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *ControllerSuite) TestRandomAttackExhausted() {
	gameID := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(9, 9)})

	room, err := s.controller.GetGame(s.ctx, gameID)
	s.Require().NoError(err)
	board := room.BoardOf(s.alice.ID)
	for y := 0; y < model.BoardSize; y++ {
		for x := 0; x < model.BoardSize; x++ {
			board.RecordShots(model.Coordinate{X: x, Y: y})
		}
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	_, err = s.controller.RandomAttack(s.ctx, gameID, s.alice.ID)
	s.ErrorIs(err, model.ErrNoFreeCells)

	_, err = s.controller.PickRandomTarget(s.ctx, gameID, s.alice.ID)
	s.ErrorIs(err, model.ErrNoFreeCells)
}

func (s *ControllerSuite) TestListWinners() {
	first := s.startGame([]model.Ship{small(9, 9)}, []model.Ship{small(0, 0)})
	s.attack(first, s.alice.ID, 0, 0)

	winners, err := s.controller.ListWinners(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Winner{{Name: "alice", Wins: 1}}, winners)
}
