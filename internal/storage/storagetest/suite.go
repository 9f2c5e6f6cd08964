// Package storagetest holds the behavioural suite every storage backend runs.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/storage"
)

// Suite exercises a storage.Storage. Backends embed it and assign Storage
// in their own SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupSuite() {
	s.Ctx = context.Background()
}

func player(id model.PlayerID, name string) *model.RegisteredPlayer {
	return &model.RegisteredPlayer{
		Player:       model.Player{ID: id, Name: name, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		PasswordHash: "hash-" + name,
	}
}

func gameID(id int) *model.GameID {
	g := model.GameID(id)
	return &g
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(1, "alice")))

	byID, err := s.Storage.GetPlayer(s.Ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", byID.Name)
	s.Equal("hash-alice", byID.PasswordHash)

	byName, err := s.Storage.GetPlayerByName(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(1), byName.ID)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, 42)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Storage.GetPlayerByName(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSavePlayerFirstWriteWins() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(1, "alice")))

	err := s.Storage.SavePlayer(s.Ctx, player(2, "alice"))
	s.ErrorIs(err, model.ErrNameTaken)

	stored, err := s.Storage.GetPlayerByName(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(1), stored.ID)

	_, err = s.Storage.GetPlayer(s.Ctx, 2)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSavePlayerRejectsTakenID() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(1, "alice")))

	err := s.Storage.SavePlayer(s.Ctx, player(1, "carol"))
	s.ErrorIs(err, model.ErrPlayerIDTaken)

	stored, err := s.Storage.GetPlayer(s.Ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", stored.Name)
	s.Equal("hash-alice", stored.PasswordHash)

	_, err = s.Storage.GetPlayerByName(s.Ctx, "carol")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	// The rejected name stays free
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(2, "carol")))
}

// Room tests

func (s *Suite) TestSaveAndGetRoom() {
	room := &model.Room{
		RoomID:    3,
		RoomUsers: []model.RoomUser{{Index: 1, Name: "alice"}},
	}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	got, err := s.Storage.GetRoom(s.Ctx, 3)
	s.Require().NoError(err)
	s.Equal(model.RoomID(3), got.RoomID)
	s.Require().Len(got.RoomUsers, 1)
	s.Equal("alice", got.RoomUsers[0].Name)
	s.Nil(got.GameID)
	s.Nil(got.RoomUsers[0].GameBoard)
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Storage.GetRoom(s.Ctx, 99)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestRoomRoundTripsBoards() {
	room := &model.Room{
		RoomID: 1,
		GameID: gameID(5),
		RoomUsers: []model.RoomUser{
			{Index: 1, Name: "alice", GameBoard: &model.FleetBoard{
				GameID:      5,
				IndexPlayer: 1,
				Ships: []model.Ship{
					{Position: model.Coordinate{X: 1, Y: 2}, Direction: true, Length: 3, Type: model.ShipLarge},
				},
				Hits: []model.Coordinate{{X: 0, Y: 0}, {X: -1, Y: 4}},
			}},
			{Index: 2, Name: "bob"},
		},
	}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	got, err := s.Storage.GetRoomByGame(s.Ctx, 5)
	s.Require().NoError(err)
	s.Equal(model.RoomID(1), got.RoomID)
	s.Require().NotNil(got.GameID)
	s.Equal(model.GameID(5), *got.GameID)

	board := got.RoomUsers[0].GameBoard
	s.Require().NotNil(board)
	s.Equal(room.RoomUsers[0].GameBoard.Ships, board.Ships)
	s.Equal(room.RoomUsers[0].GameBoard.Hits, board.Hits)
	s.Nil(got.RoomUsers[1].GameBoard)
}

func (s *Suite) TestSaveRoomOverwrites() {
	room := &model.Room{RoomID: 1, RoomUsers: []model.RoomUser{{Index: 1, Name: "alice"}}}
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	room.RoomUsers = append(room.RoomUsers, model.RoomUser{Index: 2, Name: "bob"})
	room.GameID = gameID(1)
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	got, err := s.Storage.GetRoom(s.Ctx, 1)
	s.Require().NoError(err)
	s.Len(got.RoomUsers, 2)
}

func (s *Suite) TestReturnedRoomIsDetached() {
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{RoomID: 1, RoomUsers: []model.RoomUser{{Index: 1, Name: "alice"}}}))

	got, err := s.Storage.GetRoom(s.Ctx, 1)
	s.Require().NoError(err)
	got.RoomUsers[0].Name = "mallory"

	again, err := s.Storage.GetRoom(s.Ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", again.RoomUsers[0].Name)
}

func (s *Suite) TestGetRoomByGameNotFound() {
	_, err := s.Storage.GetRoomByGame(s.Ctx, 7)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListRoomsOrdered() {
	for _, id := range []model.RoomID{3, 1, 2} {
		s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{RoomID: id}))
	}

	rooms, err := s.Storage.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 3)
	s.Equal(model.RoomID(1), rooms[0].RoomID)
	s.Equal(model.RoomID(2), rooms[1].RoomID)
	s.Equal(model.RoomID(3), rooms[2].RoomID)
}

func (s *Suite) TestListRoomsEmpty() {
	rooms, err := s.Storage.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

// Winner tests

func (s *Suite) TestIncrementWinner() {
	wins, err := s.Storage.IncrementWinner(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, wins)

	wins, err = s.Storage.IncrementWinner(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, wins)

	_, err = s.Storage.IncrementWinner(s.Ctx, "bob")
	s.Require().NoError(err)
	_, err = s.Storage.IncrementWinner(s.Ctx, "carol")
	s.Require().NoError(err)

	winners, err := s.Storage.ListWinners(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]model.Winner{
		{Name: "alice", Wins: 2},
		{Name: "bob", Wins: 1},
		{Name: "carol", Wins: 1},
	}, winners)
}

func (s *Suite) TestListWinnersEmpty() {
	winners, err := s.Storage.ListWinners(s.Ctx)
	s.Require().NoError(err)
	s.Empty(winners)
}

// Watermark tests

func (s *Suite) TestWatermarks() {
	w, err := s.Storage.Watermarks(s.Ctx)
	s.Require().NoError(err)
	s.Equal(storage.Watermarks{}, w)

	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(4, "alice")))
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player(2, "bob")))
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{RoomID: 6, GameID: gameID(3)}))
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, &model.Room{RoomID: 2}))

	w, err = s.Storage.Watermarks(s.Ctx)
	s.Require().NoError(err)
	s.Equal(storage.Watermarks{PlayerID: 4, RoomID: 6, GameID: 3}, w)
}
