package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/seabattle/internal/dependencies/keylock"
	"github.com/mcoot/seabattle/internal/dependencies/mocks"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/protocol"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/game"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/targeting"
	"github.com/mcoot/seabattle/internal/session"
	"github.com/mcoot/seabattle/internal/storage/memory"
	"github.com/mcoot/seabattle/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	storage    *memory.Storage
	random     *mocks.MockRandom
	sessions   *session.Registry
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.ctx = context.Background()

	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	locks := keylock.New[model.GameID]()

	lobbyCtrl := lobby.NewController(s.storage, locks, clk, logger)
	gameCtrl := game.NewController(s.storage, targeting.NewRandomStrategy(s.random), locks, clk, logger)
	authSvc := auth.New(s.storage, clk, auth.Config{BcryptCost: bcrypt.MinCost}, logger)
	s.sessions = session.NewRegistry(lobbyCtrl, logger)

	s.dispatcher = New(s.sessions, authSvc, lobbyCtrl, gameCtrl,
		NewBroadcaster(lobbyCtrl, gameCtrl, logger), logger)
}

// Helpers

type received struct {
	Type protocol.MessageType
	Data string
	ID   int
}

func (s *DispatcherSuite) connect(id string) *testutil.FakeConn {
	conn := testutil.NewFakeConn(id)
	s.dispatcher.Connect(s.ctx, conn)
	return conn
}

func (s *DispatcherSuite) send(conn *testutil.FakeConn, msgType protocol.MessageType, payload any, id int) {
	frame, err := protocol.Encode(msgType, payload, id)
	s.Require().NoError(err)
	s.dispatcher.Handle(s.ctx, conn, frame)
}

func (s *DispatcherSuite) messages(conn *testutil.FakeConn) []received {
	var out []received
	for _, frame := range conn.Sent() {
		env, err := protocol.Decode(frame)
		s.Require().NoError(err)
		out = append(out, received{Type: env.Type, Data: env.Data, ID: env.ID})
	}
	return out
}

func (s *DispatcherSuite) types(conn *testutil.FakeConn) []protocol.MessageType {
	var out []protocol.MessageType
	for _, m := range s.messages(conn) {
		out = append(out, m.Type)
	}
	return out
}

func decodeAs[T any](s *DispatcherSuite, m received) T {
	var payload T
	s.Require().NoError(json.Unmarshal([]byte(m.Data), &payload))
	return payload
}

func (s *DispatcherSuite) last(conn *testutil.FakeConn, msgType protocol.MessageType) received {
	msgs := s.messages(conn)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i]
		}
	}
	s.FailNow("no message of type " + string(msgType))
	return received{}
}

func (s *DispatcherSuite) register(conn *testutil.FakeConn, name string) {
	s.send(conn, protocol.TypeReg, protocol.RegRequest{Name: name, Password: "secret"}, 0)
}

func smallShip(x, y int) protocol.Ship {
	return protocol.Ship{Position: protocol.Position{X: x, Y: y}, Length: 1, Type: "small"}
}

// pair registers two players, seats them in one room and returns the game id
func (s *DispatcherSuite) pair() (alice, bob *testutil.FakeConn, gameID int) {
	alice = s.connect("alice-conn")
	bob = s.connect("bob-conn")
	s.register(alice, "alice")
	s.register(bob, "bob")

	s.send(alice, protocol.TypeCreateRoom, "", 0)
	rooms := decodeAs[[]protocol.Room](s, s.last(alice, protocol.TypeUpdateRoom))
	s.Require().Len(rooms, 1)

	s.send(bob, protocol.TypeAddUserToRoom, protocol.AddUserToRoomRequest{IndexRoom: rooms[0].RoomID}, 0)
	created := decodeAs[protocol.CreateGameResponse](s, s.last(bob, protocol.TypeCreateGame))
	return alice, bob, created.IDGame
}

// startGame pairs the players and submits both fleets, alice first
func (s *DispatcherSuite) startGame(aliceShips, bobShips []protocol.Ship) (alice, bob *testutil.FakeConn, gameID int) {
	alice, bob, gameID = s.pair()
	s.send(alice, protocol.TypeAddShips, protocol.AddShipsRequest{GameID: gameID, Ships: aliceShips, IndexPlayer: 1}, 0)
	s.send(bob, protocol.TypeAddShips, protocol.AddShipsRequest{GameID: gameID, Ships: bobShips, IndexPlayer: 2}, 0)
	return alice, bob, gameID
}

// reg tests

func (s *DispatcherSuite) TestRegAcksAndBroadcasts() {
	watcher := s.connect("watcher")
	conn := s.connect("c1")
	s.send(conn, protocol.TypeReg, protocol.RegRequest{Name: "alice", Password: "secret"}, 7)

	msgs := s.messages(conn)
	s.Require().Len(msgs, 3)
	s.Equal(protocol.TypeReg, msgs[0].Type)
	s.Equal(7, msgs[0].ID)
	ack := decodeAs[protocol.RegResponse](s, msgs[0])
	s.Equal("alice", ack.Name)
	s.Equal(2, ack.Index)
	s.False(ack.Error)

	s.Equal([]protocol.MessageType{protocol.TypeUpdateRoom, protocol.TypeUpdateWinners}, s.types(watcher))
}

func (s *DispatcherSuite) TestRegSameNameReturnsStoredID() {
	first := s.connect("c1")
	s.register(first, "alice")

	second := s.connect("c2")
	s.register(second, "alice")

	ack := decodeAs[protocol.RegResponse](s, s.last(second, protocol.TypeReg))
	s.Equal(1, ack.Index)
	s.False(ack.Error)

	sess, ok := s.sessions.Get(second)
	s.Require().True(ok)
	s.Equal(model.PlayerID(1), sess.PlayerID)
}

func (s *DispatcherSuite) TestRegWrongPassword() {
	first := s.connect("c1")
	s.register(first, "alice")

	second := s.connect("c2")
	s.send(second, protocol.TypeReg, protocol.RegRequest{Name: "alice", Password: "nope"}, 0)

	ack := decodeAs[protocol.RegResponse](s, s.last(second, protocol.TypeReg))
	s.True(ack.Error)
	s.Equal(WrongPasswordText, ack.ErrorText)
	s.Equal(1, ack.Index)

	sess, ok := s.sessions.Get(second)
	s.Require().True(ok)
	s.Nil(sess.Player)
}

func (s *DispatcherSuite) TestNewNameOnBoundSessionGetsFreshID() {
	first := s.connect("c1")
	s.register(first, "alice")

	second := s.connect("c2")
	s.register(second, "alice")
	s.register(second, "carol")

	ack := decodeAs[protocol.RegResponse](s, s.last(second, protocol.TypeReg))
	s.False(ack.Error)
	s.Equal("carol", ack.Name)
	s.NotEqual(1, ack.Index)

	alice, err := s.storage.GetPlayerByName(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(1), alice.ID)
	s.Equal("alice", alice.Name)

	carol, err := s.storage.GetPlayerByName(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal(model.PlayerID(ack.Index), carol.ID)

	sess, ok := s.sessions.Get(second)
	s.Require().True(ok)
	s.Equal(carol.ID, sess.PlayerID)
}

// Lobby tests

func (s *DispatcherSuite) TestCreateRoomRepliesToCallerOnly() {
	alice := s.connect("alice")
	other := s.connect("other")
	s.register(alice, "alice")
	alice.Reset()
	other.Reset()

	s.send(alice, protocol.TypeCreateRoom, "", 0)

	s.Equal([]protocol.MessageType{protocol.TypeUpdateRoom}, s.types(alice))
	s.Empty(other.Sent())
	rooms := decodeAs[[]protocol.Room](s, s.last(alice, protocol.TypeUpdateRoom))
	s.Equal([]protocol.Room{{RoomID: 1, RoomUsers: []protocol.RoomUser{{Name: "alice", Index: 1}}}}, rooms)
}

func (s *DispatcherSuite) TestCreateRoomBeforeRegIgnored() {
	conn := s.connect("c1")
	s.send(conn, protocol.TypeCreateRoom, "", 0)

	s.Empty(conn.Sent())
	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *DispatcherSuite) TestJoinSendsCreateGameToBoth() {
	alice, bob, gameID := s.pair()
	s.Equal(1, gameID)

	aliceGame := decodeAs[protocol.CreateGameResponse](s, s.last(alice, protocol.TypeCreateGame))
	s.Equal(protocol.CreateGameResponse{IDGame: 1, IDPlayer: 1}, aliceGame)
	bobGame := decodeAs[protocol.CreateGameResponse](s, s.last(bob, protocol.TypeCreateGame))
	s.Equal(protocol.CreateGameResponse{IDGame: 1, IDPlayer: 2}, bobGame)

	// The full room no longer appears in the open list
	rooms := decodeAs[[]protocol.Room](s, s.last(bob, protocol.TypeUpdateRoom))
	s.Empty(rooms)
}

func (s *DispatcherSuite) TestThirdJoinRejected() {
	_, _, _ = s.pair()
	carol := s.connect("carol")
	s.register(carol, "carol")
	carol.Reset()

	s.send(carol, protocol.TypeAddUserToRoom, protocol.AddUserToRoomRequest{IndexRoom: 1}, 0)

	s.Empty(carol.Sent())
	room, err := s.storage.GetRoom(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(room.RoomUsers, 2)
}

// Game tests

func (s *DispatcherSuite) TestStartGameOnSecondFleet() {
	alice, bob, _ := s.pair()
	alice.Reset()
	bob.Reset()

	s.send(alice, protocol.TypeAddShips, protocol.AddShipsRequest{GameID: 1, Ships: []protocol.Ship{smallShip(9, 9)}, IndexPlayer: 1}, 0)
	s.Empty(alice.Sent())
	s.Empty(bob.Sent())

	s.send(bob, protocol.TypeAddShips, protocol.AddShipsRequest{GameID: 1, Ships: []protocol.Ship{smallShip(0, 0)}, IndexPlayer: 2}, 0)

	s.Equal([]protocol.MessageType{protocol.TypeStartGame, protocol.TypeTurn}, s.types(alice))
	s.Equal([]protocol.MessageType{protocol.TypeStartGame, protocol.TypeTurn}, s.types(bob))

	aliceStart := decodeAs[protocol.StartGameResponse](s, s.last(alice, protocol.TypeStartGame))
	s.Equal(2, aliceStart.CurrentPlayerIndex)
	s.Equal([]protocol.Ship{smallShip(9, 9)}, aliceStart.Ships)

	bobStart := decodeAs[protocol.StartGameResponse](s, s.last(bob, protocol.TypeStartGame))
	s.Equal([]protocol.Ship{smallShip(0, 0)}, bobStart.Ships)

	turn := decodeAs[protocol.TurnResponse](s, s.last(bob, protocol.TypeTurn))
	s.Equal(2, turn.CurrentPlayer)
}

func (s *DispatcherSuite) TestKillWinsGame() {
	alice, bob, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	watcher := s.connect("watcher")
	alice.Reset()
	bob.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 0, Y: 0, IndexPlayer: 1}, 0)

	msgs := s.messages(bob)
	// killed, 8 perimeter misses each with a turn, turn, finish, update_winners
	s.Require().Len(msgs, 20)

	first := decodeAs[protocol.AttackResponse](s, msgs[0])
	s.Equal(protocol.AttackResponse{Position: protocol.Position{X: 0, Y: 0}, CurrentPlayer: 1, Status: "killed"}, first)

	for i := 0; i < 8; i++ {
		miss := decodeAs[protocol.AttackResponse](s, msgs[1+2*i])
		s.Equal("miss", miss.Status)
		s.Equal(1, miss.CurrentPlayer)
		turn := decodeAs[protocol.TurnResponse](s, msgs[2+2*i])
		s.Equal(1, turn.CurrentPlayer)
	}

	s.Equal(protocol.TypeTurn, msgs[17].Type)
	s.Equal(1, decodeAs[protocol.TurnResponse](s, msgs[17]).CurrentPlayer)
	s.Equal(protocol.TypeFinish, msgs[18].Type)
	s.Equal(protocol.FinishResponse{WinPlayer: 1}, decodeAs[protocol.FinishResponse](s, msgs[18]))
	s.Equal(protocol.TypeUpdateWinners, msgs[19].Type)

	s.Equal([]protocol.MessageType{protocol.TypeUpdateWinners}, s.types(watcher))
	winners := decodeAs[[]protocol.Winner](s, s.last(watcher, protocol.TypeUpdateWinners))
	s.Equal([]protocol.Winner{{Name: "alice", Wins: 1}}, winners)
}

func (s *DispatcherSuite) TestMissPassesTurn() {
	alice, _, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	alice.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 9, Y: 9, IndexPlayer: 1}, 0)

	msgs := s.messages(alice)
	s.Require().Len(msgs, 2)
	s.Equal("miss", decodeAs[protocol.AttackResponse](s, msgs[0]).Status)
	s.Equal(2, decodeAs[protocol.TurnResponse](s, msgs[1]).CurrentPlayer)
}

func (s *DispatcherSuite) TestShotKeepsTurn() {
	medium := protocol.Ship{Position: protocol.Position{X: 0, Y: 0}, Direction: true, Length: 2, Type: "medium"}
	alice, _, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{medium})
	alice.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 0, Y: 1, IndexPlayer: 1}, 0)

	msgs := s.messages(alice)
	s.Require().Len(msgs, 2)
	s.Equal("shot", decodeAs[protocol.AttackResponse](s, msgs[0]).Status)
	s.Equal(1, decodeAs[protocol.TurnResponse](s, msgs[1]).CurrentPlayer)
}

func (s *DispatcherSuite) TestAttackUsesSessionGame() {
	alice, _, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	alice.Reset()

	// The payload names a game that does not exist; the session's game is used
	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 99, X: 9, Y: 9, IndexPlayer: 1}, 0)

	s.Equal([]protocol.MessageType{protocol.TypeAttack, protocol.TypeTurn}, s.types(alice))
}

func (s *DispatcherSuite) TestAttackAfterFinishIgnored() {
	alice, _, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 0, Y: 0, IndexPlayer: 1}, 0)
	alice.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 3, Y: 3, IndexPlayer: 1}, 0)
	s.Empty(alice.Sent())
}

func (s *DispatcherSuite) TestRandomAttack() {
	alice, _, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	alice.Reset()
	s.random.QueueIntn(4, 7)

	s.send(alice, protocol.TypeRandomAttack, protocol.RandomAttackRequest{GameID: 1, IndexPlayer: 1}, 0)

	msgs := s.messages(alice)
	s.Require().Len(msgs, 2)
	attack := decodeAs[protocol.AttackResponse](s, msgs[0])
	s.Equal(protocol.Position{X: 4, Y: 7}, attack.Position)
	s.Equal("miss", attack.Status)
}

func (s *DispatcherSuite) TestAttackBeforeFleetsIgnored() {
	alice, _, gameID := s.pair()
	alice.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: gameID, X: 0, Y: 0, IndexPlayer: 1}, 0)
	s.Empty(alice.Sent())
}

// Robustness

func (s *DispatcherSuite) TestMalformedFramesIgnored() {
	conn := s.connect("c1")

	s.dispatcher.Handle(s.ctx, conn, []byte("not json"))
	s.dispatcher.Handle(s.ctx, conn, []byte(`{"type":"reg","data":"{broken","id":0}`))
	s.dispatcher.Handle(s.ctx, conn, []byte(`{"type":"teleport","data":"","id":0}`))

	s.Empty(conn.Sent())
}

func (s *DispatcherSuite) TestClosedConnectionSkipped() {
	alice, bob, _ := s.startGame([]protocol.Ship{smallShip(5, 5)}, []protocol.Ship{smallShip(0, 0)})
	bob.Close()
	alice.Reset()

	s.send(alice, protocol.TypeAttack, protocol.AttackRequest{GameID: 1, X: 9, Y: 9, IndexPlayer: 1}, 0)
	s.Len(alice.Sent(), 2)
}

func (s *DispatcherSuite) TestDisconnectRemovesSession() {
	alice, bob, _ := s.pair()
	s.dispatcher.Disconnect(s.ctx, bob)

	_, ok := s.sessions.Get(bob)
	s.False(ok)
	s.Equal(1, s.sessions.Count())

	// The room and its game survive the disconnect
	room, err := s.storage.GetRoom(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(room.RoomUsers, 2)

	// Commands from a dropped connection are ignored
	alice.Reset()
	bob.Reset()
	s.register(bob, "bob")
	s.Empty(bob.Sent())
	s.Empty(alice.Sent())
}
