package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/protocol"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/game"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/session"
	"github.com/mcoot/seabattle/internal/ws"
)

// WrongPasswordText is the errorText of a rejected reg
const WrongPasswordText = "Wrong password"

var _ ws.Handler = (*Dispatcher)(nil)

// Dispatcher routes inbound commands to the services and pushes the
// resulting events. Every failure is logged and produces no reply, except
// a wrong password which is reported in the reg ack.
type Dispatcher struct {
	sessions    *session.Registry
	auth        *auth.Service
	lobby       *lobby.Controller
	games       *game.Controller
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// New creates a new Dispatcher
func New(
	sessions *session.Registry,
	auth *auth.Service,
	lobby *lobby.Controller,
	games *game.Controller,
	broadcaster *Broadcaster,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		sessions:    sessions,
		auth:        auth,
		lobby:       lobby,
		games:       games,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "dispatch")),
	}
}

// Connect opens a session for conn
func (d *Dispatcher) Connect(ctx context.Context, conn session.Conn) {
	d.sessions.Register(ctx, conn)
}

// Disconnect drops conn's session. Rooms and games it took part in are kept.
func (d *Dispatcher) Disconnect(_ context.Context, conn session.Conn) {
	sess, ok := d.sessions.Unregister(conn)
	if !ok {
		return
	}
	attrs := []any{
		slog.String("conn_id", conn.ID()),
		slog.Int("player_id", int(sess.PlayerID)),
	}
	if sess.Player != nil {
		attrs = append(attrs, slog.String("name", sess.Player.Name))
	}
	d.logger.Info("player left", attrs...)
}

// Handle decodes and executes one inbound frame
func (d *Dispatcher) Handle(ctx context.Context, conn session.Conn, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("conn_id", conn.ID()),
			)
		}
	}()

	env, err := protocol.Decode(frame)
	if err != nil {
		d.logger.Debug("ignoring malformed frame",
			slog.String("conn_id", conn.ID()),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := d.route(ctx, conn, env); err != nil {
		d.logCommandError(conn, env.Type, err)
	}
}

func (d *Dispatcher) route(ctx context.Context, conn session.Conn, env protocol.Envelope) error {
	sess, ok := d.sessions.Get(conn)
	if !ok {
		return fmt.Errorf("conn %s: %w", conn.ID(), model.ErrNoPlayer)
	}

	switch env.Type {
	case protocol.TypeReg:
		return d.handleReg(ctx, conn, sess, env)
	case protocol.TypeCreateRoom:
		return d.handleCreateRoom(ctx, conn, sess)
	case protocol.TypeAddUserToRoom:
		return d.handleAddUserToRoom(ctx, conn, sess, env)
	case protocol.TypeAddShips:
		return d.handleAddShips(ctx, conn, env)
	case protocol.TypeAttack:
		return d.handleAttack(ctx, sess, env)
	case protocol.TypeRandomAttack:
		return d.handleRandomAttack(ctx, sess, env)
	default:
		return fmt.Errorf("%w: unknown type %q", protocol.ErrMalformed, env.Type)
	}
}

func (d *Dispatcher) logCommandError(conn session.Conn, msgType protocol.MessageType, err error) {
	attrs := []any{
		slog.String("conn_id", conn.ID()),
		slog.String("type", string(msgType)),
		slog.String("error", err.Error()),
	}
	switch {
	case errors.Is(err, protocol.ErrMalformed):
		d.logger.Debug("ignoring malformed command", attrs...)
	case isRejection(err):
		d.logger.Info("command rejected", attrs...)
	default:
		d.logger.Error("command failed", attrs...)
	}
}

// isRejection reports errors caused by the command itself rather than
// by the server
func isRejection(err error) bool {
	for _, target := range []error{
		model.ErrNoPlayer,
		model.ErrPlayerNotFound,
		model.ErrRoomNotFound,
		model.ErrRoomFull,
		model.ErrAlreadyInRoom,
		model.ErrGameNotFound,
		model.ErrGameFinished,
		model.ErrBoardNotFound,
		model.ErrNoFreeCells,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) handleReg(ctx context.Context, conn session.Conn, sess session.Session, env protocol.Envelope) error {
	req, err := protocol.DecodeData[protocol.RegRequest](env)
	if err != nil {
		return err
	}

	// A bound session's id already belongs to a stored player, so a new
	// name registered on it gets a fresh one
	candidate := sess.PlayerID
	if sess.Player != nil {
		candidate = d.sessions.NextPlayerID()
	}

	reg, err := d.auth.Register(ctx, req.Name, req.Password, candidate)
	if err != nil {
		return err
	}

	ack := protocol.RegResponse{Name: reg.Player.Name, Index: int(reg.Player.ID)}
	if reg.WrongPassword {
		ack.Error = true
		ack.ErrorText = WrongPasswordText
	} else {
		roomIDs, err := d.lobby.RoomIDsForPlayer(ctx, reg.Player.ID)
		if err != nil {
			d.logger.Warn("failed to load rooms for player",
				slog.Int("player_id", int(reg.Player.ID)),
				slog.String("error", err.Error()),
			)
		}
		d.sessions.Bind(conn, reg.Player, roomIDs)
	}

	d.broadcaster.Send(conn, protocol.TypeReg, ack, env.ID)

	all := d.sessions.All()
	d.broadcaster.UpdateRooms(ctx, all)
	d.broadcaster.UpdateWinners(ctx, all)
	return nil
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, conn session.Conn, sess session.Session) error {
	room, err := d.lobby.CreateRoom(ctx, sess.Player)
	if err != nil {
		return err
	}
	d.sessions.SetRooms(conn, appendRoom(sess.RoomIDs, room.RoomID))

	d.broadcaster.UpdateRooms(ctx, []session.Conn{conn})
	return nil
}

func (d *Dispatcher) handleAddUserToRoom(ctx context.Context, conn session.Conn, sess session.Session, env protocol.Envelope) error {
	req, err := protocol.DecodeData[protocol.AddUserToRoomRequest](env)
	if err != nil {
		return err
	}

	room, err := d.lobby.JoinRoom(ctx, model.RoomID(req.IndexRoom), sess.Player)
	if err != nil {
		return err
	}
	d.sessions.SetRooms(conn, appendRoom(sess.RoomIDs, room.RoomID))

	gameID := *room.GameID
	members := d.sessions.ByRoom(room.RoomID)
	d.broadcaster.UpdateRooms(ctx, members)

	for _, member := range members {
		memberSess, ok := d.sessions.SetGame(member, gameID)
		if !ok {
			continue
		}
		d.broadcaster.Send(member, protocol.TypeCreateGame, protocol.CreateGameResponse{
			IDGame:   int(gameID),
			IDPlayer: int(memberSess.PlayerID),
		}, 0)
	}
	return nil
}

func (d *Dispatcher) handleAddShips(ctx context.Context, conn session.Conn, env protocol.Envelope) error {
	req, err := protocol.DecodeData[protocol.AddShipsRequest](env)
	if err != nil {
		return err
	}
	board := req.FleetBoard()

	room, ready, err := d.lobby.SubmitFleet(ctx, board)
	if err != nil {
		return err
	}
	d.sessions.SetGame(conn, board.GameID)

	if !ready {
		return nil
	}

	first := game.FirstTurn(board.IndexPlayer)
	players := d.sessions.ByGame(board.GameID)
	for _, player := range players {
		ships := board.Ships
		if playerSess, ok := d.sessions.Get(player); ok {
			if own := room.BoardOf(playerSess.PlayerID); own != nil {
				ships = own.Ships
			}
		}
		d.broadcaster.Send(player, protocol.TypeStartGame, protocol.StartGameResponse{
			Ships:              protocol.ShipsFromModel(ships),
			CurrentPlayerIndex: int(first),
		}, 0)
	}
	d.broadcaster.Turn(players, first)

	d.logger.Info("game started",
		slog.Int("game_id", int(board.GameID)),
		slog.Int("room_id", int(room.RoomID)),
		slog.Int("first_player", int(first)),
	)
	return nil
}

func (d *Dispatcher) handleAttack(ctx context.Context, sess session.Session, env protocol.Envelope) error {
	req, err := protocol.DecodeData[protocol.AttackRequest](env)
	if err != nil {
		return err
	}

	gameID := gameFor(sess, req.GameID)
	outcome, err := d.games.ResolveAttack(ctx, gameID, model.PlayerID(req.IndexPlayer),
		model.Coordinate{X: req.X, Y: req.Y})
	if err != nil {
		return err
	}
	d.announce(ctx, outcome)
	return nil
}

func (d *Dispatcher) handleRandomAttack(ctx context.Context, sess session.Session, env protocol.Envelope) error {
	req, err := protocol.DecodeData[protocol.RandomAttackRequest](env)
	if err != nil {
		return err
	}

	gameID := gameFor(sess, req.GameID)
	outcome, err := d.games.RandomAttack(ctx, gameID, model.PlayerID(req.IndexPlayer))
	if err != nil {
		return err
	}
	d.announce(ctx, outcome)
	return nil
}

func (d *Dispatcher) announce(ctx context.Context, outcome *model.AttackOutcome) {
	d.broadcaster.Attack(d.sessions.ByGame(outcome.GameID), outcome)
	if outcome.IsGameOver {
		d.broadcaster.UpdateWinners(ctx, d.sessions.All())
	}
}

// gameFor prefers the game bound to the session over the one named in
// the payload
func gameFor(sess session.Session, requested int) model.GameID {
	if sess.GameID != nil {
		return *sess.GameID
	}
	return model.GameID(requested)
}

func appendRoom(ids []model.RoomID, id model.RoomID) []model.RoomID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
