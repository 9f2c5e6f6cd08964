package dispatch

import (
	"context"
	"log/slog"

	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/protocol"
	"github.com/mcoot/seabattle/internal/session"
)

// RoomLister provides the open-room list for update_room
type RoomLister interface {
	ListOpenRooms(ctx context.Context) ([]*model.Room, error)
}

// WinnerLister provides the winners table for update_winners
type WinnerLister interface {
	ListWinners(ctx context.Context) ([]model.Winner, error)
}

// Broadcaster encodes events and pushes them to connections. A failed
// send is logged and skipped; it never blocks the caller.
type Broadcaster struct {
	rooms   RoomLister
	winners WinnerLister
	logger  *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(rooms RoomLister, winners WinnerLister, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		rooms:   rooms,
		winners: winners,
		logger:  logger.With(slog.String("component", "broadcaster")),
	}
}

// Send delivers one event to a single connection
func (b *Broadcaster) Send(conn session.Conn, msgType protocol.MessageType, payload any, id int) {
	frame, err := protocol.Encode(msgType, payload, id)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()),
		)
		return
	}
	b.deliver(conn, msgType, frame)
}

// Broadcast delivers one event to every connection in conns
func (b *Broadcaster) Broadcast(conns []session.Conn, msgType protocol.MessageType, payload any) {
	if len(conns) == 0 {
		return
	}
	frame, err := protocol.Encode(msgType, payload, 0)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, conn := range conns {
		b.deliver(conn, msgType, frame)
	}
}

func (b *Broadcaster) deliver(conn session.Conn, msgType protocol.MessageType, frame []byte) {
	if err := conn.Send(frame); err != nil {
		b.logger.Warn("dropping event for connection",
			slog.String("conn_id", conn.ID()),
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()),
		)
	}
}

// UpdateRooms sends the current open-room list to conns
func (b *Broadcaster) UpdateRooms(ctx context.Context, conns []session.Conn) {
	rooms, err := b.rooms.ListOpenRooms(ctx)
	if err != nil {
		b.logger.Error("failed to list open rooms", slog.String("error", err.Error()))
		return
	}
	b.Broadcast(conns, protocol.TypeUpdateRoom, protocol.RoomsFromModel(rooms))
}

// UpdateWinners sends the winners table to conns
func (b *Broadcaster) UpdateWinners(ctx context.Context, conns []session.Conn) {
	winners, err := b.winners.ListWinners(ctx)
	if err != nil {
		b.logger.Error("failed to list winners", slog.String("error", err.Error()))
		return
	}
	b.Broadcast(conns, protocol.TypeUpdateWinners, protocol.WinnersFromModel(winners))
}

// Turn announces whose turn it is
func (b *Broadcaster) Turn(conns []session.Conn, player model.PlayerID) {
	b.Broadcast(conns, protocol.TypeTurn, protocol.TurnResponse{CurrentPlayer: int(player)})
}

// Attack reports the resolution of outcome: the targeted cell, then each
// perimeter cell of a kill as a miss followed by the attacker's turn, then
// the next turn. A finishing attack is followed by finish.
func (b *Broadcaster) Attack(conns []session.Conn, outcome *model.AttackOutcome) {
	attacker := int(outcome.Attacker)

	b.Broadcast(conns, protocol.TypeAttack, protocol.AttackResponse{
		Position:      protocol.PositionFromModel(outcome.Target),
		CurrentPlayer: attacker,
		Status:        string(outcome.Status),
	})

	for _, cell := range outcome.MissedCells {
		b.Broadcast(conns, protocol.TypeAttack, protocol.AttackResponse{
			Position:      protocol.PositionFromModel(cell),
			CurrentPlayer: attacker,
			Status:        string(model.AttackMiss),
		})
		b.Turn(conns, outcome.Attacker)
	}

	b.Turn(conns, outcome.NextPlayer)

	if outcome.IsGameOver {
		b.Broadcast(conns, protocol.TypeFinish, protocol.FinishResponse{WinPlayer: attacker})
	}
}
