package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/seabattle/internal/dependencies/sequence"
	"github.com/mcoot/seabattle/internal/model"
)

// Conn is a live client connection as seen by the registry
type Conn interface {
	// ID uniquely identifies the connection for its lifetime
	ID() string
	// Send queues an encoded message; it must not block
	Send(msg []byte) error
}

// RoomLookup resolves which rooms a player already occupies
type RoomLookup interface {
	RoomIDsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomID, error)
}

// Session is the per-connection binding of a player to its rooms and game
type Session struct {
	ConnID   string
	PlayerID model.PlayerID
	Player   *model.Player // nil until registration succeeds
	RoomIDs  []model.RoomID
	GameID   *model.GameID
}

func (s Session) clone() Session {
	s.RoomIDs = slices.Clone(s.RoomIDs)
	if s.Player != nil {
		p := *s.Player
		s.Player = &p
	}
	if s.GameID != nil {
		g := *s.GameID
		s.GameID = &g
	}
	return s
}

type entry struct {
	conn    Conn
	session Session
}

// Registry tracks every live connection's session. Safe for concurrent use.
type Registry struct {
	rooms     RoomLookup
	playerIDs *sequence.Sequence
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty Registry
func NewRegistry(rooms RoomLookup, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:     rooms,
		playerIDs: sequence.New(),
		logger:    logger.With(slog.String("component", "session")),
		entries:   make(map[string]*entry),
	}
}

// ResumeAfter makes newly minted player ids start above floor
func (r *Registry) ResumeAfter(floor model.PlayerID) {
	r.playerIDs.ResumeAfter(int(floor))
}

// NextPlayerID mints a player id no session has been given
func (r *Registry) NextPlayerID() model.PlayerID {
	return model.PlayerID(r.playerIDs.Next())
}

// Register creates a session for conn under a freshly minted player id
func (r *Registry) Register(ctx context.Context, conn Conn) Session {
	playerID := r.NextPlayerID()

	roomIDs, err := r.rooms.RoomIDsForPlayer(ctx, playerID)
	if err != nil {
		r.logger.Warn("failed to load rooms for new session",
			slog.String("conn_id", conn.ID()),
			slog.Int("player_id", int(playerID)),
			slog.String("error", err.Error()),
		)
	}

	sess := Session{ConnID: conn.ID(), PlayerID: playerID, RoomIDs: roomIDs}

	r.mu.Lock()
	r.entries[conn.ID()] = &entry{conn: conn, session: sess}
	count := len(r.entries)
	r.mu.Unlock()

	r.logger.Info("session registered",
		slog.String("conn_id", conn.ID()),
		slog.Int("player_id", int(playerID)),
		slog.Int("sessions", count),
	)
	return sess.clone()
}

// Bind attaches a logged-in player to conn, keeping its active game
func (r *Registry) Bind(conn Conn, player model.Player, roomIDs []model.RoomID) (Session, bool) {
	return r.update(conn, func(s *Session) {
		s.PlayerID = player.ID
		s.Player = &player
		s.RoomIDs = slices.Clone(roomIDs)
	})
}

// SetRooms replaces conn's room memberships
func (r *Registry) SetRooms(conn Conn, roomIDs []model.RoomID) (Session, bool) {
	return r.update(conn, func(s *Session) {
		s.RoomIDs = slices.Clone(roomIDs)
	})
}

// SetGame marks gameID as conn's active game
func (r *Registry) SetGame(conn Conn, gameID model.GameID) (Session, bool) {
	return r.update(conn, func(s *Session) {
		s.GameID = &gameID
	})
}

func (r *Registry) update(conn Conn, fn func(*Session)) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[conn.ID()]
	if !ok {
		return Session{}, false
	}
	fn(&e.session)
	return e.session.clone(), true
}

// Get returns a copy of conn's session
func (r *Registry) Get(conn Conn) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[conn.ID()]
	if !ok {
		return Session{}, false
	}
	return e.session.clone(), true
}

// ByRoom returns the connections whose session includes roomID
func (r *Registry) ByRoom(roomID model.RoomID) []Conn {
	return r.filter(func(s *Session) bool {
		return slices.Contains(s.RoomIDs, roomID)
	})
}

// ByGame returns the connections whose active game is gameID
func (r *Registry) ByGame(gameID model.GameID) []Conn {
	return r.filter(func(s *Session) bool {
		return s.GameID != nil && *s.GameID == gameID
	})
}

// All returns every live connection
func (r *Registry) All() []Conn {
	return r.filter(func(*Session) bool { return true })
}

func (r *Registry) filter(keep func(*Session) bool) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var conns []Conn
	for _, e := range r.entries {
		if keep(&e.session) {
			conns = append(conns, e.conn)
		}
	}
	return conns
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Unregister removes conn's session and returns what it held
func (r *Registry) Unregister(conn Conn) (Session, bool) {
	r.mu.Lock()
	e, ok := r.entries[conn.ID()]
	delete(r.entries, conn.ID())
	r.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	return e.session, true
}
