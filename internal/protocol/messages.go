package protocol

import "github.com/mcoot/seabattle/internal/model"

// Position is a board coordinate on the wire
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Ship is a ship placement on the wire
type Ship struct {
	Position  Position `json:"position"`
	Direction bool     `json:"direction"`
	Length    int      `json:"length"`
	Type      string   `json:"type"`
}

// RegRequest is the reg command payload
type RegRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegResponse acknowledges reg to the caller only
type RegResponse struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// AddUserToRoomRequest is the add_user_to_room command payload
type AddUserToRoomRequest struct {
	IndexRoom int `json:"indexRoom"`
}

// AddShipsRequest is the add_ships command payload
type AddShipsRequest struct {
	GameID      int    `json:"gameId"`
	Ships       []Ship `json:"ships"`
	IndexPlayer int    `json:"indexPlayer"`
}

// AttackRequest is the attack command payload
type AttackRequest struct {
	GameID      int `json:"gameId"`
	X           int `json:"x"`
	Y           int `json:"y"`
	IndexPlayer int `json:"indexPlayer"`
}

// RandomAttackRequest is the randomAttack command payload
type RandomAttackRequest struct {
	GameID      int `json:"gameId"`
	IndexPlayer int `json:"indexPlayer"`
}

// RoomUser is an occupant in an update_room entry
type RoomUser struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Room is one entry of update_room
type Room struct {
	RoomID    int        `json:"roomId"`
	RoomUsers []RoomUser `json:"roomUsers"`
}

// Winner is one entry of update_winners
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// CreateGameResponse tells one connection the game id and its player id
type CreateGameResponse struct {
	IDGame   int `json:"idGame"`
	IDPlayer int `json:"idPlayer"`
}

// StartGameResponse carries the recipient's fleet and the opening player
type StartGameResponse struct {
	Ships              []Ship `json:"ships"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
}

// AttackResponse reports one resolved cell
type AttackResponse struct {
	Position      Position `json:"position"`
	CurrentPlayer int      `json:"currentPlayer"`
	Status        string   `json:"status"`
}

// TurnResponse announces whose turn it is
type TurnResponse struct {
	CurrentPlayer int `json:"currentPlayer"`
}

// FinishResponse announces the winner
type FinishResponse struct {
	WinPlayer int `json:"winPlayer"`
}

// Conversions

func PositionFromModel(c model.Coordinate) Position {
	return Position{X: c.X, Y: c.Y}
}

func ShipsFromModel(ships []model.Ship) []Ship {
	out := make([]Ship, 0, len(ships))
	for _, s := range ships {
		out = append(out, Ship{
			Position:  PositionFromModel(s.Position),
			Direction: s.Direction,
			Length:    s.Length,
			Type:      string(s.Type),
		})
	}
	return out
}

func ShipsToModel(ships []Ship) []model.Ship {
	out := make([]model.Ship, 0, len(ships))
	for _, s := range ships {
		out = append(out, model.Ship{
			Position:  model.Coordinate{X: s.Position.X, Y: s.Position.Y},
			Direction: s.Direction,
			Length:    s.Length,
			Type:      model.ShipKind(s.Type),
		})
	}
	return out
}

// FleetBoard converts an add_ships payload into a board
func (r AddShipsRequest) FleetBoard() model.FleetBoard {
	return model.FleetBoard{
		GameID:      model.GameID(r.GameID),
		IndexPlayer: model.PlayerID(r.IndexPlayer),
		Ships:       ShipsToModel(r.Ships),
	}
}

func RoomsFromModel(rooms []*model.Room) []Room {
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		users := make([]RoomUser, 0, len(r.RoomUsers))
		for _, u := range r.RoomUsers {
			users = append(users, RoomUser{Name: u.Name, Index: int(u.Index)})
		}
		out = append(out, Room{RoomID: int(r.RoomID), RoomUsers: users})
	}
	return out
}

func WinnersFromModel(winners []model.Winner) []Winner {
	out := make([]Winner, 0, len(winners))
	for _, w := range winners {
		out = append(out, Winner{Name: w.Name, Wins: w.Wins})
	}
	return out
}
