package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Room:
		o.printRoom(v)
	case []Room:
		o.printRooms(v)
	case []Winner:
		o.printWinners(v)
	case Player:
		o.printPlayer(v)
	case Event:
		o.printEvent(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// Player response type (matches API)
type Player struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomUser response type
type RoomUser struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	ShipsSubmitted bool   `json:"ships_submitted"`
	ShotsFired     int    `json:"shots_fired"`
}

// Room response type, also used for games
type Room struct {
	RoomID int        `json:"room_id"`
	GameID *int       `json:"game_id"`
	State  string     `json:"state"`
	Users  []RoomUser `json:"users"`
	Winner *int       `json:"winner"`
}

// Winner response type
type Winner struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Event is one message received over the game socket
type Event struct {
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %d\n", r.RoomID)
	fmt.Fprintf(o.w, "State: %s\n", r.State)
	if r.GameID != nil {
		fmt.Fprintf(o.w, "Game: %d\n", *r.GameID)
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Users))
	for _, u := range r.Users {
		fleet := "no fleet"
		if u.ShipsSubmitted {
			fleet = fmt.Sprintf("%d shots fired", u.ShotsFired)
		}
		winner := ""
		if r.Winner != nil && *r.Winner == u.Index {
			winner = " [winner]"
		}
		fmt.Fprintf(o.w, "  - %s (%d) - %s%s\n", u.Name, u.Index, fleet, winner)
	}
}

func (o *Output) printRooms(rooms []Room) {
	if len(rooms) == 0 {
		fmt.Fprintln(o.w, "No open rooms")
		return
	}
	for _, r := range rooms {
		names := make([]string, 0, len(r.Users))
		for _, u := range r.Users {
			names = append(names, u.Name)
		}
		fmt.Fprintf(o.w, "%d\t%s\n", r.RoomID, strings.Join(names, ", "))
	}
}

func (o *Output) printWinners(winners []Winner) {
	if len(winners) == 0 {
		fmt.Fprintln(o.w, "No winners yet")
		return
	}
	for i, w := range winners {
		fmt.Fprintf(o.w, "%2d. %-20s %d\n", i+1, w.Name, w.Wins)
	}
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s (%d)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Registered: %s\n", p.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printEvent(e Event) {
	timestamp := e.Time.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(e.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, e.Type, displayData)
}
