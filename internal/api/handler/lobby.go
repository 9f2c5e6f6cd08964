package handler

import (
	"net/http"

	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/lobby"
)

// LobbyHandler handles room-related endpoints
type LobbyHandler struct {
	lobbyController *lobby.Controller
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbyController *lobby.Controller) *LobbyHandler {
	return &LobbyHandler{
		lobbyController: lobbyController,
	}
}

// ListOpen handles GET /api/v1/rooms
func (h *LobbyHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.lobbyController.ListOpenRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomsFromModel(rooms))
}

// Get handles GET /api/v1/rooms/{id}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.lobbyController.GetRoom(r.Context(), model.RoomID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}
