package handler

import (
	"net/http"

	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{
		gameController: gameController,
	}
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	room, err := h.gameController.GetGame(r.Context(), model.GameID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Winners handles GET /api/v1/winners
func (h *GameHandler) Winners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.gameController.ListWinners(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.WinnersFromModel(winners))
}
