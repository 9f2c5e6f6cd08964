package handler

import (
	"net/http"

	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/services/auth"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService *auth.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
	}
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.authService.GetPlayer(r.Context(), model.PlayerID(id))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
