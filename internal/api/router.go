package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/seabattle/internal/api/handler"
	"github.com/mcoot/seabattle/internal/api/middleware"
	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/game"
	"github.com/mcoot/seabattle/internal/services/lobby"
)

// ConnectionCounter reports how many game connections are live
type ConnectionCounter interface {
	ClientCount() int
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	GameController  *game.Controller
	// WebSocket serves the game protocol on /ws
	WebSocket   http.Handler
	Connections ConnectionCounter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = middleware.NotFound()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController)
	gameHandler := handler.NewGameHandler(cfg.GameController)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Game protocol
	if cfg.WebSocket != nil {
		socket := recoveryMiddleware(loggingMiddleware(cfg.WebSocket))
		r.Handle("/ws", socket).Methods(http.MethodGet)
		r.Handle("/", socket).Methods(http.MethodGet).Headers("Upgrade", "websocket")
	}

	// Read-only API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms", lobbyHandler.ListOpen).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", lobbyHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/winners", gameHandler.Winners).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler(cfg.Connections)).Methods(http.MethodGet)

	return r
}

func healthHandler(connections ConnectionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := response.Health{Status: "ok"}
		if connections != nil {
			resp.Connections = connections.ClientCount()
		}
		response.JSON(w, http.StatusOK, resp)
	}
}
