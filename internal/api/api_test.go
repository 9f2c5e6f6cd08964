package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/seabattle/internal/api"
	"github.com/mcoot/seabattle/internal/api/apierr"
	"github.com/mcoot/seabattle/internal/api/response"
	"github.com/mcoot/seabattle/internal/factory"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		GameController:  app.GameController,
		WebSocket:       app.Hub,
		Connections:     app.Hub,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

// seedGame creates an open room for carol and a full room between alice
// and bob with both fleets placed
func (ts *testServer) seedGame(t *testing.T) model.GameID {
	t.Helper()
	ctx := context.Background()
	alice := &model.Player{ID: 1, Name: "alice"}
	bob := &model.Player{ID: 2, Name: "bob"}
	carol := &model.Player{ID: 3, Name: "carol"}

	room, err := ts.app.LobbyController.CreateRoom(ctx, alice)
	require.NoError(t, err)
	room, err = ts.app.LobbyController.JoinRoom(ctx, room.RoomID, bob)
	require.NoError(t, err)
	_, err = ts.app.LobbyController.CreateRoom(ctx, carol)
	require.NoError(t, err)

	gameID := *room.GameID
	ship := model.Ship{Position: model.Coordinate{X: 0, Y: 0}, Length: 1, Type: model.ShipSmall}
	for _, p := range []*model.Player{alice, bob} {
		_, _, err = ts.app.LobbyController.SubmitFleet(ctx, model.FleetBoard{GameID: gameID, IndexPlayer: p.ID, Ships: []model.Ship{ship}})
		require.NoError(t, err)
	}
	return gameID
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.Connections)
}

func TestListOpenRooms(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/rooms")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	ts.seedGame(t)

	rooms := decode[[]response.Room](t, ts.get("/api/v1/rooms"))
	require.Len(t, rooms, 1)
	assert.Equal(t, 2, rooms[0].RoomID)
	assert.Equal(t, "forming", rooms[0].State)
	assert.Equal(t, "carol", rooms[0].Users[0].Name)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.seedGame(t)

	rr := ts.get("/api/v1/rooms/1")
	assert.Equal(t, http.StatusOK, rr.Code)

	room := decode[response.Room](t, rr)
	assert.Equal(t, "active", room.State)
	require.NotNil(t, room.GameID)
	assert.Equal(t, 1, *room.GameID)
	require.Len(t, room.Users, 2)
	assert.True(t, room.Users[0].ShipsSubmitted)
	assert.NotContains(t, rr.Body.String(), "ships\"", "fleet layouts stay private")
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/rooms/42")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeRoomNotFound, errResp.Error.Code)
}

func TestGetRoomInvalidID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/rooms/abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeInvalidRequest, errResp.Error.Code)
}

func TestGetGameAfterWin(t *testing.T) {
	ts := newTestServer(t)
	gameID := ts.seedGame(t)

	_, err := ts.app.GameController.ResolveAttack(context.Background(), gameID, 1, model.Coordinate{X: 0, Y: 0})
	require.NoError(t, err)

	rr := ts.get("/api/v1/games/1")
	assert.Equal(t, http.StatusOK, rr.Code)

	game := decode[response.Room](t, rr)
	assert.Equal(t, "finished", game.State)
	require.NotNil(t, game.Winner)
	assert.Equal(t, 1, *game.Winner)
	assert.Equal(t, 9, game.Users[0].ShotsFired) // target plus 8 perimeter cells

	winners := decode[[]response.Winner](t, ts.get("/api/v1/winners"))
	assert.Equal(t, []response.Winner{{Name: "alice", Wins: 1}}, winners)
}

func TestGetGameNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/games/7")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestWinnersEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/winners")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.app.AuthService.Register(context.Background(), "alice", "pw", 1)
	require.NoError(t, err)

	rr := ts.get("/api/v1/players/1")
	assert.Equal(t, http.StatusOK, rr.Code)
	player := decode[response.Player](t, rr)
	assert.Equal(t, "alice", player.Name)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = ts.get("/api/v1/players/2")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)
}
