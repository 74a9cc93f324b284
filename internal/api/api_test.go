package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pongserver/internal/api/apierr"
	"github.com/mcoot/pongserver/internal/api/middleware"
	"github.com/mcoot/pongserver/internal/api/response"
	"github.com/mcoot/pongserver/internal/config"
	"github.com/mcoot/pongserver/internal/factory"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/auth"
)

const adminKey = "operator-key"

// testServer wraps a test app and its router
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithConfig(t, factory.TestConfig())
}

func newTestServerWithConfig(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	app := factory.NewTestAppWithConfig(cfg)
	t.Cleanup(func() { _ = app.Shutdown() })

	return &testServer{handler: app.Router(), app: app}
}

func withAdminKey(t *testing.T) config.Config {
	t.Helper()
	hash, err := auth.HashAdminKey(adminKey)
	require.NoError(t, err)
	cfg := factory.TestConfig()
	cfg.AdminKeyHash = hash
	return cfg
}

func (ts *testServer) request(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateRoomRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "vs_ai"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)

	forged, err := auth.NewTokens(auth.Config{Secret: "not-the-secret"}, ts.app.MockClock)
	require.NoError(t, err)
	token, err := forged.Issue("mallory")
	require.NoError(t, err)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "vs_ai"}, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateVsAIRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("airoom01")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "vs_ai"}, ts.app.MustToken("alice"))
	require.Equal(t, http.StatusCreated, rr.Code)

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "airoom01", room.RoomID)
	assert.Equal(t, "vs_ai", room.Mode)
	assert.Equal(t, "waiting", room.State)
	require.Len(t, room.Players, 2)
	assert.Equal(t, "alice", room.Players[0].PlayerID)
	assert.False(t, room.Players[0].Bound)
	assert.Equal(t, string(model.AIPlayer), room.Players[1].PlayerID)
}

func TestCreateTwoPlayerRoom(t *testing.T) {
	ts := newTestServer(t)
	token := ts.app.MustToken("alice")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "two_player", "opponent": "bob"}, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "bob", room.Players[1].PlayerID)

	// Empty body means an open two-player room
	rr = ts.request(http.MethodPost, "/api/v1/rooms", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "two_player", room.Mode)
	assert.Empty(t, room.Players[1].PlayerID)
}

func TestCreateRoomValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.app.MustToken("alice")

	tests := []struct {
		name string
		body map[string]string
		code string
	}{
		{"unknown mode", map[string]string{"mode": "squash"}, apierr.CodeInvalidMode},
		{"opponent outside two_player", map[string]string{"mode": "vs_ai", "opponent": "bob"}, apierr.CodeInvalidRequest},
		{"self as opponent", map[string]string{"mode": "two_player", "opponent": "alice"}, apierr.CodeInvalidRequest},
		{"ai as opponent", map[string]string{"mode": "two_player", "opponent": "ai"}, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/rooms", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
	assert.Zero(t, ts.app.Registry.Count())
}

func TestCreateRoomSessionLimit(t *testing.T) {
	cfg := factory.TestConfig()
	cfg.Registry.MaxSessions = 1
	ts := newTestServerWithConfig(t, cfg)
	token := ts.app.MustToken("alice")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "local"}, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "local"}, token)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apierr.CodeSessionLimit, decodeError(t, rr).Code)
}

func TestGetAndListRooms(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("room0001", "room0002")
	token := ts.app.MustToken("alice")

	for range 2 {
		rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "vs_ai"}, token)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/rooms/room0002", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "room0002", room.RoomID)

	rr = ts.request(http.MethodGet, "/api/v1/rooms", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list response.RoomList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list.Rooms, 2)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/missing1", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, decodeError(t, rr).Code)
}

func TestCloseRoomDisabledWithoutAdminKey(t *testing.T) {
	ts := newTestServer(t)
	sess, err := ts.app.Registry.Create(model.ModeVsAI, [2]model.PlayerID{"alice", ""})
	require.NoError(t, err)

	rr := ts.request(http.MethodDelete, "/api/v1/rooms/"+string(sess.ID()), nil, "", middleware.AdminKeyHeader, adminKey)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 1, ts.app.Registry.Count())
}

func TestCloseRoom(t *testing.T) {
	ts := newTestServerWithConfig(t, withAdminKey(t))
	sess, err := ts.app.Registry.Create(model.ModeVsAI, [2]model.PlayerID{"alice", ""})
	require.NoError(t, err)
	path := "/api/v1/rooms/" + string(sess.ID())

	rr := ts.request(http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodDelete, path, nil, "", middleware.AdminKeyHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A player token is not an operator credential
	rr = ts.request(http.MethodDelete, path, nil, ts.app.MustToken("alice"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodDelete, path, nil, "", middleware.AdminKeyHeader, adminKey)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	select {
	case <-sess.Done():
	default:
		t.Fatal("session still running after close")
	}
	assert.Zero(t, ts.app.Registry.Count())

	rr = ts.request(http.MethodDelete, path, nil, "", middleware.AdminKeyHeader, adminKey)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPresence(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.app.Storage.AddOnlinePlayer(ctx, "bob"))
	require.NoError(t, ts.app.Storage.AddOnlinePlayer(ctx, "alice"))

	rr := ts.request(http.MethodGet, "/api/v1/presence", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var presence response.Presence
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &presence))
	assert.Equal(t, []string{"alice", "bob"}, presence.Players)
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	start := ts.app.MockClock.Now()

	for i, winner := range []model.PlayerID{"alice", "bob", ""} {
		require.NoError(t, ts.app.Storage.SaveMatchResult(ctx, &model.MatchResult{
			ID:          string(rune('a' + i)),
			RoomID:      model.RoomID("room000" + string(rune('1'+i))),
			Mode:        model.ModeTwoPlayer,
			PlayerLeft:  "alice",
			PlayerRight: "bob",
			Winner:      winner,
			Reason:      model.ResultCompleted,
			StartedAt:   start,
			FinishedAt:  start.Add(time.Duration(i+1) * time.Minute),
		}))
	}

	rr := ts.request(http.MethodGet, "/api/v1/players/alice/history", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var hist response.History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	assert.Equal(t, "alice", hist.PlayerID)
	require.Len(t, hist.Matches, 3)
	assert.Equal(t, "room0003", hist.Matches[0].RoomID)
	assert.Nil(t, hist.Matches[0].Winner)
	require.NotNil(t, hist.Matches[2].Winner)
	assert.Equal(t, "alice", *hist.Matches[2].Winner)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/history?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	assert.Len(t, hist.Matches, 1)

	rr = ts.request(http.MethodGet, "/api/v1/players/alice/history?limit=zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/carol/history", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hist))
	assert.Empty(t, hist.Matches)
}
