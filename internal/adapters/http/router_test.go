package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:            "release",
		Port:            0,
		StaticPath:      "./testdata",
		ReadLimit:       32768,
		PingPeriod:      54 * time.Second,
		SendTimeout:     5 * time.Second,
		SendBuffer:      32,
		FrameRateLimit:  25,
		FrameRateWindow: 10 * time.Second,
		Secret:          "test-secret",
	}
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestRoomsEndpoints(t *testing.T) {
	orch := &app.Orchestrator{Registry: core.NewRegistry()}
	r := SetupRouter(context.Background(), testConfig(), orch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rooms struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Empty(t, rooms.Rooms)

	orch.Join("r1", "alice", "conn-a", nopConn{})

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var room struct {
		Name        string   `json:"name"`
		MemberCount int      `json:"member_count"`
		Online      []string `json:"online"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.Equal(t, "r1", room.Name)
	assert.Equal(t, 1, room.MemberCount)
	assert.Equal(t, []string{"alice"}, room.Online)

	// absent room reads as empty, not as an error
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/ghost", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.Equal(t, 0, room.MemberCount)
	assert.Empty(t, room.Online)
}

func TestMeWithoutSession(t *testing.T) {
	orch := &app.Orchestrator{Registry: core.NewRegistry()}
	r := SetupRouter(context.Background(), testConfig(), orch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Empty(t, me.Username)
}

func TestMetricsExposed(t *testing.T) {
	orch := &app.Orchestrator{Registry: core.NewRegistry()}
	r := SetupRouter(context.Background(), testConfig(), orch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parley_")
}
