package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/dispatch"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	adminEndpoints "github.com/Playtag-Media/boxfleet/internal/http/api/admin/endpoints"
	agentEndpoints "github.com/Playtag-Media/boxfleet/internal/http/api/agent/endpoints"
	"github.com/Playtag-Media/boxfleet/internal/http/middleware"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

const (
	testSecret = "test-secret"
	testIssuer = "ops@example.com"
)

// TestMain runs once for the whole package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	store  *db.MemStore
	clk    *clock.Fake
	token  string
}

// nullNotifier satisfies alert.Notifier for API tests; delivery is
// covered by the service-level tests.
type nullNotifier struct{}

func (nullNotifier) DeviceOnline(string, *string)                 {}
func (nullNotifier) DeviceOffline(string, *string, time.Duration) {}
func (nullNotifier) RestartRequested(string)                      {}

// newTestServer wires the full route table against an in-memory store,
// mirroring the production setup in cmd/server.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := db.NewMemStore()
	clk := clock.NewFake(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	reg := registry.New(store, nullNotifier{}, clk)
	commands := dispatch.New(store, clk)

	router := gin.New()
	api.MountGroup(router, api.GroupConfig{
		Prefix: "/api/agent",
	},
		agentEndpoints.AgentModule(reg, commands),
	)
	api.MountGroup(router, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: testSecret,
	},
		adminEndpoints.DeviceModule(store, reg),
		adminEndpoints.CommandModule(commands),
		adminEndpoints.ScheduleModule(store, clk),
	)

	token, err := middleware.GenerateJWT(testIssuer, testSecret)
	require.NoError(t, err)

	return &testServer{router: router, store: store, clk: clk, token: token}
}

// do performs one request; a non-nil payload is sent as JSON, and admin
// paths get the bearer token.
func (s *testServer) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if len(path) >= 10 && path[:10] == "/api/admin" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "response should be valid JSON: %s", w.Body.String())
}

// registerDevice seeds one device through the public register endpoint.
func (s *testServer) registerDevice(t *testing.T) string {
	t.Helper()
	uuid := guuid.NewString()
	w := s.do(t, http.MethodPost, "/api/agent/devices/register", gin.H{"uuid": uuid})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return uuid
}
