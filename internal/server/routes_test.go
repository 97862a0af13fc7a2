package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuneclash/tuneclash-backend/internal"
	"github.com/tuneclash/tuneclash-backend/internal/auth"
	"github.com/tuneclash/tuneclash-backend/internal/game"
	"github.com/tuneclash/tuneclash-backend/internal/metadata"
	"github.com/tuneclash/tuneclash-backend/internal/session"
)

type stubAuth struct{}

func (stubAuth) AuthURL(state string) string { return "https://provider.example/authorize?state=" + state }
func (stubAuth) Exchange(context.Context, string) (string, int, error) {
	return "token", 3600, nil
}
func (stubAuth) Profile(context.Context, string) (auth.Identity, error) {
	return auth.Identity{ID: "user-1", DisplayName: "Alice"}, nil
}

func newTestServer() *Server {
	sessions := session.NewStore([]byte("test-key"))
	registry := game.NewRegistry()
	provider := metadata.NewHTTPProvider("http://127.0.0.1:1")

	return &Server{
		port:     0,
		sessions: sessions,
		registry: registry,
		gateway:  game.NewGateway(registry, provider, sessions),
		authProv: stubAuth{},
	}
}

func TestHelloWorldHandler(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Hello World"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/rooms-available", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetRoomToJoin(t *testing.T) {
	s := newTestServer()

	// No rooms yet.
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms-available", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.registry.GetOrCreate("room1", "conn-1")

	rec = httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms-available", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp internal.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "room1", resp.Data)
}

func TestLoginRedirectsToProvider(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://provider.example/authorize?state=")
}

func TestCallbackWithoutCode(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	s := newTestServer()
	router := s.RegisterRoutes()

	sess, err := s.sessions.Create("user-1", "Alice", time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session/"+sess.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got session.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Alice", got.DisplayName)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/session/"+sess.ID+"/refresh", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout/"+sess.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session/"+sess.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
