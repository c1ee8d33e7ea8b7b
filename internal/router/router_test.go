package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-kb/internal/admission"
	"podcast-kb/internal/handlers"
	"podcast-kb/internal/middleware"
	"podcast-kb/internal/models"
	"podcast-kb/internal/search"
	"podcast-kb/internal/services"
	"podcast-kb/internal/websocket"
	"podcast-kb/internal/worker"
)

type testServer struct {
	*httptest.Server
	controller *admission.Controller
	hub        *websocket.Hub
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()

	engine := search.NewEngine(&models.Corpus{
		Hosts:    []models.Host{{ID: 1, Name: "klaatu"}},
		Episodes: []models.Episode{{ID: 1, Title: "Linux intro", HostID: 1, Date: "2020-01-01"}},
	})
	ops := services.NewOperations(engine)
	controller := admission.NewController(admission.Config{MemoryThreshold: -1})
	hub := websocket.NewHub("/api/v1/messages", controller.Precheck)
	pool := worker.NewPool(ops, hub, 2, 8)
	pool.Start()

	handler := New(
		handlers.NewMessageHandler(hub, controller, pool),
		handlers.NewHealthHandler(controller, hub),
		handlers.NewStatsHandler(ops),
		handlers.NewAdminHandler(controller),
		hub,
		Options{AdminToken: "secret", RateLimiter: middleware.NewRateLimiter(limit, time.Minute)},
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
		pool.Stop()
	})
	return &testServer{Server: srv, controller: controller, hub: hub}
}

func (s *testServer) dial(t *testing.T) (*gorillaws.Conn, models.EndpointEvent) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var frame struct {
		Type    string               `json:"type"`
		Payload models.EndpointEvent `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, models.WSTypeEndpoint, frame.Type)
	return conn, frame.Payload
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_RoundTrip(t *testing.T) {
	srv := newTestServer(t, 50)
	conn, endpoint := srv.dial(t)

	assert.Equal(t, "/api/v1/messages?sessionId="+endpoint.SessionID, endpoint.Endpoint)
	assert.Eventually(t, func() bool { return srv.hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	resp := post(t, srv.URL+endpoint.Endpoint, `{"id":"r1","method":"get_episode","params":{"episodeId":1}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var frame struct {
		Type    string                 `json:"type"`
		Payload models.OperationResult `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))

	assert.Equal(t, models.WSTypeResult, frame.Type)
	assert.Equal(t, "r1", frame.Payload.ID)
	assert.False(t, frame.Payload.IsError)
	assert.Contains(t, frame.Payload.Text, "HPR0001: Linux intro")
}

func TestRouter_UnknownSession(t *testing.T) {
	srv := newTestServer(t, 50)

	resp := post(t, srv.URL+"/api/v1/messages?sessionId=missing", `{"method":"get_episode"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_RateLimited(t *testing.T) {
	srv := newTestServer(t, 1)

	first := post(t, srv.URL+"/api/v1/messages?sessionId=missing", `{"method":"get_episode"}`)
	assert.Equal(t, http.StatusNotFound, first.StatusCode)

	second := post(t, srv.URL+"/api/v1/messages?sessionId=missing", `{"method":"get_episode"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestRouter_HealthAndStats(t *testing.T) {
	srv := newTestServer(t, 50)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "CLOSED", health["circuit_breaker"])

	resp, err = http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	srv := newTestServer(t, 50)
	url := srv.URL + "/api/v1/admin/circuit-breaker/reset"

	resp := post(t, url, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, url, nil)
	require.NoError(t, err)
	req.Header.Set(middleware.AdminTokenHeader, "secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestRouter_WebSocketRejectedWhileCircuitOpen(t *testing.T) {
	srv := newTestServer(t, 50)
	for i := 0; i < admission.DefaultFailureThreshold; i++ {
		srv.controller.Execute(context.Background(), func(ctx context.Context) error {
			return errors.New("boom")
		})
	}
	require.Equal(t, "OPEN", srv.controller.Status().Circuit)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
