package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-codec/internal/auth"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
)

func securedConfig(t *testing.T) config.SecurityConfig {
	t.Helper()
	hash, err := auth.HashSecret("reader-secret")
	require.NoError(t, err)
	writerHash, err := auth.HashSecret("writer-secret")
	require.NoError(t, err)
	return config.SecurityConfig{
		Enabled: true,
		JWT:     config.JWTConfig{Secret: testJWTSecret, AccessTokenTTL: 5},
		Clients: []config.APIClient{
			{ID: "dashboard", SecretHash: hash, Scopes: []string{auth.ScopeRead}},
			{ID: "scada", SecretHash: writerHash, Scopes: []string{auth.ScopeWrite}},
		},
	}
}

// ─── Token endpoint ─────────────────────────────────────────────────

func TestToken(t *testing.T) {
	_, ts := testServer(t, securedConfig(t))

	status, body := do(t, ts, http.MethodPost, "/api/v1/auth/token", "",
		map[string]any{"client_id": "dashboard", "client_secret": "reader-secret"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, []any{"read"}, body["scopes"])

	status, body = do(t, ts, http.MethodPost, "/api/v1/auth/token", "",
		map[string]any{"client_id": "dashboard", "client_secret": "guess"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrCodeUnauthorized, body["code"])

	status, _ = do(t, ts, http.MethodPost, "/api/v1/auth/token", "", map[string]any{"client_id": "dashboard"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestToken_DisabledWithoutSecurity(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	resp, err := ts.Client().Post(ts.URL+"/api/v1/auth/token", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNew_InvalidClients(t *testing.T) {
	srv, _ := testServer(t, config.SecurityConfig{})

	_, err := New(Deps{
		Logger:   srv.logger,
		Registry: srv.registry,
		Decoder:  srv.decoder,
		Security: config.SecurityConfig{Clients: []config.APIClient{{ID: "x", SecretHash: "plain"}}},
	})
	assert.ErrorIs(t, err, auth.ErrInvalidHash)
}

// ─── Scopes ─────────────────────────────────────────────────────────

func TestScopes(t *testing.T) {
	_, ts := testServer(t, securedConfig(t))

	token := func(id, secret string) string {
		status, body := do(t, ts, http.MethodPost, "/api/v1/auth/token", "",
			map[string]any{"client_id": id, "client_secret": secret})
		require.Equal(t, http.StatusOK, status, body)
		return body["access_token"].(string)
	}
	reader := token("dashboard", "reader-secret")
	writer := token("scada", "writer-secret")

	decode := map[string]any{"token": "9.001", "data": "0C33"}
	encode := map[string]any{"token": "9.001", "value": 21.5}

	status, _ := do(t, ts, http.MethodPost, "/api/v1/decode", "", decode)
	assert.Equal(t, http.StatusUnauthorized, status, "no token")

	status, _ = do(t, ts, http.MethodPost, "/api/v1/decode", "not-a-jwt", decode)
	assert.Equal(t, http.StatusUnauthorized, status, "garbage token")

	status, _ = do(t, ts, http.MethodPost, "/api/v1/decode", reader, decode)
	assert.Equal(t, http.StatusOK, status, "reader decodes")

	status, body := do(t, ts, http.MethodPost, "/api/v1/encode", reader, encode)
	assert.Equal(t, http.StatusForbidden, status, "reader cannot encode")
	assert.Equal(t, ErrCodeForbidden, body["code"])

	status, _ = do(t, ts, http.MethodPost, "/api/v1/encode", writer, encode)
	assert.Equal(t, http.StatusOK, status, "writer encodes")

	status, _ = do(t, ts, http.MethodGet, "/api/v1/datapoints", writer, nil)
	assert.Equal(t, http.StatusOK, status, "write implies read")

	status, _ = do(t, ts, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status, "health stays open")
}

// ─── WebSocket ──────────────────────────────────────────────────────

func wsURL(ts string) string {
	return "ws" + strings.TrimPrefix(ts, "http") + "/api/v1/ws"
}

func TestWebSocket_SubscribeAndBroadcast(t *testing.T) {
	srv, ts := testServer(t, config.SecurityConfig{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{"values"}},
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ack WSMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, WSTypeResponse, ack.Type)
	assert.Equal(t, "1", ack.ID)

	require.Eventually(t, func() bool { return srv.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	srv.hub.Broadcast("errors", map[string]any{"datapoint": "ignored"})
	srv.hub.Broadcast("values", map[string]any{"datapoint": "flow_temp", "value": 21.5})

	var ev WSMessage
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, WSTypeEvent, ev.Type)
	assert.Equal(t, "values", ev.EventType)
	assert.Equal(t, map[string]any{"datapoint": "flow_temp", "value": 21.5}, ev.Payload)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "2"}))
	var pong WSMessage
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, WSTypePong, pong.Type)
}

func TestWebSocket_RequiresToken(t *testing.T) {
	_, ts := testServer(t, securedConfig(t))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, body := do(t, ts, http.MethodPost, "/api/v1/auth/token", "",
		map[string]any{"client_id": "dashboard", "client_secret": "reader-secret"})
	require.Equal(t, http.StatusOK, status)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL)+"?token="+body["access_token"].(string), nil)
	require.NoError(t, err)
	conn.Close()
}
