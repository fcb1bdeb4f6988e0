package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
	"github.com/nerrad567/gray-logic-codec/migrations"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// testServer creates a Server over a migrated SQLite catalog and serves its
// router from an httptest server.
func testServer(t *testing.T, sec config.SecurityConfig) (*Server, *httptest.Server) {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "api.db"), BusyTimeout: 5})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	require.NoError(t, db.Migrate(context.Background(), migrations.FS))

	registry := datapoint.NewRegistry(datapoint.NewSQLiteRepository(db.DB))
	require.NoError(t, registry.RefreshCache(context.Background()))

	decoder, err := plc.NewDecoder(plc.Options{Workers: 2, MaxBatch: 4})
	require.NoError(t, err)
	t.Cleanup(decoder.Close)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
	wsCfg := config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}

	hub := NewHub(wsCfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv, err := New(Deps{
		Config:    config.APIConfig{Host: "127.0.0.1"},
		WS:        wsCfg,
		Security:  sec,
		Logger:    log,
		Registry:  registry,
		Decoder:   decoder,
		ByteOrder: bitbuf.BigEndian,
		Checks:    map[string]HealthChecker{"database": db},
		Hub:       hub,
		Version:   "test",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, ts
}

// do sends a JSON request and decodes the JSON response into a map.
func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// ─── Health / middleware ────────────────────────────────────────────

func TestHealth(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	status, body := do(t, ts, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.EqualValues(t, 0, body["datapoints"])
	assert.Equal(t, map[string]any{"database": "ok"}, body["components"])
	assert.NotContains(t, body, "pipeline")
}

func TestRequestIDHeader(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	resp, err := ts.Client().Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-42", resp.Header.Get("X-Request-ID"))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

// ─── Codec endpoints ────────────────────────────────────────────────

func TestDecode(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	tests := []struct {
		name string
		req  map[string]any
		kind string
		want any
	}{
		{"modbus real", map[string]any{"token": "holding-register:1:REAL", "data": "41B00000"}, "FLOAT", 22.0},
		{"word swapped", map[string]any{"token": "holding-register:1:REAL", "data": "0x0000 41B0", "byte_order": "CDAB"}, "FLOAT", 22.0},
		{"knx temperature", map[string]any{"token": "9.001", "data": "0C33"}, "FLOAT", 21.5},
		{"knx switch", map[string]any{"token": "DPST-1-1", "data": "01"}, "BOOL", true},
		{"int array", map[string]any{"token": "holding-register:1:INT[2]", "data": "0001FFFE"}, "LIST", []any{1.0, -2.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, ts, http.MethodPost, "/api/v1/decode", "", tt.req)
			require.Equal(t, http.StatusOK, status, body)
			assert.Equal(t, "OK", body["status"])
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, tt.want, body["value"])
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"bad syntax", map[string]any{"token": "holding-register:", "data": "00"}, http.StatusBadRequest, "INVALID_ADDRESS"},
		{"unknown dpt", map[string]any{"token": "9.999", "data": "0000"}, http.StatusNotFound, "NOT_FOUND"},
		{"underflow", map[string]any{"token": "holding-register:1:REAL", "data": "41"}, http.StatusUnprocessableEntity, "INVALID_DATA"},
		{"bad hex", map[string]any{"token": "9.001", "data": "zz"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad byte order", map[string]any{"token": "9.001", "data": "0C33", "byte_order": "sideways"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", map[string]any{"token": "9.001", "hex": "0C33"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"malformed json", `{"token":`, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, ts, http.MethodPost, "/api/v1/decode", "", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestEncode(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	tests := []struct {
		name  string
		token string
		value any
		want  string
	}{
		{"knx temperature", "9.001", 21.5, "0C33"},
		{"modbus real", "holding-register:1:REAL", 22, "41B00000"},
		{"int array", "holding-register:1:INT[2]", []any{1, -2}, "0001FFFE"},
		{"knx switch", "1.001", true, "01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, ts, http.MethodPost, "/api/v1/encode", "",
				map[string]any{"token": tt.token, "value": tt.value})
			require.Equal(t, http.StatusOK, status, body)
			assert.Equal(t, tt.want, body["data"])
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	status, body := do(t, ts, http.MethodPost, "/api/v1/encode", "", map[string]any{"token": "9.001", "value": "warm"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_DATATYPE", body["code"])

	status, body = do(t, ts, http.MethodPost, "/api/v1/encode", "", map[string]any{"token": "holding-register:1:INT", "value": 40000})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_DATA", body["code"])

	status, _ = do(t, ts, http.MethodPost, "/api/v1/encode", "", map[string]any{"token": "9.001"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResolve(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	status, body := do(t, ts, http.MethodPost, "/api/v1/resolve", "", map[string]any{"token": "holding-register:3:REAL[4]"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "modbus", body["family"])
	assert.Equal(t, "holding-register", body["type"])
	assert.Equal(t, "REAL", body["format"])
	assert.EqualValues(t, 4, body["count"])
	assert.EqualValues(t, 16, body["bytes"])

	status, body = do(t, ts, http.MethodPost, "/api/v1/resolve", "", map[string]any{"token": "DPST-9-1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "knx", body["family"])
	assert.Equal(t, "F16", body["format"])
	assert.Equal(t, "FLOAT", body["kind"])
}

func TestBatch(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	status, body := do(t, ts, http.MethodPost, "/api/v1/batch", "", map[string]any{"fields": []map[string]any{
		{"name": "flow", "token": "9.001", "data": "0C33"},
		{"name": "meter", "token": "holding-register:1:REAL", "data": "41"},
		{"name": "ghost", "token": "9.999", "data": "0000"},
	}})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, body["ok"])
	assert.NotEmpty(t, body["id"])

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 3)
	first := fields[0].(map[string]any)
	assert.Equal(t, "flow", first["name"])
	assert.Equal(t, "OK", first["status"])
	assert.Equal(t, 21.5, first["value"])
	assert.Equal(t, "INVALID_DATA", fields[1].(map[string]any)["status"])
	assert.Equal(t, "NOT_FOUND", fields[2].(map[string]any)["status"])
}

func TestBatch_Rejected(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	dup := map[string]any{"fields": []map[string]any{
		{"name": "a", "token": "1.001", "data": "01"},
		{"name": "a", "token": "1.001", "data": "00"},
	}}
	status, _ := do(t, ts, http.MethodPost, "/api/v1/batch", "", dup)
	assert.Equal(t, http.StatusBadRequest, status)

	big := make([]map[string]any, 5)
	for i := range big {
		big[i] = map[string]any{"name": strings.Repeat("f", i+1), "token": "1.001", "data": "01"}
	}
	status, body := do(t, ts, http.MethodPost, "/api/v1/batch", "", map[string]any{"fields": big})
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, ErrCodeTooLarge, body["code"])

	status, _ = do(t, ts, http.MethodPost, "/api/v1/batch", "", map[string]any{"fields": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListTypes(t *testing.T) {
	_, ts := testServer(t, config.SecurityConfig{})

	status, body := do(t, ts, http.MethodGet, "/api/v1/types", "", nil)
	require.Equal(t, http.StatusOK, status)

	var found bool
	for _, e := range body["knx"].([]any) {
		if m := e.(map[string]any); m["id"] == "9.001" {
			found = true
			assert.Equal(t, "F16", m["format"])
		}
	}
	assert.True(t, found, "9.001 missing from /types")
	assert.Contains(t, body["modbus"], map[string]any{"id": "REAL", "format": "REAL", "kind": "FLOAT"})
}
