package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/secprops/internal/audit"
	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/gateway"
	"github.com/felixgeelhaar/secprops/internal/health"
	"github.com/felixgeelhaar/secprops/internal/log"
	"github.com/felixgeelhaar/secprops/internal/metrics"
	"github.com/felixgeelhaar/secprops/internal/props"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

const password = "master-pw"

// envelopeEngine wraps and unwraps values in the ciphertext envelope
type envelopeEngine struct{}

func (e *envelopeEngine) Encrypt(_ context.Context, _ runtime.VersionKey, plaintext, secret string) (string, error) {
	if secret != password {
		return "", errors.NewEngineExecutionError("Bad master password")
	}
	if plaintext == "slow" {
		return "", errors.NewEngineTimeoutError(30 * time.Second)
	}
	return props.Marker + plaintext + "]", nil
}

func (e *envelopeEngine) Decrypt(_ context.Context, _ runtime.VersionKey, ciphertext, secret string) (string, error) {
	if secret != password {
		return "", errors.NewEngineExecutionError("Bad master password")
	}
	if !props.IsEncrypted(ciphertext) {
		return "", errors.NewEngineExecutionError("Invalid padding")
	}
	return strings.TrimSuffix(strings.TrimPrefix(ciphertext, props.Marker), "]"), nil
}

type testServer struct {
	*Server
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, historyEnabled bool) *testServer {
	t.Helper()
	auditLog := audit.New(audit.Config{
		Enabled:    historyEnabled,
		MaxEntries: 100,
		Path:       filepath.Join(t.TempDir(), "history.json"),
	}, log.Discard())

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	gw := gateway.New(&envelopeEngine{}, auditLog, gateway.DefaultConfig(), m, log.Discard())

	s := NewServer(health.NewProbeManager("test"), gw, Config{Address: ":0"},
		WithMetrics(m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		WithLogger(log.Discard()),
	)
	return &testServer{Server: s, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.serve(t, req)
}

func (ts *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(health.NewProbeManager("1.0.0"), nil, Config{Address: ":8080"})

	assert.Equal(t, 30*time.Second, s.shutdownTimeout)
	assert.Equal(t, 10*time.Second, s.httpServer.ReadTimeout)
	assert.Equal(t, 5*time.Minute, s.httpServer.WriteTimeout)
	assert.Equal(t, 60*time.Second, s.httpServer.IdleTimeout)
	assert.Equal(t, int64(DefaultMaxBodyBytes), s.maxBodyBytes)
}

func TestProbes(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodGet, "/health/startup", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])

	ts.probeManager.MarkInitialized()
	rec, _ = ts.do(t, http.MethodGet, "/health/startup", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.probeManager.MarkShutdown()
	rec, body = ts.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])

	rec, body = ts.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])

	rec, _ = ts.do(t, http.MethodPost, "/health/live", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVersionsAndHealth(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodGet, "/api/v1/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"1.8", "11", "17"}, body["supportedVersions"])
	assert.Equal(t, "1.8", body["defaultVersion"])

	rec, body = ts.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["supportedVersions"], 3)
}

func TestEncryptDecryptRoutes(t *testing.T) {
	ts := newTestServer(t, true)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/encrypt", map[string]string{
		"plainText": "hello", "masterPassword": password, "javaVersion": "17",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "![AES:hello]", body["encryptedValue"])
	assert.Equal(t, "17", body["javaVersion"])
	assert.Equal(t, "AES", body["algorithm"])

	rec, body = ts.do(t, http.MethodPost, "/api/v1/decrypt", map[string]string{
		"encryptedValue": "![AES:hello]", "masterPassword": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", body["plainText"])
	assert.Equal(t, "1.8", body["javaVersion"])
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   errors.ErrorCode
	}{
		{"missing parameters", "/api/v1/encrypt", map[string]string{}, http.StatusBadRequest, errors.ErrCodeMissingParameter},
		{"unsupported version", "/api/v1/encrypt", map[string]string{"plainText": "x", "masterPassword": password, "javaVersion": "21"}, http.StatusBadRequest, errors.ErrCodeUnsupportedVersion},
		{"engine failure", "/api/v1/decrypt", map[string]string{"encryptedValue": "![AES:x]", "masterPassword": "nope"}, http.StatusInternalServerError, errors.ErrCodeEngineExecutionFailed},
		{"engine timeout", "/api/v1/encrypt", map[string]string{"plainText": "slow", "masterPassword": password}, http.StatusGatewayTimeout, errors.ErrCodeEngineTimeout},
		{"empty batch", "/api/v1/batch/encrypt", map[string]any{"masterPassword": password}, http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"history disabled", "/api/v1/history", nil, http.StatusNotFound, errors.ErrCodeAuditDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.body == nil {
				method = http.MethodGet
			}
			rec, body := ts.do(t, method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.code), body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEngineErrorBody(t *testing.T) {
	ts := newTestServer(t, false)

	_, body := ts.do(t, http.MethodPost, "/api/v1/decrypt", map[string]string{
		"encryptedValue": "![AES:x]", "masterPassword": "nope",
	})
	assert.Equal(t, "Decryption failed", body["error"])
	assert.Equal(t, "JAR execution failed: Bad master password", body["message"])

	_, body = ts.do(t, http.MethodPost, "/api/v1/batch/decrypt", map[string]any{"masterPassword": password})
	assert.Equal(t, "missing or invalid properties array", body["error"])
}

func TestMalformedJSON(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/encrypt", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec, body := ts.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid JSON body")
}

func TestBatchRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/batch/encrypt", map[string]any{
		"masterPassword": password,
		"properties":     []map[string]string{{"key": "a", "value": "1"}, {"key": "b", "value": "2"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 2, body["success"])
	results := body["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "a", first["key"])
	assert.Equal(t, "1", first["value"])
	assert.Equal(t, "![AES:1]", first["encrypted"])

	rec, body = ts.do(t, http.MethodPost, "/api/v1/batch/decrypt", map[string]any{
		"masterPassword": password,
		"properties":     []map[string]string{{"key": "a", "encrypted": "![AES:1]"}, {"key": "b", "encrypted": "plain"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["success"])
	assert.EqualValues(t, 1, body["failed"])
	results = body["results"].([]any)
	assert.Equal(t, "1", results[0].(map[string]any)["decrypted"])
	second := results[1].(map[string]any)
	assert.Equal(t, false, second["success"])
	assert.Equal(t, "plain", second["encrypted"])
	assert.NotEmpty(t, second["error"])
}

func TestFileRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/file/encrypt", strings.NewReader("# db\nuser=admin\npass='x y'\n"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(HeaderMasterPassword, password)
	req.Header.Set(HeaderJavaVersion, "11")
	rec, body := ts.serve(t, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, body["originalCount"])
	assert.EqualValues(t, 2, body["encryptedCount"])
	assert.EqualValues(t, 0, body["failedCount"])
	assert.Equal(t, "user=![AES:admin]\npass=![AES:x y]", body["results"])
	assert.Empty(t, body["errors"])

	rec, body = ts.do(t, http.MethodPost, "/api/v1/file/decrypt", map[string]string{
		"content":        "env=prod\nuser=![AES:admin]",
		"masterPassword": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["originalCount"])
	assert.EqualValues(t, 1, body["encryptedCount"])
	assert.EqualValues(t, 1, body["decryptedCount"])
	assert.Equal(t, "env=prod\nuser=admin", body["results"])

	rec, body = ts.do(t, http.MethodPost, "/api/v1/file/decrypt", map[string]string{
		"content": "env=prod", "masterPassword": password,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no encrypted properties found in file", body["error"])
}

func TestKeyGenerateRoute(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/key/generate", map[string]any{"type": "hex", "length": 8})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hex", body["type"])
	assert.Len(t, body["key"], 16)
	assert.EqualValues(t, 16, body["length"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/key/generate", nil)
	rec, body = ts.serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "password", body["type"])
	assert.EqualValues(t, 16, body["length"])

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/key/generate", map[string]any{"type": "rsa"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeyGenerateWithPartialOptions(t *testing.T) {
	ts := newTestServer(t, false)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/key/generate", map[string]any{
		"type":    "password",
		"length":  40,
		"options": map[string]bool{"includeSymbols": false},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^[A-Za-z0-9]{40}$`, body["key"])
}

func TestHistoryRoutes(t *testing.T) {
	ts := newTestServer(t, true)

	for i := 0; i < 3; i++ {
		rec, _ := ts.do(t, http.MethodPost, "/api/v1/encrypt", map[string]string{"plainText": "v", "masterPassword": password})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := ts.do(t, http.MethodGet, "/api/v1/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
	entry := body["history"].([]any)[0].(map[string]any)
	assert.Equal(t, "encrypt", entry["operation"])
	assert.NotEmpty(t, entry["encryptedHash"])

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = ts.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])
}

func TestRequestMetrics(t *testing.T) {
	ts := newTestServer(t, false)

	ts.do(t, http.MethodGet, "/api/v1/versions", nil)
	ts.do(t, http.MethodPost, "/api/v1/encrypt", map[string]string{"plainText": "v", "masterPassword": password})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, `secprops_http_requests_total{route="/api/v1/versions",status="200"} 1`)
	assert.Contains(t, text, `secprops_engine_invocations_total`)
}

func TestServeAndShutdown(t *testing.T) {
	ts := newTestServer(t, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- ts.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/health/startup"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, ts.Shutdown(context.Background()))
	assert.True(t, ts.IsShuttingDown())
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
