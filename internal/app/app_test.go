package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchline/internal/config"
	"batchline/internal/shared/testutil"
	ws "batchline/internal/websocket"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Ingest.Location = "UTC"
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 2
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	return a
}

// startApp serves on a loopback port and returns the base URL
func startApp(t *testing.T, a *Application) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := a.Start(context.Background(), ln)
	t.Cleanup(func() {
		assert.NoError(t, a.Stop(context.Background()))
		for err := range errCh {
			assert.NoError(t, err)
		}
	})
	return "http://" + ln.Addr().String()
}

func uploadRequest(t *testing.T, url, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/datasets", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNewWiresRoutes(t *testing.T) {
	a := newTestApp(t, testConfig())
	require.NotNil(t, a.Router)
	require.NotNil(t, a.Services.Dataset)
	require.NotNil(t, a.Services.Analytics)
	require.NotNil(t, a.Services.Health)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "readiness", method: http.MethodGet, target: "/healthz/ready", wantStatus: http.StatusOK},
		{name: "no dataset yet", method: http.MethodGet, target: "/api/datasets/current", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, target: "/api/analytics/capability", wantStatus: http.StatusMethodNotAllowed},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestContentTypeRequiredOnUpload(t *testing.T) {
	a := newTestApp(t, testConfig())

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadNotifiesWebSocketClients(t *testing.T) {
	a := newTestApp(t, testConfig())
	base := startApp(t, a)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+config.WebSocketEndpoint, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello ws.Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, ws.TypeConnection, hello.Type)

	resp, err := http.DefaultClient.Do(uploadRequest(t, base, "line.dbf", testutil.FilterLineLog(30, 30, 30)))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeDatasetReplaced, msg.Type)

	summary, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "line.dbf", summary["source"])

	req, err := http.NewRequest(http.MethodDelete, base+"/api/datasets/current", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeDatasetCleared, msg.Type)
}

func TestUploadRateLimited(t *testing.T) {
	a := newTestApp(t, testConfig())
	base := startApp(t, a)

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp, err := http.DefaultClient.Do(uploadRequest(t, base, "line.dbf", testutil.FilterLineLog(30)))
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, http.StatusCreated, statuses[0])
	assert.Contains(t, statuses, http.StatusTooManyRequests)

	// Reads are not limited
	for i := 0; i < 4; i++ {
		resp, err := http.Get(base + "/api/datasets/current")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestMetricsExposeIngestion(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	a := newTestApp(t, cfg)
	base := startApp(t, a)

	resp, err := http.DefaultClient.Do(uploadRequest(t, base, "line.dbf", testutil.FilterLineLog(30, 30)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/api/batches")
	require.NoError(t, err)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, 2, list.Count)

	resp, err = http.Get(base + config.MetricsEndpoint)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), "ingest_runs_total")
	assert.Contains(t, string(body), "websocket_clients")
}

func TestStopWithoutStart(t *testing.T) {
	a := newTestApp(t, testConfig())
	assert.NoError(t, a.Stop(context.Background()))
}
