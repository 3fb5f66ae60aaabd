package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"batchline/internal/analytics"
	"batchline/internal/dataprocessing"
	apierrors "batchline/internal/errors"
	"batchline/internal/middleware"
	"batchline/internal/services"
	"batchline/internal/shared/testutil"
	"batchline/internal/store"
	"batchline/pkg/contracts"
	"batchline/pkg/contracts/domain"
)

// Filtrado jumps in the last batch; Llenado is flat
var degradingLog = []int{30, 30, 30, 30, 60}

type testAPI struct {
	router  http.Handler
	dataset *services.DatasetService
	logs    *testutil.BufferedSlogHandler
}

func newTestAPI(t *testing.T, maxUpload int64) *testAPI {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)

	pipeline := dataprocessing.NewPipeline(dataprocessing.PipelineOptions{
		Normalizer: dataprocessing.NormalizerOptions{Location: time.UTC},
		Logger:     logger,
	})
	st := store.New()
	ds := services.NewDatasetService(pipeline, st, nil, logger)
	as := services.NewAnalyticsService(ds, analytics.DegradationOptions{}, logger)
	hs := services.NewHealthService(contracts.GetVersionInfo(), st, nil, logger)

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validate := middleware.NewValidator()
	batches := NewBatchHandler(ds, time.UTC, logger, errorHandler)
	health := NewHealthHandler(hs, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Mount("/api/datasets", NewDatasetHandler(ds, maxUpload, logger, errorHandler).Routes())
	r.Mount("/api/batches", batches.Routes())
	r.Get("/api/facets", batches.Facets)
	r.Mount("/api/analytics", NewAnalyticsHandler(as, validate, logger, errorHandler).Routes())
	r.Mount("/api/export", NewExportHandler(ds, time.UTC, logger, errorHandler).Routes())
	r.Post("/api/logs", NewClientLogHandler(validate, logger, errorHandler).Handle)
	r.Get("/healthz", health.HealthCheck)
	r.Get("/healthz/ready", health.ReadinessCheck)

	return &testAPI{router: r, dataset: ds, logs: logs}
}

func (a *testAPI) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return a.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (a *testAPI) load(t *testing.T, minutes ...int) {
	t.Helper()
	rec := a.do(t, multipartUpload(t, "line.dbf", testutil.FilterLineLog(minutes...)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func multipartUpload(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func problemStatus(t *testing.T, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var p struct {
		Status int    `json:"status"`
		Type   string `json:"type"`
	}
	decode(t, rec, &p)
	return p.Status, p.Type
}

func TestDatasetUpload(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.get(t, "/api/datasets/current")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, typ := problemStatus(t, rec)
	assert.Equal(t, apierrors.TypeNoDataset, typ)

	rec = api.do(t, multipartUpload(t, "line.dbf", testutil.FilterLineLog(degradingLog...)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary store.Summary
	decode(t, rec, &summary)
	assert.Equal(t, "line.dbf", summary.Source)
	assert.Equal(t, 5, summary.Batches)
	assert.Equal(t, dataprocessing.FormatDBF, summary.Stats.Format)

	rec = api.get(t, "/api/datasets/current")
	require.Equal(t, http.StatusOK, rec.Code)
	var current store.Summary
	decode(t, rec, &current)
	assert.Equal(t, summary.ID, current.ID)

	testutil.AssertLogContains(t, api.logs, slog.LevelInfo, "Dataset upload received")
}

func TestDatasetUploadRawBody(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets?name=raw.dbf", bytes.NewReader(testutil.FilterLineLog(30, 30)))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := api.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary store.Summary
	decode(t, rec, &summary)
	assert.Equal(t, "raw.dbf", summary.Source)
	assert.Equal(t, 2, summary.Batches)
}

func TestDatasetUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		maxUpload  int64
		request    func(t *testing.T) *http.Request
		wantStatus int
		wantType   string
	}{
		{
			name:      "missing file part",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				var body bytes.Buffer
				mw := multipart.NewWriter(&body)
				require.NoError(t, mw.WriteField("other", "x"))
				require.NoError(t, mw.Close())
				req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
				req.Header.Set("Content-Type", mw.FormDataContentType())
				return req
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:      "raw body without name",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("data"))
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:      "empty file",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return multipartUpload(t, "empty.dbf", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:      "corrupt table",
			maxUpload: 1 << 20,
			request: func(t *testing.T) *http.Request {
				return multipartUpload(t, "broken.dbf", []byte{0x03, 0x01})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDecodeFailed,
		},
		{
			name:      "body over limit",
			maxUpload: 64,
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/datasets?name=big.dbf", bytes.NewReader(testutil.FilterLineLog(30)))
				req.Header.Set("Content-Type", "application/octet-stream")
				return req
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   apierrors.TypePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, tt.maxUpload)
			rec := api.do(t, tt.request(t))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			status, typ := problemStatus(t, rec)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestDatasetClear(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, 30)

	rec := api.do(t, httptest.NewRequest(http.MethodDelete, "/api/datasets/current", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.get(t, "/api/datasets/current")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchList(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	tests := []struct {
		name      string
		target    string
		wantCount int
		wantFirst string
	}{
		{name: "all", target: "/api/batches", wantCount: 5, wantFirst: "B-001"},
		{name: "by batch", target: "/api/batches?batch=b-002", wantCount: 1, wantFirst: "B-002"},
		{name: "from date", target: "/api/batches?from=2024-03-14", wantCount: 2, wantFirst: "B-004"},
		{name: "unknown product", target: "/api/batches?product=Stout", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.get(t, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp BatchListResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantCount, resp.Count)
			require.Len(t, resp.Batches, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantFirst, resp.Batches[0].BatchID)
			}
		})
	}

	rec := api.get(t, "/api/batches?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchDetailAndCycle(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	rec := api.get(t, "/api/batches/B-005/Filtro%201")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var batch domain.BatchRecord
	decode(t, rec, &batch)
	assert.Equal(t, "B-005", batch.BatchID)
	assert.Len(t, batch.Steps, 2)

	rec = api.get(t, "/api/batches/B-005/Filtro%201/cycle")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cycle services.CycleTime
	decode(t, rec, &cycle)
	// 30 min Llenado plus 60 min Filtrado
	assert.InDelta(t, 90.0, cycle.TrueCycleMin, 1e-9)
	assert.Len(t, cycle.Intervals, 2)

	rec = api.get(t, "/api/batches/B-999/Filtro%201")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	status, _ := problemStatus(t, rec)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFacets(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.get(t, "/api/facets")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	api.load(t, 30, 30)
	rec = api.get(t, "/api/facets")
	require.Equal(t, http.StatusOK, rec.Code)

	var facets struct {
		Batches         []string `json:"batches"`
		EquipmentGroups []string `json:"equipment_groups"`
	}
	decode(t, rec, &facets)
	assert.Equal(t, []string{"B-001", "B-002"}, facets.Batches)
	assert.Equal(t, []string{"Filtro 1"}, facets.EquipmentGroups)
}

func TestAnalyticsDegradation(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	rec := api.get(t, "/api/analytics/degradation")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp DegradationResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, "Filtrado", resp.Alerts[0].StepName)

	rec = api.get(t, "/api/analytics/degradation?equipment=Centrifuga")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Alerts)
}

func TestAnalyticsCapability(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/analytics/capability", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return api.do(t, req)
	}

	rec := post(`{"values":[9,10,11],"lsl":7,"usl":13}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res domain.CapabilityResult
	decode(t, rec, &res)
	assert.Equal(t, 3, res.SampleSize)
	require.NotNil(t, res.Cp)
	assert.InDelta(t, 1.0, *res.Cp, 1e-9)

	rec = post(`{"equipment":"Filtro 1","parameter":"Temperatura","lsl":3,"usl":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	assert.Equal(t, 5, res.SampleSize)
	assert.InDelta(t, 4.2, res.Mean, 1e-9)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "missing usl", body: `{"values":[1,2],"lsl":0}`, wantStatus: http.StatusBadRequest},
		{name: "no sample", body: `{"lsl":0,"usl":1}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"lsl":`, wantStatus: http.StatusBadRequest},
		{name: "unknown step", body: `{"step":"Hervido","lsl":0,"usl":1}`, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalyticsControlChartAndReport(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	rec := api.get(t, "/api/analytics/control-chart?equipment=Filtro%201&parameter=Temperatura")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chart domain.ControlChart
	decode(t, rec, &chart)
	assert.InDelta(t, 4.2, chart.Mean, 1e-9)
	assert.Len(t, chart.Points, 5)

	rec = api.get(t, "/api/analytics/control-chart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.get(t, "/api/analytics/report?equipment=Filtro%201&step=Filtrado&lsl=20&usl=80")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep analytics.Report
	decode(t, rec, &rep)
	assert.Equal(t, []float64{30, 30, 30, 30, 60}, rep.Samples)
	require.NotNil(t, rep.Capability)
	assert.Len(t, rep.Degradation, 1)

	rec = api.get(t, "/api/analytics/report?step=Filtrado&lsl=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	api := newTestAPI(t, 1<<20)
	api.load(t, degradingLog...)

	rec := api.get(t, "/api/export/batches.csv?batch=B-001")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="batches.csv"`)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeffbatch_id,equipment_group"))
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 2)

	rec = api.get(t, "/api/export/steps.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	lines = strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 11)
}

func TestExportWorkbook(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.get(t, "/api/export/batches.xlsx")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	api.load(t, degradingLog...)
	rec = api.get(t, "/api/export/batches.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Batches", "Steps", "Materials", "Parameters"}, f.GetSheetList())
}

func TestClientLog(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return api.do(t, req)
	}

	rec := post(`{"level":"warn","message":"chart failed to render","source":"dashboard"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	testutil.AssertLogContains(t, api.logs, slog.LevelWarn, "chart failed to render")

	rec = post(`{"level":"verbose","message":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`{"level":"info"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t, 1<<20)

	rec := api.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var status services.HealthStatus
	decode(t, rec, &status)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)

	rec = api.get(t, "/healthz/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}
