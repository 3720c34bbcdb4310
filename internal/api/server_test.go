package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
	"github.com/Salah021-coder/start-up-sub000/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	store store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	analyzer, err := pipeline.New(config.ScoringConfig{
		AHPWeight: 0.4,
		MLWeight:  0.6,
		ModelPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.NoError(t, err)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	s := NewServer(analyzer, st, Options{AllowedOrigins: []string{"*"}, BatchConcurrency: 2})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const parcelBody = `{
	"features": {
		"terrain": {"slope_avg": 4, "elevation_avg": 120},
		"environmental": {"ndvi_avg": 0.7, "flood_risk_percent": 5},
		"infrastructure": {"nearest_road_distance": 300}
	},
	"target_use": "residential"
}`

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestCreateAnalysis(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/v1/analyses", parcelBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	an := decode[pipeline.Analysis](t, resp)
	assert.NotEmpty(t, an.ID)
	assert.Equal(t, "residential", an.TargetUse)
	assert.Equal(t, "/v1/analyses/"+an.ID, resp.Header.Get("Location"))
	assert.NotEmpty(t, an.Result.Recommendations)
	assert.Len(t, an.Risk.Results(), 7)

	// Not saved unless requested.
	resp = e.do(t, http.MethodGet, "/v1/analyses/"+an.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAnalysis_SaveAndGet(t *testing.T) {
	e := newTestEnv(t)

	body := strings.Replace(parcelBody, `"target_use": "residential"`, `"target_use": "residential", "save": true`, 1)
	resp := e.do(t, http.MethodPost, "/v1/analyses", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[pipeline.Analysis](t, resp)

	resp = e.do(t, http.MethodGet, "/v1/analyses/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[pipeline.Analysis](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.InDelta(t, created.Result.OverallScore, got.Result.OverallScore, 1e-9)

	resp = e.do(t, http.MethodGet, "/v1/analyses", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Analyses []pipeline.Summary `json:"analyses"`
	}](t, resp)
	require.Len(t, list.Analyses, 1)
	assert.Equal(t, created.ID, list.Analyses[0].ID)
}

func TestCreateAnalysis_WithBoundary(t *testing.T) {
	e := newTestEnv(t)

	body := `{"features": {}, "boundary": {"type":"Polygon","coordinates":[[[2.9,27.9],[3.1,27.9],[3.1,28.1],[2.9,28.1],[2.9,27.9]]]}}`
	resp := e.do(t, http.MethodPost, "/v1/analyses", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	an := decode[pipeline.Analysis](t, resp)
	assert.InDelta(t, 28.0, an.Centroid.Lat, 1e-6)
	assert.Equal(t, "sahara", an.ClimateZone.Region)
}

func TestCreateAnalysis_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{not json`, "invalid request body"},
		{"missing features", `{"target_use": "residential"}`, "features is required"},
		{"bad boundary", `{"features": {}, "boundary": {"type":"Point","coordinates":[1,2]}}`, "invalid boundary"},
	}
	e := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/v1/analyses", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decode[errorResponse](t, resp).Error)
		})
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/v1/analyses/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "analysis not found", decode[errorResponse](t, resp).Error)
}

func TestListAnalyses_Filters(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/v1/analyses?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/analyses?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/analyses?target_use=industrial&limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"analyses":[]}`, readBody(t, resp))
}

func TestBatch(t *testing.T) {
	e := newTestEnv(t)

	body := `{"save": true, "items": [
		{"label": "north", "features": {}},
		{"label": "empty"},
		{"label": "farm", "features": {"environmental": {"ndvi_avg": 0.8}}, "target_use": "agricultural"}
	]}`
	resp := e.do(t, http.MethodPost, "/v1/analyses/batch", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[struct {
		Results []batchItemResponse `json:"results"`
	}](t, resp)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "north", out.Results[0].Label)
	assert.NotNil(t, out.Results[0].Analysis)
	assert.Nil(t, out.Results[1].Analysis)
	assert.Contains(t, out.Results[1].Error, pipeline.ProfessionalAssessmentMsg)
	assert.Equal(t, "agricultural", out.Results[2].Analysis.TargetUse)

	list, err := e.store.ListAnalyses(context.Background(), store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBatch_Validation(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/v1/analyses/batch", `{"items": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	items := make([]string, maxBatchItems+1)
	for i := range items {
		items[i] = fmt.Sprintf(`{"label":"p%d","features":{}}`, i)
	}
	resp = e.do(t, http.MethodPost, "/v1/analyses/batch", `{"items": [`+strings.Join(items, ",")+`]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestExportAndDelete(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/v1/analyses", `{"features": {}, "save": true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[pipeline.Analysis](t, resp).ID

	resp = e.do(t, http.MethodGet, "/v1/analyses/"+id+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id, records[1][0])

	resp = e.do(t, http.MethodGet, "/v1/analyses/"+id+"/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/v1/analyses/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/analyses/"+id+"/export?format=json", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/v1/analyses", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := NewServer(nil, nil, Options{AllowedOrigins: []string{"*"}, RateLimit: 0.001, RateBurst: 1})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	get := func(path string) *http.Response {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// The first request spends the only token; the 404 comes from routing.
	assert.Equal(t, http.StatusNotFound, get("/v1/unknown").StatusCode)
	resp := get("/v1/unknown")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, http.StatusOK, get("/health").StatusCode)
}

func TestNewServer_DefaultConcurrency(t *testing.T) {
	s := NewServer(nil, nil, Options{})
	assert.Equal(t, 1, s.opts.BatchConcurrency)
}

func TestIntParam(t *testing.T) {
	n, err := intParam("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = intParam("25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = intParam("-2")
	assert.Error(t, err)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}
