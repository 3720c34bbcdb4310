package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

const parcelJSON = `{
	"terrain": {"slope_avg": 4, "elevation_avg": 140},
	"environmental": {"ndvi_avg": 0.65, "flood_risk_percent": 4},
	"infrastructure": {"nearest_road_distance": 350}
}`

// runCLI executes the root command in a temp working directory with a
// SQLite store under it.
func runCLI(t *testing.T, dir string, args ...string) error {
	t.Helper()
	t.Setenv("LANDEVAL_STORE_DATABASE_URL", filepath.Join(dir, "landeval.db"))
	t.Setenv("LANDEVAL_LOG_LEVEL", "error")
	t.Cleanup(resetFlags)

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func resetFlags() {
	analyzeFeatures, analyzeBoundary, analyzeTargetUse, analyzeOutput = "", "", "", ""
	analyzeSave = false
	batchDir, batchTargetUse = "", ""
	batchSave = false
	batchConcurrency = 0
	exportFormat, exportOutput = "json", ""
	servePort = 0
	rootLogLevel, rootDatabaseURL = "", ""
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeSaveAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	features := writeFile(t, filepath.Join(dir, "parcel.json"), parcelJSON)
	out := filepath.Join(dir, "out.json")

	require.NoError(t, runCLI(t, dir, "analyze", "--features", features, "--target-use", "residential", "--save", "-o", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var an pipeline.Analysis
	require.NoError(t, json.Unmarshal(data, &an))
	assert.Equal(t, "residential", an.TargetUse)
	assert.NotEmpty(t, an.Result.Recommendations)

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, runCLI(t, dir, "export", an.ID, "--format", "csv", "-o", csvPath))

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, an.ID, records[1][0])
}

func TestAnalyze_MissingFeaturesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := runCLI(t, dir, "analyze", "--features", filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read features")
}

func TestExport_XLSXNeedsOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := runCLI(t, dir, "export", "some-id", "--format", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output is required")
}

func TestBatchSave(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	parcels := filepath.Join(dir, "parcels")
	require.NoError(t, os.Mkdir(parcels, 0o755))
	writeFile(t, filepath.Join(parcels, "a.json"), parcelJSON)
	writeFile(t, filepath.Join(parcels, "b.json"), `{}`)
	writeFile(t, filepath.Join(parcels, "broken.json"), `{not json`)

	require.NoError(t, runCLI(t, dir, "batch", "--dir", parcels, "--save", "--concurrency", "2"))
	require.NoError(t, runCLI(t, dir, "store", "migrate"))
}

func TestReadRequest(t *testing.T) {
	dir := t.TempDir()
	features := writeFile(t, filepath.Join(dir, "parcel.json"), parcelJSON)
	boundary := writeFile(t, filepath.Join(dir, "parcel.geojson"),
		`{"type":"Polygon","coordinates":[[[3,36],[3.2,36],[3.2,36.2],[3,36.2],[3,36]]]}`)

	req, err := readRequest(features, boundary, "agricultural")
	require.NoError(t, err)
	require.NotNil(t, req.Features)
	require.NotNil(t, req.Boundary)
	assert.Equal(t, "agricultural", req.TargetUse)
	assert.InDelta(t, 36.1, req.Boundary.Centroid.Lat, 1e-6)

	_, err = readRequest(writeFile(t, filepath.Join(dir, "bad.json"), "[1,2"), "", "")
	assert.Error(t, err)

	_, err = readRequest(features, filepath.Join(dir, "parcel.kml"), "")
	assert.Error(t, err)
}

func TestLoadBatchRequests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), parcelJSON)
	writeFile(t, filepath.Join(dir, "a.json"), `{}`)
	writeFile(t, filepath.Join(dir, "c.json"), `{not json`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	reqs, err := loadBatchRequests(dir, "commercial")
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "a", reqs[0].Label)
	assert.Equal(t, "b", reqs[1].Label)
	assert.Equal(t, "c", reqs[2].Label)
	assert.NotNil(t, reqs[1].Features)
	assert.Nil(t, reqs[2].Features)
	assert.Equal(t, "commercial", reqs[0].TargetUse)

	_, err = loadBatchRequests(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

func TestFormatBatchResults(t *testing.T) {
	results := []pipeline.BatchResult{
		{Label: "north", Analysis: &pipeline.Analysis{ID: "abc12345-0000", TargetUse: "residential"}},
		{Label: "broken", Err: pipeline.ErrNoFeatures},
	}

	var buf bytes.Buffer
	formatBatchResults(&buf, results)

	output := buf.String()
	assert.Contains(t, output, "PARCEL")
	assert.Contains(t, output, "north")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-0000")
	assert.Contains(t, output, "broken")
	assert.Contains(t, output, pipeline.ProfessionalAssessmentMsg)

	assert.Len(t, succeeded(results), 1)
}

func TestFormatSummaries(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatSummaries(&buf, []pipeline.Summary{
		{ID: "def12345-6789", CreatedAt: now, TargetUse: "agricultural", OverallScore: 7.456, RiskLevel: "low", TopUse: "agricultural"},
	})

	output := buf.String()
	assert.Contains(t, output, "TARGET")
	assert.Contains(t, output, "def12345")
	assert.Contains(t, output, "2026-06-15 10:30")
	assert.Contains(t, output, "7.46")
	assert.Contains(t, output, "low")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "12345678", truncateID("1234567890"))
}
