package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/signed-louvain/backend/config"
	"github.com/gilchrisn/signed-louvain/backend/metrics"
	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/backend/service"
	"github.com/gilchrisn/signed-louvain/pkg/evaluation"
)

const origin = "http://localhost:3000"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	registry := metrics.NewRegistry()
	datasets := service.NewDatasetService(t.TempDir(), registry)
	jobs := service.NewJobService(datasets, config.JobConfig{
		MaxWorkers:      2,
		JobTimeout:      time.Minute,
		CleanupInterval: time.Hour,
		ResultTTL:       time.Hour,
	}, registry, "disabled")
	t.Cleanup(jobs.Close)

	handlers := NewHandlers(datasets, service.NewClusteringService(datasets, jobs), jobs, 1<<20)
	return NewRouter(handlers, registry, []string{origin})
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func uploadRequest(t *testing.T, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if content != "" {
		fw, err := mw.CreateFormFile("graphFile", "bridge.txt")
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadBridge(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, env := do(t, h, uploadRequest(t, "1 2 1\n3 4 1\n2 3 -1\n", map[string]string{"name": "bridge"}))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var resp models.UploadResponse
	decodeData(t, env, &resp)
	return resp.DatasetID
}

func runJob(t *testing.T, h http.Handler, datasetID, body string) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/datasets/"+datasetID+"/clustering", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec, env := do(t, h, req)
	require.Equal(t, http.StatusAccepted, rec.Code, env.Error)

	var resp models.ClusteringResponse
	decodeData(t, env, &resp)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/jobs/"+resp.JobID, nil))
		var env struct {
			Data models.Job `json:"data"`
		}
		return json.Unmarshal(rec.Body.Bytes(), &env) == nil && env.Data.Status.Finished()
	}, 5*time.Second, 5*time.Millisecond)
	return resp.JobID
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer(t)

	rec, env := do(t, h, httptest.NewRequest("GET", "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"healthy"`)
}

func TestDatasetEndpoints(t *testing.T) {
	h := newTestServer(t)
	datasetID := uploadBridge(t, h)

	rec, env := do(t, h, httptest.NewRequest("GET", "/api/v1/datasets/"+datasetID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var dataset models.Dataset
	decodeData(t, env, &dataset)
	assert.Equal(t, "bridge", dataset.Name)
	assert.Equal(t, 4, dataset.Metadata.Graph.Nodes)
	assert.Equal(t, 1, dataset.Metadata.Graph.NegativeEdges)

	_, env = do(t, h, httptest.NewRequest("GET", "/api/v1/datasets", nil))
	var list []models.Dataset
	decodeData(t, env, &list)
	assert.Len(t, list, 1)

	rec, _ = do(t, h, httptest.NewRequest("DELETE", "/api/v1/datasets/"+datasetID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, httptest.NewRequest("GET", "/api/v1/datasets/"+datasetID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestUploadErrors(t *testing.T) {
	h := newTestServer(t)

	rec, _ := do(t, h, uploadRequest(t, "", map[string]string{"name": "empty"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, uploadRequest(t, "1 2 1\n", map[string]string{"skipRows": "many"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, h, uploadRequest(t, "1 2 x\n", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Error)
}

func TestClusteringEndpoints(t *testing.T) {
	h := newTestServer(t)
	datasetID := uploadBridge(t, h)
	jobID := runJob(t, h, datasetID, `{"parameters":{"resolution":1,"maxPasses":-1}}`)
	base := "/api/v1/datasets/" + datasetID

	rec, env := do(t, h, httptest.NewRequest("GET", base+"/clustering/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var job models.Job
	decodeData(t, env, &job)
	require.Equal(t, models.JobStatusCompleted, job.Status, job.Error)
	assert.InDelta(t, 0.5, job.Result.Objective, 1e-12)

	rec, env = do(t, h, httptest.NewRequest("GET", base+"/clustering", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []models.Job
	decodeData(t, env, &jobs)
	assert.Len(t, jobs, 1)

	rec, env = do(t, h, httptest.NewRequest("GET", base+"/hierarchy?jobId="+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var hierarchy models.HierarchyResponse
	decodeData(t, env, &hierarchy)
	require.Len(t, hierarchy.Hierarchy.Levels, 1)

	rec, env = do(t, h, httptest.NewRequest("GET", base+"/hierarchy/levels/0?jobId="+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var level models.LevelResponse
	decodeData(t, env, &level)
	assert.Equal(t, 2, level.Communities)
	assert.Len(t, level.Partition, 4)

	rec, _ = do(t, h, httptest.NewRequest("GET", base+"/hierarchy/levels/4?jobId="+jobID, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, h, httptest.NewRequest("GET", base+"/communities/c0_l1_0/nodes?jobId="+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var community models.CommunityResponse
	decodeData(t, env, &community)
	assert.Len(t, community.Members, 2)

	rec, env = do(t, h, httptest.NewRequest("GET", base+"/evaluation?jobId="+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var eval models.EvaluationResponse
	decodeData(t, env, &eval)
	assert.InDelta(t, 0.5, eval.Report.SignedModularity, 1e-12)

	rec, _ = do(t, h, httptest.NewRequest("GET", "/api/v1/datasets/other/clustering/"+jobID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClusteringErrors(t *testing.T) {
	h := newTestServer(t)
	datasetID := uploadBridge(t, h)

	req := httptest.NewRequest("POST", "/api/v1/datasets/"+datasetID+"/clustering", strings.NewReader(`{"parameters":{"resolution":-1}}`))
	rec, _ := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest("POST", "/api/v1/datasets/"+datasetID+"/clustering", strings.NewReader(`{not json`))
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest("POST", "/api/v1/datasets/missing/clustering", nil)
	rec, _ = do(t, h, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, httptest.NewRequest("GET", "/api/v1/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComparisonEndpoint(t *testing.T) {
	h := newTestServer(t)
	datasetID := uploadBridge(t, h)
	first := runJob(t, h, datasetID, "")
	second := runJob(t, h, datasetID, `{"parameters":{"randomize":true,"seed":7}}`)

	body := `{"jobA":"` + first + `","jobB":"` + second + `"}`
	rec, env := do(t, h, httptest.NewRequest("POST", "/api/v1/comparisons", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var comparison evaluation.ComparisonMetrics
	decodeData(t, env, &comparison)
	assert.InDelta(t, 1.0, comparison.NMI, 1e-12)
	assert.Equal(t, "High", comparison.Similarity)

	rec, _ = do(t, h, httptest.NewRequest("POST", "/api/v1/comparisons", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	h := newTestServer(t)
	do(t, h, httptest.NewRequest("GET", "/api/v1/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `signed_louvain_http_requests_total{method="GET",path="/api/v1/health",status="200"} 1`)

	req := httptest.NewRequest("OPTIONS", "/api/v1/datasets", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
