// internal/api/router_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/ContinuityGuard/internal/config"
	"github.com/Corphon/ContinuityGuard/internal/di"
	"github.com/Corphon/ContinuityGuard/internal/heuristic"
	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/services"
	"github.com/Corphon/ContinuityGuard/internal/storage"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

const templeScript = "INT. TEMPLE - DAY\nThe hero lights a cigarette.\nEXT. HIGHWAY - NIGHT\nA jeep chase.\n"

type testServer struct {
	router  *gin.Engine
	dataDir string
	metrics *utils.MetricsCollector
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DataDir:        t.TempDir(),
		DebugMode:      true,
		MaxScriptBytes: 1 << 20,
		AllowedOrigins: []string{"*"},
	}
	for _, m := range mutate {
		m(cfg)
	}

	engine, err := heuristic.New(heuristic.WithLogger(utils.NewNopLogger()))
	require.NoError(t, err)
	metrics := utils.NewMetricsCollector()
	reports, err := storage.NewReportStore(cfg.DataDir)
	require.NoError(t, err)

	container := di.NewContainer()
	container.Register(di.ServiceMetrics, metrics)
	container.Register(di.ServiceReports, reports)
	container.Register(di.ServiceAnalyzer, services.NewAnalyzerService(engine, nil,
		services.WithMetrics(metrics),
		services.WithAnalyzerLogger(utils.NewNopLogger()),
	))

	router, err := SetupRouter(cfg, container)
	require.NoError(t, err)
	return &testServer{router: router, dataDir: cfg.DataDir, metrics: metrics}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func scriptText(s string) *string { return &s }

func analyzeBody(t *testing.T, req AnalyzeRequest) string {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return string(data)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.APIResponse
}

func TestSetupRouterRequiresAnalyzer(t *testing.T) {
	_, err := SetupRouter(&config.Config{}, di.NewContainer())
	assert.Error(t, err)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/api", "/api/"} {
		rec := s.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"message":"ContinuityGuard Risk Engine Online"}`, rec.Body.String(), path)
	}
	for _, path := range []string{"/health", "/api/health"} {
		rec := s.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok","service":"backend"}`, rec.Body.String(), path)
	}
}

func TestAnalyzeReturnsRawResultAndArchives(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/analyze", analyzeBody(t, AnalyzeRequest{
		ScriptText: scriptText(templeScript), UseMock: true, BudgetMode: "High",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(models.EngineHeuristic), rec.Header().Get("X-Analysis-Engine"))
	assert.Empty(t, rec.Header().Get("X-Fallback-Reason"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Scenes, 2)
	assert.Equal(t, 85, result.TotalRiskScore)
	assert.Equal(t, "₹ 25 Lakhs", result.Errors[0].EstimatedCost)
	assert.Equal(t, models.ComplianceCOTPA, result.ComplianceRisks[0].Category)

	id := rec.Header().Get("X-Report-ID")
	require.NotEmpty(t, id)

	got := s.do(http.MethodGet, "/api/reports/"+id, "")
	require.Equal(t, http.StatusOK, got.Code)
	var report models.Report
	envelope := decodeEnvelope(t, got, &report)
	assert.True(t, envelope.Success)
	assert.Equal(t, id, report.ID)
	assert.Equal(t, models.BudgetHigh, report.BudgetMode)
	assert.Equal(t, result.Scenes[0].Header, report.Result.Scenes[0].Header)
}

func TestAnalyzeDefaultsAndNoCredentialFallback(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/analyze", `{"script_text": "INT. ROOM - DAY\nThey talk."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.ReasonNoCredential, rec.Header().Get("X-Fallback-Reason"))

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "₹ 10 Lakhs", result.Errors[0].EstimatedCost)
}

func TestAnalyzeRejectsMissingScript(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{}`, `{"script_text": null}`, `not json`} {
		rec := s.do(http.MethodPost, "/api/analyze", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)

		envelope := decodeEnvelope(t, rec, nil)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, ErrorScriptMissing, envelope.Error.Code)
	}
}

func TestAnalyzeEmptyScriptDegradesToSentinel(t *testing.T) {
	s := newTestServer(t)

	for _, text := range []string{"", "   \n\t  "} {
		rec := s.do(http.MethodPost, "/api/analyze", analyzeBody(t, AnalyzeRequest{ScriptText: scriptText(text), UseMock: true}))
		require.Equal(t, http.StatusOK, rec.Code, "%q", text)

		var result models.AnalysisResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.Scenes, 1)
		assert.Equal(t, "0", result.Scenes[0].ID)
		assert.Equal(t, heuristic.NoScenesHeader, result.Scenes[0].Header)
		assert.Empty(t, result.ComplianceRisks)
	}
}

func TestAnalyzeRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.MaxScriptBytes = 64 })
	body := analyzeBody(t, AnalyzeRequest{ScriptText: scriptText(strings.Repeat("INT. ROOM - DAY\n", 20))})

	rec := s.do(http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, ErrorPayloadTooLarge, decodeEnvelope(t, rec, nil).Error.Code)

	// 未声明长度时由 MaxBytesReader 截断
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.ContentLength = -1
	streamed := httptest.NewRecorder()
	s.router.ServeHTTP(streamed, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, streamed.Code)
}

func TestAnalyzeRateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})
	body := analyzeBody(t, AnalyzeRequest{ScriptText: scriptText(templeScript), UseMock: true})

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/analyze", body).Code)
	rec := s.do(http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ErrorRateLimited, decodeEnvelope(t, rec, nil).Error.Code)

	// 其他路由不受限
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}

func TestAnalyzeSurvivesArchiveFailure(t *testing.T) {
	s := newTestServer(t)
	reportsPath := filepath.Join(s.dataDir, "reports")
	require.NoError(t, os.RemoveAll(reportsPath))
	require.NoError(t, os.WriteFile(reportsPath, []byte("not a dir"), 0o644))

	rec := s.do(http.MethodPost, "/api/analyze", analyzeBody(t, AnalyzeRequest{ScriptText: scriptText(templeScript), UseMock: true}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Report-ID"))

	metrics := s.do(http.MethodGet, "/metrics", "")
	assert.Contains(t, metrics.Body.String(), "continuityguard_report_archive_failures_total 1")
}

func TestReportsListAndDelete(t *testing.T) {
	s := newTestServer(t)
	body := analyzeBody(t, AnalyzeRequest{ScriptText: scriptText(templeScript), UseMock: true})
	first := s.do(http.MethodPost, "/api/analyze", body).Header().Get("X-Report-ID")
	s.do(http.MethodPost, "/api/analyze", body)

	var list []models.ReportMetadata
	rec := s.do(http.MethodGet, "/api/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &list)
	assert.Len(t, list, 2)

	rec = s.do(http.MethodGet, "/api/reports?limit=1", "")
	decodeEnvelope(t, rec, &list)
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/reports?limit=zero", "").Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/reports/"+first, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/reports/"+first, "").Code)
}

func TestReportLookupErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/reports/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/reports/6f1c1f0e-8b7a-4c63-9a55-0f5d5f8d2a11", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec, nil).Error.Code)
}

func TestLLMStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/llm/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status services.LLMStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Ready)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodOptions, "/api/analyze", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	restricted := newTestServer(t, func(cfg *config.Config) {
		cfg.AllowedOrigins = []string{"https://studio.example"}
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://studio.example")
	ok := httptest.NewRecorder()
	restricted.router.ServeHTTP(ok, req)
	assert.Equal(t, "https://studio.example", ok.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	denied := httptest.NewRecorder()
	restricted.router.ServeHTTP(denied, req)
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpointCountsRoutes(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", "")

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `continuityguard_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
