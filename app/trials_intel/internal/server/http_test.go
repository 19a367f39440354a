package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/trials_intel/app/trials_intel/internal/service"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/analyzer"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/registry"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/session"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/vision"
)

// mockSearcher 模拟注册中心
type mockSearcher struct {
	trials []model.TrialRecord
	err    error
	last   *registry.Request
}

func (m *mockSearcher) Search(_ context.Context, req *registry.Request) ([]model.TrialRecord, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.trials, nil
}

func sampleTrials(n int) []model.TrialRecord {
	out := make([]model.TrialRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.TrialRecord{
			NCTID:      "NCT0000000" + string(rune('0'+i)),
			Title:      "CAR-T study",
			Phase:      "PHASE2",
			Conditions: []string{"Lymphoma"},
			Enrollment: model.UnknownEnrollment,
		})
	}
	return out
}

func newTestServer(t *testing.T, searcher registry.Searcher) *http.Server {
	t.Helper()
	m := llm.NewMockModel(config.DefaultModel)
	sessions, err := session.NewStore(8)
	require.NoError(t, err)

	svc := service.NewTrialsService(
		searcher,
		analyzer.New(m),
		vision.New(m, true),
		sessions,
		nil,
		config.ServerConfig{AnalyzeLimit: 5},
		config.VisionConfig{},
		log.DefaultLogger,
	)
	return NewHTTPServer(config.ServerConfig{}, svc, log.DefaultLogger)
}

func do(t *testing.T, srv *http.Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestSearchAnalyzeStatus(t *testing.T) {
	searcher := &mockSearcher{trials: sampleTrials(7)}
	srv := newTestServer(t, searcher)

	rec, out := do(t, srv, nethttp.MethodPost, "/api/search", map[string]any{})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 7, out["count"])
	assert.Equal(t, "CAR-T Cell Therapy", searcher.last.Condition)
	assert.Equal(t, 10, searcher.last.MaxResults)
	sessionID, _ := out["session_id"].(string)
	require.NotEmpty(t, sessionID)

	rec, out = do(t, srv, nethttp.MethodGet, "/api/status?session_id="+sessionID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "online", out["status"])
	assert.Equal(t, "mock", out["gemini_mode"])
	assert.EqualValues(t, 7, out["cached_trials"])
	assert.Equal(t, false, out["has_analysis"])

	rec, out = do(t, srv, nethttp.MethodPost, "/api/analyze", map[string]any{"session_id": sessionID})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	analysis, ok := out["analysis"].(map[string]any)
	require.True(t, ok)
	trials, _ := analysis["trials"].([]any)
	assert.Len(t, trials, 5)
	summary, _ := analysis["summary"].(map[string]any)
	assert.EqualValues(t, 5, summary["total_trials"])
	insights, _ := summary["ai_insights"].(map[string]any)
	assert.Contains(t, insights, "competitive_landscape")

	_, out = do(t, srv, nethttp.MethodGet, "/api/status?session_id="+sessionID, nil)
	assert.Equal(t, true, out["has_analysis"])
}

func TestSearch_CustomCondition(t *testing.T) {
	searcher := &mockSearcher{trials: sampleTrials(1)}
	srv := newTestServer(t, searcher)

	rec, _ := do(t, srv, nethttp.MethodPost, "/api/search", map[string]any{"condition": "Lymphoma", "max_results": 3})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "Lymphoma", searcher.last.Condition)
	assert.Equal(t, 3, searcher.last.MaxResults)

	rec, _ = do(t, srv, nethttp.MethodPost, "/api/search", map[string]any{"max_results": 500})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestSearch_RegistryError(t *testing.T) {
	srv := newTestServer(t, &mockSearcher{err: errors.New("timeout")})

	rec, out := do(t, srv, nethttp.MethodPost, "/api/search", map[string]any{})
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "REGISTRY_UNAVAILABLE", out["reason"])
}

func TestAnalyze_NoTrials(t *testing.T) {
	srv := newTestServer(t, &mockSearcher{})

	rec, out := do(t, srv, nethttp.MethodPost, "/api/analyze", map[string]any{})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_TRIALS", out["reason"])

	rec, _ = do(t, srv, nethttp.MethodPost, "/api/analyze", map[string]any{"session_id": "unknown"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	// 检索结果为空的会话同样不能分析
	_, out = do(t, srv, nethttp.MethodPost, "/api/search", map[string]any{})
	rec, _ = do(t, srv, nethttp.MethodPost, "/api/analyze", map[string]any{"session_id": out["session_id"]})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestVisionDemo_Mock(t *testing.T) {
	srv := newTestServer(t, &mockSearcher{})

	rec, out := do(t, srv, nethttp.MethodGet, "/api/vision-demo", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])

	survival, _ := out["survival_analysis"].(map[string]any)
	assert.EqualValues(t, 0.42, survival["hazard_ratio"])
	assert.NotContains(t, survival, "error")

	safety, _ := out["safety_analysis"].(map[string]any)
	assert.Equal(t, "Cytokine release syndrome", safety["most_common_ae"])

	results, _ := out["trial_results"].(map[string]any)
	assert.Equal(t, true, results["primary_endpoint_met"])
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, &mockSearcher{})

	req := httptest.NewRequest(nethttp.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Trials Intel")
}

func TestServeAsset_Missing(t *testing.T) {
	rec := httptest.NewRecorder()
	serveAsset(rec, "assets/missing.html", log.DefaultLogger)

	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "text/html")
}
