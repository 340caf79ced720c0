package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/writing-coach/internal/analysis"
	"github.com/jonathan/writing-coach/internal/config"
	"github.com/jonathan/writing-coach/internal/detectors"
	"github.com/jonathan/writing-coach/internal/feedback"
	"github.com/jonathan/writing-coach/internal/llm"
	"github.com/jonathan/writing-coach/internal/scheduler"
	"github.com/jonathan/writing-coach/internal/scoring"
	"github.com/jonathan/writing-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Server.RateLimit = false
	cfg.Scheduler.Debounce = config.Duration(10 * time.Millisecond)
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, assessor *feedback.Assessor) *Server {
	t.Helper()
	engine, err := analysis.NewDefaultEngine(detectors.DefaultThresholds())
	require.NoError(t, err)

	s, err := New(Options{
		Config:   cfg,
		Analyzer: engine,
		Scorer:   scoring.NewStructural(cfg.Scheduler.SecondaryMinLength),
		Assessor: assessor,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[SessionResponse](t, w).ID
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	_, err := New(Options{Config: testConfig()})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	w := do(t, s.Handler(), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["feedback"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	do(t, s.Handler(), http.MethodPost, "/analyze", TextRequest{Text: "He don't know.", TextType: "narrative"})

	w := do(t, s.Handler(), http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "writing_coach_")
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	w := do(t, s.Handler(), http.MethodPost, "/analyze", TextRequest{Text: "He don't know.", TextType: "narrative"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[AnalyzeResponse](t, w)
	assert.False(t, resp.FromCache)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 67, resp.Result.OverallScore)
	assert.Equal(t, 1, resp.Result.ErrorCount)
	require.NotEmpty(t, resp.Result.Spans)
	assert.Equal(t, types.CategoryGrammar, resp.Result.Spans[0].Category)
	assert.Nil(t, resp.Result.Secondary, "short text gets no secondary score")

	w = do(t, s.Handler(), http.MethodPost, "/analyze", TextRequest{Text: "He don't know.", TextType: "NARRATIVE"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[AnalyzeResponse](t, w).FromCache)
}

func TestAnalyzeEndpoint_SecondaryScore(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	text := "The lighthouse keeper climbed the stairs every evening. However, tonight the lamp refused to light.\n\nShe searched the storeroom for matches."

	w := do(t, s.Handler(), http.MethodPost, "/analyze", TextRequest{Text: text, TextType: "narrative"})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AnalyzeResponse](t, w)
	require.NotNil(t, resp.Result.Secondary)
	assert.Equal(t, 4, resp.Result.Secondary.NarrativeStructure.Score)
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s.Handler(), http.MethodPost, "/analyze", TextRequest{Text: "ok", TextType: strings.Repeat("x", 40)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "TextType")
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()
	id := createSession(t, h)

	w := do(t, h, http.MethodPut, "/sessions/"+id+"/text", TextRequest{Text: "He don't know.", TextType: "narrative"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		w := do(t, h, http.MethodGet, "/sessions/"+id, nil)
		resp := decode[SessionResponse](t, w)
		return resp.Result != nil && resp.State == scheduler.StateIdle
	}, waitFor, tick)

	w = do(t, h, http.MethodGet, "/sessions/"+id, nil)
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, 67, resp.Result.OverallScore)
	assert.Equal(t, uint64(1), resp.Generation)
	assert.Equal(t, uint64(1), resp.Metrics.Delivered)

	w = do(t, h, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_DebounceOverride(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/sessions", CreateSessionRequest{DebounceMS: 60000})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[SessionResponse](t, w).ID

	w = do(t, h, http.MethodPut, "/sessions/"+id+"/text", TextRequest{Text: "Some draft text.", TextType: "narrative"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, scheduler.StateDebouncing, decode[SessionResponse](t, w).State)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/refresh", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return decode[SessionResponse](t, do(t, h, http.MethodGet, "/sessions/"+id, nil)).Result != nil
	}, waitFor, tick, "refresh skips the long debounce")
}

func TestSession_NotFound(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()

	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/sessions/missing", nil},
		{http.MethodPut, "/sessions/missing/text", TextRequest{Text: "x"}},
		{http.MethodPost, "/sessions/missing/refresh", nil},
		{http.MethodGet, "/sessions/missing/spans", nil},
		{http.MethodGet, "/sessions/missing/events", nil},
		{http.MethodDelete, "/sessions/missing", nil},
	}
	for _, tt := range tests {
		w := do(t, h, tt.method, tt.path, tt.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tt.method+" "+tt.path)
	}
}

func TestSession_MaxSessions(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxSessions = 1
	s := newTestServer(t, cfg, nil)

	createSession(t, s.Handler())
	w := do(t, s.Handler(), http.MethodPost, "/sessions", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListSpans_Paging(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()
	id := createSession(t, h)

	text := "He don't know. She could of gone. It is very nice."
	do(t, h, http.MethodPut, "/sessions/"+id+"/text", TextRequest{Text: text, TextType: "narrative"})
	require.Eventually(t, func() bool {
		return decode[SessionResponse](t, do(t, h, http.MethodGet, "/sessions/"+id, nil)).Result != nil
	}, waitFor, tick)

	all := decode[SpansResponse](t, do(t, h, http.MethodGet, "/sessions/"+id+"/spans", nil))
	require.Greater(t, all.Total, 2)
	assert.Len(t, all.Spans, all.Total)

	page := decode[SpansResponse](t, do(t, h, http.MethodGet, "/sessions/"+id+"/spans?offset=1&limit=2", nil))
	assert.Equal(t, all.Total, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, all.Spans[1:3], page.Spans)

	rendered := decode[SpansResponse](t, do(t, h, http.MethodGet, "/sessions/"+id+"/spans?order=render", nil))
	assert.Equal(t, types.SeverityError, rendered.Spans[0].Severity)

	w := do(t, h, http.MethodGet, "/sessions/"+id+"/spans?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSpans_NoResultYet(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	id := createSession(t, s.Handler())

	resp := decode[SpansResponse](t, do(t, s.Handler(), http.MethodGet, "/sessions/"+id+"/spans", nil))

	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Spans)
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := createSession(t, s.Handler())

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	do(t, s.Handler(), http.MethodPut, "/sessions/"+id+"/text", TextRequest{Text: "He don't know.", TextType: "narrative"})

	var names []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok && len(names) > 0 && names[len(names)-1] == string(scheduler.EventDelivered) {
			var ev scheduler.Event
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			require.NotNil(t, ev.Result)
			assert.Equal(t, 67, ev.Result.OverallScore)
			break
		}
	}

	assert.Equal(t, []string{string(scheduler.EventAnalyzing), string(scheduler.EventDelivered)}, names)
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	h := s.Handler()
	do(t, h, http.MethodPost, "/analyze", TextRequest{Text: "One.", TextType: "narrative"})
	do(t, h, http.MethodPost, "/analyze", TextRequest{Text: "Two.", TextType: "narrative"})

	stats := decode[map[string]any](t, do(t, h, http.MethodGet, "/cache/stats", nil))
	assert.EqualValues(t, 2, stats["entries"])
	assert.EqualValues(t, 50, stats["max_entries"])

	w := do(t, h, http.MethodDelete, "/cache", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	stats = decode[map[string]any](t, do(t, h, http.MethodGet, "/cache/stats", nil))
	assert.EqualValues(t, 0, stats["entries"])
}

type stubClient struct{ payload string }

func (c stubClient) GenerateJSON(context.Context, string, string, llm.ModelTier) (string, error) {
	return c.payload, nil
}
func (c stubClient) GetModel(llm.ModelTier) string { return "stub" }
func (c stubClient) Close() error                  { return nil }

func TestFeedbackEndpoint(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, testConfig(), nil)
		w := do(t, s.Handler(), http.MethodPost, "/feedback", types.AssessmentRequest{Text: "A story.", TextType: "narrative"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("fallback", func(t *testing.T) {
		assessor := feedback.NewAssessor(stubClient{payload: "not json"}, time.Second, nil)
		s := newTestServer(t, testConfig(), assessor)

		w := do(t, s.Handler(), http.MethodPost, "/feedback", types.AssessmentRequest{Text: "A story.", TextType: "narrative"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		a := decode[types.Assessment](t, w)
		assert.True(t, a.Fallback)
		assert.Equal(t, 60, a.OverallScore)
	})

	t.Run("invalid request", func(t *testing.T) {
		assessor := feedback.NewAssessor(nil, time.Second, nil)
		s := newTestServer(t, testConfig(), assessor)

		w := do(t, s.Handler(), http.MethodPost, "/feedback", types.AssessmentRequest{Text: "A poem.", TextType: "poem"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = true
	cfg.Server.FeedbackPerHour = 1
	s := newTestServer(t, cfg, feedback.NewAssessor(nil, time.Second, nil))

	body := types.AssessmentRequest{Text: "A story.", TextType: "narrative"}
	w := do(t, s.Handler(), http.MethodPost, "/feedback", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = do(t, s.Handler(), http.MethodPost, "/feedback", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, w)["error"])

	w = do(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health is never limited")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	w := do(t, s.Handler(), http.MethodOptions, "/analyze", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
