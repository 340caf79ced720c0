package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/writing-coach/internal/scheduler"
	"github.com/jonathan/writing-coach/internal/types"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// TextRequest carries text to analyze.
type TextRequest struct {
	Text     string `json:"text" validate:"max=200000"`
	TextType string `json:"text_type" validate:"omitempty,max=32"`
}

// CreateSessionRequest optionally overrides the session debounce.
type CreateSessionRequest struct {
	DebounceMS int `json:"debounce_ms" validate:"min=0,max=60000"`
}

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse struct {
	Result    *types.AnalysisResult `json:"result"`
	FromCache bool                  `json:"from_cache"`
}

// SessionResponse describes one session.
type SessionResponse struct {
	ID         string                `json:"id"`
	State      scheduler.State       `json:"state"`
	Generation uint64                `json:"generation"`
	Analyzing  bool                  `json:"analyzing"`
	Result     *types.AnalysisResult `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
	Metrics    scheduler.Metrics     `json:"metrics"`
	CreatedAt  time.Time             `json:"created_at"`
}

// SpansResponse is one page of a session's spans.
type SpansResponse struct {
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Spans  []types.Span `json:"spans"`
}

// decodeJSON reads a bounded JSON body into dst and validates it. An empty
// body leaves dst untouched when allowEmpty is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return &ErrValidation{Field: "body", Message: err.Error()}
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Field(), Message: "failed on " + verrs[0].Tag()}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, fromCache, err := scheduler.AnalyzeOnce(r.Context(), s.analyzer, s.scorer,
		s.cfg.Scheduler.SecondaryTimeout.Std(), s.cache, req.Text, req.TextType, s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{Result: result, FromCache: fromCache})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.assessor == nil {
		s.writeError(w, r, &ErrFeedbackUnavailable{})
		return
	}

	var req types.AssessmentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	assessment, err := s.assessor.Assess(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, assessment)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := s.decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.sessions.create(time.Duration(req.DebounceMS) * time.Millisecond)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Session created", "session_id", entry.id)
	s.jsonResponse(w, http.StatusCreated, s.describe(entry))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.describe(entry))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.remove(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Session closed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req TextRequest
	if err := s.decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := entry.session.OnTextChanged(req.Text, req.TextType); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, s.describe(entry))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := entry.session.TriggerImmediateAnalysis(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, s.describe(entry))
}

// handleListSpans pages through the current result's spans. order=render
// sorts by severity first, the order an editor paints them in.
func (s *Server) handleListSpans(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var spans []types.Span
	if result := entry.session.CurrentResult(); result != nil {
		spans = result.Spans
	}
	if r.URL.Query().Get("order") == "render" {
		spans = types.SortForRendering(spans)
	}

	s.jsonResponse(w, http.StatusOK, SpansResponse{
		Total:  len(spans),
		Offset: offset,
		Spans:  types.PageSpans(spans, offset, limit),
	})
}

// handleEvents streams session events as Server-Sent Events until the client
// disconnects or the session is deleted.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Subscribe before the first flush so a client that has seen the headers
	// cannot miss an event.
	events := make(chan scheduler.Event, 16)
	unsubscribe := entry.session.Subscribe(func(ev scheduler.Event) {
		select {
		case events <- ev:
		default:
			s.logger.Warn("Dropping event for slow stream", "session_id", entry.id, "generation", ev.Generation)
		}
	})
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result := entry.session.CurrentResult(); result != nil {
		sse.WriteSessionEvent(scheduler.Event{ //nolint:errcheck
			Type:       scheduler.EventDelivered,
			Generation: entry.session.Generation(),
			Result:     result,
			At:         time.Now(),
		})
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := sse.WriteSessionEvent(ev); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := s.sessions.get(entry.id); err != nil {
				sse.WriteError(err.Error())
				return
			}
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	s.logger.Info("Cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) describe(entry *sessionEntry) SessionResponse {
	resp := SessionResponse{
		ID:         entry.id,
		State:      entry.session.State(),
		Generation: entry.session.Generation(),
		Analyzing:  entry.session.IsAnalyzing(),
		Result:     entry.session.CurrentResult(),
		Metrics:    entry.session.Metrics(),
		CreatedAt:  entry.createdAt,
	}
	if err := entry.session.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
	}
	return v, nil
}
