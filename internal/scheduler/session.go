// Package scheduler turns a stream of text edits into analysis results.
//
// A Session debounces edits, then runs the heuristic pipeline and the secondary
// scorer concurrently. Every run carries a generation number; a result is
// cached and delivered only if its generation is still the latest one issued,
// so a slow run can never overwrite the result for newer text.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/writing-coach/internal/cache"
	"github.com/jonathan/writing-coach/internal/scoring"
	"github.com/jonathan/writing-coach/internal/types"
)

// Defaults.
const (
	DefaultDebounce         = 1000 * time.Millisecond
	DefaultSecondaryTimeout = 2 * time.Second
)

// Analyzer is the heuristic pipeline. *analysis.Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, text, textType string) (*types.AnalysisResult, error)
}

// Options configures a Session.
type Options struct {
	// Analyzer is required.
	Analyzer Analyzer
	// Scorer is optional; without it results carry no secondary score.
	Scorer scoring.Scorer
	// SecondaryTimeout bounds the scorer. Zero means DefaultSecondaryTimeout.
	SecondaryTimeout time.Duration
	// Cache may be shared between sessions. Nil gives the session its own.
	Cache *cache.Cache
	// Debounce is the quiet period before analysis. Zero means DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Session is one document's analysis state machine. It is safe for concurrent use.
type Session struct {
	analyzer Analyzer
	scorer   scoring.Scorer
	cache    *cache.Cache
	logger   *slog.Logger
	now      func() time.Time
	events   *dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	debounce    time.Duration
	timer       *time.Timer
	debounceSeq uint64
	generation  uint64
	runCancel   context.CancelFunc
	hasText     bool
	text        string
	textType    string
	current     *types.AnalysisResult
	lastErr     error
	metrics     Metrics
}

// NewSession creates an idle session.
func NewSession(opts Options) (*Session, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("scheduler: analyzer is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SecondaryTimeout <= 0 {
		opts.SecondaryTimeout = DefaultSecondaryTimeout
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var scorer scoring.Scorer
	if opts.Scorer != nil {
		scorer = scoring.WithTimeout(opts.Scorer, opts.SecondaryTimeout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	activeSessions.Inc()
	return &Session{
		analyzer: opts.Analyzer,
		scorer:   scorer,
		cache:    opts.Cache,
		logger:   opts.Logger,
		now:      opts.Now,
		events:   newDispatcher(opts.Logger),
		ctx:      ctx,
		cancel:   cancel,
		debounce: opts.Debounce,
	}, nil
}

// OnTextChanged records the latest text and restarts the debounce timer. Only
// the last change in a burst is analyzed.
func (s *Session) OnTextChanged(text, textType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.text, s.textType, s.hasText = text, textType, true
	s.stopTimerLocked()
	seq := s.debounceSeq
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(seq) })
	return nil
}

// TriggerImmediateAnalysis analyzes the latest text now, skipping any pending
// debounce. It does nothing before the first text change.
func (s *Session) TriggerImmediateAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.hasText {
		return nil
	}
	s.stopTimerLocked()
	s.startLocked()
	return nil
}

// stopTimerLocked invalidates any pending debounce fire.
func (s *Session) stopTimerLocked() {
	s.debounceSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs when a debounce timer expires. A superseded timer is a no-op.
func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.debounceSeq {
		return
	}
	s.timer = nil
	s.startLocked()
}

// startLocked issues a new generation for the current text. A cache hit is
// delivered without running any detector.
func (s *Session) startLocked() {
	s.generation++
	gen := s.generation
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}

	text, textType := s.text, s.textType
	if res, ok := s.cache.Get(text, textType); ok {
		s.metrics.CacheHits++
		runOutcomes.WithLabelValues("cached").Inc()
		s.deliverLocked(gen, res, true)
		return
	}
	s.metrics.CacheMisses++

	ctx, cancel := context.WithCancel(s.ctx)
	s.runCancel = cancel
	s.events.enqueue(Event{Type: EventAnalyzing, Generation: gen, At: s.now()})
	go s.run(ctx, cancel, gen, text, textType)
}

// run executes both branches and hands the joined outcome to finish.
func (s *Session) run(ctx context.Context, cancel context.CancelFunc, gen uint64, text, textType string) {
	defer cancel()
	start := time.Now()

	result, err := analyzeBoth(ctx, s.analyzer, s.scorer, text, textType, s.logger.With("generation", gen))

	elapsed := time.Since(start)
	runDuration.Observe(elapsed.Seconds())
	s.finish(gen, text, textType, result, err, elapsed)
}

// finish applies the generation gate: only the latest generation is cached,
// delivered or reported as failed.
func (s *Session) finish(gen uint64, text, textType string, result *types.AnalysisResult, err error, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if gen != s.generation {
		s.metrics.Cancelled++
		runOutcomes.WithLabelValues("cancelled").Inc()
		s.logger.Debug("Discarding stale analysis", "generation", gen, "latest", s.generation)
		return
	}
	s.runCancel = nil

	if err != nil {
		s.metrics.Failed++
		runOutcomes.WithLabelValues("failed").Inc()
		s.lastErr = &AnalysisError{Generation: gen, Cause: err}
		s.logger.Error("Analysis failed", "generation", gen, "error", err)
		s.events.enqueue(Event{Type: EventFailed, Generation: gen, Result: s.current, Err: s.lastErr, At: s.now()})
		return
	}

	s.metrics.TotalAnalyses++
	s.metrics.LastAnalysisTime = elapsed
	runOutcomes.WithLabelValues("delivered").Inc()
	s.cache.Put(text, textType, result)
	s.deliverLocked(gen, result, false)
}

func (s *Session) deliverLocked(gen uint64, result *types.AnalysisResult, fromCache bool) {
	s.metrics.Delivered++
	s.current = result
	s.lastErr = nil
	s.events.enqueue(Event{Type: EventDelivered, Generation: gen, Result: result, FromCache: fromCache, At: s.now()})
}

// CurrentResult returns the last delivered result, or nil.
func (s *Session) CurrentResult() *types.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsAnalyzing reports whether a run for the latest generation is in flight.
func (s *Session) IsAnalyzing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCancel != nil
}

// LastError returns the error of the latest run if it failed. A later
// delivery clears it.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// State reports the session phase. A pending debounce takes precedence over an
// in-flight run.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.timer != nil:
		return StateDebouncing
	case s.runCancel != nil:
		return StateRunning
	default:
		return StateIdle
	}
}

// Generation returns the latest issued generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetDebounce changes the quiet period for subsequent edits. Negative values
// are treated as zero.
func (s *Session) SetDebounce(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// Metrics returns a snapshot of the session counters.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Subscribe registers fn for every subsequent event. Events are delivered on
// one goroutine in the order they happened. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// Close cancels pending and in-flight work. Events already queued are still
// delivered. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.events.close()
	activeSessions.Dec()
}
