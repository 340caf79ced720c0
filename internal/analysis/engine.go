// Package analysis runs the registered detectors over a text and aggregates
// their spans into a scored AnalysisResult.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/jonathan/writing-coach/internal/detectors"
	"github.com/jonathan/writing-coach/internal/types"
)

// Engine is the heuristic pipeline: detectors followed by the aggregator.
// It is safe for concurrent use as long as the registry is not mutated.
type Engine struct {
	registry  *detectors.Registry
	logger    *slog.Logger
	now       func() time.Time
	aggregate func(text, textType string, perDetector [][]types.Span, computedAt time.Time) *types.AnalysisResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for detector failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock used for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry *detectors.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		logger:    slog.Default(),
		now:       time.Now,
		aggregate: Aggregate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultEngine builds an engine over the six standard detectors.
func NewDefaultEngine(th detectors.Thresholds, opts ...Option) (*Engine, error) {
	reg, err := detectors.Default(th)
	if err != nil {
		return nil, fmt.Errorf("failed to build detectors: %w", err)
	}
	return NewEngine(reg, opts...), nil
}

// Analyze runs every detector and aggregates the result. A failing detector
// contributes no spans. The context is checked between detectors.
func (e *Engine) Analyze(ctx context.Context, text, textType string) (result *types.AnalysisResult, err error) {
	start := time.Now()
	defer func() {
		analysisDuration.Observe(time.Since(start).Seconds())
	}()

	textLen := utf8.RuneCountInString(text)
	dets := e.registry.Detectors()
	perDetector := make([][]types.Span, 0, len(dets))
	for _, d := range dets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		perDetector = append(perDetector, e.runDetector(d, text, textLen))
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Aggregation failed", "panic", r)
			result, err = nil, fmt.Errorf("%w: %v", ErrPipelineFailed, r)
		}
	}()
	return e.aggregate(text, textType, perDetector, e.now()), nil
}

// runDetector isolates one detector: panics and out-of-range spans are logged
// and dropped.
func (e *Engine) runDetector(d detectors.Detector, text string, textLen int) (spans []types.Span) {
	defer func() {
		if r := recover(); r != nil {
			detectorFailures.WithLabelValues(d.Name, "panic").Inc()
			e.logger.Warn("Detector failed",
				"detector", d.Name,
				"error", &DetectorPanicError{Detector: d.Name, Value: r})
			spans = nil
		}
	}()

	raw := d.Detect(text)
	valid := raw[:0:0]
	for _, s := range raw {
		if err := s.Validate(textLen); err != nil {
			detectorFailures.WithLabelValues(d.Name, "invalid_span").Inc()
			e.logger.Warn("Dropping invalid span", "detector", d.Name, "error", err)
			continue
		}
		valid = append(valid, s)
	}
	return valid
}
