package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/writing-coach/internal/cache"
	"github.com/jonathan/writing-coach/internal/scoring"
	"github.com/jonathan/writing-coach/internal/types"
)

// AnalyzeOnce analyzes text outside any session: a cache hit is returned
// as-is, otherwise the analyzer and the scorer run concurrently and the merged
// result is cached. c and scorer may be nil. A zero secondaryTimeout means
// DefaultSecondaryTimeout.
func AnalyzeOnce(ctx context.Context, analyzer Analyzer, scorer scoring.Scorer, secondaryTimeout time.Duration,
	c *cache.Cache, text, textType string, logger *slog.Logger) (result *types.AnalysisResult, fromCache bool, err error) {
	if analyzer == nil {
		return nil, false, errors.New("scheduler: analyzer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if c != nil {
		if cached, ok := c.Get(text, textType); ok {
			return cached, true, nil
		}
	}
	if scorer != nil {
		if secondaryTimeout <= 0 {
			secondaryTimeout = DefaultSecondaryTimeout
		}
		scorer = scoring.WithTimeout(scorer, secondaryTimeout)
	}

	start := time.Now()
	result, err = analyzeBoth(ctx, analyzer, scorer, text, textType, logger)
	runDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		runOutcomes.WithLabelValues("failed").Inc()
		return nil, false, err
	}
	runOutcomes.WithLabelValues("delivered").Inc()
	if c != nil {
		c.Put(text, textType, result)
	}
	return result, false, nil
}

// analyzeBoth runs the heuristic pipeline and the secondary scorer
// concurrently. The secondary branch never fails the group: on error or
// timeout the result simply carries no secondary score.
func analyzeBoth(ctx context.Context, analyzer Analyzer, scorer scoring.Scorer, text, textType string, logger *slog.Logger) (*types.AnalysisResult, error) {
	var (
		result    *types.AnalysisResult
		secondary *types.SecondaryScore
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("analyzer panicked: %v", r)
			}
		}()
		res, err := analyzer.Analyze(gctx, text, textType)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if scorer != nil {
		g.Go(func() error {
			score, err := scorer.Score(gctx, text, textType)
			if err != nil {
				reason := "error"
				if errors.Is(err, scoring.ErrTimeout) {
					reason = "timeout"
				}
				if !errors.Is(err, context.Canceled) {
					secondaryUnavailable.WithLabelValues(reason).Inc()
					logger.Debug("Secondary scorer unavailable", "reason", reason, "error", err)
				}
				return nil
			}
			secondary = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("analyzer returned no result")
	}
	return result.WithSecondary(secondary), nil
}
