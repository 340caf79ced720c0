// Package scoring provides the secondary scorer that rates structure,
// creativity, vocabulary and coherence alongside the detectors.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/writing-coach/internal/types"
)

// ErrTimeout is returned when a scorer does not finish within its soft timeout.
var ErrTimeout = errors.New("secondary scorer timed out")

// Scorer rates a text. A nil score with a nil error means the text is too short
// to rate.
type Scorer interface {
	Score(ctx context.Context, text, textType string) (*types.SecondaryScore, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, text, textType string) (*types.SecondaryScore, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, text, textType string) (*types.SecondaryScore, error) {
	return f(ctx, text, textType)
}

type timeoutScorer struct {
	inner   Scorer
	timeout time.Duration
}

type scoreOutcome struct {
	score *types.SecondaryScore
	err   error
}

// WithTimeout bounds inner by d. On expiry it returns ErrTimeout immediately;
// the inner call keeps its cancelled context and its result is dropped.
func WithTimeout(inner Scorer, d time.Duration) Scorer {
	if d <= 0 {
		return inner
	}
	return &timeoutScorer{inner: inner, timeout: d}
}

func (t *timeoutScorer) Score(ctx context.Context, text, textType string) (*types.SecondaryScore, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan scoreOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- scoreOutcome{err: fmt.Errorf("secondary scorer panicked: %v", r)}
			}
		}()
		score, err := t.inner.Score(ctx, text, textType)
		done <- scoreOutcome{score: score, err: err}
	}()

	select {
	case out := <-done:
		return out.score, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
		}
		return nil, ctx.Err()
	}
}
