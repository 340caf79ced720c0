package analysis

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonathan/writing-coach/internal/detectors"
	"github.com/jonathan/writing-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewDefaultEngine(detectors.DefaultThresholds(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e
}

func TestEngine_HeDontKnow(t *testing.T) {
	result, err := newTestEngine(t).Analyze(context.Background(), "He don't know.", "narrative")
	require.NoError(t, err)

	require.Len(t, result.Spans, 2)
	assert.Equal(t, types.CategoryGrammar, result.Spans[0].Category, "grammar registers before sentence structure")
	assert.Equal(t, 0, result.Spans[0].Start)
	assert.Equal(t, 8, result.Spans[0].End)
	assert.Equal(t, types.CategorySentenceTooShort, result.Spans[1].Category)

	assert.Equal(t, 3, result.WordCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 67, result.OverallScore)
	assert.Equal(t, []string{SuggestionMinorIssues, SuggestionAddDetail, SuggestionMoreSentences}, result.Suggestions)
	assert.Empty(t, result.Achievements)
	assert.Equal(t, "narrative", result.TextType)
	assert.Equal(t, fixedNow, result.ComputedAt)
	assert.Equal(t, 1, result.Stats[types.CategoryGrammar])
	assert.Equal(t, 0, result.Stats[types.CategorySpelling])
}

func TestEngine_EmptyText(t *testing.T) {
	result, err := newTestEngine(t).Analyze(context.Background(), "", "narrative")
	require.NoError(t, err)

	assert.Empty(t, result.Spans)
	assert.Equal(t, 0, result.WordCount)
	assert.Equal(t, 100, result.OverallScore)
	assert.Contains(t, result.Suggestions, SuggestionPraise)
	assert.Contains(t, result.Achievements, AchievementErrorFree)
}

func TestEngine_TwoHundredCleanWords(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 23))

	result, err := newTestEngine(t).Analyze(context.Background(), text, "narrative")
	require.NoError(t, err)

	assert.Equal(t, 207, result.WordCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 100, result.OverallScore)
	assert.Equal(t, []string{
		AchievementPerfectScore,
		AchievementExcellent,
		AchievementErrorFree,
		AchievementProlific,
		AchievementStoryMaster,
	}, result.Achievements)
}

func TestEngine_SpansSortedAndInBounds(t *testing.T) {
	e := newTestEngine(t)
	texts := []string{
		"He don't know. He don't care. He don't stop. Their going home very soon.",
		"I recieve teh letter, it was written by a big old dark scary man.",
		"Café crêpes were really nice. “Yes,” she said. Teh end…",
		strings.Repeat("and the wind and the rain and the cold ", 8) + "came.",
		"   ",
	}

	for _, text := range texts {
		result, err := e.Analyze(context.Background(), text, "persuasive")
		require.NoError(t, err)

		assert.True(t, sort.SliceIsSorted(result.Spans, func(i, j int) bool {
			return result.Spans[i].Start < result.Spans[j].Start
		}), "spans not sorted for %q", text)
		n := utf8.RuneCountInString(text)
		for _, s := range result.Spans {
			assert.NoError(t, s.Validate(n))
		}
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	text := "The cake was eaten by a very hungry dog. It was good."

	first, err := e.Analyze(context.Background(), text, "narrative")
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), text, "narrative")
	require.NoError(t, err)

	assert.True(t, first.Equivalent(second))
}

func TestEngine_PanickingDetectorContributesNothing(t *testing.T) {
	reg := detectors.NewRegistry()
	require.NoError(t, reg.Register(detectors.Detector{
		Name:   "broken",
		Detect: func(string) []types.Span { panic("bad pattern") },
	}))
	require.NoError(t, reg.Register(detectors.GrammarDetector()))

	result, err := NewEngine(reg).Analyze(context.Background(), "He don't know.", "narrative")

	require.NoError(t, err)
	require.Len(t, result.Spans, 1)
	assert.Equal(t, types.CategoryGrammar, result.Spans[0].Category)
}

func TestEngine_DropsOutOfRangeSpans(t *testing.T) {
	reg := detectors.NewRegistry()
	require.NoError(t, reg.Register(detectors.Detector{
		Name: "sloppy",
		Detect: func(text string) []types.Span {
			return []types.Span{
				{Start: 0, End: 2, Category: types.CategoryGrammar, Severity: types.SeverityError},
				{Start: 3, End: 99, Category: types.CategoryGrammar, Severity: types.SeverityError},
				{Start: 2, End: 2, Category: types.CategoryGrammar, Severity: types.SeverityError},
			}
		},
	}))

	result, err := NewEngine(reg).Analyze(context.Background(), "Hello.", "narrative")

	require.NoError(t, err)
	require.Len(t, result.Spans, 1)
	assert.Equal(t, 2, result.Spans[0].End)
}

func TestEngine_AggregationPanicIsPipelineFailure(t *testing.T) {
	e := newTestEngine(t)
	e.aggregate = func(string, string, [][]types.Span, time.Time) *types.AnalysisResult {
		panic("boom")
	}

	result, err := e.Analyze(context.Background(), "Some text.", "narrative")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPipelineFailed)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t).Analyze(ctx, "He don't know.", "narrative")

	assert.ErrorIs(t, err, context.Canceled)
}
