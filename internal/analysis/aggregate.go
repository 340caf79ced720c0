package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/writing-coach/internal/types"
)

// Aggregate merges per-detector span lists into a scored result. The outer slice
// must be in detector registration order; spans with equal starts keep that order.
func Aggregate(text, textType string, perDetector [][]types.Span, computedAt time.Time) *types.AnalysisResult {
	total := 0
	for _, spans := range perDetector {
		total += len(spans)
	}
	merged := make([]types.Span, 0, total)
	for _, spans := range perDetector {
		merged = append(merged, spans...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})

	stats := make(map[types.Category]int, len(types.Categories))
	for _, c := range types.Categories {
		stats[c] = 0
	}
	errorCount := 0
	for _, s := range merged {
		stats[s.Category]++
		if s.Severity == types.SeverityError {
			errorCount++
		}
	}

	wordCount := len(strings.Fields(text))
	score := Score(errorCount, wordCount)

	return &types.AnalysisResult{
		Spans:        merged,
		OverallScore: score,
		Suggestions:  suggestionsFor(text, len(merged), wordCount),
		Achievements: achievementsFor(score, errorCount, wordCount),
		WordCount:    wordCount,
		ErrorCount:   errorCount,
		Stats:        stats,
		TextType:     textType,
		ComputedAt:   computedAt,
	}
}

// Score is max(0, round(100 - 100*errors/max(1, words))).
func Score(errorCount, wordCount int) int {
	words := wordCount
	if words < 1 {
		words = 1
	}
	score := int(math.Round(100 - 100*float64(errorCount)/float64(words)))
	if score < 0 {
		return 0
	}
	return score
}
