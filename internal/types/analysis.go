package types

import (
	"reflect"
	"time"
)

// AnalysisResult is the output of one analysis cycle. It is treated as immutable
// once constructed: the cache and the session share the same pointer.
type AnalysisResult struct {
	Spans        []Span           `json:"spans"`
	OverallScore int              `json:"overall_score"`
	Suggestions  []string         `json:"suggestions"`
	Achievements []string         `json:"achievements"`
	Secondary    *SecondaryScore  `json:"secondary,omitempty"`
	WordCount    int              `json:"word_count"`
	ErrorCount   int              `json:"error_count"`
	Stats        map[Category]int `json:"stats"`
	TextType     string           `json:"text_type"`
	ComputedAt   time.Time        `json:"computed_at"`
}

// WithSecondary returns a shallow copy of r carrying the given secondary score.
func (r *AnalysisResult) WithSecondary(score *SecondaryScore) *AnalysisResult {
	out := *r
	out.Secondary = score
	return &out
}

// Equivalent reports whether two results are equal ignoring ComputedAt.
func (r *AnalysisResult) Equivalent(other *AnalysisResult) bool {
	if r == nil || other == nil {
		return r == other
	}
	a, b := *r, *other
	a.ComputedAt, b.ComputedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}

// CriterionScore is one coarse criterion of the secondary scorer.
type CriterionScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// SecondaryScore is the structural/creativity assessment run alongside the detectors.
type SecondaryScore struct {
	NarrativeStructure CriterionScore `json:"narrative_structure"`
	Creativity         CriterionScore `json:"creativity"`
	Vocabulary         CriterionScore `json:"vocabulary"`
	Coherence          CriterionScore `json:"coherence"`
}

// Average returns the mean of the four criterion scores.
func (s *SecondaryScore) Average() float64 {
	if s == nil {
		return 0
	}
	total := s.NarrativeStructure.Score + s.Creativity.Score + s.Vocabulary.Score + s.Coherence.Score
	return float64(total) / 4
}
