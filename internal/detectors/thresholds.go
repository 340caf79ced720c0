package detectors

import "fmt"

// Thresholds are the tunable limits of the heuristic detectors.
type Thresholds struct {
	// MaxSentenceWords flags sentences with more words than this.
	MaxSentenceWords int `json:"max_sentence_words" yaml:"max_sentence_words"`
	// MinSentenceWords flags non-dialogue sentences with fewer words than this.
	MinSentenceWords int `json:"min_sentence_words" yaml:"min_sentence_words"`
	// RepetitiveStartMin is how many sentences must share an opening word.
	RepetitiveStartMin int `json:"repetitive_start_min" yaml:"repetitive_start_min"`
	// AdjectiveRunMin is the shortest run of lowercase descriptors that is flagged.
	AdjectiveRunMin int `json:"adjective_run_min" yaml:"adjective_run_min"`

	ExtraWeakWords    []string          `json:"extra_weak_words,omitempty" yaml:"extra_weak_words,omitempty"`
	ExtraMisspellings map[string]string `json:"extra_misspellings,omitempty" yaml:"extra_misspellings,omitempty"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSentenceWords:   40,
		MinSentenceWords:   5,
		RepetitiveStartMin: 3,
		AdjectiveRunMin:    4,
	}
}

// Validate checks that every threshold is usable.
func (t Thresholds) Validate() error {
	if t.MaxSentenceWords < 1 {
		return &Error{Message: fmt.Sprintf("max_sentence_words must be positive, got %d", t.MaxSentenceWords)}
	}
	if t.MinSentenceWords < 0 || t.MinSentenceWords > t.MaxSentenceWords {
		return &Error{Message: fmt.Sprintf("min_sentence_words must be between 0 and %d, got %d", t.MaxSentenceWords, t.MinSentenceWords)}
	}
	if t.RepetitiveStartMin < 2 {
		return &Error{Message: fmt.Sprintf("repetitive_start_min must be at least 2, got %d", t.RepetitiveStartMin)}
	}
	if t.AdjectiveRunMin < 2 {
		return &Error{Message: fmt.Sprintf("adjective_run_min must be at least 2, got %d", t.AdjectiveRunMin)}
	}
	return nil
}
