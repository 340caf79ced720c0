package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/writing-coach/internal/types"
)

// DefaultMinLength is the shortest text, in runes, that Structural will rate.
const DefaultMinLength = 50

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceBreak  = regexp.MustCompile(`[.!?]+`)
)

// transitionWords signal links between ideas.
var transitionWords = map[string]bool{
	"however": true, "therefore": true, "then": true, "next": true,
	"finally": true, "because": true, "although": true, "meanwhile": true,
	"first": true, "firstly": true, "second": true, "secondly": true,
	"later": true, "suddenly": true, "afterwards": true, "moreover": true,
	"furthermore": true, "consequently": true, "also": true, "instead": true,
	"eventually": true, "besides": true, "similarly": true, "thus": true,
}

// Structural is a heuristic scorer over paragraph, word and sentence counts.
// It never fails.
type Structural struct {
	MinLength int
}

// NewStructural creates a scorer; minLength <= 0 takes DefaultMinLength.
func NewStructural(minLength int) *Structural {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Structural{MinLength: minLength}
}

// Score rates text on four 1-5 criteria, or returns nil for text under MinLength.
func (s *Structural) Score(ctx context.Context, text, _ string) (*types.SecondaryScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(text) < s.MinLength {
		return nil, nil
	}

	words := strings.Fields(text)
	paragraphs := countNonBlank(paragraphBreak.Split(text, -1))
	sentences := countNonBlank(sentenceBreak.Split(text, -1))

	longWords := 0
	unique := make(map[string]struct{}, len(words))
	transitions := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) > 6 {
			longWords++
		}
		norm := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if norm == "" {
			continue
		}
		unique[norm] = struct{}{}
		if transitionWords[norm] {
			transitions++
		}
	}

	narrative := min(5, paragraphs+2)
	vocabulary := min(5, longWords/5+3)

	diversity := 0.0
	if len(words) > 0 {
		diversity = float64(len(unique)) / float64(len(words))
	}
	creativity := clamp(1+int(math.Round(diversity*4)), 1, 5)

	ratio := float64(transitions) / float64(max(1, sentences))
	coherence := clamp(2+int(math.Round(math.Min(1, ratio)*3)), 1, 5)

	return &types.SecondaryScore{
		NarrativeStructure: types.CriterionScore{Score: narrative, Feedback: narrativeFeedback(narrative)},
		Creativity:         types.CriterionScore{Score: creativity, Feedback: creativityFeedback(creativity)},
		Vocabulary:         types.CriterionScore{Score: vocabulary, Feedback: vocabularyFeedback(vocabulary)},
		Coherence:          types.CriterionScore{Score: coherence, Feedback: coherenceFeedback(coherence)},
	}, nil
}

func countNonBlank(pieces []string) int {
	n := 0
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func narrativeFeedback(score int) string {
	if score >= 4 {
		return "Good story structure with clear paragraphs"
	}
	return "Break your writing into paragraphs for a clear beginning, middle and end"
}

func creativityFeedback(score int) string {
	if score >= 4 {
		return "Shows creative thinking and imagination"
	}
	return "Try fresher word choices instead of repeating the same words"
}

func vocabularyFeedback(score int) string {
	if score >= 4 {
		return "Good use of varied vocabulary"
	}
	return "Include more precise, sophisticated words"
}

func coherenceFeedback(score int) string {
	if score >= 4 {
		return "Ideas flow logically from one to the next"
	}
	return "Use linking words such as however, then or because to connect ideas"
}
