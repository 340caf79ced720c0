package detectors

import (
	"testing"

	"github.com/jonathan/writing-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammarDetector_SubjectVerbAgreement(t *testing.T) {
	spans := GrammarDetector().Detect("He don't know.")

	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, 0, span.Start)
	assert.Equal(t, 8, span.End)
	assert.Equal(t, types.CategoryGrammar, span.Category)
	assert.Equal(t, types.SeverityError, span.Severity)
	assert.Contains(t, span.Message, "doesn't")
	assert.Equal(t, []string{"He doesn't"}, span.Suggestions)
}

func TestGrammarDetector_CurlyApostrophe(t *testing.T) {
	spans := GrammarDetector().Detect("She don’t care.")

	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 9, spans[0].End, "offsets are runes, not bytes")
}

func TestGrammarDetector_Rules(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		message    string
		suggestion string
	}{
		{"could of", "I could of gone.", `Use "have" instead of "of"`, "could have"},
		{"double negative", "We can't never win.", "Double negative detected", "can't ever"},
		{"their going", "Look, their going home.", `Did you mean "they're" (they are)?`, "they're going"},
		{"there coming", "there coming soon", `Did you mean "they're" (they are)?`, "they're coming"},
		{"your running", "Your running late.", `Did you mean "you're" (you are)?`, "You're running"},
		{"its doing", "its doing fine", `Did you mean "it's" (it is)?`, "it's doing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := GrammarDetector().Detect(tt.text)
			require.Len(t, spans, 1, "spans: %+v", spans)
			assert.Equal(t, tt.message, spans[0].Message)
			assert.Equal(t, []string{tt.suggestion}, spans[0].Suggestions)
		})
	}
}

func TestGrammarDetector_CommaSplice(t *testing.T) {
	spans := GrammarDetector().Detect("we ran, jumped and laughed, cried")

	require.Len(t, spans, 1)
	assert.Equal(t, "Possible run-on sentence or comma splice", spans[0].Message)
	assert.Empty(t, spans[0].Suggestions)
}

func TestGrammarDetector_CleanText(t *testing.T) {
	assert.Empty(t, GrammarDetector().Detect("She doesn't know what they're doing."))
}
