package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/writing-coach/internal/llm"
	"github.com/jonathan/writing-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	payload string
	err     error
	delay   time.Duration

	system string
	prompt string
}

func (f *fakeClient) GenerateJSON(ctx context.Context, system, prompt string, _ llm.ModelTier) (string, error) {
	f.system, f.prompt = system, prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.payload, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                  { return nil }

const modelPayload = `{
  "id": "",
  "overallScore": 81,
  "criteria": {
    "ideasContent": {"score": 4, "weight": 99, "strengths": ["Vivid setting"], "improvements": []},
    "structureOrganization": {"score": 4, "weight": 25, "strengths": [], "improvements": ["Stronger ending"]},
    "languageVocab": {"score": 4, "weight": 25, "strengths": [], "improvements": []},
    "spellingPunctuationGrammar": {"score": 3, "weight": 20, "strengths": [], "improvements": []}
  },
  "grammarCorrections": [
    {"start": 0, "end": 8, "original": "He don't", "suggestion": "He doesn't"},
    {"start": 5, "end": 500, "original": "?", "suggestion": "?"}
  ],
  "vocabularyEnhancements": []
}`

func validRequest() types.AssessmentRequest {
	return types.AssessmentRequest{Text: "He don't know where the treasure is hidden.", TextType: "narrative"}
}

func TestAssess_ModelPayload(t *testing.T) {
	client := &fakeClient{payload: modelPayload}

	got, err := NewAssessor(client, time.Second, nil).Assess(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, got.Fallback)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 81, got.OverallScore)
	assert.Equal(t, "fake-model", got.ModelVersion)
	assert.Equal(t, 30, got.Criteria[types.CriterionIdeasContent].Weight, "weights are pinned to the rubric")
	assert.Equal(t, []string{"Vivid setting"}, got.Criteria[types.CriterionIdeasContent].Strengths)
	require.Len(t, got.GrammarCorrections, 1, "out-of-range corrections are dropped")
	assert.Equal(t, "He doesn't", got.GrammarCorrections[0].Suggestion)

	assert.Contains(t, client.system, "ideasContent=30")
	assert.Contains(t, client.prompt, "Text type: narrative")
	assert.Contains(t, client.prompt, "treasure")
}

func TestAssess_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{"no client", nil},
		{"client error", &fakeClient{err: errors.New("quota exceeded")}},
		{"not json", &fakeClient{payload: "Sorry, I cannot help."}},
		{"schema violation", &fakeClient{payload: `{"id": "x", "overallScore": 50}`}},
		{"timeout", &fakeClient{payload: modelPayload, delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAssessor(tt.client, 20*time.Millisecond, nil).Assess(context.Background(), validRequest())

			require.NoError(t, err)
			assert.True(t, got.Fallback)
			assert.Equal(t, 60, got.OverallScore)
		})
	}
}

func TestAssess_InvalidRequest(t *testing.T) {
	a := NewAssessor(&fakeClient{payload: modelPayload}, time.Second, nil)

	_, err := a.Assess(context.Background(), types.AssessmentRequest{Text: "Story", TextType: "poem"})

	var feedbackErr *Error
	require.ErrorAs(t, err, &feedbackErr)
	assert.Contains(t, err.Error(), "invalid assessment request")
}

func TestFallback(t *testing.T) {
	fb := Fallback()

	assert.True(t, fb.Fallback)
	assert.Len(t, fb.Criteria, 4)
	total := 0
	for key, c := range fb.Criteria {
		assert.Equal(t, DefaultCriterionScore, c.Score)
		assert.Equal(t, types.RubricWeights[key], c.Weight)
		assert.NotEmpty(t, c.Strengths)
		assert.NotEmpty(t, c.Improvements)
		total += c.Weight
	}
	assert.Equal(t, 100, total)
	assert.NotEqual(t, fb.ID, Fallback().ID)
}
