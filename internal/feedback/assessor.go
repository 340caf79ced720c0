// Package feedback produces on-demand rubric assessments through an LLM client.
// It runs on its own request cycle, separate from real-time analysis, and
// degrades to fixed default scores whenever the model is unavailable or
// returns an unusable payload.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonathan/writing-coach/internal/llm"
	"github.com/jonathan/writing-coach/internal/prompts"
	"github.com/jonathan/writing-coach/internal/schemas"
	"github.com/jonathan/writing-coach/internal/types"
)

// DefaultCriterionScore is the score given to every criterion in a fallback.
const DefaultCriterionScore = 3

// Error represents an invalid assessment request.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("feedback error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("feedback error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Assessor scores essays against the four-criterion rubric.
type Assessor struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewAssessor creates an assessor. A nil client always yields the fallback.
func NewAssessor(client llm.Client, timeout time.Duration, logger *slog.Logger) *Assessor {
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{client: client, timeout: timeout, logger: logger}
}

// Assess returns a rubric assessment. Only an invalid request is an error;
// model failures produce a fallback assessment.
func (a *Assessor) Assess(ctx context.Context, req types.AssessmentRequest) (*types.Assessment, error) {
	if err := req.Validate(); err != nil {
		return nil, &Error{Message: "invalid assessment request", Cause: err}
	}
	if a.client == nil {
		return Fallback(), nil
	}

	system, user, err := buildPrompts(req)
	if err != nil {
		a.logger.Error("Failed to build rubric prompt", "error", err)
		return Fallback(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	payload, err := a.client.GenerateJSON(ctx, system, user, llm.TierStandard)
	if err != nil {
		a.logger.Warn("Deep feedback unavailable, using defaults", "error", err)
		return Fallback(), nil
	}
	if err := schemas.ValidateAssessment(payload); err != nil {
		a.logger.Warn("Invalid model payload, using defaults", "error", err)
		return Fallback(), nil
	}

	var assessment types.Assessment
	if err := json.Unmarshal([]byte(payload), &assessment); err != nil {
		a.logger.Warn("Failed to decode model payload, using defaults", "error", err)
		return Fallback(), nil
	}

	normalize(&assessment, utf8.RuneCountInString(req.Text))
	assessment.ModelVersion = a.client.GetModel(llm.TierStandard)
	a.logger.Info("Deep feedback generated",
		"model", assessment.ModelVersion,
		"overall_score", assessment.OverallScore,
		"latency_ms", time.Since(start).Milliseconds())
	return &assessment, nil
}

func buildPrompts(req types.AssessmentRequest) (system, user string, err error) {
	system, err = prompts.Render(prompts.FeedbackFile, "rubric-system", map[string]string{
		"IdeasWeight":     strconv.Itoa(types.RubricWeights[types.CriterionIdeasContent]),
		"StructureWeight": strconv.Itoa(types.RubricWeights[types.CriterionStructureOrganization]),
		"LanguageWeight":  strconv.Itoa(types.RubricWeights[types.CriterionLanguageVocab]),
		"SpagWeight":      strconv.Itoa(types.RubricWeights[types.CriterionSpellingGrammar]),
	})
	if err != nil {
		return "", "", err
	}
	user, err = prompts.Render(prompts.FeedbackFile, "rubric-user", map[string]string{
		"TextType": req.TextType,
		"Text":     req.Text,
	})
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// normalize pins weights to the rubric, clamps scores and drops corrections
// whose offsets fall outside the text.
func normalize(a *types.Assessment, textLen int) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.OverallScore = clamp(a.OverallScore, 0, 100)
	if a.Criteria == nil {
		a.Criteria = make(map[string]types.RubricCriterion, len(types.RubricWeights))
	}
	for key, weight := range types.RubricWeights {
		c := a.Criteria[key]
		c.Weight = weight
		c.Score = clamp(c.Score, 0, 5)
		if c.Strengths == nil {
			c.Strengths = []string{}
		}
		if c.Improvements == nil {
			c.Improvements = []string{}
		}
		a.Criteria[key] = c
	}
	a.GrammarCorrections = inBounds(a.GrammarCorrections, textLen)
	a.VocabularyEnhancements = inBounds(a.VocabularyEnhancements, textLen)
	a.Fallback = false
}

func inBounds(corrections []types.Correction, textLen int) []types.Correction {
	out := make([]types.Correction, 0, len(corrections))
	for _, c := range corrections {
		if c.Start >= 0 && c.Start < c.End && c.End <= textLen {
			out = append(out, c)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Fallback returns the fixed default assessment.
func Fallback() *types.Assessment {
	strength := prompts.MustGet(prompts.FeedbackFile, "fallback-strength")
	improvement := prompts.MustGet(prompts.FeedbackFile, "fallback-improvement")

	criteria := make(map[string]types.RubricCriterion, len(types.RubricWeights))
	overall := 0
	for key, weight := range types.RubricWeights {
		criteria[key] = types.RubricCriterion{
			Score:        DefaultCriterionScore,
			Weight:       weight,
			Strengths:    []string{strength},
			Improvements: []string{improvement},
		}
		overall += DefaultCriterionScore * weight
	}

	return &types.Assessment{
		ID:                     uuid.NewString(),
		OverallScore:           overall / 5,
		Criteria:               criteria,
		GrammarCorrections:     []types.Correction{},
		VocabularyEnhancements: []types.Correction{},
		Fallback:               true,
	}
}
