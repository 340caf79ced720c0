package types

import (
	"github.com/go-playground/validator/v10"
)

// Rubric criterion keys used by deep feedback.
const (
	CriterionIdeasContent          = "ideasContent"
	CriterionStructureOrganization = "structureOrganization"
	CriterionLanguageVocab         = "languageVocab"
	CriterionSpellingGrammar       = "spellingPunctuationGrammar"
)

// RubricWeights are the percentage weights of each rubric criterion.
var RubricWeights = map[string]int{
	CriterionIdeasContent:          30,
	CriterionStructureOrganization: 25,
	CriterionLanguageVocab:         25,
	CriterionSpellingGrammar:       20,
}

// AssessmentRequest is the on-demand deep feedback request.
type AssessmentRequest struct {
	Text     string `json:"text" validate:"required,min=1"`
	TextType string `json:"text_type" validate:"required,oneof=narrative persuasive"`
}

// Validate validates the AssessmentRequest using the validator.
func (r *AssessmentRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// RubricCriterion is one scored criterion of the deep-feedback rubric.
type RubricCriterion struct {
	Score        int      `json:"score"`
	Weight       int      `json:"weight"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Correction is a suggested fix with character offsets into the assessed text.
type Correction struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
}

// Assessment is the rubric-scored result of deep feedback.
type Assessment struct {
	ID                     string                     `json:"id"`
	OverallScore           int                        `json:"overallScore"`
	Criteria               map[string]RubricCriterion `json:"criteria"`
	GrammarCorrections     []Correction               `json:"grammarCorrections"`
	VocabularyEnhancements []Correction               `json:"vocabularyEnhancements"`
	ModelVersion           string                     `json:"modelVersion,omitempty"`
	Fallback               bool                       `json:"fallback"`
}
