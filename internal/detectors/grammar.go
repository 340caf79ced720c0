package detectors

import (
	"regexp"
	"strings"

	"github.com/jonathan/writing-coach/internal/types"
)

// apostrophe matches straight and curly apostrophes.
const apostrophe = `['’]`

var (
	dontPattern      = regexp.MustCompile(`(?i)don` + apostrophe + `t`)
	negativeObject   = regexp.MustCompile(`(?i)(no|nothing|nobody|never)$`)
	modalOf          = regexp.MustCompile(`(?i)\s+of$`)
	leadingWord      = regexp.MustCompile(`^\S+`)
	doubleNegativeTo = map[string]string{
		"no":      "any",
		"nothing": "anything",
		"nobody":  "anybody",
		"never":   "ever",
	}
)

// grammarRules is the fixed table of grammar patterns.
func grammarRules() []Rule {
	ingVerbs := `(going|coming|doing|running|walking)`
	return []Rule{
		{
			Pattern:  regexp.MustCompile(`(?i)\b(don|doesn|didn|won|wouldn|can|couldn)` + apostrophe + `t\s+(no|nothing|nobody|never)\b`),
			Category: types.CategoryGrammar,
			Severity: types.SeverityError,
			Message:  staticMessage("Double negative detected"),
			Suggest: func(match string) []string {
				word := negativeObject.FindString(match)
				replacement, ok := doubleNegativeTo[strings.ToLower(word)]
				if !ok {
					return nil
				}
				return []string{match[:len(match)-len(word)] + replacement}
			},
		},
		{
			Pattern:  regexp.MustCompile(`(?i)\b(he|she|it)\s+don` + apostrophe + `t\b`),
			Category: types.CategoryGrammar,
			Severity: types.SeverityError,
			Message:  staticMessage(`Subject-verb agreement error. Use "doesn't" instead of "don't"`),
			Suggest: func(match string) []string {
				return []string{dontPattern.ReplaceAllString(match, "doesn't")}
			},
		},
		{
			Pattern:  regexp.MustCompile(`(?i)\b(could|would|should|might|must)\s+of\b`),
			Category: types.CategoryGrammar,
			Severity: types.SeverityError,
			Message:  staticMessage(`Use "have" instead of "of"`),
			Suggest: func(match string) []string {
				return []string{modalOf.ReplaceAllString(match, " have")}
			},
		},
		{
			Pattern:  regexp.MustCompile(`(?i)[a-z]+,\s*[a-z]+\s+(and|but|or)\s+[a-z]+,\s*[a-z]+`),
			Category: types.CategoryGrammar,
			Severity: types.SeverityError,
			Message:  staticMessage("Possible run-on sentence or comma splice"),
		},
		homophoneRule(`(?i)\btheir\s+`+ingVerbs+`\b`, `Did you mean "they're" (they are)?`, "they're"),
		homophoneRule(`(?i)\bthere\s+`+ingVerbs+`\b`, `Did you mean "they're" (they are)?`, "they're"),
		homophoneRule(`(?i)\byour\s+`+ingVerbs+`\b`, `Did you mean "you're" (you are)?`, "you're"),
		homophoneRule(`(?i)\bits\s+`+ingVerbs+`\b`, `Did you mean "it's" (it is)?`, "it's"),
	}
}

// homophoneRule flags a confusable word followed by an -ing verb and suggests the
// contraction in its place.
func homophoneRule(pattern, message, contraction string) Rule {
	return Rule{
		Pattern:  regexp.MustCompile(pattern),
		Category: types.CategoryGrammar,
		Severity: types.SeverityError,
		Message:  staticMessage(message),
		Suggest: func(match string) []string {
			return []string{leadingWord.ReplaceAllLiteralString(match, matchCase(match, contraction))}
		},
	}
}

// GrammarDetector flags common grammar mistakes as errors.
func GrammarDetector() Detector {
	return RuleDetector(NameGrammar, grammarRules())
}

// matchCase capitalizes replacement when original starts with an uppercase letter.
func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	first := original[0]
	if first >= 'A' && first <= 'Z' {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}
