package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/writing-coach/internal/types"
)

// weakWords are low-information words and phrases, with stronger alternatives.
var weakWords = []struct {
	phrase       string
	alternatives []string
}{
	{"very", []string{"extremely", "truly"}},
	{"really", []string{"genuinely", "truly"}},
	{"quite", []string{"fairly", "rather"}},
	{"just", nil},
	{"actually", nil},
	{"good", []string{"excellent", "impressive"}},
	{"bad", []string{"terrible", "dreadful"}},
	{"nice", []string{"pleasant", "delightful"}},
	{"great", []string{"remarkable", "magnificent"}},
	{"things", []string{"objects", "details"}},
	{"stuff", []string{"belongings", "items"}},
	{"a lot", []string{"many", "plenty"}},
	{"lots of", []string{"many", "plenty of"}},
	{"got", []string{"received", "became"}},
	{"get", []string{"obtain", "become"}},
	{"gets", []string{"obtains", "becomes"}},
	{"getting", []string{"obtaining", "becoming"}},
}

// phrasePattern builds a case-insensitive, word-boundary pattern for a phrase,
// allowing any run of whitespace between its words.
func phrasePattern(phrase string) (*regexp.Regexp, error) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return nil, &Error{Message: "empty weak-word phrase"}
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)\b` + strings.Join(quoted, `\s+`) + `\b`)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid weak-word phrase %q", phrase), Cause: err}
	}
	return re, nil
}

func weakWordRule(re *regexp.Regexp, alternatives []string) Rule {
	return Rule{
		Pattern:  re,
		Category: types.CategoryWeakWord,
		Severity: types.SeverityWarning,
		Message: func(match string) string {
			return fmt.Sprintf("Consider replacing %q with a more specific word", match)
		},
		Suggest: func(string) []string {
			if len(alternatives) == 0 {
				return nil
			}
			out := make([]string, len(alternatives))
			copy(out, alternatives)
			return out
		},
	}
}

// WeakWordDetector flags vague vocabulary as warnings. Extra phrases extend the
// built-in list.
func WeakWordDetector(extra []string) (Detector, error) {
	rules := make([]Rule, 0, len(weakWords)+len(extra))
	for _, w := range weakWords {
		rules = append(rules, weakWordRule(regexp.MustCompile(`(?i)\b`+strings.ReplaceAll(w.phrase, " ", `\s+`)+`\b`), w.alternatives))
	}
	for _, phrase := range extra {
		re, err := phrasePattern(phrase)
		if err != nil {
			return Detector{}, err
		}
		rules = append(rules, weakWordRule(re, nil))
	}
	return RuleDetector(NameWeakWords, rules), nil
}
