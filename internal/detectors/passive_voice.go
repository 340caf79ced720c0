package detectors

import (
	"regexp"

	"github.com/jonathan/writing-coach/internal/types"
)

const beVerbs = `(am|is|are|was|were|be|been|being)`

// PassiveVoiceDetector flags be-verb + participle sequences. It is a heuristic:
// "was tired" and "is need" are accepted false positives.
func PassiveVoiceDetector() Detector {
	message := staticMessage("Consider using active voice for stronger writing")
	rules := []Rule{
		{
			Pattern:  regexp.MustCompile(`(?i)\b` + beVerbs + `\s+(\w+ed)\b`),
			Category: types.CategoryPassiveVoice,
			Severity: types.SeverityInfo,
			Message:  message,
		},
		{
			Pattern:  regexp.MustCompile(`(?i)\b` + beVerbs + `\s+(taken|written|given|seen|done|made|known|shown|found|told)\b`),
			Category: types.CategoryPassiveVoice,
			Severity: types.SeverityInfo,
			Message:  message,
		},
	}
	base := RuleDetector(NamePassiveVoice, rules)

	return Detector{
		Name: NamePassiveVoice,
		Detect: func(text string) []types.Span {
			spans := base.Detect(text)
			seen := make(map[[2]int]bool, len(spans))
			out := spans[:0]
			for _, s := range spans {
				key := [2]int{s.Start, s.End}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, s)
			}
			return out
		},
	}
}
