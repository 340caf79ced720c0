package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/writing-coach/internal/types"
)

var descriptorSeparator = regexp.MustCompile(`[\s,]+`)

// ExcessiveAdjectiveDetector flags runs of minRun or more space/comma separated
// lowercase words, optionally led by one capitalized word. The run is reported
// with its actual word count.
func ExcessiveAdjectiveDetector(minRun int) Detector {
	if minRun < 2 {
		minRun = 2
	}
	pattern := regexp.MustCompile(fmt.Sprintf(`\b([A-Z][a-z]+\s+)?([a-z]+,?\s+){%d,}[a-z]+\b`, minRun-1))

	return Detector{
		Name: NameExcessiveAdjectives,
		Detect: func(text string) []types.Span {
			if text == "" {
				return nil
			}
			idx := newRuneIndex(text)
			var spans []types.Span
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				phrase := text[loc[0]:loc[1]]
				count := 0
				for _, w := range descriptorSeparator.Split(phrase, -1) {
					if w != "" {
						count++
					}
				}
				if count < minRun {
					continue
				}
				spans = append(spans, types.Span{
					Start:       idx.at(loc[0]),
					End:         idx.at(loc[1]),
					Category:    types.CategoryExcessiveAdjectives,
					Severity:    types.SeverityWarning,
					Message:     fmt.Sprintf("Too many adjectives (%d). Consider reducing to 1-2 strongest ones", count),
					Suggestions: []string{strongestPair(phrase)},
				})
			}
			return spans
		},
	}
}

// strongestPair keeps the last two words of a descriptor run, which is usually
// the closest adjective and its noun.
func strongestPair(phrase string) string {
	words := strings.Fields(descriptorSeparator.ReplaceAllString(phrase, " "))
	if len(words) <= 2 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-2:], " ")
}
