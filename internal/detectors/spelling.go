package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/writing-coach/internal/types"
)

var wordPattern = regexp.MustCompile(`\b[A-Za-z]+\b`)

// commonMisspellings maps frequent student misspellings to their corrections.
var commonMisspellings = map[string]string{
	"teh":        "the",
	"recieve":    "receive",
	"seperate":   "separate",
	"definately": "definitely",
	"occured":    "occurred",
	"occuring":   "occurring",
	"untill":     "until",
	"thier":      "their",
	"wierd":      "weird",
	"beleive":    "believe",
	"becuase":    "because",
	"freind":     "friend",
	"tommorow":   "tomorrow",
	"suprise":    "surprise",
	"begining":   "beginning",
}

// SpellingDetector looks up each word in the misspelling table. Extra entries
// extend or override the built-in table.
func SpellingDetector(extra map[string]string) Detector {
	table := make(map[string]string, len(commonMisspellings)+len(extra))
	for wrong, right := range commonMisspellings {
		table[wrong] = right
	}
	for wrong, right := range extra {
		table[strings.ToLower(strings.TrimSpace(wrong))] = right
	}

	return Detector{
		Name: NameSpelling,
		Detect: func(text string) []types.Span {
			if text == "" {
				return nil
			}
			idx := newRuneIndex(text)
			var spans []types.Span
			for _, loc := range wordPattern.FindAllStringIndex(text, -1) {
				word := text[loc[0]:loc[1]]
				correct, ok := table[strings.ToLower(word)]
				if !ok {
					continue
				}
				spans = append(spans, types.Span{
					Start:       idx.at(loc[0]),
					End:         idx.at(loc[1]),
					Category:    types.CategorySpelling,
					Severity:    types.SeverityError,
					Message:     fmt.Sprintf("Possible spelling error. Did you mean %q?", correct),
					Suggestions: []string{matchCase(word, correct)},
				})
			}
			return spans
		},
	}
}
