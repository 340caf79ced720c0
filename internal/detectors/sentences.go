package detectors

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/writing-coach/internal/types"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Sentence is one terminal-punctuated sentence, in byte offsets of the source text.
type Sentence struct {
	Start int
	End   int
	Text  string
}

// SplitSentences returns every sentence ending in terminal punctuation. A trailing
// fragment without punctuation is not a sentence.
func SplitSentences(text string) []Sentence {
	var out []Sentence
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		start := loc[0] + len(raw) - len(trimmed)
		if start >= loc[1] {
			continue
		}
		out = append(out, Sentence{Start: start, End: loc[1], Text: trimmed})
	}
	return out
}

// isDialogue reports whether a sentence is quoted speech.
func isDialogue(sentence string) bool {
	if strings.ContainsAny(sentence, "\"“”") {
		return true
	}
	first, _ := firstRune(sentence)
	last := lastNonPunct(sentence)
	return strings.ContainsRune("'‘’", first) || strings.ContainsRune("'‘’", last)
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// lastNonPunct returns the last rune before trailing terminal punctuation.
func lastNonPunct(s string) rune {
	s = strings.TrimRight(s, ".!? ")
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	return runes[len(runes)-1]
}

// openingWord returns the raw first token of a sentence without trailing
// punctuation, and its lowercase letters-only key.
func openingWord(sentence string) (token, key string) {
	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return "", ""
	}
	token = strings.TrimRightFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, r := range strings.ToLower(fields[0]) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return token, b.String()
}

// SentenceStructureDetector flags over-long sentences, very short non-dialogue
// sentences, and opening words reused across many sentences.
func SentenceStructureDetector(th Thresholds) Detector {
	return Detector{
		Name: NameSentenceStructure,
		Detect: func(text string) []types.Span {
			sentences := SplitSentences(text)
			if len(sentences) == 0 {
				return nil
			}
			idx := newRuneIndex(text)

			type opening struct {
				start, end int
			}
			starts := make(map[string][]opening)
			var order []string
			var spans []types.Span

			for _, s := range sentences {
				wordCount := len(strings.Fields(s.Text))
				start, end := idx.at(s.Start), idx.at(s.End)

				if wordCount > th.MaxSentenceWords {
					spans = append(spans, types.Span{
						Start:       start,
						End:         end,
						Category:    types.CategorySentenceTooLong,
						Severity:    types.SeverityWarning,
						Message:     fmt.Sprintf("Sentence is too long (%d words). Consider breaking it into shorter sentences", wordCount),
						Suggestions: []string{"Split the sentence at a conjunction or comma"},
					})
				}
				if wordCount < th.MinSentenceWords && !isDialogue(s.Text) {
					spans = append(spans, types.Span{
						Start:       start,
						End:         end,
						Category:    types.CategorySentenceTooShort,
						Severity:    types.SeverityInfo,
						Message:     fmt.Sprintf("Sentence is very short (%d words). Consider expanding it", wordCount),
						Suggestions: []string{"Add a detail about who, where, or how"},
					})
				}

				token, key := openingWord(s.Text)
				if key == "" || token == "" {
					continue
				}
				if _, ok := starts[key]; !ok {
					order = append(order, key)
				}
				starts[key] = append(starts[key], opening{
					start: start,
					end:   idx.at(s.Start + len(token)),
				})
			}

			for _, key := range order {
				positions := starts[key]
				if len(positions) < th.RepetitiveStartMin {
					continue
				}
				for _, p := range positions {
					if p.end <= p.start {
						continue
					}
					spans = append(spans, types.Span{
						Start:       p.start,
						End:         p.end,
						Category:    types.CategoryRepetitiveStart,
						Severity:    types.SeverityInfo,
						Message:     fmt.Sprintf("Repetitive sentence start. %d sentences start with %q", len(positions), key),
						Suggestions: []string{"Vary the opening word or begin with a phrase"},
					})
				}
			}
			return spans
		},
	}
}
