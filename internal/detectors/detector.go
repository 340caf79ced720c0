// Package detectors provides the heuristic scanners that annotate student writing.
//
// Every detector is a pure function from text to spans. Detectors share no state
// and never look at each other's output, so they can be registered, removed or run
// in any order. Ordering and scoring belong to the analysis package.
package detectors

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/jonathan/writing-coach/internal/types"
)

// Detector scans text for one concern.
type Detector struct {
	Name   string
	Detect func(text string) []types.Span
}

// Rule is one pattern-driven record: each match of Pattern becomes a Span.
type Rule struct {
	Pattern  *regexp.Regexp
	Category types.Category
	Severity types.Severity
	Message  func(match string) string
	Suggest  func(match string) []string
}

// apply runs the rule over text and converts byte offsets to rune offsets.
func (r Rule) apply(text string, idx runeIndex) []types.Span {
	var spans []types.Span
	for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
		if loc[1] <= loc[0] {
			continue
		}
		match := text[loc[0]:loc[1]]
		span := types.Span{
			Start:    idx.at(loc[0]),
			End:      idx.at(loc[1]),
			Category: r.Category,
			Severity: r.Severity,
		}
		if r.Message != nil {
			span.Message = r.Message(match)
		}
		if r.Suggest != nil {
			span.Suggestions = r.Suggest(match)
		}
		spans = append(spans, span)
	}
	return spans
}

// RuleDetector builds a detector that applies rules in order.
func RuleDetector(name string, rules []Rule) Detector {
	return Detector{
		Name: name,
		Detect: func(text string) []types.Span {
			if text == "" {
				return nil
			}
			idx := newRuneIndex(text)
			var spans []types.Span
			for _, rule := range rules {
				spans = append(spans, rule.apply(text, idx)...)
			}
			return spans
		},
	}
}

// staticMessage returns a message factory that ignores the match.
func staticMessage(msg string) func(string) string {
	return func(string) string { return msg }
}

// Registry holds detectors in registration order.
type Registry struct {
	detectors []Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a detector. Names must be unique.
func (r *Registry) Register(d Detector) error {
	if d.Name == "" || d.Detect == nil {
		return &Error{Message: "detector requires a name and a detect function"}
	}
	for _, existing := range r.detectors {
		if existing.Name == d.Name {
			return &Error{Message: fmt.Sprintf("detector %q already registered", d.Name)}
		}
	}
	r.detectors = append(r.detectors, d)
	return nil
}

// Remove drops the named detector. It reports whether anything was removed.
func (r *Registry) Remove(name string) bool {
	for i, d := range r.detectors {
		if d.Name == name {
			r.detectors = append(r.detectors[:i:i], r.detectors[i+1:]...)
			return true
		}
	}
	return false
}

// Detectors returns a copy of the registered detectors in registration order.
func (r *Registry) Detectors() []Detector {
	out := make([]Detector, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Names returns registered detector names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.detectors))
	for i, d := range r.detectors {
		names[i] = d.Name
	}
	return names
}

// Detector names used by Default.
const (
	NameGrammar             = "grammar"
	NameWeakWords           = "weak-words"
	NamePassiveVoice        = "passive-voice"
	NameExcessiveAdjectives = "excessive-adjectives"
	NameSentenceStructure   = "sentence-structure"
	NameSpelling            = "spelling"
)

// Default builds the standard six detectors in their canonical order.
func Default(th Thresholds) (*Registry, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}

	weak, err := WeakWordDetector(th.ExtraWeakWords)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, d := range []Detector{
		GrammarDetector(),
		weak,
		PassiveVoiceDetector(),
		ExcessiveAdjectiveDetector(th.AdjectiveRunMin),
		SentenceStructureDetector(th),
		SpellingDetector(th.ExtraMisspellings),
	} {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// runeIndex maps byte offsets of a string to rune offsets.
type runeIndex struct {
	ascii   bool
	offsets []int
}

func newRuneIndex(text string) runeIndex {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return runeIndex{ascii: true}
	}

	offsets := make([]int, len(text)+1)
	for i := range offsets {
		offsets[i] = -1
	}
	n := 0
	for i := range text {
		offsets[i] = n
		n++
	}
	// Continuation bytes inherit the offset of the next rune boundary.
	offsets[len(text)] = n
	for i := len(text) - 1; i >= 0; i-- {
		if offsets[i] < 0 {
			offsets[i] = offsets[i+1]
		}
	}
	return runeIndex{offsets: offsets}
}

func (ri runeIndex) at(byteOffset int) int {
	if ri.ascii {
		return byteOffset
	}
	return ri.offsets[byteOffset]
}
