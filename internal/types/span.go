// Package types provides type definitions for structured data used throughout the writing-coach system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
)

// Category identifies the concern a Span was produced for.
type Category string

// Span categories, one per detector concern.
const (
	CategoryGrammar             Category = "grammar"
	CategorySpelling            Category = "spelling"
	CategoryWeakWord            Category = "weak-word"
	CategoryPassiveVoice        Category = "passive-voice"
	CategoryExcessiveAdjectives Category = "excessive-adjectives"
	CategorySentenceTooLong     Category = "sentence-too-long"
	CategorySentenceTooShort    Category = "sentence-too-short"
	CategoryRepetitiveStart     Category = "repetitive-start"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGrammar,
	CategorySpelling,
	CategoryWeakWord,
	CategoryPassiveVoice,
	CategoryExcessiveAdjectives,
	CategorySentenceTooLong,
	CategorySentenceTooShort,
	CategoryRepetitiveStart,
}

// Severity grades how serious a Span is.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank returns the rendering priority of a severity. Higher ranks are drawn on top
// when spans overlap.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Span is one annotated range of analyzed text.
// Start and End are rune (Unicode code point) offsets, half-open: [Start, End).
type Span struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Validate checks 0 <= Start < End <= textLen, where textLen is the rune length
// of the analyzed text.
func (s Span) Validate(textLen int) error {
	if s.Start < 0 {
		return fmt.Errorf("span start %d is negative", s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("span [%d,%d) is empty or inverted", s.Start, s.End)
	}
	if s.End > textLen {
		return fmt.Errorf("span end %d exceeds text length %d", s.End, textLen)
	}
	return nil
}

// Overlaps reports whether two spans share at least one rune.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// SortForRendering orders spans for painting: higher severity first, then earlier
// start. The input slice is not modified.
func SortForRendering(spans []Span) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// PageSpans returns the window [offset, offset+limit) of spans, clamped to the
// slice bounds. A non-positive limit returns everything from offset.
func PageSpans(spans []Span, offset, limit int) []Span {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(spans) {
		return []Span{}
	}
	end := len(spans)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return spans[offset:end]
}
