// Package observability provides formatted output utilities for the CLI and
// the structured logger setup shared by every command.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/writing-coach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the analyze, watch and feedback commands.
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// SetVerbose lists every span instead of the first few.
func (p *Printer) SetVerbose(v bool) {
	p.verbose = v
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintResult outputs the score, counts, per-category stats, suggestions and
// achievements of an analysis.
func (p *Printer) PrintResult(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:    %d/100\n", result.OverallScore))
	sb.WriteString(fmt.Sprintf("Words:    %d\n", result.WordCount))
	sb.WriteString(fmt.Sprintf("Errors:   %d\n", result.ErrorCount))
	sb.WriteString(fmt.Sprintf("Issues:   %d\n", len(result.Spans)))

	if len(result.Spans) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, c := range types.Categories {
			if n := result.Stats[c]; n > 0 {
				sb.WriteString(fmt.Sprintf("  %-22s %d\n", c, n))
			}
		}
	}

	if len(result.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, s := range result.Suggestions {
			sb.WriteString(fmt.Sprintf("  • %s\n", s))
		}
	}

	if len(result.Achievements) > 0 {
		sb.WriteString("\nAchievements:\n")
		for _, a := range result.Achievements {
			sb.WriteString(fmt.Sprintf("  ★ %s\n", a))
		}
	}

	p.printBox("WRITING ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSpans outputs the flagged spans with the text they cover.
func (p *Printer) PrintSpans(text string, spans []types.Span) {
	if len(spans) == 0 {
		return
	}

	runes := []rune(text)
	count := len(spans)
	if !p.verbose {
		count = min(count, maxItemsToShow)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(spans)))
	for i := 0; i < count; i++ {
		s := spans[i]
		excerpt := ""
		if s.Start >= 0 && s.End <= len(runes) && s.Start < s.End {
			excerpt = string(runes[s.Start:s.End])
		}
		sb.WriteString(fmt.Sprintf("%s [%d,%d) %s\n", severityMark(s.Severity), s.Start, s.End, s.Category))
		sb.WriteString(fmt.Sprintf("  %q\n", truncate(excerpt, 40)))
		sb.WriteString(fmt.Sprintf("  %s\n", s.Message))
		if len(s.Suggestions) > 0 {
			sb.WriteString(fmt.Sprintf("  → %s\n", strings.Join(s.Suggestions, ", ")))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(spans) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more issues", len(spans)-count))
	}

	p.printBox("ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

func severityMark(s types.Severity) string {
	switch s {
	case types.SeverityError:
		return "✗"
	case types.SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

// PrintSecondary outputs the four structural criteria.
func (p *Printer) PrintSecondary(score *types.SecondaryScore) {
	if score == nil {
		return
	}

	rows := []struct {
		name string
		c    types.CriterionScore
	}{
		{"Narrative structure", score.NarrativeStructure},
		{"Creativity", score.Creativity},
		{"Vocabulary", score.Vocabulary},
		{"Coherence", score.Coherence},
	}

	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-20s %d/5\n", r.name, r.c.Score))
		if r.c.Feedback != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", r.c.Feedback))
		}
	}
	sb.WriteString(fmt.Sprintf("\nAverage: %.2f", score.Average()))

	p.printBox("STRUCTURE", sb.String())
}

// PrintAssessment outputs a deep-feedback rubric assessment.
func (p *Printer) PrintAssessment(a *types.Assessment) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall:  %d/100\n", a.OverallScore))
	if a.Fallback {
		sb.WriteString("Model:    unavailable (default scores)\n")
	} else if a.ModelVersion != "" {
		sb.WriteString(fmt.Sprintf("Model:    %s\n", a.ModelVersion))
	}

	keys := make([]string, 0, len(a.Criteria))
	for k := range a.Criteria {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		wi, wj := types.RubricWeights[keys[i]], types.RubricWeights[keys[j]]
		if wi != wj {
			return wi > wj
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		c := a.Criteria[k]
		sb.WriteString(fmt.Sprintf("\n%s: %d/5 (weight %d%%)\n", k, c.Score, c.Weight))
		for _, s := range c.Strengths {
			sb.WriteString(fmt.Sprintf("  + %s\n", s))
		}
		for _, s := range c.Improvements {
			sb.WriteString(fmt.Sprintf("  - %s\n", s))
		}
	}

	corrections := append(append([]types.Correction{}, a.GrammarCorrections...), a.VocabularyEnhancements...)
	if len(corrections) > 0 {
		sb.WriteString("\nCorrections:\n")
		count := min(len(corrections), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := corrections[i]
			sb.WriteString(fmt.Sprintf("  %q → %q\n", c.Original, c.Suggestion))
		}
		if len(corrections) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(corrections)-maxItemsToShow))
		}
	}

	p.printBox("DEEP FEEDBACK", strings.TrimSuffix(sb.String(), "\n"))
}
