package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Suggestion strings.
const (
	SuggestionPraise        = "Excellent! No errors detected. Keep up the great writing!"
	SuggestionMinorIssues   = "Good work! Just a few minor issues to fix."
	SuggestionProofread     = "Consider proofreading your work to catch more errors."
	SuggestionAddDetail     = "Try expanding your writing with more details and descriptions."
	SuggestionMoreSentences = "Consider adding more sentences to develop your ideas further."
	SuggestionExpandWords   = "Aim for at least 100 words so your ideas have room to develop."
)

// Achievement badges.
const (
	AchievementPerfectScore = "Perfect Score!"
	AchievementExcellent    = "Excellent Writer!"
	AchievementErrorFree    = "Error-Free Writing!"
	AchievementProlific     = "Prolific Writer!"
	AchievementStoryMaster  = "Story Master!"
)

const (
	minorIssueLimit = 3
	shortTextRunes  = 100
	minSentences    = 3
	expandWordLimit = 100
)

var terminalPunct = regexp.MustCompile(`[.!?]+`)

// countSentences counts non-blank pieces between terminal punctuation. Unlike
// detectors.SplitSentences it also counts an unterminated trailing fragment.
func countSentences(text string) int {
	n := 0
	for _, piece := range terminalPunct.Split(text, -1) {
		if strings.TrimSpace(piece) != "" {
			n++
		}
	}
	return n
}

// suggestionsFor applies the fixed suggestion rules.
func suggestionsFor(text string, spanCount, wordCount int) []string {
	var out []string
	switch {
	case spanCount == 0:
		out = append(out, SuggestionPraise)
	case spanCount <= minorIssueLimit:
		out = append(out, SuggestionMinorIssues)
	default:
		out = append(out, SuggestionProofread)
	}

	if utf8.RuneCountInString(text) < shortTextRunes {
		out = append(out, SuggestionAddDetail)
	} else if wordCount < expandWordLimit {
		out = append(out, SuggestionExpandWords)
	}

	if countSentences(text) < minSentences {
		out = append(out, SuggestionMoreSentences)
	}
	return out
}

// achievementsFor applies the badge thresholds.
func achievementsFor(score, errorCount, wordCount int) []string {
	out := []string{}
	if score >= 95 {
		out = append(out, AchievementPerfectScore)
	}
	if score >= 90 {
		out = append(out, AchievementExcellent)
	}
	if errorCount == 0 {
		out = append(out, AchievementErrorFree)
	}
	if wordCount >= 100 {
		out = append(out, AchievementProlific)
	}
	if wordCount >= 200 {
		out = append(out, AchievementStoryMaster)
	}
	return out
}
