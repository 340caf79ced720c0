package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/writing-coach/internal/observability"
	"github.com/jonathan/writing-coach/internal/types"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [file|-]",
	Short: "Request deep rubric feedback for a text",
	Long:  "Scores a text against the four-criterion rubric with the configured LLM provider. Without an API key, or when the model fails, default scores are returned.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFeedback,
}

var (
	feedbackTextType string
	feedbackJSON     bool
)

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackTextType, "type", "t", "narrative", "Text type (narrative, persuasive)")
	feedbackCmd.Flags().BoolVar(&feedbackJSON, "json", false, "Print the assessment as JSON")

	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	text, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	assessor, closeClient, err := newAssessor(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	assessment, err := assessor.Assess(cmd.Context(), types.AssessmentRequest{
		Text:     text,
		TextType: strings.ToLower(strings.TrimSpace(feedbackTextType)),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if feedbackJSON {
		data, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal assessment to JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	observability.NewPrinter(out).PrintAssessment(assessment)
	return nil
}
