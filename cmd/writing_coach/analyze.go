package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/writing-coach/internal/observability"
	"github.com/jonathan/writing-coach/internal/scheduler"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze a text once and print the annotated result",
	Long:  "Runs every detector and the structural scorer over a file (or stdin) and prints the score, issues, suggestions and achievements.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeTextType string
	analyzeJSON     bool
	analyzeVerbose  bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTextType, "type", "t", "narrative", "Text type (narrative, persuasive)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "List every issue and the structural scores")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := validateTextType(analyzeTextType); err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	text, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	result, _, err := scheduler.AnalyzeOnce(cmd.Context(), engine, newScorer(cfg),
		cfg.Scheduler.SecondaryTimeout.Std(), nil, text, analyzeTextType, logger)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result to JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	printer := observability.NewPrinter(out)
	printer.SetVerbose(analyzeVerbose)
	printer.PrintResult(result)
	printer.PrintSpans(text, result.Spans)
	if analyzeVerbose {
		printer.PrintSecondary(result.Secondary)
	}
	return nil
}
