package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/writing-coach/internal/analysis"
	"github.com/jonathan/writing-coach/internal/cache"
	"github.com/jonathan/writing-coach/internal/config"
	"github.com/jonathan/writing-coach/internal/feedback"
	"github.com/jonathan/writing-coach/internal/llm"
	"github.com/jonathan/writing-coach/internal/scoring"
)

// textTypes are the writing forms the rubric knows about.
var textTypes = []string{"narrative", "persuasive"}

func validateTextType(t string) error {
	for _, known := range textTypes {
		if strings.EqualFold(strings.TrimSpace(t), known) {
			return nil
		}
	}
	return fmt.Errorf("unknown text type %q (want one of %s)", t, strings.Join(textTypes, ", "))
}

// readInput reads the named file, or stdin when path is empty or "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return string(data), nil
}

func newEngine(c *config.Config) (*analysis.Engine, error) {
	return analysis.NewDefaultEngine(c.Analysis, analysis.WithLogger(logger))
}

func newScorer(c *config.Config) scoring.Scorer {
	return scoring.NewStructural(c.Scheduler.SecondaryMinLength)
}

func newCache(c *config.Config) *cache.Cache {
	return cache.New(cache.Options{
		TTL:        c.Cache.TTL.Std(),
		MaxEntries: c.Cache.MaxEntries,
	})
}

// newAssessor builds the deep-feedback assessor. Without an API key the
// assessor has no client and always answers with the default assessment.
// The returned close func releases the client.
func newAssessor(ctx context.Context, c *config.Config) (*feedback.Assessor, func(), error) {
	if c.LLM.APIKey == "" {
		logger.Warn("No LLM API key configured; deep feedback will use default scores", "provider", c.LLM.Provider)
		return feedback.NewAssessor(nil, c.LLM.Timeout.Std(), logger), func() {}, nil
	}

	llmCfg := llm.DefaultConfig(llm.Provider(c.LLM.Provider))
	if c.LLM.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, c.LLM.Model)
	}
	client, err := llm.NewClient(ctx, llmCfg, c.LLM.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close LLM client", "error", err)
		}
	}
	return feedback.NewAssessor(client, c.LLM.Timeout.Std(), logger), closeFn, nil
}
