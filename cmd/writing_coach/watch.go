package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jonathan/writing-coach/internal/config"
	"github.com/jonathan/writing-coach/internal/observability"
	"github.com/jonathan/writing-coach/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-analyze a draft every time it is saved",
	Long:  "Watches a file and feeds each saved version into an analysis session. Bursts of saves are debounced, and a result is printed each time the latest version has been analyzed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var (
	watchTextType string
	watchVerbose  bool
)

func init() {
	watchCmd.Flags().StringVarP(&watchTextType, "type", "t", "narrative", "Text type (narrative, persuasive)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "List every issue on each update")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := validateTextType(watchTextType); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchFile(ctx, cfg, args[0], watchTextType, cmd.OutOrStdout(), nil)
}

// watchFile runs until ctx is done. Each delivered result is printed to out;
// onDelivered, when set, is called after printing.
func watchFile(ctx context.Context, c *config.Config, path, textType string, out io.Writer, onDelivered func(scheduler.Event)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	session, err := scheduler.NewSession(scheduler.Options{
		Analyzer:         engine,
		Scorer:           newScorer(c),
		SecondaryTimeout: c.Scheduler.SecondaryTimeout.Std(),
		Cache:            newCache(c),
		Debounce:         c.Scheduler.Debounce.Std(),
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	// Events arrive on the session's dispatcher goroutine.
	var (
		mu       sync.Mutex
		lastText string
	)
	printer := observability.NewPrinter(out)
	printer.SetVerbose(watchVerbose)
	unsubscribe := session.Subscribe(func(ev scheduler.Event) {
		switch ev.Type {
		case scheduler.EventDelivered:
			mu.Lock()
			text := lastText
			mu.Unlock()
			fmt.Fprintf(out, "\n%s (generation %d)\n", filepath.Base(abs), ev.Generation) //nolint:errcheck
			printer.PrintResult(ev.Result)
			printer.PrintSpans(text, ev.Result.Spans)
			if onDelivered != nil {
				onDelivered(ev)
			}
		case scheduler.EventFailed:
			fmt.Fprintf(out, "analysis failed: %s\n", ev.Error) //nolint:errcheck
		}
	})
	defer unsubscribe()

	load := func() {
		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Warn("Failed to read watched file", "path", abs, "error", err)
			return
		}
		mu.Lock()
		lastText = string(data)
		mu.Unlock()
		if err := session.OnTextChanged(string(data), textType); err != nil {
			logger.Warn("Failed to queue analysis", "error", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file by renaming over it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	load()
	if err := session.TriggerImmediateAnalysis(); err != nil {
		return err
	}
	logger.Info("Watching file", "path", abs, "debounce", c.Scheduler.Debounce.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				load()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		}
	}
}
