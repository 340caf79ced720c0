package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/writing-coach/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes one-shot analysis, live editing sessions with Server-Sent Events, deep feedback and cache management.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	assessor, closeClient, err := newAssessor(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	srv, err := server.New(server.Options{
		Config:   *cfg,
		Analyzer: engine,
		Scorer:   newScorer(cfg),
		Cache:    newCache(cfg),
		Assessor: assessor,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
