package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/portfolio-agent/internal/config"
	"github.com/jonathan/portfolio-agent/internal/fetch"
	"github.com/jonathan/portfolio-agent/internal/llm"
	"github.com/jonathan/portfolio-agent/internal/observability"
	"github.com/jonathan/portfolio-agent/internal/pipeline"
	"github.com/jonathan/portfolio-agent/internal/projects"
	"github.com/rs/zerolog"
)

// loadConfig reads the config file (if any) and validates it.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(out io.Writer, cfg *config.Config) zerolog.Logger {
	return observability.NewLogger(out, cfg.Log.Level, cfg.Log.Format)
}

func fetchOptions(cfg *config.Config) *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Endpoint = cfg.Provider.Endpoint
	opts.APIKey = cfg.Provider.APIKey
	if cfg.Provider.APIKeyHeader != "" {
		opts.APIKeyHeader = cfg.Provider.APIKeyHeader
	}
	if cfg.Provider.Timeout > 0 {
		opts.Timeout = cfg.Provider.Timeout
	}
	opts.FixtureEnabled = cfg.DevFixture.Enabled
	opts.FixtureIdentifier = cfg.DevFixture.Identifier
	return opts
}

// buildOrchestrator wires the provider client, model client and projects
// extractor into a pipeline. The returned closer releases the model client.
func buildOrchestrator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pipeline.Orchestrator, io.Closer, error) {
	llmConfig := llm.DefaultGeminiConfig().WithModel(llm.TierStandard, cfg.LLM.Model)
	client, err := llm.NewClient(ctx, llmConfig, cfg.LLM.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	extractor, err := projects.NewExtractor(client, log)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create projects extractor: %w", err)
	}

	opts := pipeline.DefaultOptions()
	opts.StreamDelay = cfg.Stream.Delay
	orch, err := pipeline.NewOrchestrator(fetch.NewClient(fetchOptions(cfg), log), extractor, opts, log)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return orch, client, nil
}
