package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/portfolio-agent/internal/config"
	"github.com/jonathan/portfolio-agent/internal/server"
	"github.com/jonathan/portfolio-agent/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	servePort       int
	serveLogLevel   string
	serveFixture    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing POST /api/portfolio, POST /api/portfolio/stream and GET /health.

Configuration is read from --config, then PORTFOLIO_* environment variables. Flags override both.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON or YAML config file")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFixture, "dev-fixture", false, "Serve the embedded fixture profile when the provider fails (development only)")
	rootCmd.AddCommand(serveCmd)
}

// applyServeOverrides copies explicitly set flags onto cfg.
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = serveLogLevel
	}
	if cmd.Flags().Changed("dev-fixture") {
		cfg.DevFixture.Enabled = serveFixture
	}
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Port:      cfg.Port,
		KeepAlive: cfg.Stream.KeepAlive,
		RateLimit: ratelimit.Settings{
			Enabled:           cfg.RateLimit.Enabled,
			PipelinePerMinute: cfg.RateLimit.PipelinePerMinute,
			Burst:             cfg.RateLimit.Burst,
			Whitelist:         cfg.RateLimit.Whitelist,
			Blacklist:         cfg.RateLimit.Blacklist,
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	applyServeOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	log := newLogger(os.Stderr, cfg)
	if cfg.DevFixture.Enabled {
		log.Warn().Str("identifier", cfg.DevFixture.Identifier).Msg("development fixture fallback enabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, closer, err := buildOrchestrator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	srv := server.New(serverConfig(cfg), orch, log)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
