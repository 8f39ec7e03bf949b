package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/portfolio-agent/internal/observability"
	"github.com/jonathan/portfolio-agent/internal/pipeline"
	"github.com/jonathan/portfolio-agent/internal/types"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the portfolio pipeline once for a profile",
	Long: `Runs fetch -> about -> projects -> experience for one profile identifier and prints the final sections as JSON.

With --events every pipeline event is printed as one JSON line, in the same {"event","data"} shape the stream endpoint uses.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath string
	runIdentifier string
	runVerbose    bool
	runEvents     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to a JSON or YAML config file")
	runCommand.Flags().StringVarP(&runIdentifier, "identifier", "i", "", "Profile identifier (required)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print formatted sections to stderr")
	runCommand.Flags().BoolVar(&runEvents, "events", false, "Print every pipeline event as a JSON line")

	rootCmd.AddCommand(runCommand)
}

// eventWriter returns an EmitFunc that writes each event as one JSON line.
func eventWriter(out io.Writer) pipeline.EmitFunc {
	return func(ev pipeline.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}
}

func writeProjection(out io.Writer, state *pipeline.RunState) error {
	data, err := json.MarshalIndent(state.Projection(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

func printSummary(out io.Writer, state *pipeline.RunState) {
	p := observability.NewPrinter(out)
	p.PrintStatus(state.Identifier, string(state.ProfileStatus))
	p.PrintAbout(state.About)
	p.PrintProjects(state.Projects)
	p.PrintExperience(state.Experience)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	req := types.PortfolioRequest{Identifier: runIdentifier}
	req.Normalize()
	if err := types.Validate(&req); err != nil {
		return fmt.Errorf("invalid --identifier: %w", err)
	}

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	ctx := cmd.Context()
	log := newLogger(os.Stderr, cfg)
	orch, closer, err := buildOrchestrator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	out := cmd.OutOrStdout()
	emit := func(pipeline.Event) error { return nil }
	if runEvents {
		emit = eventWriter(out)
	}

	state, err := orch.Run(ctx, req.Identifier, emit)
	if err != nil {
		return err
	}

	if runVerbose {
		printSummary(cmd.ErrOrStderr(), state)
	}
	if runEvents {
		return nil
	}
	return writeProjection(out, state)
}
