// Package pipeline drives the staged portfolio extraction: it fetches the
// profile, branches on whether it was found, runs the About, Projects and
// Experience stages in order and reports every step as an event stream.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/portfolio-agent/internal/about"
	"github.com/jonathan/portfolio-agent/internal/experience"
	"github.com/jonathan/portfolio-agent/internal/fetch"
	"github.com/jonathan/portfolio-agent/internal/progressive"
	"github.com/jonathan/portfolio-agent/internal/projects"
	"github.com/jonathan/portfolio-agent/internal/types"
)

// DefaultStreamDelay paces character-level snapshots of streamed sections.
const DefaultStreamDelay = 3 * time.Millisecond

// streamBuffer is the channel capacity used by Stream.
const streamBuffer = 64

// ProfileFetcher resolves an identifier to a profile document.
type ProfileFetcher interface {
	Fetch(ctx context.Context, identifier string) (*fetch.Result, error)
}

// ProjectsExtractor produces the Projects section from a profile.
type ProjectsExtractor interface {
	Extract(ctx context.Context, doc *types.ProfileDocument, onPartial projects.PartialFunc) (*types.ProjectsSection, error)
}

// StageError reports the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures an Orchestrator.
type Options struct {
	// StreamDelay is waited between character snapshots of the About and
	// Experience sections. Zero disables pacing.
	StreamDelay time.Duration
}

// DefaultOptions returns the default orchestrator options.
func DefaultOptions() Options {
	return Options{StreamDelay: DefaultStreamDelay}
}

// Orchestrator runs the stage graph. It holds no per-run state and is safe
// for concurrent use.
type Orchestrator struct {
	fetcher   ProfileFetcher
	extractor ProjectsExtractor
	opts      Options
	log       zerolog.Logger
}

// NewOrchestrator creates an orchestrator from its stage collaborators.
func NewOrchestrator(fetcher ProfileFetcher, extractor ProjectsExtractor, opts Options, log zerolog.Logger) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, errors.New("pipeline: profile fetcher is required")
	}
	if extractor == nil {
		return nil, errors.New("pipeline: projects extractor is required")
	}
	if opts.StreamDelay < 0 {
		return nil, fmt.Errorf("pipeline: negative stream delay %s", opts.StreamDelay)
	}
	return &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		opts:      opts,
		log:       log.With().Str("component", "pipeline").Logger(),
	}, nil
}

type runIDKey struct{}

// WithRunID attaches a run ID to ctx. Runs started with ctx use it instead of
// generating one.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID attached by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// run is the per-run execution context. It is owned by one goroutine.
type run struct {
	o       *Orchestrator
	state   *RunState
	emit    EmitFunc
	emitErr error
	// replay is false for runs nobody observes; sections are then stored
	// without progressive snapshots.
	replay bool
	log    zerolog.Logger
}

func (r *run) send(ev Event) error {
	if r.emitErr != nil {
		return r.emitErr
	}
	if err := r.emit(ev); err != nil {
		r.emitErr = err
		return err
	}
	return nil
}

// Run executes one pipeline run, delivering events to emit in order. The final
// event is the last one on success. A stage failure is delivered as an error
// event and returned as *StageError. Cancellation and emit errors are returned
// unchanged and produce no error event.
func (o *Orchestrator) Run(ctx context.Context, identifier string, emit EmitFunc) (*RunState, error) {
	if emit == nil {
		emit = func(Event) error { return nil }
	}
	return o.run(ctx, identifier, emit, true)
}

// Resolve runs the pipeline to completion without producing events. Sections
// are not replayed, so no stream pacing applies. Errors are classified as in
// Run.
func (o *Orchestrator) Resolve(ctx context.Context, identifier string) (*RunState, error) {
	return o.run(ctx, identifier, func(Event) error { return nil }, false)
}

func (o *Orchestrator) run(ctx context.Context, identifier string, emit EmitFunc, replay bool) (*RunState, error) {
	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
	}

	r := &run{
		o:      o,
		state:  NewRunState(runID, identifier),
		emit:   emit,
		replay: replay,
		log:    o.log.With().Str("run_id", runID).Str("identifier", identifier).Logger(),
	}
	started := time.Now()
	r.log.Info().Msg("run started")

	stage := StageFetch
	for stage != StageDone {
		if err := ctx.Err(); err != nil {
			return r.state, err
		}
		def, ok := StageGraph[stage]
		if !ok {
			return r.state, fmt.Errorf("pipeline: unknown stage %s", stage)
		}
		if def.Work {
			if err := r.execute(ctx, stage); err != nil {
				return r.state, r.fail(ctx, stage, err)
			}
		}
		next, err := NextStage(stage, r.state.ProfileStatus)
		if err != nil {
			return r.state, err
		}
		stage = next
	}

	if err := r.send(finalEvent(r.state)); err != nil {
		return r.state, err
	}
	r.log.Info().
		Str("profile_status", string(r.state.ProfileStatus)).
		Dur("duration", time.Since(started)).
		Msg("run completed")
	return r.state, nil
}

// fail classifies a stage error. Only genuine stage failures are reported to
// the caller as error events.
func (r *run) fail(ctx context.Context, stage Stage, err error) error {
	if r.emitErr != nil {
		return r.emitErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		r.log.Info().Str("stage", string(stage)).Msg("run cancelled")
		return ctxErr
	}

	stageErr := &StageError{Stage: stage, Err: err}
	r.log.Error().Err(err).Str("stage", string(stage)).Msg("stage failed")
	if sendErr := r.send(errorEvent(stage, err)); sendErr != nil {
		return sendErr
	}
	return stageErr
}

// execute runs one work stage wrapped in lifecycle events.
func (r *run) execute(ctx context.Context, stage Stage) error {
	started := time.Now()
	r.log.Debug().Str("stage", string(stage)).Msg("stage started")
	if err := r.send(lifecycleEvent(stage, StatusStarted)); err != nil {
		return err
	}

	var err error
	switch stage {
	case StageFetch:
		err = r.fetchProfile(ctx)
	case StageAbout:
		err = r.extractAbout(ctx)
	case StageProjects:
		err = r.extractProjects(ctx)
	case StageExperience:
		err = r.extractExperience(ctx)
	default:
		err = fmt.Errorf("no handler for stage %s", stage)
	}
	if err != nil {
		return err
	}

	if err := r.send(lifecycleEvent(stage, StatusCompleted)); err != nil {
		return err
	}
	r.log.Debug().
		Str("stage", string(stage)).
		Dur("duration", time.Since(started)).
		Msg("stage completed")
	return nil
}

func (r *run) fetchProfile(ctx context.Context) error {
	result, err := r.o.fetcher.Fetch(ctx, r.state.Identifier)
	if err != nil {
		return err
	}
	if result == nil {
		return errors.New("profile fetcher returned no result")
	}

	switch result.Status {
	case fetch.StatusFound:
		return r.state.SetProfile(ProfileFound, result.Profile)
	case fetch.StatusNotFound:
		r.log.Info().Msg("profile not found")
		return r.state.SetProfile(ProfileNotFound, nil)
	default:
		return fmt.Errorf("unexpected fetch status %q", result.Status)
	}
}

func (r *run) extractAbout(ctx context.Context) error {
	section := about.Extract(r.state.Identifier, r.state.Profile)
	if err := r.streamSection(ctx, StageAbout, section); err != nil {
		return err
	}
	return r.state.SetAbout(section)
}

func (r *run) extractProjects(ctx context.Context) error {
	var onPartial projects.PartialFunc
	if r.replay {
		onPartial = func(data json.RawMessage) error {
			return r.send(snapshotEvent(StageProjects, data))
		}
	}
	section, err := r.o.extractor.Extract(ctx, r.state.Profile, onPartial)
	if err != nil {
		return err
	}
	if err := r.state.SetProjects(section); err != nil {
		return err
	}
	if !r.replay {
		return nil
	}

	data, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("encode projects section: %w", err)
	}
	return r.send(snapshotEvent(StageProjects, data))
}

func (r *run) extractExperience(ctx context.Context) error {
	section := experience.Extract(r.state.Profile)
	if err := r.streamSection(ctx, StageExperience, section); err != nil {
		return err
	}
	return r.state.SetExperience(section)
}

// streamSection replays a finished section as progressive snapshots.
func (r *run) streamSection(ctx context.Context, stage Stage, section any) error {
	if !r.replay {
		return nil
	}
	sink := func(s progressive.Snapshot) error {
		return r.send(snapshotEvent(stage, s.Data))
	}
	frames, err := progressive.Stream(ctx, string(stage), section, sink, r.o.opts.StreamDelay)
	if err != nil {
		return err
	}
	r.log.Debug().Str("stage", string(stage)).Int("frames", frames).Msg("section streamed")
	return nil
}

// Stream runs the pipeline in a goroutine and returns its events. The channel
// is closed when the run ends. A stage failure arrives as an EventError;
// cancelling ctx stops the run and closes the channel.
func (o *Orchestrator) Stream(ctx context.Context, identifier string) <-chan Event {
	events := make(chan Event, streamBuffer)
	go func() {
		defer close(events)
		_, _ = o.Run(ctx, identifier, func(ev Event) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return events
}

// Invoke runs the pipeline to completion and returns the state together with
// the full event log. On a stage failure the returned error is a *StageError
// and the log ends with the error event.
func (o *Orchestrator) Invoke(ctx context.Context, identifier string) (*RunState, []Event, error) {
	var events []Event
	state, err := o.Run(ctx, identifier, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	return state, events, err
}
