// Package projects extracts the Projects section from a profile document with a
// generative model, forwarding partial results while the model streams.
package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"

	"github.com/jonathan/portfolio-agent/internal/llm"
	"github.com/jonathan/portfolio-agent/internal/prompts"
	"github.com/jonathan/portfolio-agent/internal/schemas"
	"github.com/jonathan/portfolio-agent/internal/types"
)

const (
	promptFile      = "projects.json"
	systemPromptKey = "extract-projects-system"
	taskPromptKey   = "extract-projects-task"
)

// ModelError represents a failed or unusable model response.
type ModelError struct {
	Message string
	Cause   error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("projects model error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("projects model error: %s", e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// PartialFunc receives each new partial section as complete JSON. Returning an
// error aborts extraction with that error.
type PartialFunc func(data json.RawMessage) error

// Extractor turns profile documents into Projects sections. It is safe for
// concurrent use once constructed.
type Extractor struct {
	client llm.Client
	tier   llm.ModelTier
	system string
	task   string
	schema *genai.Schema
	log    zerolog.Logger
}

// NewExtractor creates an extractor backed by client.
func NewExtractor(client llm.Client, log zerolog.Logger) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("projects: model client is required")
	}
	system, err := prompts.Get(promptFile, systemPromptKey)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	task, err := prompts.Get(promptFile, taskPromptKey)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}

	return &Extractor{
		client: client,
		tier:   llm.TierStandard,
		system: system,
		task:   task,
		schema: ResponseSchema(),
		log:    log.With().Str("component", "projects").Logger(),
	}, nil
}

// Extract asks the model for the Projects section. onPartial may be nil.
// Model failures are reported as *ModelError; cancellation and onPartial
// errors are returned unchanged.
func (e *Extractor) Extract(ctx context.Context, doc *types.ProfileDocument, onPartial PartialFunc) (*types.ProjectsSection, error) {
	if doc == nil {
		doc = &types.ProfileDocument{}
	}
	profileJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &ModelError{Message: "failed to encode profile", Cause: err}
	}

	req := llm.StructuredRequest{
		System: e.system,
		Prompt: prompts.Format(e.task, map[string]string{"Profile": string(profileJSON)}),
		Schema: e.schema,
	}

	var (
		accumulated strings.Builder
		last        string
		partialErr  error
		partials    int
	)
	onDelta := func(delta string) error {
		accumulated.WriteString(delta)
		if onPartial == nil {
			return nil
		}
		completed, ok := llm.CompleteJSON(accumulated.String())
		if !ok || completed == last || !json.Valid([]byte(completed)) {
			return nil
		}
		last = completed
		partials++
		if err := onPartial(json.RawMessage(completed)); err != nil {
			partialErr = err
			return err
		}
		return nil
	}

	text, err := e.client.StreamJSON(ctx, req, e.tier, onDelta)
	if err != nil {
		if partialErr != nil {
			return nil, partialErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ModelError{Message: "model call failed", Cause: err}
	}

	section, err := Parse(text)
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Str("model", e.client.GetModel(e.tier)).
		Int("partials", partials).
		Int("projects", len(section.Projects)).
		Msg("projects extracted")
	return section, nil
}

// Parse validates raw model output and post-processes it into a section:
// nulls are dropped, the result must satisfy the projects schema and struct
// validation, titles are deduplicated case-insensitively (first wins) and the
// list is capped at types.MaxProjects.
func Parse(text string) (*types.ProjectsSection, error) {
	cleaned := llm.CleanJSONBlock(text)

	var raw any
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &ModelError{Message: "output is not valid JSON", Cause: err}
	}

	normalized, err := json.Marshal(stripNulls(raw))
	if err != nil {
		return nil, &ModelError{Message: "failed to normalize output", Cause: err}
	}
	if err := schemas.ValidateProjects(string(normalized)); err != nil {
		return nil, &ModelError{Message: "output does not match the projects schema", Cause: err}
	}

	var section types.ProjectsSection
	if err := json.NewDecoder(bytes.NewReader(normalized)).Decode(&section); err != nil {
		return nil, &ModelError{Message: "failed to decode output", Cause: err}
	}
	if err := types.Validate(&section); err != nil {
		return nil, &ModelError{Message: "invalid project entry", Cause: err}
	}

	section.Projects = dedupe(section.Projects)
	return &section, nil
}

// stripNulls removes null-valued object keys and null array elements.
func stripNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if item == nil {
				delete(t, k)
				continue
			}
			t[k] = stripNulls(item)
		}
		return t
	case []any:
		out := t[:0]
		for _, item := range t {
			if item != nil {
				out = append(out, stripNulls(item))
			}
		}
		return out
	default:
		return v
	}
}

func dedupe(in []types.PortfolioProject) []types.PortfolioProject {
	out := make([]types.PortfolioProject, 0, min(len(in), types.MaxProjects))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		key := strings.ToLower(strings.TrimSpace(p.Title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
		if len(out) == types.MaxProjects {
			break
		}
	}
	return out
}

// ResponseSchema is the structured-output schema sent to the model.
func ResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	strList := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: desc}
	}

	project := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":        str("Project title"),
			"description":  str("Concise description, at most 120 words"),
			"technologies": strList("Lowercase technology names"),
			"images":       strList("Image URLs"),
			"demoVideoUrl": str("Demo video URL"),
			"liveDemoUrl":  str("Live demo URL"),
			"sourceUrl":    str("Source repository URL"),
		},
		Required: []string{"title", "description"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"projects": {
				Type:        genai.TypeArray,
				Items:       project,
				Description: "At most 8 projects, most recent first",
			},
		},
		Required: []string{"projects"},
	}
}
