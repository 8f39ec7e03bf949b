package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-agent/internal/llm"
	"github.com/jonathan/portfolio-agent/internal/types"
)

// fakeClient replays scripted deltas.
type fakeClient struct {
	deltas []string
	err    error
	req    llm.StructuredRequest
	calls  int
}

func (f *fakeClient) StreamJSON(ctx context.Context, req llm.StructuredRequest, _ llm.ModelTier, onDelta llm.DeltaFunc) (string, error) {
	f.calls++
	f.req = req
	var full strings.Builder
	for _, d := range f.deltas {
		if err := ctx.Err(); err != nil {
			return full.String(), err
		}
		full.WriteString(d)
		if onDelta != nil {
			if err := onDelta(d); err != nil {
				return full.String(), err
			}
		}
	}
	if f.err != nil {
		return full.String(), f.err
	}
	return full.String(), nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                  { return nil }

// chunk splits s into pieces of n bytes.
func chunk(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

func newTestExtractor(t *testing.T, client llm.Client) *Extractor {
	t.Helper()
	e, err := NewExtractor(client, zerolog.Nop())
	require.NoError(t, err)
	return e
}

const twoProjects = `{"projects":[{"title":"Agent Creator MCP","description":"Deploys support agents.","technologies":["python"],"sourceUrl":"https://github.com/x/y"},{"title":"Portfolio Agent","description":"Streams portfolios.","liveDemoUrl":"https://p.vercel.app"}]}`

func TestExtract_StreamsPartialsAndReturnsSection(t *testing.T) {
	client := &fakeClient{deltas: chunk(twoProjects, 7)}
	e := newTestExtractor(t, client)

	var partials []json.RawMessage
	section, err := e.Extract(context.Background(), &types.ProfileDocument{ProfileID: "jdoe"}, func(data json.RawMessage) error {
		partials = append(partials, data)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, section.Projects, 2)
	assert.Equal(t, "Agent Creator MCP", section.Projects[0].Title)
	assert.Equal(t, "https://github.com/x/y", section.Projects[0].SourceURL)
	assert.Equal(t, "https://p.vercel.app", section.Projects[1].LiveDemoURL)

	require.NotEmpty(t, partials)
	for i, p := range partials {
		assert.True(t, json.Valid(p), "partial %d invalid: %s", i, p)
		if i > 0 {
			assert.NotEqual(t, string(partials[i-1]), string(p), "partials must change")
		}
	}
	assert.JSONEq(t, twoProjects, string(partials[len(partials)-1]))
}

func TestExtract_SendsPromptAndSchema(t *testing.T) {
	client := &fakeClient{deltas: []string{`{"projects":[]}`}}
	e := newTestExtractor(t, client)

	_, err := e.Extract(context.Background(), &types.ProfileDocument{ProfileID: "jdoe", FirstName: "Jane"}, nil)
	require.NoError(t, err)

	assert.Contains(t, client.req.System, "Portfolio Project Extractor")
	assert.Contains(t, client.req.Prompt, `"profile_id": "jdoe"`)
	assert.Contains(t, client.req.Prompt, `"first_name": "Jane"`)
	require.NotNil(t, client.req.Schema)
	assert.Contains(t, client.req.Schema.Properties, "projects")
	assert.Equal(t, []string{"title", "description"}, client.req.Schema.Properties["projects"].Items.Required)
}

func TestExtract_EmptyListIsValid(t *testing.T) {
	e := newTestExtractor(t, &fakeClient{deltas: []string{`{"projects": []}`}})

	section, err := e.Extract(context.Background(), &types.ProfileDocument{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, section.Projects)
	assert.Empty(t, section.Projects)

	data, err := json.Marshal(section)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects": []}`, string(data))
}

func TestExtract_ModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		reason string
	}{
		{"call failure", &fakeClient{err: errors.New("quota exceeded")}, "model call failed"},
		{"stream failure mid-way", &fakeClient{deltas: []string{`{"projects":[`}, err: errors.New("reset")}, "model call failed"},
		{"not JSON", &fakeClient{deltas: []string{"sorry, I cannot help"}}, "not valid JSON"},
		{"missing projects key", &fakeClient{deltas: []string{`{"items":[]}`}}, "schema"},
		{"missing description", &fakeClient{deltas: []string{`{"projects":[{"title":"A"}]}`}}, "schema"},
		{"empty title", &fakeClient{deltas: []string{`{"projects":[{"title":"","description":"d"}]}`}}, "schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(t, tt.client)

			section, err := e.Extract(context.Background(), &types.ProfileDocument{}, func(json.RawMessage) error { return nil })
			require.Error(t, err)
			assert.Nil(t, section)

			var modelErr *ModelError
			require.ErrorAs(t, err, &modelErr)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestExtract_PartialErrorIsReturnedUnwrapped(t *testing.T) {
	sinkErr := errors.New("client disconnected")
	e := newTestExtractor(t, &fakeClient{deltas: chunk(twoProjects, 5)})

	_, err := e.Extract(context.Background(), &types.ProfileDocument{}, func(json.RawMessage) error { return sinkErr })

	assert.ErrorIs(t, err, sinkErr)
	var modelErr *ModelError
	assert.False(t, errors.As(err, &modelErr))
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExtractor(t, &fakeClient{deltas: []string{`{"projects":[]}`}})
	_, err := e.Extract(ctx, &types.ProfileDocument{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_StripsNulls(t *testing.T) {
	section, err := Parse(`{"projects":[{"title":"A","description":"d","sourceUrl":null,"images":null,"technologies":["go",null]}]}`)
	require.NoError(t, err)

	require.Len(t, section.Projects, 1)
	assert.Equal(t, "", section.Projects[0].SourceURL)
	assert.Nil(t, section.Projects[0].Images)
	assert.Equal(t, []string{"go"}, section.Projects[0].Technologies)
}

func TestParse_CleansCodeFence(t *testing.T) {
	section, err := Parse("```json\n{\"projects\":[{\"title\":\"A\",\"description\":\"d\"}]}\n```")
	require.NoError(t, err)
	assert.Len(t, section.Projects, 1)
}

func TestParse_DedupesCaseInsensitiveFirstWins(t *testing.T) {
	section, err := Parse(`{"projects":[
		{"title":"Portfolio Agent","description":"first"},
		{"title":"portfolio agent ","description":"second"},
		{"title":"Other","description":"third"}
	]}`)
	require.NoError(t, err)

	require.Len(t, section.Projects, 2)
	assert.Equal(t, "first", section.Projects[0].Description)
	assert.Equal(t, "Other", section.Projects[1].Title)
}

func TestParse_TruncatesToMaxProjects(t *testing.T) {
	items := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		items = append(items, fmt.Sprintf(`{"title":"Project %d","description":"d"}`, i))
	}

	section, err := Parse(`{"projects":[` + strings.Join(items, ",") + `]}`)
	require.NoError(t, err)

	require.Len(t, section.Projects, types.MaxProjects)
	assert.Equal(t, "Project 0", section.Projects[0].Title)
	assert.Equal(t, "Project 7", section.Projects[7].Title)
}

func TestNewExtractor_RequiresClient(t *testing.T) {
	_, err := NewExtractor(nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestModelError_Error(t *testing.T) {
	err := &ModelError{Message: "model call failed", Cause: errors.New("boom")}

	assert.Equal(t, "projects model error: model call failed: boom", err.Error())
	assert.Equal(t, "projects model error: no text", (&ModelError{Message: "no text"}).Error())
}
