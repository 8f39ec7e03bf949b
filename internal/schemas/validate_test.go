package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ProjectsSchemaIsValidJSON(t *testing.T) {
	text, err := Get(ProjectsSchema)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(text)))
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("missing.schema.json")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.schema.json", loadErr.Path)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestValidateProjects(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
		field     string
	}{
		{
			name:  "empty list",
			input: `{"projects": []}`,
		},
		{
			name: "full project",
			input: `{"projects": [{
				"title": "Agentforce Creator MCP",
				"description": "Generates agents.",
				"technologies": ["python"],
				"images": ["https://x/y.jpg"],
				"demoVideoUrl": "https://x/demo.mp4",
				"liveDemoUrl": "https://demo.vercel.app",
				"sourceUrl": "https://github.com/x/y"
			}]}`,
		},
		{
			name:      "missing projects key",
			input:     `{}`,
			wantError: true,
			field:     "(root)",
		},
		{
			name:      "missing description",
			input:     `{"projects": [{"title": "A"}]}`,
			wantError: true,
			field:     "projects.0",
		},
		{
			name:      "blank title",
			input:     `{"projects": [{"title": "   ", "description": "d"}]}`,
			wantError: true,
			field:     "projects.0.title",
		},
		{
			name:      "technologies wrong type",
			input:     `{"projects": [{"title": "A", "description": "d", "technologies": "go"}]}`,
			wantError: true,
			field:     "projects.0.technologies",
		},
		{
			name:      "null optional is rejected",
			input:     `{"projects": [{"title": "A", "description": "d", "sourceUrl": null}]}`,
			wantError: true,
			field:     "projects.0.sourceUrl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjects(tt.input)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "got %T: %v", err, err)

			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := ValidateProjects(`{ invalid json }`)
	require.Error(t, err)

	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "projects.0.title", Message: "is required"},
			{Field: "projects", Message: "must be an array"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. projects.0.title: is required")
	assert.Contains(t, msg, "2. projects: must be an array")
}
