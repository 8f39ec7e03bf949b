package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(endpoint string, mutate func(*Options)) *Client {
	opts := DefaultOptions()
	opts.Endpoint = endpoint
	opts.APIKey = "secret"
	if mutate != nil {
		mutate(opts)
	}
	return NewClient(opts, zerolog.Nop())
}

func TestFetch_Found(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"profile_id":"jdoe","first_name":"Jane","premium":true}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "jdoe")
	require.NoError(t, err)

	assert.Equal(t, StatusFound, result.Status)
	assert.False(t, result.FromFixture)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "Jane", result.Profile.FirstName)
	assert.Contains(t, result.Profile.Extra, "premium")

	assert.Equal(t, map[string]any{
		"profile_id":       "jdoe",
		"bypass_cache":     true,
		"related_profiles": false,
		"network_info":     false,
		"contact_info":     true,
	}, gotBody)
}

func TestFetch_NestedUnderData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"profile_id":"jdoe","last_name":"Doe"}}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Doe", result.Profile.LastName)
}

func TestFetch_PartialDocumentWithoutProfileID(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"first_name":"Ada","skills":["go"]}`},
		{"nested", `{"data":{"first_name":"Ada","skills":["go"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "ada")
			require.NoError(t, err)
			assert.Equal(t, StatusFound, result.Status)
			require.NotNil(t, result.Profile)
			assert.Empty(t, result.Profile.ProfileID)
			assert.Equal(t, "Ada", result.Profile.FirstName)
			assert.Equal(t, []string{"go"}, result.Profile.Skills)
		})
	}
}

func TestFetch_EmptyObjectIsFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, StatusFound, result.Status)
	assert.NotNil(t, result.Profile)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "empty body", snippet([]byte("  ")))
	assert.Equal(t, "short", snippet([]byte(" short\n")))

	// 199 ASCII bytes then a two-byte rune straddling the cut.
	long := strings.Repeat("a", 199) + "é" + strings.Repeat("b", 50)
	got := snippet([]byte(long))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199)+"...", got)

	ascii := snippet([]byte(strings.Repeat("x", 300)))
	assert.Equal(t, strings.Repeat("x", 200)+"...", ascii)
}

func TestFetch_CustomAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Profile-Key"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"profile_id":"jdoe"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, func(o *Options) { o.APIKeyHeader = "X-Profile-Key" }).
		Fetch(context.Background(), "jdoe")
	require.NoError(t, err)
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)
	assert.Nil(t, result.Profile)
}

func TestFetch_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		statusCode int
		message    string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, 500, "unexpected status"},
		{"unauthorized", http.StatusUnauthorized, ``, 401, "empty body"},
		{"malformed JSON", http.StatusOK, `{not json`, 200, "malformed profile response"},
		{"null body", http.StatusOK, `null`, 200, "malformed profile response"},
		{"array body", http.StatusOK, `[{"profile_id":"jdoe"}]`, 200, "malformed profile response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newTestClient(server.URL, nil).Fetch(context.Background(), "jdoe")
			require.Error(t, err)
			assert.Nil(t, result)

			var providerErr *ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, tt.statusCode, providerErr.StatusCode)
			assert.Equal(t, "jdoe", providerErr.Identifier)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	_, err := newTestClient(endpoint, nil).Fetch(context.Background(), "jdoe")

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestFetch_MissingAPIKeyMakesNoRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, func(o *Options) { o.APIKey = "" }).Fetch(context.Background(), "jdoe")

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, err.Error(), "API key")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFetch_InvalidEndpoint(t *testing.T) {
	_, err := newTestClient("not-a-url", nil).Fetch(context.Background(), "jdoe")

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, err.Error(), "invalid provider endpoint")
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL, func(o *Options) {
		o.FixtureEnabled = true
		o.FixtureIdentifier = "jdoe"
	}).Fetch(ctx, "jdoe")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var providerErr *ProviderError
	assert.False(t, errors.As(err, &providerErr))
}

func TestFetch_FixtureFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, func(o *Options) {
		o.FixtureEnabled = true
		o.FixtureIdentifier = "demo-profile"
	})

	t.Run("applies to the configured identifier", func(t *testing.T) {
		result, err := client.Fetch(context.Background(), "demo-profile")
		require.NoError(t, err)
		assert.Equal(t, StatusFound, result.Status)
		assert.True(t, result.FromFixture)
		assert.Equal(t, "Alex", result.Profile.FirstName)
	})

	t.Run("does not apply to other identifiers", func(t *testing.T) {
		_, err := client.Fetch(context.Background(), "someone-else")
		var providerErr *ProviderError
		assert.ErrorAs(t, err, &providerErr)
	})
}

func TestFetch_FixtureNeverMasksNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL, func(o *Options) {
		o.FixtureEnabled = true
		o.FixtureIdentifier = "demo-profile"
	}).Fetch(context.Background(), "demo-profile")

	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, result.Status)
	assert.False(t, result.FromFixture)
}

func TestFetch_FixtureDisabledByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, func(o *Options) { o.FixtureIdentifier = "demo-profile" }).
		Fetch(context.Background(), "demo-profile")

	var providerErr *ProviderError
	assert.ErrorAs(t, err, &providerErr)
}

func TestFixtureProfile(t *testing.T) {
	first, err := FixtureProfile()
	require.NoError(t, err)
	assert.Equal(t, "demo-profile", first.ProfileID)
	assert.NotEmpty(t, first.PositionGroups)
	assert.NotEmpty(t, first.Projects)

	first.FirstName = "mutated"
	second, err := FixtureProfile()
	require.NoError(t, err)
	assert.Equal(t, "Alex", second.FirstName)
}

func TestProviderError_Error(t *testing.T) {
	err := &ProviderError{Identifier: "jdoe", StatusCode: 503, Message: "unexpected status", Cause: errors.New("unavailable")}

	assert.Equal(t, `profile provider error for "jdoe": unexpected status (HTTP 503): unavailable`, err.Error())
}
