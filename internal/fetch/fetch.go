// Package fetch retrieves profile documents from the external profile provider.
// A 404 from the provider is a normal not-found outcome; every other failure is
// reported as a *ProviderError.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jonathan/portfolio-agent/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "PortfolioAgent/1.0"

// DefaultAPIKeyHeader carries the provider API key.
const DefaultAPIKeyHeader = "x-api-key"

// maxBodyBytes bounds provider responses.
const maxBodyBytes = 10 << 20

// Status is the profile resolution outcome.
type Status string

const (
	// StatusFound means the provider returned a profile document.
	StatusFound Status = "found"
	// StatusNotFound means the provider has no profile for the identifier.
	StatusNotFound Status = "not_found"
)

// Result holds the outcome of a profile fetch. Profile is nil unless Status is StatusFound.
type Result struct {
	Status      Status
	Profile     *types.ProfileDocument
	FromFixture bool
}

// ProviderError represents a failure talking to the profile provider.
type ProviderError struct {
	Identifier string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("profile provider error for %q: %s", e.Identifier, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Options configures the provider client.
type Options struct {
	Endpoint     string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	UserAgent    string

	// FixtureEnabled substitutes the embedded fixture profile when the provider
	// fails for FixtureIdentifier. Development only.
	FixtureEnabled    bool
	FixtureIdentifier string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		APIKeyHeader: DefaultAPIKeyHeader,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
	}
}

// Client fetches profiles from the provider.
type Client struct {
	opts       Options
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a provider client. A nil opts uses DefaultOptions.
func NewClient(opts *Options, log zerolog.Logger) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.APIKeyHeader == "" {
		o.APIKeyHeader = DefaultAPIKeyHeader
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}

	return &Client{
		opts:       o,
		httpClient: &http.Client{Timeout: o.Timeout},
		log:        log.With().Str("component", "fetch").Logger(),
	}
}

// profileRequest is the provider request body.
type profileRequest struct {
	ProfileID       string `json:"profile_id"`
	BypassCache     bool   `json:"bypass_cache"`
	RelatedProfiles bool   `json:"related_profiles"`
	NetworkInfo     bool   `json:"network_info"`
	ContactInfo     bool   `json:"contact_info"`
}

// Fetch resolves identifier to a profile document. Context cancellation is
// returned as-is, never as a ProviderError.
func (c *Client) Fetch(ctx context.Context, identifier string) (*Result, error) {
	result, err := c.fetchRemote(ctx, identifier)
	if err == nil {
		return result, nil
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) && c.fixtureApplies(identifier) {
		profile, fixtureErr := FixtureProfile()
		if fixtureErr != nil {
			return nil, err
		}
		c.log.Warn().
			Err(err).
			Str("identifier", identifier).
			Msg("profile provider failed, using development fixture")
		return &Result{Status: StatusFound, Profile: profile, FromFixture: true}, nil
	}
	return nil, err
}

func (c *Client) fixtureApplies(identifier string) bool {
	return c.opts.FixtureEnabled && c.opts.FixtureIdentifier != "" && identifier == c.opts.FixtureIdentifier
}

func (c *Client) fetchRemote(ctx context.Context, identifier string) (*Result, error) {
	if c.opts.APIKey == "" {
		return nil, &ProviderError{Identifier: identifier, Message: "provider API key is not configured"}
	}
	parsedURL, err := url.Parse(c.opts.Endpoint)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &ProviderError{Identifier: identifier, Message: "invalid provider endpoint", Cause: err}
	}

	body, err := json.Marshal(profileRequest{
		ProfileID:   identifier,
		BypassCache: true,
		ContactInfo: true,
	})
	if err != nil {
		return nil, &ProviderError{Identifier: identifier, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Identifier: identifier, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set(c.opts.APIKeyHeader, c.opts.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProviderError{Identifier: identifier, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("identifier", identifier).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("profile provider responded")

	if resp.StatusCode == http.StatusNotFound {
		return &Result{Status: StatusNotFound}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProviderError{Identifier: identifier, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Identifier: identifier,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", snippet(data)),
		}
	}

	profile, err := decodeProfile(data)
	if err != nil {
		return nil, &ProviderError{Identifier: identifier, StatusCode: resp.StatusCode, Message: "malformed profile response", Cause: err}
	}
	return &Result{Status: StatusFound, Profile: profile}, nil
}

// decodeProfile accepts either a bare profile object or one nested under "data".
// Every profile field is optional, so any JSON object is a document.
func decodeProfile(data []byte) (*types.ProfileDocument, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, errors.New("response is not a JSON object")
	}

	payload := data
	if _, hasID := envelope["profile_id"]; !hasID {
		if nested, ok := envelope["data"]; ok && bytes.HasPrefix(bytes.TrimSpace(nested), []byte("{")) {
			payload = nested
		}
	}

	var profile types.ProfileDocument
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// maxSnippetBytes bounds response text quoted in errors.
const maxSnippetBytes = 200

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxSnippetBytes {
		cut := maxSnippetBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
