package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Settings are the user-facing knobs a Config is built from.
type Settings struct {
	Enabled           bool
	PipelinePerMinute int
	Burst             int
	Whitelist         []string
	Blacklist         []string
}

// NewConfig builds a Config with the pipeline endpoints limited per Settings and
// everything else under the lenient default.
func NewConfig(s Settings) *Config {
	return &Config{
		Enabled:         s.Enabled,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: PipelineEndpointConfigs(s.PipelinePerMinute, s.Burst),
	}
}

// PipelineEndpointConfigs returns the limits for the two pipeline endpoints.
func PipelineEndpointConfigs(perMinute, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/portfolio", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},
		{Path: "/api/portfolio/stream", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: burst},
	}
}

// ipSet converts a list of addresses into a lookup set.
func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
