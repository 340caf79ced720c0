package ratelimit

import (
	"time"

	"github.com/jonathan/writing-coach/internal/config"
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
	IdleTimeout     time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromServerConfig builds the limiter configuration from the server section.
func FromServerConfig(cfg config.ServerConfig) *Config {
	whitelist := make(map[string]bool, len(cfg.Whitelist))
	for _, ip := range cfg.Whitelist {
		whitelist[ip] = true
	}
	return &Config{
		Enabled:         cfg.RateLimit,
		DefaultLimit:    cfg.RequestsPerMin,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       whitelist,
		EndpointConfigs: DefaultEndpointConfigs(cfg.FeedbackPerHour),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Deep feedback
// calls a paid model and gets the strictest tier.
func DefaultEndpointConfigs(feedbackPerHour int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/feedback", Method: "POST", Limit: feedbackPerHour, Window: time.Hour, Burst: max(1, feedbackPerHour/10)},
		{Path: "/sessions", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
	}
}
