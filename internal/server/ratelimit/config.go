package ratelimit

import (
	"time"
)

// Default limits for endpoints without a specific configuration.
const (
	DefaultLimit           = 1000
	DefaultWindow          = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// EndpointConfig limits one method and path. Paths ending in "/" match by prefix.
type EndpointConfig struct {
	Path   string
	Method string
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
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// ExpensivePaths are the endpoints that call paid upstream models.
var ExpensivePaths = []string{
	"/transcribe",
	"/transcribe/rephrase",
	"/transcribe/process",
	"/transcribe/process-base64",
}

// NewConfig returns a Config that throttles the expensive endpoints to
// requestsPerSecond with the given burst, and everything else to DefaultLimit
// per DefaultWindow.
func NewConfig(requestsPerSecond float64, burst int) *Config {
	perMinute := int(requestsPerSecond * 60)
	if perMinute < 1 {
		perMinute = 1
	}

	endpoints := make([]EndpointConfig, 0, len(ExpensivePaths))
	for _, path := range ExpensivePaths {
		endpoints = append(endpoints, EndpointConfig{
			Path:   path,
			Method: "POST",
			Limit:  perMinute,
			Window: time.Minute,
			Burst:  burst,
		})
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    DefaultLimit,
		DefaultWindow:   DefaultWindow,
		CleanupInterval: DefaultCleanupInterval,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: endpoints,
	}
}
