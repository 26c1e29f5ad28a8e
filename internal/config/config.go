// Package config resolves the orchestrator's typed Config from environment
// variables, following the same small os.Getenv/strconv helper style the
// rest of this codebase uses rather than a reflective config library.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the environment-driven options from the external interfaces
// table. OTEL_METRICS_ADDR is not read: metrics are served on the main mux.
type Config struct {
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float64

	SearchAPIKey  string
	SearchBaseURL string

	StoreURL        string
	StoreTTLSeconds int

	MaxConcurrentGenerations    int
	MaxConcurrentVerifications  int
	VerificationTimeoutSeconds  int
	MetaRecursionLimit          int
	TeamRecursionLimit          int
	MaxToolRounds               int

	HTTPAddr string
	LogLevel string
	LogFormat string
}

// Load builds a Config from the process environment, applying defaults for anything
// unset and failing fast if a numeric option is out of its documented range.
func Load() (*Config, error) {
	c := &Config{
		LLMAPIKey:      os.Getenv("LLM_API_KEY"),
		LLMBaseURL:     getenvDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:       getenvDefault("LLM_MODEL", "gpt-4o-mini"),
		SearchAPIKey:   os.Getenv("SEARCH_API_KEY"),
		SearchBaseURL:  getenvDefault("SEARCH_BASE_URL", "https://api.tavily.com"),
		StoreURL:       os.Getenv("STORE_URL"),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8000"),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
		LogFormat:      getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	if c.LLMTemperature, err = getenvFloat("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if c.StoreTTLSeconds, err = getenvInt("STORE_TTL_SECONDS", 7200); err != nil {
		return nil, err
	}
	if c.MaxConcurrentGenerations, err = getenvInt("MAX_CONCURRENT_GENERATIONS", 3); err != nil {
		return nil, err
	}
	if c.MaxConcurrentVerifications, err = getenvInt("MAX_CONCURRENT_VERIFICATIONS", 5); err != nil {
		return nil, err
	}
	if c.VerificationTimeoutSeconds, err = getenvInt("VERIFICATION_TIMEOUT_SECONDS", 120); err != nil {
		return nil, err
	}
	if c.MetaRecursionLimit, err = getenvInt("META_RECURSION_LIMIT", 50); err != nil {
		return nil, err
	}
	if c.TeamRecursionLimit, err = getenvInt("TEAM_RECURSION_LIMIT", 25); err != nil {
		return nil, err
	}
	if c.MaxToolRounds, err = getenvInt("MAX_TOOL_ROUNDS", 8); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.MaxConcurrentGenerations < 1 {
		return fmt.Errorf("MAX_CONCURRENT_GENERATIONS must be >= 1, got %d", c.MaxConcurrentGenerations)
	}
	if c.MaxConcurrentVerifications < 1 {
		return fmt.Errorf("MAX_CONCURRENT_VERIFICATIONS must be >= 1, got %d", c.MaxConcurrentVerifications)
	}
	if c.StoreTTLSeconds < 1 {
		return fmt.Errorf("STORE_TTL_SECONDS must be >= 1, got %d", c.StoreTTLSeconds)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("MAX_TOOL_ROUNDS must be >= 1, got %d", c.MaxToolRounds)
	}
	if c.TeamRecursionLimit < 1 {
		return fmt.Errorf("TEAM_RECURSION_LIMIT must be >= 1, got %d", c.TeamRecursionLimit)
	}
	if c.MetaRecursionLimit < 1 {
		return fmt.Errorf("META_RECURSION_LIMIT must be >= 1, got %d", c.MetaRecursionLimit)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", key, v, err)
	}
	return f, nil
}
