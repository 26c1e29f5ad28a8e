package config

import "testing"

func TestLoad_defaults(t *testing.T) {
	for _, k := range []string{
		"LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_TEMPERATURE",
		"SEARCH_API_KEY", "SEARCH_BASE_URL", "STORE_URL", "STORE_TTL_SECONDS",
		"MAX_CONCURRENT_GENERATIONS", "MAX_CONCURRENT_VERIFICATIONS",
		"VERIFICATION_TIMEOUT_SECONDS", "META_RECURSION_LIMIT",
		"TEAM_RECURSION_LIMIT", "MAX_TOOL_ROUNDS", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxConcurrentGenerations != 3 {
		t.Errorf("MaxConcurrentGenerations = %d, want 3", c.MaxConcurrentGenerations)
	}
	if c.MaxConcurrentVerifications != 5 {
		t.Errorf("MaxConcurrentVerifications = %d, want 5", c.MaxConcurrentVerifications)
	}
	if c.StoreTTLSeconds != 7200 {
		t.Errorf("StoreTTLSeconds = %d, want 7200", c.StoreTTLSeconds)
	}
	if c.MetaRecursionLimit != 50 {
		t.Errorf("MetaRecursionLimit = %d, want 50", c.MetaRecursionLimit)
	}
	if c.TeamRecursionLimit != 25 {
		t.Errorf("TeamRecursionLimit = %d, want 25", c.TeamRecursionLimit)
	}
	if c.MaxToolRounds != 8 {
		t.Errorf("MaxToolRounds = %d, want 8", c.MaxToolRounds)
	}
	if c.LLMModel != "gpt-4o-mini" {
		t.Errorf("LLMModel = %q, want gpt-4o-mini", c.LLMModel)
	}
}

func TestLoad_invalidInteger(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid MAX_CONCURRENT_GENERATIONS")
	}
}

func TestLoad_rangeValidation(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_GENERATIONS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for MAX_CONCURRENT_GENERATIONS=0")
	}
}
