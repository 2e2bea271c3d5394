package main

import "testing"

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("DHARMA_CONFIG", "  /etc/dharma/config.toml ")
	if got := configPathFromEnv(); got != "/etc/dharma/config.toml" {
		t.Fatalf("configPathFromEnv = %q", got)
	}

	t.Setenv("DHARMA_CONFIG", "")
	if got := configPathFromEnv(); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}
