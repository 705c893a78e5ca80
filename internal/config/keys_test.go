package config

import (
	"os"
	"testing"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk-or-v1-0123456789abcdef", "sk-o...cdef"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestGetTokenSource(t *testing.T) {
	clearLLMEnv(t)

	t.Run("none", func(t *testing.T) {
		if got := GetTokenSource(&Config{}); got != TokenSourceNone {
			t.Errorf("got %q, want none", got)
		}
		if got := GetTokenSource(nil); got != TokenSourceNone {
			t.Errorf("nil config: got %q, want none", got)
		}
	})

	t.Run("config file", func(t *testing.T) {
		cfg := &Config{LLM: LLMConfig{Token: "from-file"}}
		if got := GetTokenSource(cfg); got != TokenSourceConfig {
			t.Errorf("got %q, want config_file", got)
		}
	})

	t.Run("unexpanded reference is not a token", func(t *testing.T) {
		cfg := &Config{LLM: LLMConfig{Token: "${MISSING}"}}
		if got := GetTokenSource(cfg); got != TokenSourceNone {
			t.Errorf("got %q, want none", got)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("LLM_TOKEN", "from-env")
		defer os.Unsetenv("LLM_TOKEN")
		if got := GetTokenSource(&Config{}); got != TokenSourceEnv {
			t.Errorf("got %q, want environment", got)
		}
	})
}
