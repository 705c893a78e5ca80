package config

import (
	"os"
	"strings"
)

// MaskToken returns a masked version of a token for display.
// Shows the first 4 and last 4 characters.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// TokenSource represents where the inference token was loaded from.
type TokenSource string

const (
	TokenSourceEnv    TokenSource = "environment"
	TokenSourceConfig TokenSource = "config_file"
	TokenSourceNone   TokenSource = "none"
)

// tokenEnvVars are checked in binding order.
var tokenEnvVars = []string{"HIVE_LLM_TOKEN", "LLM_TOKEN"}

// GetTokenSource returns where the inference token was sourced from.
func GetTokenSource(cfg *Config) TokenSource {
	for _, name := range tokenEnvVars {
		if os.Getenv(name) != "" {
			return TokenSourceEnv
		}
	}
	if cfg != nil && cfg.LLM.Token != "" && !strings.HasPrefix(cfg.LLM.Token, "${") {
		return TokenSourceConfig
	}
	return TokenSourceNone
}
