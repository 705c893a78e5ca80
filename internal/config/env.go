package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// LoadDotEnv loads .env and then .env.<APP_ENV> from the working directory.
// Variables already present in the process environment win over .env; the
// per-environment file overrides both. Missing files are not an error.
// It returns the files that were loaded.
func LoadDotEnv() []string {
	var loaded []string
	if err := godotenv.Load(".env"); err == nil {
		loaded = append(loaded, ".env")
	}

	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		envFile := fmt.Sprintf(".env.%s", appEnv)
		if err := godotenv.Overload(envFile); err == nil {
			loaded = append(loaded, envFile)
		}
	}
	return loaded
}
