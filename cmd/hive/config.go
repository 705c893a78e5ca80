package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/hive/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key]",
	Short: "Show configuration",
	Long: `Show the effective hive configuration.

Without arguments, displays every setting. With a key, displays that value.

Configuration is read from ~/.config/hive/config.yaml, then .hive.yaml in the
current directory or a parent, then .env files and the environment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			displayAllConfig(out, cfg)
			return nil
		}
		value, err := getConfigValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil
	},
}

// configKeys lists the displayable keys in display order.
var configKeys = []string{
	"llm.provider", "llm.url", "llm.model", "llm.token", "llm.bedrock",
	"llm.aws_region", "llm.aws_profile",
	"paths.configs", "paths.prompts", "paths.data", "paths.logs", "paths.mapping",
	"queen.name", "queen.spawn_limit", "queen.watch_mapping",
	"storage.backend", "storage.driver", "storage.path",
	"log.level", "log.console",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		if key == "llm.token" {
			value += " (source: " + string(config.GetTokenSource(cfg)) + ")"
		}
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(w, "# project config: %s\n", p)
	}
	fmt.Fprintf(w, "# user config: %s\n", config.GetUserConfigPath())
}

// getConfigValue retrieves a configuration value by dot-notation key.
// The token is always masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "llm.provider":
		return cfg.LLM.Provider, nil
	case "llm.url":
		return cfg.LLM.URL, nil
	case "llm.model":
		return cfg.LLM.Model, nil
	case "llm.token":
		return config.MaskToken(cfg.LLM.Token), nil
	case "llm.bedrock":
		return strconv.FormatBool(cfg.LLM.Bedrock), nil
	case "llm.aws_region":
		return cfg.LLM.AWSRegion, nil
	case "llm.aws_profile":
		return cfg.LLM.AWSProfile, nil
	case "paths.configs":
		return cfg.Paths.Configs, nil
	case "paths.prompts":
		return cfg.Paths.Prompts, nil
	case "paths.data":
		return cfg.Paths.Data, nil
	case "paths.logs":
		return cfg.Paths.Logs, nil
	case "paths.mapping":
		return cfg.Paths.Mapping, nil
	case "queen.name":
		return cfg.Queen.Name, nil
	case "queen.spawn_limit":
		return strconv.Itoa(cfg.Queen.SpawnLimit), nil
	case "queen.watch_mapping":
		return strconv.FormatBool(cfg.Queen.WatchMapping), nil
	case "storage.backend":
		return cfg.Storage.Backend, nil
	case "storage.driver":
		return cfg.Storage.Driver, nil
	case "storage.path":
		return cfg.Storage.Path, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.console":
		return strconv.FormatBool(cfg.Log.Console), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}
