// Package config handles configuration loading and management for hive.
// It supports XDG config paths, project-level overrides, .env files, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for hive.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Queen   QueenConfig   `mapstructure:"queen"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// LLMConfig selects the inference provider.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"`
	URL        string `mapstructure:"url"`
	Model      string `mapstructure:"model"`
	Token      string `mapstructure:"token"`
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// PathsConfig holds the on-disk locations hive reads and writes.
type PathsConfig struct {
	// Configs is the directory of <name>.ant.yaml agent records.
	Configs string `mapstructure:"configs"`
	// Prompts is the directory of <name>.txt system prompts.
	Prompts string `mapstructure:"prompts"`
	// Data is the directory of JSON conversation logs.
	Data string `mapstructure:"data"`
	// Logs is the directory of log files.
	Logs string `mapstructure:"logs"`
	// Mapping is the task classification YAML file.
	Mapping string `mapstructure:"mapping"`
}

// QueenConfig holds coordinator settings.
type QueenConfig struct {
	Name       string `mapstructure:"name"`
	SpawnLimit int    `mapstructure:"spawn_limit"`
	// WatchMapping reloads the classification mapping when the file changes.
	WatchMapping bool `mapstructure:"watch_mapping"`
}

// StorageConfig selects the conversation log backend.
type StorageConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Driver is the SQLite driver name: "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Load loads configuration from .env files, XDG paths, project overrides,
// and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (LLM_PROVIDER, LLM_API_URL, LLM_MODEL, LLM_TOKEN, HIVE_*)
// 2. Project config (.hive.yaml in current directory or parent)
// 3. User config (~/.config/hive/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	LoadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file plus environment
// overrides. It does not read .env files.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.LLM.Token = os.ExpandEnv(cfg.LLM.Token)
	return cfg, nil
}

// bindEnv maps the bare LLM_* variables plus
// HIVE_<SECTION>_<KEY> for every other setting.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("HIVE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	v.BindEnv("llm.provider", "HIVE_LLM_PROVIDER", "LLM_PROVIDER")
	v.BindEnv("llm.url", "HIVE_LLM_URL", "LLM_API_URL")
	v.BindEnv("llm.model", "HIVE_LLM_MODEL", "LLM_MODEL")
	v.BindEnv("llm.token", "HIVE_LLM_TOKEN", "LLM_TOKEN")
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.url", d.LLM.URL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.token", "")
	v.SetDefault("llm.bedrock", false)
	v.SetDefault("llm.aws_region", "")
	v.SetDefault("llm.aws_profile", "")

	v.SetDefault("paths.configs", d.Paths.Configs)
	v.SetDefault("paths.prompts", d.Paths.Prompts)
	v.SetDefault("paths.data", d.Paths.Data)
	v.SetDefault("paths.logs", d.Paths.Logs)
	v.SetDefault("paths.mapping", d.Paths.Mapping)

	v.SetDefault("queen.name", d.Queen.Name)
	v.SetDefault("queen.spawn_limit", d.Queen.SpawnLimit)
	v.SetDefault("queen.watch_mapping", d.Queen.WatchMapping)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
}

// getUserConfigDir returns the XDG config directory for hive.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hive")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "hive")
	}
	return filepath.Join(home, ".config", "hive")
}

// findProjectConfig searches for .hive.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".hive.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			URL:      "http://localhost:11434",
			Model:    "qwen3:8b",
		},
		Paths: PathsConfig{
			Configs: filepath.Join("agents", "configs"),
			Prompts: "prompts",
			Data:    "data",
			Logs:    "logs",
			Mapping: filepath.Join("agents", "tasks_to_agents_mapping.yaml"),
		},
		Queen: QueenConfig{
			Name:       "queen",
			SpawnLimit: 3,
		},
		Storage: StorageConfig{
			Backend: "json",
			Driver:  "sqlite",
			Path:    filepath.Join("data", "hive.db"),
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}
