package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider 'ollama', got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.URL != "http://localhost:11434" {
		t.Errorf("expected default url, got %q", cfg.LLM.URL)
	}
	if cfg.LLM.Model != "qwen3:8b" {
		t.Errorf("expected default model 'qwen3:8b', got %q", cfg.LLM.Model)
	}
	if cfg.Queen.SpawnLimit != 3 {
		t.Errorf("expected spawn limit 3, got %d", cfg.Queen.SpawnLimit)
	}
	if cfg.Storage.Backend != "json" {
		t.Errorf("expected storage backend 'json', got %q", cfg.Storage.Backend)
	}
	if cfg.Paths.Prompts != "prompts" || cfg.Paths.Data != "data" || cfg.Paths.Logs != "logs" {
		t.Errorf("unexpected default paths: %+v", cfg.Paths)
	}
}

func TestLoadFromPath(t *testing.T) {
	clearLLMEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
llm:
  provider: openai
  url: https://openrouter.ai/api/v1
  model: qwen/qwen3-8b
  token: ${HIVE_TEST_TOKEN}
queen:
  spawn_limit: 5
storage:
  backend: sqlite
  driver: sqlite3
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("HIVE_TEST_TOKEN", "expanded-token")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.URL != "https://openrouter.ai/api/v1" {
		t.Errorf("unexpected url %q", cfg.LLM.URL)
	}
	if cfg.LLM.Token != "expanded-token" {
		t.Errorf("expected token to be expanded, got %q", cfg.LLM.Token)
	}
	if cfg.Queen.SpawnLimit != 5 {
		t.Errorf("expected spawn limit 5, got %d", cfg.Queen.SpawnLimit)
	}
	if cfg.Queen.Name != "queen" {
		t.Errorf("expected default queen name, got %q", cfg.Queen.Name)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Driver != "sqlite3" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.Log.Level)
	}
	if cfg.Paths.Configs != filepath.Join("agents", "configs") {
		t.Errorf("expected default configs path, got %q", cfg.Paths.Configs)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	clearLLMEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("llm:\n  model: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LLM_API_URL", "http://gpu-box:11434/api/generate")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("LLM_TOKEN", "tok")
	t.Setenv("HIVE_QUEEN_SPAWN_LIMIT", "7")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.LLM.URL != "http://gpu-box:11434/api/generate" {
		t.Errorf("LLM_API_URL not applied: %q", cfg.LLM.URL)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("LLM_MODEL not applied: %q", cfg.LLM.Model)
	}
	if cfg.LLM.Token != "tok" {
		t.Errorf("LLM_TOKEN not applied: %q", cfg.LLM.Token)
	}
	if cfg.Queen.SpawnLimit != 7 {
		t.Errorf("HIVE_QUEEN_SPAWN_LIMIT not applied: %d", cfg.Queen.SpawnLimit)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := filepath.Join("/custom/config", "hive")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
	if GetUserConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("unexpected user config path %q", GetUserConfigPath())
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, ".hive.yaml")
	if err := os.WriteFile(want, []byte("queen:\n  name: mother\n"), 0644); err != nil {
		t.Fatal(err)
	}
	chdir(t, nested)

	got := findProjectConfig()
	// macOS tempdirs resolve through /private; compare resolved paths.
	gotResolved, _ := filepath.EvalSymlinks(got)
	wantResolved, _ := filepath.EvalSymlinks(want)
	if gotResolved != wantResolved {
		t.Errorf("findProjectConfig() = %q, want %q", got, want)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(".env", []byte("HIVE_DOTENV_A=base\nHIVE_DOTENV_B=base\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".env.test", []byte("HIVE_DOTENV_B=override\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_ENV", "test")
	t.Setenv("HIVE_DOTENV_A", "")
	t.Setenv("HIVE_DOTENV_B", "")
	os.Unsetenv("HIVE_DOTENV_A")
	os.Unsetenv("HIVE_DOTENV_B")

	loaded := LoadDotEnv()
	if len(loaded) != 2 {
		t.Fatalf("loaded = %v, want .env and .env.test", loaded)
	}
	if got := os.Getenv("HIVE_DOTENV_A"); got != "base" {
		t.Errorf("HIVE_DOTENV_A = %q, want base", got)
	}
	if got := os.Getenv("HIVE_DOTENV_B"); got != "override" {
		t.Errorf("HIVE_DOTENV_B = %q, want override", got)
	}
}

// clearLLMEnv unsets the variables bound to llm.* for the test's duration.
func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"LLM_PROVIDER", "LLM_API_URL", "LLM_MODEL", "LLM_TOKEN",
		"HIVE_LLM_PROVIDER", "HIVE_LLM_URL", "HIVE_LLM_MODEL", "HIVE_LLM_TOKEN",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}
