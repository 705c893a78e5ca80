package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/hive/pkg/models"
)

// ErrMalformedConfig is returned when an agent record cannot be parsed.
var ErrMalformedConfig = errors.New("malformed agent config")

// AgentConfigSuffix is the file suffix of agent records.
const AgentConfigSuffix = ".ant.yaml"

// DefaultAgentName names the record used when an agent has none of its own.
const DefaultAgentName = "default"

// AgentRecord is the declarative configuration of one agent, stored as
// <name>.ant.yaml.
type AgentRecord struct {
	// Role is a free-form description. It doubles as the capability when
	// TaskType is empty.
	Role string `yaml:"role"`
	// TaskType is the capability label the agent accepts.
	TaskType string `yaml:"task_type,omitempty"`
	// Caste is the privilege tier. Empty means the default caste.
	Caste string `yaml:"caste,omitempty"`
	// SystemPrompt is used when no prompt file exists for the agent.
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	// Difficulty maps easy/medium/hard to a system prompt suffix.
	Difficulty map[string]string `yaml:"difficulty,omitempty"`
	// LLM carries per-agent model settings.
	LLM AgentLLM `yaml:"llm,omitempty"`
}

// AgentLLM holds the model-related settings of an agent record.
type AgentLLM struct {
	Caste string `yaml:"caste,omitempty"`
	Model string `yaml:"model,omitempty"`
}

// DefaultAgentRecord is used when neither the agent nor default.ant.yaml
// has a record.
func DefaultAgentRecord() AgentRecord {
	return AgentRecord{
		Role:     "assistant",
		TaskType: models.TaskTypeGeneric,
	}
}

// Capability returns the task type the agent accepts.
func (r AgentRecord) Capability() string {
	if r.TaskType != "" {
		return r.TaskType
	}
	if r.Role != "" {
		return r.Role
	}
	return models.TaskTypeGeneric
}

// ResolveCaste returns the agent's caste. An empty caste is the default
// caste; an unknown one resolves to larva and ok is false.
func (r AgentRecord) ResolveCaste() (c models.Caste, ok bool) {
	raw := r.Caste
	if raw == "" {
		raw = r.LLM.Caste
	}
	if strings.TrimSpace(raw) == "" {
		return models.DefaultCaste, true
	}
	if c, ok := models.ParseCaste(raw); ok {
		return c, true
	}
	return models.CasteLarva, false
}

// DifficultySuffix returns the system prompt suffix for d, if any.
func (r AgentRecord) DifficultySuffix(d models.Difficulty) string {
	if d == models.DifficultyNone {
		return ""
	}
	return r.Difficulty[string(d)]
}

// AgentStore reads and writes agent records under a directory.
type AgentStore struct {
	dir string
}

// NewAgentStore creates a store rooted at dir.
func NewAgentStore(dir string) *AgentStore {
	return &AgentStore{dir: dir}
}

// Dir returns the directory holding the records.
func (s *AgentStore) Dir() string {
	return s.dir
}

func (s *AgentStore) path(name string) string {
	return filepath.Join(s.dir, name+AgentConfigSuffix)
}

// Exists reports whether name has its own record.
func (s *AgentStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Default returns default.ant.yaml, or the built-in default record if the
// file does not exist.
func (s *AgentStore) Default() (AgentRecord, error) {
	rec := DefaultAgentRecord()
	found, err := s.decodeInto(DefaultAgentName, &rec)
	if err != nil {
		return AgentRecord{}, err
	}
	if found {
		// The default record never contributes a system prompt.
		rec.SystemPrompt = ""
	}
	return rec, nil
}

// Load returns name's record. Fields the record omits are inherited from the
// default record. A missing record yields the default record.
func (s *AgentStore) Load(name string) (AgentRecord, error) {
	rec, err := s.Default()
	if err != nil {
		return AgentRecord{}, err
	}
	if name == DefaultAgentName {
		return rec, nil
	}
	if _, err := s.decodeInto(name, &rec); err != nil {
		return AgentRecord{}, err
	}
	return rec, nil
}

// decodeInto overlays the named record onto rec. It reports whether the
// file existed.
func (s *AgentStore) decodeInto(name string, rec *AgentRecord) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read agent config %s: %w", name, err)
	}
	var own AgentRecord
	if err := yaml.Unmarshal(data, &own); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrMalformedConfig, s.path(name), err)
	}
	if err := yaml.Unmarshal(data, rec); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrMalformedConfig, s.path(name), err)
	}
	// A record that names a role but no task type routes by its role.
	if own.Role != "" && own.TaskType == "" {
		rec.TaskType = own.Role
	}
	return true, nil
}

// Save writes name's record, creating the directory if needed.
func (s *AgentStore) Save(name string, rec AgentRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode agent config %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create configs directory: %w", err)
	}
	if err := os.WriteFile(s.path(name), data, 0644); err != nil {
		return fmt.Errorf("write agent config %s: %w", name, err)
	}
	return nil
}

// Names lists every agent with its own record, sorted, excluding the
// default record.
func (s *AgentStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list agent configs: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), AgentConfigSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), AgentConfigSuffix)
		if name == DefaultAgentName || name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
