// Package prompts loads per-agent system prompts from <dir>/<name>.txt.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSystemPrompt is used for agents without a prompt file.
const DefaultSystemPrompt = "You are a helpful and concise AI assistant."

// Loader reads system prompts from a directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Path returns the prompt file for name.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.dir, name+".txt")
}

// Lookup returns the prompt for name and whether a file was found.
// A missing or blank file is not found.
func (l *Loader) Lookup(name string) (string, bool, error) {
	data, err := os.ReadFile(l.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read prompt %s: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	return text, text != "", nil
}

// Load returns the prompt for name, or DefaultSystemPrompt.
func (l *Loader) Load(name string) (string, error) {
	text, ok, err := l.Lookup(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return DefaultSystemPrompt, nil
	}
	return text, nil
}
