// Package memory persists worker conversation logs.
//
// A log is an ordered list of (task, response) entries keyed by worker name.
// Every save overwrites the stored log in full.
package memory

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ShayCichocki/hive/pkg/models"
)

// Store loads and saves conversation logs.
type Store interface {
	// Load returns the stored log for name, or an empty log if none exists.
	Load(name string) ([]models.ConversationEntry, error)
	// Save replaces the stored log for name.
	Save(name string, log []models.ConversationEntry) error
}

// validName guards file and row keys.
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// CheckName returns an error if name cannot be used as a log key.
func CheckName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid agent name %q", name)
	}
	return nil
}

// MemStore keeps logs in memory. It is used for ephemeral hives and tests.
type MemStore struct {
	mu   sync.RWMutex
	logs map[string][]models.ConversationEntry
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{logs: make(map[string][]models.ConversationEntry)}
}

// Load implements Store.
func (m *MemStore) Load(name string) ([]models.ConversationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ConversationEntry(nil), m.logs[name]...), nil
}

// Save implements Store.
func (m *MemStore) Save(name string, log []models.ConversationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[name] = append([]models.ConversationEntry(nil), log...)
	return nil
}
