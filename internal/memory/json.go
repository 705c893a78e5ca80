package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/hive/pkg/models"
)

// JSONStore keeps one indented JSON file per worker under a directory.
type JSONStore struct {
	dir string
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore creates a store rooted at dir. The directory is created on
// first save.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

// Path returns the file that holds name's log.
func (s *JSONStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load implements Store.
func (s *JSONStore) Load(name string) ([]models.ConversationEntry, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", name, err)
	}

	var log []models.ConversationEntry
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode log %s: %w", name, err)
	}
	return log, nil
}

// Save implements Store. The file is replaced atomically.
func (s *JSONStore) Save(name string, log []models.ConversationEntry) error {
	if err := CheckName(name); err != nil {
		return err
	}
	if log == nil {
		log = []models.ConversationEntry{}
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write log %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close log %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("replace log %s: %w", name, err)
	}
	return nil
}
