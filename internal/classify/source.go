package classify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// MappingSource supplies the mapping used for each classification.
type MappingSource interface {
	Mapping() *Mapping
}

// StaticSource always returns the same mapping.
type StaticSource struct {
	m *Mapping
}

var _ MappingSource = (*StaticSource)(nil)

// NewStaticSource wraps m.
func NewStaticSource(m *Mapping) *StaticSource {
	return &StaticSource{m: m}
}

// Mapping implements MappingSource.
func (s *StaticSource) Mapping() *Mapping { return s.m }

// WatchedSource caches a mapping file and reloads it when the file changes.
// A reload that fails validation keeps the previous mapping.
type WatchedSource struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *Mapping

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	reloads chan struct{}
}

var _ MappingSource = (*WatchedSource)(nil)

// WatchMapping loads path and starts watching it. The initial load must
// succeed. Callers must Close the source.
func WatchMapping(path string, logger *zap.Logger) (*WatchedSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := LoadMapping(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create mapping watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	s := &WatchedSource{
		path:    path,
		logger:  logger,
		current: m,
		watcher: watcher,
		done:    make(chan struct{}),
		reloads: make(chan struct{}, 1),
	}
	s.wg.Add(1)
	go s.watch()
	return s, nil
}

// Mapping implements MappingSource.
func (s *WatchedSource) Mapping() *Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reloaded receives a value after every reload attempt, successful or not.
// Only the latest unread notification is kept.
func (s *WatchedSource) Reloaded() <-chan struct{} {
	return s.reloads
}

// Close stops watching the file.
func (s *WatchedSource) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

func (s *WatchedSource) watch() {
	defer s.wg.Done()
	target := filepath.Clean(s.path)
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("mapping watcher error", zap.Error(err))
		}
	}
}

func (s *WatchedSource) reload() {
	defer func() {
		select {
		case s.reloads <- struct{}{}:
		default:
		}
	}()

	m, err := LoadMapping(s.path)
	if err != nil {
		s.logger.Error("mapping reload failed, keeping previous mapping",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.current = m
	s.mu.Unlock()
	s.logger.Info("mapping reloaded", zap.String("path", s.path), zap.Int("categories", m.Len()))
}
