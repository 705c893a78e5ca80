// Package swarm is the process-lifetime registry of hive agents.
package swarm

import (
	"sync"

	"github.com/ShayCichocki/hive/internal/agent"
)

// Builder constructs agents on first use.
type Builder interface {
	Build(name string, ov agent.Overrides) (*agent.Agent, error)
}

var _ Builder = (*agent.Factory)(nil)

// Swarm maps agent names to agents. Agents are never removed.
// It is safe for concurrent use.
type Swarm struct {
	builder Builder

	// mu protects agents and order. It is held while building so that a
	// name is built at most once.
	mu     sync.Mutex
	agents map[string]*agent.Agent
	order  []string
}

// New creates an empty Swarm.
func New(b Builder) *Swarm {
	return &Swarm{
		builder: b,
		agents:  make(map[string]*agent.Agent),
	}
}

// Register returns the agent called name, building it with the given
// capability if it is not registered yet. An existing agent keeps its
// capability.
func (s *Swarm) Register(name, capability string) (*agent.Agent, error) {
	return s.getOrBuild(name, agent.Overrides{TaskType: capability})
}

// RegisterWith is Register with full overrides.
func (s *Swarm) RegisterWith(name string, ov agent.Overrides) (*agent.Agent, error) {
	return s.getOrBuild(name, ov)
}

// Get returns the agent called name, building it from its stored
// configuration and conversation log if needed.
func (s *Swarm) Get(name string) (*agent.Agent, error) {
	return s.getOrBuild(name, agent.Overrides{})
}

func (s *Swarm) getOrBuild(name string, ov agent.Overrides) (*agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.agents[name]; ok {
		return a, nil
	}
	a, err := s.builder.Build(name, ov)
	if err != nil {
		return nil, err
	}
	s.addLocked(a)
	return a, nil
}

// Lookup returns a registered agent without building one.
func (s *Swarm) Lookup(name string) (*agent.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[name]
	return a, ok
}

// Add registers an externally constructed agent. It returns the agent
// already registered under the same name, if any, and whether a was added.
func (s *Swarm) Add(a *agent.Agent) (*agent.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.agents[a.Name()]; ok {
		return existing, false
	}
	s.addLocked(a)
	return a, true
}

func (s *Swarm) addLocked(a *agent.Agent) {
	s.agents[a.Name()] = a
	s.order = append(s.order, a.Name())
}

// Preload registers every named agent, stopping at the first error.
func (s *Swarm) Preload(names []string) error {
	for _, name := range names {
		if _, err := s.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// List returns agent names in registration order.
func (s *Swarm) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Agents returns agents in registration order.
func (s *Swarm) Agents() []*agent.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*agent.Agent, len(s.order))
	for i, name := range s.order {
		out[i] = s.agents[name]
	}
	return out
}

// Len returns the number of registered agents.
func (s *Swarm) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
