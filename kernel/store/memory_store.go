package store

import (
	"fmt"
	"sync"

	"github.com/chunga/ict-nodeops/kernel/node"
)

// MemoryStore is an in-memory implementation of StatusStore for testing.
type MemoryStore struct {
	mu       sync.RWMutex
	configs  map[string]node.Config
	statuses map[string]NodeStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		configs:  make(map[string]node.Config),
		statuses: make(map[string]NodeStatus),
	}
}

func (s *MemoryStore) GetConfig(nodeId string) (*node.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[nodeId]
	if !ok {
		return nil, fmt.Errorf("node [%s] not found", nodeId)
	}
	return &cfg, nil
}

func (s *MemoryStore) SaveConfig(cfg node.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Id == "" {
		return fmt.Errorf("node id is required")
	}
	s.configs[cfg.Id] = cfg
	return nil
}

func (s *MemoryStore) DeleteConfig(nodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.configs, nodeId)
	delete(s.statuses, nodeId)
	return nil
}

func (s *MemoryStore) ListNodes() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.configs))
	for id := range s.configs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) GetStatus(nodeId string) (*NodeStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[nodeId]
	if !ok {
		return nil, fmt.Errorf("no status recorded for node [%s]", nodeId)
	}
	return &status, nil
}

func (s *MemoryStore) SaveStatus(status NodeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status.NodeId == "" {
		return fmt.Errorf("node id is required")
	}
	s.statuses[status.NodeId] = status
	return nil
}

func (s *MemoryStore) DeleteStatus(nodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.statuses, nodeId)
	return nil
}
