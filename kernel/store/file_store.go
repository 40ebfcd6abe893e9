package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chunga/ict-nodeops/kernel/node"
)

// FileStore keeps node records as JSON files under a root directory, one
// subdirectory per node.
type FileStore struct {
	root string
	mu   sync.RWMutex
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) GetConfig(nodeId string) (*node.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.configPath(nodeId))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("node [%s] not found", nodeId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node config: %w", err)
	}

	cfg := &node.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse node config: %w", err)
	}
	return cfg, nil
}

func (s *FileStore) SaveConfig(cfg node.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Id == "" {
		return fmt.Errorf("node id is required")
	}
	return s.writeJson(s.configPath(cfg.Id), cfg)
}

func (s *FileStore) DeleteConfig(nodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.root, nodeId)); err != nil {
		return fmt.Errorf("failed to delete node [%s]: %w", nodeId, err)
	}
	return nil
}

func (s *FileStore) ListNodes() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(s.configPath(entry.Name())); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

func (s *FileStore) GetStatus(nodeId string) (*NodeStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.statusPath(nodeId))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no status recorded for node [%s]", nodeId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node status: %w", err)
	}

	status := &NodeStatus{}
	if err := json.Unmarshal(data, status); err != nil {
		return nil, fmt.Errorf("failed to parse node status: %w", err)
	}
	return status, nil
}

func (s *FileStore) SaveStatus(status NodeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status.NodeId == "" {
		return fmt.Errorf("node id is required")
	}
	return s.writeJson(s.statusPath(status.NodeId), status)
}

func (s *FileStore) DeleteStatus(nodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.statusPath(nodeId)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete status for node [%s]: %w", nodeId, err)
	}
	return nil
}

func (s *FileStore) configPath(nodeId string) string {
	return filepath.Join(s.root, nodeId, "node.json")
}

func (s *FileStore) statusPath(nodeId string) string {
	return filepath.Join(s.root, nodeId, "status.json")
}

func (s *FileStore) writeJson(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
