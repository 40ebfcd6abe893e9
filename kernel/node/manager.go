package node

import (
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Manager is the registry of live nodes, keyed by node id. It enforces one
// Node (and therefore at most one active controller) per id.
type Manager struct {
	nodes cmap.ConcurrentMap[string, *Node]
}

func NewManager() *Manager {
	return &Manager{nodes: cmap.New[*Node]()}
}

func (m *Manager) Add(n *Node) error {
	if !m.nodes.SetIfAbsent(n.Id(), n) {
		return fmt.Errorf("node [%s] is already registered", n.Id())
	}
	return nil
}

func (m *Manager) Get(id string) (*Node, bool) {
	return m.nodes.Get(id)
}

func (m *Manager) Remove(id string) {
	m.nodes.Remove(id)
}

func (m *Manager) Ids() []string {
	return m.nodes.Keys()
}

func (m *Manager) Each(f func(n *Node)) {
	for item := range m.nodes.IterBuffered() {
		f(item.Val)
	}
}
