package store

import (
	"time"

	"github.com/chunga/ict-nodeops/kernel/node"
)

// NodeStore manages the persistent node configuration records.
type NodeStore interface {
	GetConfig(nodeId string) (*node.Config, error)
	SaveConfig(cfg node.Config) error
	DeleteConfig(nodeId string) error
	ListNodes() ([]string, error)
}

// StatusStore extends NodeStore with last-observed status tracking. Status
// records are observability only; the lifecycle controller never reads them.
type StatusStore interface {
	NodeStore
	GetStatus(nodeId string) (*NodeStatus, error)
	SaveStatus(status NodeStatus) error
	DeleteStatus(nodeId string) error
}

// NodeStatus is the last status a command observed for a node.
type NodeStatus struct {
	NodeId     string    `json:"nodeId"`
	InstanceId string    `json:"instanceId,omitempty"`
	State      string    `json:"state"`
	Address    string    `json:"address,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
