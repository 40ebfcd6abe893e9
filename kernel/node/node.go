package node

import (
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/lifecycle"
	"github.com/chunga/ict-nodeops/kernel/metrics"
	"github.com/pkg/errors"
)

// ClientFactory builds the cloud client a node's controllers talk through.
type ClientFactory func(creds ec2.Credentials) (ec2.Client, error)

// Node is the long-lived facade joining a persisted Config to at most one
// lifecycle controller at a time. Controllers are recreated per activation, so
// configuration edits take effect on the next Launcher call.
type Node struct {
	cfg       Config
	newClient ClientFactory
	active    *lifecycle.Controller
}

func New(cfg Config) *Node {
	return &Node{cfg: cfg, newClient: ec2.NewClient}
}

// WithClientFactory overrides how cloud clients are constructed.
func (n *Node) WithClientFactory(factory ClientFactory) *Node {
	n.newClient = factory
	return n
}

func (n *Node) Id() string {
	return n.cfg.Id
}

func (n *Node) Config() Config {
	return n.cfg
}

// Active returns the controller from the most recent Launcher call, nil if the
// node has never been activated.
func (n *Node) Active() *lifecycle.Controller {
	return n.active
}

// Launcher constructs a fresh lifecycle controller bound to the node's current
// configuration and returns it as the node's launch mechanism.
func (n *Node) Launcher() (*lifecycle.Controller, error) {
	if err := n.cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := n.newClient(n.cfg.Credentials)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build cloud client for node [%s]", n.cfg.Id)
	}

	conn, err := connector.NewConnector(n.cfg.ConnectorType, n.cfg.ConnectorSettings)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build connector for node [%s]", n.cfg.Id)
	}

	controller := lifecycle.NewController(n.cfg.Id, client, n.cfg.Descriptor, conn).
		WithRetry(time.Duration(n.cfg.RetryIntervalSeconds)*time.Second, n.cfg.MaxRetries)

	if n.cfg.Metrics.Enabled() {
		controller.WithObserver(metrics.NewInfluxObserver(n.cfg.Metrics))
	}

	n.active = controller
	return controller, nil
}

// Target returns the connector target for this node.
func (n *Node) Target() connector.Target {
	remoteDir := n.cfg.RemoteDir
	if remoteDir == "" {
		remoteDir = "/opt/nodeops"
	}
	return connector.Target{NodeId: n.cfg.Id, RemoteDir: remoteDir}
}

// Update replaces the node's configuration. Edits to identifying fields are
// rejected while an instance from the current controller is running; other
// fields may change freely and apply on the next activation.
func (n *Node) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if n.active != nil && n.active.InstanceIsRunning() {
		if cfg.Credentials.AccessKey != n.cfg.Credentials.AccessKey {
			return &ConfigLockedError{Field: "access_key"}
		}
		if cfg.Credentials.SecretKey != n.cfg.Credentials.SecretKey {
			return &ConfigLockedError{Field: "secret_key"}
		}
		if cfg.Descriptor.ImageId != n.cfg.Descriptor.ImageId {
			return &ConfigLockedError{Field: "image_id"}
		}
		if cfg.Descriptor.InstanceType != n.cfg.Descriptor.InstanceType {
			return &ConfigLockedError{Field: "instance_type"}
		}
		if cfg.Descriptor.KeypairName != n.cfg.Descriptor.KeypairName {
			return &ConfigLockedError{Field: "keypair_name"}
		}
	}

	n.cfg = cfg
	return nil
}
