package node

import (
	"fmt"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/metrics"
)

// Config is the persisted configuration record for one agent node. It is a
// value type: runtime session state lives on the controller constructed from
// it, never here.
type Config struct {
	Id          string          `yaml:"id"`
	Credentials ec2.Credentials `yaml:"credentials"`
	Descriptor  ec2.Descriptor  `yaml:",inline"`

	ConnectorType     string             `yaml:"connector"`
	ConnectorSettings connector.Settings `yaml:"connector_settings,omitempty"`

	RemoteDir            string `yaml:"remote_dir,omitempty"`
	RetryIntervalSeconds int    `yaml:"retry_interval_seconds,omitempty"`
	MaxRetries           int    `yaml:"max_retries,omitempty"`

	Metrics metrics.InfluxConfig `yaml:"metrics,omitempty"`
}

func (c Config) Validate() error {
	if c.Id == "" {
		return fmt.Errorf("node id is required")
	}
	if c.Descriptor.ImageId == "" {
		return fmt.Errorf("node [%s]: image id is required", c.Id)
	}
	if c.Descriptor.InstanceType == "" {
		return fmt.Errorf("node [%s]: instance type is required", c.Id)
	}
	if c.Descriptor.KeypairName == "" {
		return fmt.Errorf("node [%s]: keypair name is required", c.Id)
	}
	if c.ConnectorType == "" {
		return fmt.Errorf("node [%s]: connector type is required", c.Id)
	}
	return nil
}

// ConfigLockedError rejects an edit to an identifying field while an instance
// from the current controller is running.
type ConfigLockedError struct {
	Field string
}

func (e *ConfigLockedError) Error() string {
	return fmt.Sprintf("cannot change [%s] while the instance is running", e.Field)
}
