package ec2

import "fmt"

// InstanceState is the provider-reported lifecycle state of one instance,
// sourced on demand and never cached beyond a single poll.
type InstanceState string

const (
	StateAbsent       InstanceState = "absent"
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
	StateUnknown      InstanceState = "unknown"
)

// Descriptor identifies one provisioned instance. All fields are fixed at
// controller construction; InstanceId is assigned by the provider, exactly
// once, when Launch succeeds.
type Descriptor struct {
	InstanceId       string `yaml:"instance_id,omitempty"`
	ImageId          string `yaml:"image_id"`
	InstanceType     string `yaml:"instance_type"`
	KeypairName      string `yaml:"keypair_name"`
	SecurityGroup    string `yaml:"security_group,omitempty"`
	AvailabilityZone string `yaml:"availability_zone,omitempty"`
}

// Client is the call surface over the provider's instance API. Each operation
// maps to a single provider call with no retry of its own; retry policy belongs
// to the lifecycle controller.
type Client interface {
	// Launch requests exactly one instance and returns its provider-assigned id.
	Launch(desc Descriptor) (string, error)

	// DescribeState returns the live state of the instance. Unknown ids fail
	// with a *ProviderError.
	DescribeState(instanceId string) (InstanceState, error)

	// DescribePublicAddress returns the instance's public DNS name. It returns
	// empty until the provider has assigned one; empty is not an error.
	DescribePublicAddress(instanceId string) (string, error)

	// Terminate requests termination. Repeated calls on an already-terminated
	// instance do not fail.
	Terminate(instanceId string) error

	ListAvailabilityZones() ([]string, error)
	ListSecurityGroups() ([]string, error)

	// DescribeImage fails if the image id is unknown to the provider. Used only
	// by configuration-time validation.
	DescribeImage(imageId string) error
}

// ProviderError wraps a provider rejection (credentials, quota, validation,
// unknown id). The provider's message is surfaced verbatim.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ec2 %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
