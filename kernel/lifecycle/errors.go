package lifecycle

import (
	"fmt"

	"github.com/chunga/ict-nodeops/kernel/ec2"
)

// UnexpectedStateError reports an instance state outside {pending, running}
// observed during provisioning, or a held instance unexpectedly pending when a
// launch begins. It is fatal to the current launch attempt; the instance is not
// terminated automatically.
type UnexpectedStateError struct {
	InstanceId string
	State      ec2.InstanceState
}

func (e *UnexpectedStateError) Error() string {
	if e.State == ec2.StatePending {
		return fmt.Sprintf("instance [%s] is in pending state, unclear how to proceed", e.InstanceId)
	}
	return fmt.Sprintf("instance [%s] encountered unexpected state [%s], aborting launch", e.InstanceId, e.State)
}

// RetryExhaustedError reports that the instance stayed pending beyond the
// bounded poll. The instance is left to run its own course; it may still
// converge, and a later launch will re-evaluate it.
type RetryExhaustedError struct {
	InstanceId string
	MaxRetries int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("maximum number of retries [%d] exceeded waiting for instance [%s], aborting launch", e.MaxRetries, e.InstanceId)
}
